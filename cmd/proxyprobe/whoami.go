package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/August26/proxyprobe/internal/checker"
	"github.com/August26/proxyprobe/internal/model"
	"github.com/August26/proxyprobe/internal/monitor"
	"github.com/August26/proxyprobe/internal/output"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the exit IP of this machine, optionally watching for changes",
	Long: `Query the geolocation oracle directly, without a proxy, and print the exit
IP, ASN and location. With --watch the lookup repeats every --interval and
each line reports whether the IP changed; stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		client := checker.New(
			stringOption(cmd, "oracle", cfg.OracleURL),
			durationOption(cmd, "timeout", cfg.TimeoutDuration()),
			log,
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if watch, _ := cmd.Flags().GetBool("watch"); !watch {
			o := client.Lookup(ctx)
			if !o.OK() {
				return fmt.Errorf("lookup failed: %s", o.Reason)
			}
			printIdentity(out, o)
			return nil
		}

		m := &monitor.Monitor{Interval: durationOption(cmd, "interval", cfg.MonitorInterval())}
		log.Info("watching exit ip", "interval", m.Interval.String())

		err := m.Run(ctx, client.Lookup, func(s monitor.Sample) {
			ts := s.At.Format("15:04:05")
			if !s.Outcome.OK() {
				fmt.Fprintf(out, "%s  error: %s\n", ts, s.Outcome.Reason)
				return
			}
			mark := " "
			if s.Changed {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %s %-15s  %s  %s  (changes: %d, unique: %d)\n",
				ts, mark, s.Outcome.IP, s.Outcome.ASN, output.Location(s.Outcome), s.Changes, s.Unique)
		})
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func printIdentity(w io.Writer, o model.Outcome) {
	fmt.Fprintf(w, "IP:        %s\n", o.IP)
	fmt.Fprintf(w, "ASN:       %s\n", o.ASN)
	fmt.Fprintf(w, "ISP:       %s\n", o.ISP)
	fmt.Fprintf(w, "Location:  %s\n", output.Location(o))
	fmt.Fprintf(w, "Timezone:  %s\n", o.Timezone)
	fmt.Fprintf(w, "Exit:      %s\n", o.ExitKind)
	fmt.Fprintf(w, "Latency:   %d ms\n", o.LatencyMs)
}

func init() {
	whoamiCmd.Flags().Bool("watch", false, "keep polling and report ip changes")
	whoamiCmd.Flags().Duration("interval", monitor.DefaultInterval, "polling interval for --watch")
	whoamiCmd.Flags().Duration("timeout", checker.DefaultTimeout, "timeout for each lookup")
	whoamiCmd.Flags().String("oracle", checker.DefaultOracleURL, "geolocation endpoint")
	rootCmd.AddCommand(whoamiCmd)
}
