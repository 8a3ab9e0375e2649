package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/August26/proxyprobe/internal/analytics"
	"github.com/August26/proxyprobe/internal/batch"
	"github.com/August26/proxyprobe/internal/checker"
	"github.com/August26/proxyprobe/internal/geoip"
	"github.com/August26/proxyprobe/internal/model"
	"github.com/August26/proxyprobe/internal/output"
	"github.com/August26/proxyprobe/internal/parser"
)

var checkCmd = &cobra.Command{
	Use:   "check [FILE|-]",
	Short: "Probe every proxy in a list",
	Long: `Read a proxy list (one per line, '#' starts a comment) from FILE or stdin
and send one request through each proxy to the geolocation oracle.

Lines that cannot be parsed are kept as bare hosts and flagged in the table.
Ctrl-C stops new probes from starting; probes already running are allowed to
finish unless --abort-inflight is set.

Examples:
  proxyprobe check proxies.txt
  proxyprobe check proxies.txt --concurrency 20 --filter unique -o working.csv
  cat proxies.txt | proxyprobe check - --asn 1221`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}

		entries, err := parser.LoadFromFile(path, log)
		if err != nil {
			return fmt.Errorf("failed to load proxies: %w", err)
		}
		log.Info("proxies loaded", "count", len(entries))

		opts, err := checkOptionsFrom(cmd)
		if err != nil {
			return err
		}
		if asn, _ := cmd.Flags().GetString("asn"); asn != "" {
			entries = parser.ApplyASN(entries, asn)
		}
		return runCheck(cmd, entries, opts)
	},
}

type checkOptions struct {
	concurrency int
	timeout     time.Duration
	oracleURL   string
	preemptive  bool
	progress    bool

	outputFile string
	format     string
	filter     analytics.Filter
	detail     int

	cityDB string
	asnDB  string
}

func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("concurrency", "c", 10, "number of concurrent probes")
	cmd.Flags().Duration("timeout", checker.DefaultTimeout, "timeout for each probe")
	cmd.Flags().String("oracle", checker.DefaultOracleURL, "geolocation endpoint queried through each proxy")
	cmd.Flags().Bool("abort-inflight", false, "abort running probes on Ctrl-C instead of letting them finish")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")
	cmd.Flags().StringP("output", "o", "", "write all results to this file")
	cmd.Flags().String("format", "csv", "output file format: csv | json")
	cmd.Flags().String("filter", "all", "rows to print: all | ok | fail | unique")
	cmd.Flags().Int("detail", 0, "print full details of the Nth proxy")
	cmd.Flags().String("geoip-city", "", "GeoLite2 City database used to fill missing location fields")
	cmd.Flags().String("geoip-asn", "", "GeoLite2 ASN database used to fill missing ASN/ISP fields")
}

func checkOptionsFrom(cmd *cobra.Command) (checkOptions, error) {
	opts := checkOptions{
		concurrency: intOption(cmd, "concurrency", cfg.Concurrency),
		timeout:     durationOption(cmd, "timeout", cfg.TimeoutDuration()),
		oracleURL:   stringOption(cmd, "oracle", cfg.OracleURL),
		preemptive:  boolOption(cmd, "abort-inflight", cfg.AbortInflight),
		progress:    !boolOption(cmd, "no-progress", false),
		outputFile:  stringOption(cmd, "output", cfg.Output.File),
		format:      stringOption(cmd, "format", cfg.Output.Format),
		detail:      intOption(cmd, "detail", 0),
		cityDB:      stringOption(cmd, "geoip-city", cfg.GeoIP.CityDB),
		asnDB:       stringOption(cmd, "geoip-asn", cfg.GeoIP.ASNDB),
	}

	if opts.concurrency <= 0 {
		return opts, fmt.Errorf("--concurrency must be positive, got %d", opts.concurrency)
	}
	if opts.timeout <= 0 {
		return opts, fmt.Errorf("--timeout must be positive, got %s", opts.timeout)
	}
	if opts.format != "csv" && opts.format != "json" {
		return opts, fmt.Errorf("unsupported format: %s", opts.format)
	}

	f, err := analytics.ParseFilter(stringOption(cmd, "filter", cfg.Output.Filter))
	if err != nil {
		return opts, err
	}
	opts.filter = f
	return opts, nil
}

// runCheck probes entries and prints the results. Shared by check and
// generate --check.
func runCheck(cmd *cobra.Command, entries []model.Entry, opts checkOptions) error {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No proxies to check.")
		return nil
	}

	client := checker.New(opts.oracleURL, opts.timeout, log)
	if opts.cityDB != "" || opts.asnDB != "" {
		resolver, err := geoip.Open(opts.cityDB, opts.asnDB)
		if err != nil {
			return err
		}
		defer resolver.Close()
		client.Resolver = resolver
	}

	var sessOpts []batch.Option
	if opts.preemptive {
		sessOpts = append(sessOpts, batch.WithPreemptive())
	}
	sess := batch.NewSession(log, sessOpts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var progress batch.ProgressFunc
	var bar *pb.ProgressBar
	if opts.progress {
		bar = pb.StartNew(len(entries))
		bar.SetTemplate(`{{counters . }} {{bar . }} {{percent . }} {{etime . }}`)
		progress = func(done, total int) { bar.SetCurrent(int64(done)) }
	}

	start := time.Now()
	state, err := sess.Start(ctx, entries, opts.concurrency, client, progress)
	if err != nil {
		if bar != nil {
			bar.Finish()
		}
		return err
	}
	log.Info("starting run",
		"run_id", state.ID(),
		"generation", state.Generation(),
		"total", len(entries),
		"concurrency", opts.concurrency,
		"timeout", opts.timeout.String(),
		"abort_inflight", opts.preemptive,
	)

	<-state.Done()
	elapsed := time.Since(start)
	if bar != nil {
		bar.Finish()
	}

	results := state.Snapshot()
	stats := analytics.Compute(results, elapsed)

	log.Info("batch finished",
		"run_id", state.ID(),
		"total_ms", stats.TotalProcessingTimeMs,
		"ok", stats.Succeeded,
		"failed", stats.Failed,
		"unique_ips", stats.UniqueIPs,
		"total", stats.Total,
	)
	if state.Cancelled() {
		log.Warn("run cancelled, results are partial", "not_tested", stats.Pending)
	}

	output.PrintResultsTable(out, analytics.Apply(results, opts.filter))
	output.PrintSummary(out, stats)

	if opts.detail > 0 {
		if opts.detail > len(results) {
			return fmt.Errorf("--detail %d out of range (1..%d)", opts.detail, len(results))
		}
		fmt.Fprintln(out)
		output.PrintDetail(out, opts.detail-1, results[opts.detail-1])
	}

	if opts.outputFile != "" {
		if err := output.WriteFile(opts.outputFile, opts.format, results, stats); err != nil {
			log.Error("failed to write output file", "err", err, "path", opts.outputFile)
			return err
		}
		log.Info("results written", "path", opts.outputFile, "format", opts.format)
	}

	return nil
}

func init() {
	addCheckFlags(checkCmd)
	checkCmd.Flags().String("asn", "", "inject -asn-N before the -country tag of every provider line")
	rootCmd.AddCommand(checkCmd)
}
