package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/August26/proxyprobe/internal/config"
	"github.com/August26/proxyprobe/internal/logging"
)

var (
	cfgFile string
	verbose bool
	logFile string

	cfg       *config.Config
	log       *slog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "proxyprobe",
	Short: "Check proxy lists against a geolocation oracle",
	Long: `proxyprobe parses proxy lists in the usual formats (URLs with http, https,
socks4 or socks5 schemes, host:port, host:port:user:pass, user:pass@host:port),
sends one request through each proxy to an IP geolocation service and reports
the exit IP, ASN, ISP and location of every working proxy.

It can also generate residential proxy endpoints for GoProxies and Oxylabs and
watch your own exit IP for changes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init must work before any config exists
		if cmd.Name() == "init" {
			cfg = config.DefaultConfig()
		} else {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
		}

		file := logging.FileOptions{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		}
		if logFile != "" {
			file.Path = logFile
		}
		log, logCloser = logging.NewLogger(verbose, file)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: proxyprobe.yaml in ., ./configs or ~/.config/proxyprobe)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logs")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this rotating file")

	rootCmd.Version = "0.1.0"
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// Flags win over config values only when set explicitly.

func intOption(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}

func stringOption(cmd *cobra.Command, name string, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

func boolOption(cmd *cobra.Command, name string, fallback bool) bool {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetBool(name)
		return v
	}
	return fallback
}

func durationOption(cmd *cobra.Command, name string, fallback time.Duration) time.Duration {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetDuration(name)
		return v
	}
	return fallback
}
