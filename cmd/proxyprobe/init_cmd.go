package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/August26/proxyprobe/internal/config"
)

var (
	initForce bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default proxyprobe.yaml",
	Long: `Creates a configuration file with the default concurrency, timeout, oracle,
output, logging, monitor and generator settings. Flags passed to other
commands still override it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := filepath.Join(initDir, "proxyprobe.yaml")

		// Check if config already exists
		if _, err := os.Stat(configPath); err == nil && !initForce {
			return fmt.Errorf("config file already exists at %s. Use --force to overwrite", configPath)
		}

		if err := config.WriteDefault(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		// Make sure what we wrote loads back
		if _, err := config.Load(configPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s with default configuration\n", configPath)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "directory to write the config into")
	rootCmd.AddCommand(initCmd)
}
