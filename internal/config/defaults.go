package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Concurrency: 10,
		Timeout:     "15s",
		OracleURL:   "http://ip-api.com/json/",
		Output: OutputConfig{
			File:   "",
			Format: "csv",
			Filter: "all",
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Monitor: MonitorConfig{
			Interval: "2s",
		},
		Generator: GeneratorConfig{
			Provider:       "goproxies",
			Country:        "au",
			Sessions:       10,
			SessionMinutes: 10,
		},
	}
}

// WriteDefault writes a default configuration to the specified path
func WriteDefault(path string) error {
	cfg := DefaultConfig()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
