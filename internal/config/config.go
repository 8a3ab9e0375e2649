package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Concurrency   int    `mapstructure:"concurrency" yaml:"concurrency"`
	Timeout       string `mapstructure:"timeout" yaml:"timeout"`
	OracleURL     string `mapstructure:"oracle_url" yaml:"oracle_url"`
	AbortInflight bool   `mapstructure:"abort_inflight" yaml:"abort_inflight"`

	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	GeoIP     GeoIPConfig     `mapstructure:"geoip" yaml:"geoip"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Monitor   MonitorConfig   `mapstructure:"monitor" yaml:"monitor"`
	Generator GeneratorConfig `mapstructure:"generator" yaml:"generator"`
}

// OutputConfig controls result export
type OutputConfig struct {
	File   string `mapstructure:"file" yaml:"file"`
	Format string `mapstructure:"format" yaml:"format"`
	Filter string `mapstructure:"filter" yaml:"filter"`
}

// GeoIPConfig points at optional MaxMind databases used to fill gaps in
// oracle responses
type GeoIPConfig struct {
	CityDB string `mapstructure:"city_db" yaml:"city_db"`
	ASNDB  string `mapstructure:"asn_db" yaml:"asn_db"`
}

// LogConfig enables a rotating log file next to stderr
type LogConfig struct {
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// MonitorConfig controls `whoami --watch`
type MonitorConfig struct {
	Interval string `mapstructure:"interval" yaml:"interval"`
}

// GeneratorConfig holds defaults for `generate`. Credentials are better
// passed through PROXYPROBE_GENERATOR_USERNAME / _PASSWORD than written here.
type GeneratorConfig struct {
	Provider       string `mapstructure:"provider" yaml:"provider"`
	Username       string `mapstructure:"username" yaml:"username,omitempty"`
	Password       string `mapstructure:"password" yaml:"password,omitempty"`
	Country        string `mapstructure:"country" yaml:"country"`
	Sessions       int    `mapstructure:"sessions" yaml:"sessions"`
	SessionMinutes int    `mapstructure:"session_minutes" yaml:"session_minutes"`
}

// Load reads configuration from a YAML file, the environment and defaults.
// If path is empty, searches for proxyprobe.yaml in the current directory,
// ./configs and ~/.config/proxyprobe/; a missing file is not an error then.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("PROXYPROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("proxyprobe")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		homeDir, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "proxyprobe"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("oracle_url", d.OracleURL)
	v.SetDefault("abort_inflight", d.AbortInflight)

	v.SetDefault("output.file", d.Output.File)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.filter", d.Output.Filter)

	v.SetDefault("geoip.city_db", d.GeoIP.CityDB)
	v.SetDefault("geoip.asn_db", d.GeoIP.ASNDB)

	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)

	v.SetDefault("monitor.interval", d.Monitor.Interval)

	v.SetDefault("generator.provider", d.Generator.Provider)
	v.SetDefault("generator.username", d.Generator.Username)
	v.SetDefault("generator.password", d.Generator.Password)
	v.SetDefault("generator.country", d.Generator.Country)
	v.SetDefault("generator.sessions", d.Generator.Sessions)
	v.SetDefault("generator.session_minutes", d.Generator.SessionMinutes)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Concurrency <= 0 {
		errs = append(errs, errors.New("concurrency must be positive"))
	}

	if d, err := time.ParseDuration(c.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	} else if d <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}

	if u, err := url.Parse(c.OracleURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("oracle_url %q is not an absolute url", c.OracleURL))
	}

	switch c.Output.Format {
	case "csv", "json":
	default:
		errs = append(errs, fmt.Errorf("output.format must be csv or json, got %q", c.Output.Format))
	}

	switch c.Output.Filter {
	case "all", "ok", "fail", "unique":
	default:
		errs = append(errs, fmt.Errorf("output.filter must be all, ok, fail or unique, got %q", c.Output.Filter))
	}

	if d, err := time.ParseDuration(c.Monitor.Interval); err != nil {
		errs = append(errs, fmt.Errorf("monitor.interval: %w", err))
	} else if d <= 0 {
		errs = append(errs, errors.New("monitor.interval must be positive"))
	}

	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs = append(errs, errors.New("log rotation limits cannot be negative"))
	}

	if c.Generator.Sessions <= 0 {
		errs = append(errs, errors.New("generator.sessions must be positive"))
	}

	if c.Generator.SessionMinutes < 1 || c.Generator.SessionMinutes > 1440 {
		errs = append(errs, errors.New("generator.session_minutes must be between 1 and 1440"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// TimeoutDuration returns the per-probe timeout. Call after Validate.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// MonitorInterval returns the whoami polling interval. Call after Validate.
func (c *Config) MonitorInterval() time.Duration {
	d, _ := time.ParseDuration(c.Monitor.Interval)
	return d
}
