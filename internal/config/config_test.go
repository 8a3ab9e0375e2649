package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.TimeoutDuration() != 15*time.Second || cfg.MonitorInterval() != 2*time.Second {
		t.Fatalf("durations %v %v", cfg.TimeoutDuration(), cfg.MonitorInterval())
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Concurrency = 0
	cfg.Timeout = "soon"
	cfg.Output.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"concurrency", "timeout", "output.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestWriteDefaultThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxyprobe.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Concurrency != 10 || cfg.Timeout != "15s" || cfg.Output.Format != "csv" || cfg.Generator.Country != "au" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := "concurrency: 25\ntimeout: 5s\noutput:\n  format: json\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Concurrency != 25 || cfg.TimeoutDuration() != 5*time.Second || cfg.Output.Format != "json" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Output.Filter != "all" || cfg.Monitor.Interval != "2s" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxyprobe.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROXYPROBE_CONCURRENCY", "3")
	t.Setenv("PROXYPROBE_GENERATOR_PASSWORD", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Concurrency != 3 || cfg.Generator.Password != "from-env" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoad_RejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("concurrency: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}
