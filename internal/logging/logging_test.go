package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_Levels(t *testing.T) {
	log, closer := NewLogger(false, FileOptions{})
	defer closer.Close()
	if log.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug should be off without verbose")
	}

	log, closer = NewLogger(true, FileOptions{})
	defer closer.Close()
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug should be on with verbose")
	}
}

func TestNewLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxyprobe.log")
	log, closer := NewLogger(false, FileOptions{Path: path, MaxSizeMB: 1})
	log.Info("run finished", "completed", 3)
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSpace(string(data))
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("log line is not json: %q", line)
	}
	if rec["msg"] != "run finished" || rec["completed"] != float64(3) {
		t.Fatalf("unexpected record %v", rec)
	}
}
