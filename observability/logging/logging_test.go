package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestSetupEmitsRenamedKeys(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := SetupWriter(&buf, "escrowswap", "test", Options{Level: "debug"})
	logger.Debug("hello", "escrow", "abc")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	for key, want := range map[string]string{
		"message":  "hello",
		"severity": "DEBUG",
		"service":  "escrowswap",
		"env":      "test",
		"escrow":   "abc",
	} {
		if got, _ := line[key].(string); got != want {
			t.Fatalf("%s: got %q want %q", key, got, want)
		}
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatalf("missing timestamp in %v", line)
	}
}

func TestSetupFiltersBelowLevel(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := SetupWriter(&buf, "svc", "", Options{Level: "warn"})
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}

func TestSetupWritesRotatingFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "ledger.log")
	var buf bytes.Buffer
	logger := SetupWriter(&buf, "svc", "", Options{File: path})
	logger.Info("persisted")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !bytes.Contains(data, []byte("persisted")) {
		t.Fatalf("log file missing entry: %q", data)
	}
}
