package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"asvco2cli/internal/config"
)

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	cfg := config.LoggingConfig{
		Level:    "info",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger is nil")
	}
	if GetLogger() != logger {
		t.Error("GetLogger did not return the initialized logger")
	}

	logger.Info("test message", "file", "20210825_120000.txt")
	logger.Debug("filtered")
	CloseLogFile()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var logEntry map[string]interface{}
	if err := json.Unmarshal(content, &logEntry); err != nil {
		t.Fatalf("Log output is not a single JSON record: %v", err)
	}
	if logEntry["msg"] != "test message" {
		t.Errorf("Expected msg='test message', got %v", logEntry["msg"])
	}
	if logEntry["file"] != "20210825_120000.txt" {
		t.Errorf("Expected file attribute, got %v", logEntry["file"])
	}
	if logEntry["level"] != "INFO" {
		t.Errorf("Expected level='INFO', got %v", logEntry["level"])
	}
}

func TestRunIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug").With("component", "pipeline")

	ctx, runID := EnsureRunID(context.Background())
	logger.InfoContext(ctx, "batch started")
	logger.InfoContext(context.Background(), "no run")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(lines))
	}

	var first, second map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if first["run_id"] != runID {
		t.Errorf("Expected run_id=%s, got %v", runID, first["run_id"])
	}
	if first["component"] != "pipeline" {
		t.Errorf("Expected component attribute to survive wrapping, got %v", first["component"])
	}
	if _, ok := second["run_id"]; ok {
		t.Error("run_id must be absent without a run context")
	}
}

func TestEnsureRunID_KeepsExisting(t *testing.T) {
	ctx := WithRunID(context.Background(), "fixed")
	got, id := EnsureRunID(ctx)
	if id != "fixed" || GetRunID(got) != "fixed" {
		t.Errorf("Expected existing run ID to be kept, got %q", id)
	}
	if NewRunID() == NewRunID() {
		t.Error("run IDs must be unique")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"INFO", "INFO"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLogLevel(tt.in).String(); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
