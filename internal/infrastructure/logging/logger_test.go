package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/nerrad567/waveform-core/internal/infrastructure/config"
)

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"json", "text", ""} {
		t.Run("format="+format, func(t *testing.T) {
			logger := New(config.LoggingConfig{Level: "info", Format: format, Output: "discard"}, "1.0.0")
			if logger == nil {
				t.Fatal("expected non-nil logger")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{name: "debug level", input: "debug", expected: slog.LevelDebug},
		{name: "info level", input: "info", expected: slog.LevelInfo},
		{name: "warn level", input: "warn", expected: slog.LevelWarn},
		{name: "warning level", input: "warning", expected: slog.LevelWarn},
		{name: "error level", input: "error", expected: slog.LevelError},
		{name: "unknown defaults to info", input: "unknown", expected: slog.LevelInfo},
		{name: "empty defaults to info", input: "", expected: slog.LevelInfo},
		{name: "case insensitive", input: "DEBUG", expected: slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLogger_OutputContainsDefaultFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, "test", &buf)

	logger.Info("ingest complete", "pairs", 10)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}
	if entry["service"] != ServiceName {
		t.Errorf("service = %v, want %s", entry["service"], ServiceName)
	}
	if entry["version"] != "test" {
		t.Errorf("version = %v, want test", entry["version"])
	}
	if entry["msg"] != "ingest complete" {
		t.Errorf("msg = %v, want 'ingest complete'", entry["msg"])
	}
	if entry["pairs"] != float64(10) {
		t.Errorf("pairs = %v, want 10", entry["pairs"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "text"}, "test", &buf)

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn entry should be written at warn level")
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Format: "json"}, "test", &buf)

	child := logger.With("component", "ingest")
	if child == logger {
		t.Fatal("expected child logger to be different from parent")
	}
	child.Info("hello")

	if !strings.Contains(buf.String(), `"component":"ingest"`) {
		t.Errorf("output %q missing component attribute", buf.String())
	}
}

func TestDefaultAndDiscard(t *testing.T) {
	if Default() == nil {
		t.Fatal("expected non-nil default logger")
	}
	if Discard() == nil {
		t.Fatal("expected non-nil discard logger")
	}
}
