package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/waveform-core/internal/infrastructure/config"
)

// ServiceName is attached to every log entry.
const ServiceName = "waveform"

// Logger wraps slog.Logger with the service's default fields.
//
// All methods are safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from configuration.
//
// Parameters:
//   - cfg: Logging configuration
//   - version: Application version for the default field
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	return NewWithWriter(cfg, version, outputFor(cfg.Output))
}

// NewWithWriter creates a Logger that writes to w regardless of cfg.Output.
// Tests use it to capture entries.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", ServiceName),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

func outputFor(name string) io.Writer {
	switch strings.ToLower(name) {
	case "stderr":
		return os.Stderr
	case "discard":
		return io.Discard
	default:
		return os.Stdout
	}
}

// parseLevel converts a string log level to slog.Level.
// Unrecognised values fall back to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child Logger carrying additional attributes.
//
// Example:
//
//	ingestLog := logger.With("component", "ingest")
//	ingestLog.Info("run started") // includes component=ingest
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns a JSON info-level logger for use before configuration
// has been loaded.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}

// Discard returns a logger that drops every entry.
func Discard() *Logger {
	return NewWithWriter(config.LoggingConfig{}, "test", io.Discard)
}
