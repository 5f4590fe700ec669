// Package logging provides structured logging for Waveform Core.
//
// It wraps log/slog so every component logs with the same handler,
// level and default fields (service, version).
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("ingest complete", "run_id", id, "pairs", n)
//
// Database passwords and broker credentials must never be logged.
package logging
