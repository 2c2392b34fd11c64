// Package logger builds the service's slog logger from configuration.
package logger

import (
	"log/slog"
	"os"

	"github.com/zkovac/bunplan/cmd/bunplan/config"
)

// New creates a slog.Logger with the configured level and format.
// Unknown levels fall back to info, unknown formats to text.
func New(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
