package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nathoo/delve/config"
)

// Setup configures the global slog logger from cfg, writing to w.
func Setup(cfg *config.Config, w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)

	// Set as default logger
	slog.SetDefault(logger)

	return logger
}

// Destination picks where logs go: DELVE_LOG_FILE when set, otherwise
// stderr for the plain CLI. The full-screen UI owns the terminal, so
// without a log file its logs are dropped. The returned close function is
// never nil.
func Destination(cfg *config.Config, plain bool) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, noop, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, noop, fmt.Errorf("opening log file: %w", err)
		}
		return f, f.Close, nil
	}
	if plain {
		return os.Stderr, noop, nil
	}
	return io.Discard, noop, nil
}

// WithPlayer adds the player's name to the logger context.
func WithPlayer(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("player", name)
}
