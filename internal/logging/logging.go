// Package logging builds the slog logger from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aicourse/chatwidget/internal/config"
)

// New returns a logger for cfg and a function that releases its output. The closer is never nil.
func New(cfg config.LogConfig) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, noop, fmt.Errorf("invalid log level: %w", err)
	}

	var (
		writer io.Writer
		closer = noop
	)
	switch cfg.Output {
	case "stdout":
		writer = os.Stdout
	case "stderr", "":
		writer = os.Stderr
	case "discard":
		writer = io.Discard
	case "file":
		if cfg.FilePath == "" {
			return nil, noop, fmt.Errorf("log file path is required when output is 'file'")
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = file
		closer = file.Close
	default:
		return nil, noop, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	return NewWithWriter(writer, level, cfg.Format), closer, nil
}

// NewWithWriter builds a text or JSON logger on w. Unknown formats fall back to text.
func NewWithWriter(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format("2006-01-02T15:04:05.000Z07:00"))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}
