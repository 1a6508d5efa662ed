package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a slog logger configured with the provided level and a
// service attribute carried on every record.
func New(level, service string) *slog.Logger {
	lvl := parseLevel(level)
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	l := slog.New(handler)
	if service != "" {
		l = l.With(slog.String("service", service))
	}
	return l
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
