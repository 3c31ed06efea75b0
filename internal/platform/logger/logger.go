package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the root structured logger. Format is "json" or "text".
func New(level, format string, service string) *slog.Logger {
	return NewWithWriter(os.Stdout, level, format, service)
}

func NewWithWriter(w io.Writer, level, format string, service string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	hostname, _ := os.Hostname()
	return slog.New(handler).With(
		slog.String("service", service),
		slog.String("hostname", hostname),
	)
}

// WithComponent tags every record emitted by the returned logger.
func WithComponent(l *slog.Logger, component string) *slog.Logger {
	if l == nil {
		l = Discard()
	}
	return l.With(slog.String("component", component))
}

// Discard returns a logger that drops everything. Used by tests and as a nil fallback.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

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
