package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a slog.Logger configured from the application environment.
// A non-empty level overrides the environment default.
func New(env, level string) *slog.Logger {
	return NewWithWriter(defaultWriter(), env, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, env, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(env, level),
	})
	return slog.New(handler).With("service", "recall")
}

func defaultWriter() io.Writer {
	return os.Stdout
}

func parseLevel(env, level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	switch env {
	case "production", "staging":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
