package logging

import (
	"log/slog"
	"os"
)

var level = new(slog.LevelVar)

// basic global logger, JSON to stderr.
var logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

func Logger() *slog.Logger {
	return logger
}

// SetLevel adjusts the minimum level of the global logger.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return logger.With(kv...)
}
