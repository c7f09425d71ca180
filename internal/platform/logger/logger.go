// Package logger provides structured logging for the application: a
// JSON slog setup driven by configuration, and context helpers so
// request-scoped loggers travel with the context.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Config holds the logger settings.
type Config struct {
	// Level is one of debug, info, warn, error (case-insensitive).
	Level string
}

// Setup creates a JSON logger writing to stdout at the configured level
// and installs it as the process default. Returns an error for an
// unrecognized level rather than silently degrading.
func Setup(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	log := slog.New(handler)
	slog.SetDefault(log)
	return log, nil
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %q", name)
	}
}

// ctxKey is the private context key type for logger values.
type ctxKey struct{}

// WithLogger returns a context carrying the given logger.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext retrieves the logger from the context.
// The second return is false when no logger is attached.
func FromContext(ctx context.Context) (*slog.Logger, bool) {
	log, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	return log, ok
}

// FromContextOrDefault retrieves the context logger, falling back to
// def, and to slog.Default() if def is nil.
func FromContextOrDefault(ctx context.Context, def *slog.Logger) *slog.Logger {
	if log, ok := FromContext(ctx); ok {
		return log
	}
	if def != nil {
		return def
	}
	return slog.Default()
}
