// Package debug carries the --debug switch through contexts and configures
// the process-wide slog logger.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const debugKey contextKey = "debug_enabled"

// EnvVar enables debug logging when set to a true value.
const EnvVar = "PRECOG_DEBUG"

// WithDebug returns a context with debug mode enabled/disabled.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, debugKey, enabled)
}

// IsEnabled returns true if debug mode is enabled in the context.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(debugKey).(bool); ok {
		return v
	}
	return false
}

// FromEnv reports whether PRECOG_DEBUG asks for debug logging.
func FromEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvVar))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// SetupLogger installs a text handler on stderr as the default logger:
// debug level when enabled, warnings and above otherwise.
func SetupLogger(debugEnabled bool) *slog.Logger {
	return SetupLoggerTo(os.Stderr, debugEnabled)
}

// SetupLoggerTo is SetupLogger writing to w.
func SetupLoggerTo(w io.Writer, debugEnabled bool) *slog.Logger {
	level := slog.LevelWarn
	if debugEnabled {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
