// Package logger builds the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"strings"

	"ozzus/nsca-agent/internal/lib/logger/slogpretty"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// New returns a logger for env writing to out. level, when not nil, is
// shared with the handler so the level can be changed at runtime; it is
// initialised to the env default.
func New(env string, out io.Writer, level *slog.LevelVar) *slog.Logger {
	if level == nil {
		level = new(slog.LevelVar)
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: Redact,
	}

	switch env {
	case EnvDev:
		level.Set(slog.LevelDebug)
		return slog.New(slog.NewJSONHandler(out, opts))
	case EnvProd:
		level.Set(slog.LevelInfo)
		return slog.New(slog.NewJSONHandler(out, opts))
	default:
		level.Set(slog.LevelDebug)
		pretty := slogpretty.PrettyHandlerOptions{SlogOpts: opts}
		return slog.New(pretty.NewPrettyHandler(out))
	}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
// Anything else reports false.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}
