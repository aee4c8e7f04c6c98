// Package logging builds the structured loggers used across the framework.
//
// It is a thin layer over log/slog: New picks a JSON or text handler at the
// configured level, NewNope discards everything and is the default for
// components that were not given a logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string

	// Format is "json" (default) or "text".
	Format string

	// Output defaults to os.Stdout.
	Output io.Writer
}

// New creates a logger writing to opts.Output.
//
//	log := logging.New(logging.Options{Level: "debug", Format: "text"})
//	log.Info("application booted", slog.String("env", "local"))
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	ho := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var h slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		h = slog.NewTextHandler(out, ho)
	} else {
		h = slog.NewJSONHandler(out, ho)
	}
	return slog.New(h)
}

// NewNope creates a no-op logger that discards all output.
// Use this as a default when logging is not configured.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
