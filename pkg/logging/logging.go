// Package logging configures colored structured logging with tint, plus an
// optional JSON log file.
//
// Usage:
//
//	logger, closeFn, err := logging.Setup(logging.Options{Level: "info"})
//
// Environment variables:
//
//	LOG_LEVEL: debug, info, warn, error (overrides Options.Level)
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Options configures Setup.
type Options struct {
	// Level is debug, info, warn or error. Default: info
	Level string

	// Verbose forces debug level.
	Verbose bool

	// File, when set, receives JSON logs in addition to the console.
	File string

	// Console defaults to os.Stderr.
	Console io.Writer

	// NoColor disables ANSI colors on the console.
	NoColor bool
}

// Setup builds the logger, installs it as the slog default and returns a
// function that closes the log file.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	level := ParseLevel(opts.Level)
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = ParseLevel(env)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var handler slog.Handler = tint.NewHandler(console, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  level == slog.LevelDebug,
		NoColor:    opts.NoColor,
	})

	closeFn := func() error { return nil }

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		handler = fanout{handler, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})}
		closeFn = f.Close
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closeFn, nil
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// fanout sends every record to all handlers that accept its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
