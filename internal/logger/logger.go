// Package logger holds the process-wide structured logger.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// L is the global logger instance. It discards all output until Init is
// called.
var L = slog.New(slog.DiscardHandler)

// RunID identifies the current invocation in every log record once Init has
// run.
var RunID string

// Options configures the logger initialization.
type Options struct {
	Console io.Writer  // Human-facing output. Nil disables console logging.
	JSON    bool       // Console records as JSON instead of key=value text
	Level   slog.Level // Minimum console level
	File    string     // Optional log file; always JSON at debug level
}

// Init configures logging and returns a function that releases the log file.
func Init(opts Options) (func() error, error) {
	var handlers []slog.Handler
	closer := func() error { return nil }

	if opts.Console != nil {
		ho := &slog.HandlerOptions{Level: opts.Level}
		if opts.JSON {
			handlers = append(handlers, slog.NewJSONHandler(opts.Console, ho))
		} else {
			handlers = append(handlers, slog.NewTextHandler(opts.Console, ho))
		}
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		closer = f.Close
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	RunID = uuid.NewString()
	switch len(handlers) {
	case 0:
		L = slog.New(slog.DiscardHandler)
	case 1:
		L = slog.New(handlers[0]).With("run_id", RunID)
	default:
		L = slog.New(fanout(handlers)).With("run_id", RunID)
	}
	return closer, nil
}

// fanout sends each record to every handler that accepts its level.
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

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
