// Package logger builds the application's slog logger from config.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"salesdesk/internal/infra/config"
)

// Option adjusts how New resolves its output.
type Option func(*options)

type options struct {
	reservedPath string
}

// WithTerminalReserved redirects stdout and stderr output to the file at
// path. The chat view owns the terminal while it runs, so records written
// there would tear its frame.
func WithTerminalReserved(path string) Option {
	return func(o *options) { o.reservedPath = path }
}

// New creates a configured *slog.Logger tagged with the application name.
// The returned closer flushes and closes any file the logger opened.
func New(cfg config.LoggerConfig, opts ...Option) (*slog.Logger, func() error, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	target := cfg.Output
	if o.reservedPath != "" && isTerminalStream(target) {
		target = o.reservedPath
	}
	writer, closer, err := openOutput(target)
	if err != nil {
		return nil, nil, fmt.Errorf("open log output %q: %w", target, err)
	}

	handlerOpts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(writer, handlerOpts)
	}
	return slog.New(handler).With("app", "salesdesk"), closer, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

func isTerminalStream(output string) bool {
	switch strings.ToLower(output) {
	case "stdout", "stderr", "":
		return true
	}
	return false
}

// openOutput resolves an output name: stdout, stderr (the default), discard,
// or a file path opened for append.
func openOutput(output string) (io.Writer, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout, noop, nil
	case "stderr", "":
		return os.Stderr, noop, nil
	case "discard", "none":
		return io.Discard, noop, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
