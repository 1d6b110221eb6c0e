// Package logger provides a simple leveled logger for the application.
// It supports three levels: off (no output), normal (info/warn/error),
// and verbose (includes debug). Records are written through log/slog and
// fanned out to every configured sink. The logger is safe for concurrent use.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	slogmulti "github.com/samber/slog-multi"
)

// Level controls the verbosity of the logger.
type Level int

const (
	// LevelOff disables all log output.
	LevelOff Level = iota
	// LevelNormal enables info, warn, and error output.
	LevelNormal
	// LevelVerbose enables all output including debug.
	LevelVerbose
)

// ParseLevel maps "off", "normal" and "verbose" to a Level.
// Anything else is treated as normal.
func ParseLevel(s string) Level {
	switch s {
	case "off", "quiet":
		return LevelOff
	case "verbose", "debug":
		return LevelVerbose
	default:
		return LevelNormal
	}
}

// Option configures the logger.
type Option func(*options)

type options struct {
	format string
	tees   []io.Writer
}

// WithFormat selects the record format: "text" (default) or "json".
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithTee writes every record to w as well as to the primary output.
func WithTee(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.tees = append(o.tees, w)
		}
	}
}

// Logger is a leveled logger. All methods are safe for concurrent use.
type Logger struct {
	level *atomic.Int32
	sl    *slog.Logger
}

// New creates a logger with the given level, writing to the given output.
// If out is nil, os.Stderr is used.
func New(level Level, out io.Writer, opts ...Option) *Logger {
	if out == nil {
		out = os.Stderr
	}

	o := &options{format: "text"}
	for _, opt := range opts {
		opt(o)
	}

	// Level filtering happens in the Logger so SetLevel applies to every sink.
	hopts := &slog.HandlerOptions{Level: slog.LevelDebug}

	handlers := []slog.Handler{newHandler(out, o.format, hopts)}
	for _, w := range o.tees {
		handlers = append(handlers, newHandler(w, o.format, hopts))
	}

	lvl := &atomic.Int32{}
	lvl.Store(int32(level))

	return &Logger{
		level: lvl,
		sl:    slog.New(slogmulti.Fanout(handlers...)),
	}
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// With returns a child logger that adds the given key/value pairs to every
// record. The child shares the parent's level.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{level: l.level, sl: l.sl.With(args...)}
}

// SetLevel changes the log level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// GetLevel returns the current log level.
func (l *Logger) GetLevel() Level {
	return Level(l.level.Load())
}

// Debug logs a message at debug level (only visible in verbose mode).
func (l *Logger) Debug(format string, args ...any) {
	if l.GetLevel() >= LevelVerbose {
		l.log(slog.LevelDebug, format, args...)
	}
}

// Info logs a message at info level.
func (l *Logger) Info(format string, args ...any) {
	if l.GetLevel() >= LevelNormal {
		l.log(slog.LevelInfo, format, args...)
	}
}

// Warn logs a message at warn level.
func (l *Logger) Warn(format string, args ...any) {
	if l.GetLevel() >= LevelNormal {
		l.log(slog.LevelWarn, format, args...)
	}
}

// Error logs a message at error level.
func (l *Logger) Error(format string, args ...any) {
	if l.GetLevel() >= LevelNormal {
		l.log(slog.LevelError, format, args...)
	}
}

func (l *Logger) log(level slog.Level, format string, args ...any) {
	l.sl.Log(context.Background(), level, fmt.Sprintf(format, args...))
}
