// Package logging provides the diagnostic log shared by the adapter and its
// workers. It is built on log/slog; every entry carries a subsystem
// attribute, and a disabled Log drops everything without formatting it.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LogLevel defines the severity of a log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Log is a subsystem scoped logger. The zero value and nil are disabled.
type Log struct {
	logger    *slog.Logger
	subsystem string
}

// New returns an enabled log writing text entries to w.
func New(subsystem string, w io.Writer, level LogLevel) *Log {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.SlogLevel()})
	return &Log{
		logger:    slog.New(handler),
		subsystem: subsystem,
	}
}

// Disabled returns a log that drops every entry.
func Disabled() *Log {
	return &Log{}
}

// Enabled reports whether diagnostics are on. Callers use it to skip building
// expensive messages and to decide whether workers report their errors.
func (l *Log) Enabled() bool {
	return l != nil && l.logger != nil
}

// With returns a log for another subsystem sharing the same output.
func (l *Log) With(subsystem string) *Log {
	if !l.Enabled() {
		return Disabled()
	}
	return &Log{logger: l.logger, subsystem: subsystem}
}

func (l *Log) Debug(format string, args ...any) {
	l.log(LevelDebug, nil, format, args...)
}

func (l *Log) Info(format string, args ...any) {
	l.log(LevelInfo, nil, format, args...)
}

func (l *Log) Warn(format string, args ...any) {
	l.log(LevelWarn, nil, format, args...)
}

func (l *Log) Error(err error, format string, args ...any) {
	l.log(LevelError, err, format, args...)
}

func (l *Log) log(level LogLevel, err error, format string, args ...any) {
	if !l.Enabled() {
		return
	}
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level.SlogLevel()) {
		return
	}

	attrs := []slog.Attr{slog.String("subsystem", l.subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.logger.LogAttrs(ctx, level.SlogLevel(), fmt.Sprintf(format, args...), attrs...)
}
