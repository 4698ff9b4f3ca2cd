// Package logging is a small subsystem-tagged wrapper over log/slog.
//
// Every entry carries a subsystem ("Executor", "Cleanup", "API", ...) so a
// run with several scenarios in parallel can be filtered afterwards.
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//	logging.Info("Runner", "starting %d scenarios", n)
//	logging.Error("API", err, "verify login failed")
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Level is a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
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

// SlogLevel converts to the slog level.
func (l Level) SlogLevel() slog.Level {
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

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

var (
	mu     sync.RWMutex
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
)

// Init installs a text handler writing to w at the given level.
func Init(level Level, w io.Writer) {
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.SlogLevel()}))
	mu.Lock()
	logger = l
	mu.Unlock()
	slog.SetDefault(l)
}

// SetOutputForTests redirects logging to w at debug level and returns a
// restore func.
func SetOutputForTests(w io.Writer) func() {
	mu.Lock()
	prev := logger
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mu.Unlock()
	return func() {
		mu.Lock()
		logger = prev
		mu.Unlock()
	}
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func log(level Level, subsystem string, err error, format string, args []any) {
	l := current()
	if !l.Enabled(context.Background(), level.SlogLevel()) {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	attrs := []any{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.Log(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a formatted message for subsystem at debug level.
func Debug(subsystem, format string, args ...any) {
	log(LevelDebug, subsystem, nil, format, args)
}

// Info logs a formatted message for subsystem at info level.
func Info(subsystem, format string, args ...any) {
	log(LevelInfo, subsystem, nil, format, args)
}

// Warn logs a formatted message for subsystem at warn level.
func Warn(subsystem, format string, args ...any) {
	log(LevelWarn, subsystem, nil, format, args)
}

// WarnErr logs at warn level with an error attribute.
func WarnErr(subsystem string, err error, format string, args ...any) {
	log(LevelWarn, subsystem, err, format, args)
}

// Error logs at error level; err is attached as an attribute when non-nil.
func Error(subsystem string, err error, format string, args ...any) {
	log(LevelError, subsystem, err, format, args)
}
