// Package logging provides a small abstraction over slog so framework code
// depends on a minimal interface while callers can plug any structured
// logger.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Level configures logger verbosity decoupled from slog's numeric levels.
type Level int

const (
	// LevelDebug enables all log output.
	LevelDebug Level = iota
	// LevelInfo is the default operational level.
	LevelInfo
	// LevelWarn restricts output to warnings and errors.
	LevelWarn
	// LevelError restricts output to errors only.
	LevelError
)

// String returns the textual representation of the level.
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

func (l Level) slogLevel() slog.Level {
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

// Logger is the minimal structured logging interface used across the
// framework. Args follow slog's alternating key/value convention.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps a *slog.Logger to satisfy Logger.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter wraps an existing *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger { return &SlogAdapter{Logger: logger} }

// Options configures NewSlogLogger.
type Options struct {
	Level     Level
	Format    string // "json" or "text"
	Output    io.Writer
	AddSource bool
}

// NewSlogLogger builds a Logger backed by a freshly configured slog handler.
func NewSlogLogger(optFns ...func(o *Options)) Logger {
	opts := Options{
		Level:  LevelInfo,
		Format: "json",
		Output: os.Stderr,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level.slogLevel(), AddSource: opts.AddSource}

	var handler slog.Handler
	if opts.Format == "text" {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	return NewSlogAdapter(slog.New(handler))
}

// NoOpLogger discards all log output. It is the default logger so library
// code never needs nil checks.
type NoOpLogger struct{}

// Debug discards the message.
func (NoOpLogger) Debug(string, ...any) {}

// Info discards the message.
func (NoOpLogger) Info(string, ...any) {}

// Warn discards the message.
func (NoOpLogger) Warn(string, ...any) {}

// Error discards the message.
func (NoOpLogger) Error(string, ...any) {}
