// Package obslog provides the structured logger used across the indexing
// pipeline: a thin wrapper over log/slog with a service tag, a text/JSON
// switch, and level filtering, plus a small set of Prometheus counters for
// build-time metrics.
package obslog

import (
	"log/slog"
	"os"
)

// Level mirrors slog's severity ordering with a package-local type so
// callers don't need to import log/slog just to configure a Logger.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) toSlog() slog.Level {
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

// Config configures a Logger. A zero-value Config logs Debug+ to stderr as
// text (the zero Level is LevelDebug).
type Config struct {
	Level   Level
	Service string
	JSON    bool
	Quiet   bool
}

// Logger wraps slog.Logger with a service tag applied to every record.
type Logger struct {
	slog *slog.Logger
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level.toSlog()}

	var handler slog.Handler
	if cfg.Quiet {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1})
	} else if cfg.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	if cfg.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", cfg.Service)})
	}

	return &Logger{slog: slog.New(handler)}
}

// Default returns an Info-level text logger tagged "codeindex".
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "codeindex"})
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a child Logger carrying additional attributes on every
// subsequent record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

// Slog exposes the underlying slog.Logger for callers that need direct
// access (LogAttrs, custom records).
func (l *Logger) Slog() *slog.Logger { return l.slog }
