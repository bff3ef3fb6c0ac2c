// Package observability provides slog based logging.
package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions configures NewLogger.
type LogOptions struct {
	Level  string
	Format string
	// File enables a rotated log file in addition to Stdout.
	File      string
	MaxSizeMB int
	MaxFiles  int
	Stdout    io.Writer
}

// SlogLogger adapts slog to the Logger interface.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps an existing slog.Logger.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

// NewDiscardLogger returns a logger that drops everything.
func NewDiscardLogger() *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

// NewLogger builds a JSON (or text) slog logger writing to stdout and,
// when configured, a size-rotated file. The returned closer releases the file.
func NewLogger(opts LogOptions) (*SlogLogger, io.Closer, error) {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotating, err := NewRotatingWriter(opts.File, opts.MaxSizeMB, opts.MaxFiles)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(out, rotating)
		closer = rotating
	}
	handlerOpts := &slog.HandlerOptions{Level: LevelFromString(opts.Level)}
	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}
	return NewSlogLogger(slog.New(handler)), closer, nil
}

// NewRotatingWriter returns a lumberjack writer with sane defaults.
func NewRotatingWriter(file string, maxSizeMB, maxFiles int) (*lumberjack.Logger, error) {
	if file == "" {
		return nil, errors.New("rotation file path must not be empty")
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if maxFiles <= 0 {
		maxFiles = 5
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSizeMB,
		MaxBackups: maxFiles,
	}, nil
}

// LevelFromString maps debug, info, warn and error to slog levels.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Info logs an info message.
func (s *SlogLogger) Info(msg string, fields map[string]any) {
	s.log(slog.LevelInfo, msg, fields)
}

// Error logs an error message.
func (s *SlogLogger) Error(msg string, fields map[string]any) {
	s.log(slog.LevelError, msg, fields)
}

func (s *SlogLogger) log(level slog.Level, msg string, fields map[string]any) {
	if s == nil || s.l == nil {
		return
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, slog.Any(key, fields[key]))
	}
	s.l.LogAttrs(context.Background(), level, msg, attrs...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
