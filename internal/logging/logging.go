// Package logging builds the diagnostic log stream shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// SourceField names the component that emitted a log line
const SourceField = "src"

// New creates a logger writing to out at the given level. A human readable
// console writer is used unless json is set.
func New(out io.Writer, level string, json bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if !json {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// Open returns a logger for the configured destination: JSON lines appended
// to logFile when set, the console on stderr otherwise. The returned close
// function releases the file.
func Open(logFile, level string) (zerolog.Logger, func() error, error) {
	if logFile == "" {
		logger, err := New(os.Stderr, level, false)
		return logger, func() error { return nil }, err
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger, err := New(f, level, true)
	if err != nil {
		f.Close()
		return zerolog.Nop(), nil, err
	}
	return logger, f.Close, nil
}

// For returns a child logger tagged with the emitting component
func For(logger zerolog.Logger, source string) zerolog.Logger {
	return logger.With().Str(SourceField, source).Logger()
}
