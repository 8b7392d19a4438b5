// Package interfaces defines core domain contracts.
//
//nolint:revive // Package name 'interfaces' is intentional for domain layer
package interfaces

import (
	"fmt"
	"os"
)

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs debug-level messages
	Debug(msg string, fields ...Field)

	// Info logs informational messages
	Info(msg string, fields ...Field)

	// Warn logs warning messages
	Warn(msg string, fields ...Field)

	// Error logs error messages
	Error(msg string, fields ...Field)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new Field (convenience function)
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// NoOpLogger is a logger that does nothing (useful for tests)
type NoOpLogger struct{}

// Debug does nothing (no-op implementation)
func (n *NoOpLogger) Debug(_ string, _ ...Field) {}

// Info does nothing (no-op implementation)
func (n *NoOpLogger) Info(_ string, _ ...Field) {}

// Warn does nothing (no-op implementation)
func (n *NoOpLogger) Warn(_ string, _ ...Field) {}

// Error does nothing (no-op implementation)
func (n *NoOpLogger) Error(_ string, _ ...Field) {}

// Verbosity levels for the stderr logger, mapped from the repeated -v
// CLI flag: 0 logs only errors, 1 adds warnings, 2 info, 3 debug.
const (
	LevelError = 0
	LevelWarn  = 1
	LevelInfo  = 2
	LevelDebug = 3
)

// StderrLogger writes leveled, field-formatted lines to stderr,
// dropping everything above its configured verbosity.
type StderrLogger struct {
	Verbosity int
}

// Debug logs debug-level messages to stderr
func (s *StderrLogger) Debug(msg string, fields ...Field) {
	s.log(LevelDebug, "DEBUG", msg, fields)
}

// Info logs informational messages to stderr
func (s *StderrLogger) Info(msg string, fields ...Field) {
	s.log(LevelInfo, "INFO", msg, fields)
}

// Warn logs warning messages to stderr
func (s *StderrLogger) Warn(msg string, fields ...Field) {
	s.log(LevelWarn, "WARN", msg, fields)
}

// Error logs error messages to stderr
func (s *StderrLogger) Error(msg string, fields ...Field) {
	s.log(LevelError, "ERROR", msg, fields)
}

func (s *StderrLogger) log(level int, tag, msg string, fields []Field) {
	if level > s.Verbosity {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %s", tag, msg)
	for _, f := range fields {
		fmt.Fprintf(os.Stderr, " %s=%v", f.Key, f.Value)
	}
	fmt.Fprintln(os.Stderr)
}
