// Package log provides structured logging for Picvault operations.
// By default, logging is disabled (null logger) for zero overhead.
// Enable logging by calling SetLogger with a custom implementation.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents the logging level.
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

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Logger is the interface for structured logging.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	WithFields(fields ...Field) Logger
}

// nullLogger is a no-op logger that discards all output.
type nullLogger struct{}

func (n *nullLogger) Debug(msg string, fields ...Field) {}
func (n *nullLogger) Info(msg string, fields ...Field)  {}
func (n *nullLogger) Warn(msg string, fields ...Field)  {}
func (n *nullLogger) Error(msg string, fields ...Field) {}
func (n *nullLogger) WithFields(fields ...Field) Logger { return n }

// writerLogger writes logs to an io.Writer, one line per record.
type writerLogger struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	fields []Field
}

// NewWriterLogger creates a logger that writes to the given writer.
func NewWriterLogger(out io.Writer, level Level) Logger {
	return &writerLogger{out: out, level: level}
}

func (w *writerLogger) log(level Level, msg string, fields ...Field) {
	if level < w.level {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// Format: timestamp level message field1=value1 field2=value2
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(w.out, "%s %s %s", timestamp, level.String(), msg)
	for _, f := range w.fields {
		fmt.Fprintf(w.out, " %s=%v", f.Key, f.Value)
	}
	for _, f := range fields {
		fmt.Fprintf(w.out, " %s=%v", f.Key, f.Value)
	}
	fmt.Fprintln(w.out)
}

func (w *writerLogger) Debug(msg string, fields ...Field) { w.log(LevelDebug, msg, fields...) }
func (w *writerLogger) Info(msg string, fields ...Field)  { w.log(LevelInfo, msg, fields...) }
func (w *writerLogger) Warn(msg string, fields ...Field)  { w.log(LevelWarn, msg, fields...) }
func (w *writerLogger) Error(msg string, fields ...Field) { w.log(LevelError, msg, fields...) }

func (w *writerLogger) WithFields(fields ...Field) Logger {
	merged := make([]Field, len(w.fields)+len(fields))
	copy(merged, w.fields)
	copy(merged[len(w.fields):], fields)
	return &writerLogger{out: w.out, level: w.level, fields: merged}
}

// Package-level logger (null by default for zero overhead)
var (
	defaultLogger Logger = &nullLogger{}
	loggerMu      sync.RWMutex
)

// SetLogger sets the package-level logger.
// Call with nil to disable logging.
func SetLogger(l Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if l == nil {
		defaultLogger = &nullLogger{}
	} else {
		defaultLogger = l
	}
}

// GetLogger returns the current package-level logger.
func GetLogger() Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

// EnableDebugLogging enables debug logging to stderr.
// This is a convenience function for development.
func EnableDebugLogging() {
	SetLogger(NewWriterLogger(os.Stderr, LevelDebug))
}

// Debug logs a debug message through the package-level logger.
func Debug(msg string, fields ...Field) {
	GetLogger().Debug(msg, fields...)
}

// Info logs an info message through the package-level logger.
func Info(msg string, fields ...Field) {
	GetLogger().Info(msg, fields...)
}

// Warn logs a warning message through the package-level logger.
func Warn(msg string, fields ...Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message through the package-level logger.
func Error(msg string, fields ...Field) {
	GetLogger().Error(msg, fields...)
}
