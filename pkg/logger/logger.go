// Package logger provides leveled, prefixed logging for codesweep. The CLI
// configures one process-wide logger; subsystems derive prefixed children
// from it so every line names the component that wrote it.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// Level orders log severities; a logger emits lines at or above its level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the tag written into log lines
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

// Config holds logger configuration
type Config struct {
	Level     Level
	LogFile   string
	Debug     bool
	Timestamp bool
	Prefix    string
}

// sink serializes writes from every derived logger onto one destination so
// concurrent components interleave whole lines, never bytes
type sink struct {
	mu  sync.Mutex
	out io.Writer
}

func (s *sink) write(line string) {
	if s.out == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, line)
}

// Logger is a leveled, prefixed logger. Loggers derived with WithPrefix
// share their parent's sink.
type Logger struct {
	level     Level
	prefix    string
	debugMode bool
	timestamp bool
	sink      *sink
}

// New creates a logger from configuration. Stdout is skipped under go test
// so command tests keep their output clean; a configured log file is opened
// in append mode, creating its directory as needed.
func New(config Config) (*Logger, error) {
	var outputs []io.Writer
	if !testing.Testing() {
		outputs = append(outputs, os.Stdout)
	}

	if config.LogFile != "" {
		logDir := filepath.Dir(config.LogFile)
		if err := os.MkdirAll(logDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
		// #nosec G304 - the destination comes from the user's own configuration
		file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", config.LogFile, err)
		}
		outputs = append(outputs, file)
	}

	var out io.Writer
	switch len(outputs) {
	case 0:
	case 1:
		out = outputs[0]
	default:
		out = io.MultiWriter(outputs...)
	}

	return &Logger{
		level:     config.Level,
		prefix:    config.Prefix,
		debugMode: config.Debug,
		timestamp: config.Timestamp,
		sink:      &sink{out: out},
	}, nil
}

// NewDefault creates an info-level stdout logger. New cannot fail without a
// log file, so the error is discarded.
func NewDefault() *Logger {
	logger, _ := New(Config{
		Level:     LevelInfo,
		Timestamp: true,
		Prefix:    "codesweep",
	})
	return logger
}

// WithPrefix derives a logger whose lines carry parent:child attribution
// and which writes to the parent's destination
func (l *Logger) WithPrefix(prefix string) *Logger {
	derived := *l
	if l.prefix != "" {
		derived.prefix = l.prefix + ":" + prefix
	} else {
		derived.prefix = prefix
	}
	return &derived
}

// SetLevel changes the minimum level this logger emits
func (l *Logger) SetLevel(level Level) {
	l.level = level
}

// SetDebug toggles debug mode; enabling it drops the level to debug
func (l *Logger) SetDebug(debug bool) {
	l.debugMode = debug
	if debug {
		l.level = LevelDebug
	}
}

// Debug logs at debug level
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs at info level
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn logs at warn level
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs at error level
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	var line strings.Builder
	if l.timestamp {
		line.WriteString(time.Now().Format("2006-01-02 15:04:05"))
		line.WriteByte(' ')
	}
	line.WriteString("[" + level.String() + "]")
	if l.prefix != "" {
		line.WriteString(" [" + l.prefix + "]")
	}
	line.WriteByte(' ')
	fmt.Fprintf(&line, format, args...)
	line.WriteByte('\n')

	l.sink.write(line.String())
}

var (
	globalMu     sync.RWMutex
	globalLogger = NewDefault()
)

// GetLogger returns the process-wide logger. Subsystems derive prefixed
// loggers from it at construction, so configuring the global before
// building them routes every component's output.
func GetLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetGlobalLogger replaces the process-wide logger
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// Debug logs at debug level on the process-wide logger
func Debug(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

// Info logs at info level on the process-wide logger
func Info(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

// Warn logs at warn level on the process-wide logger
func Warn(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

// Error logs at error level on the process-wide logger
func Error(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}

// SetLevel adjusts the process-wide logger's minimum level
func SetLevel(level Level) {
	GetLogger().SetLevel(level)
}

// SetDebug toggles debug mode on the process-wide logger
func SetDebug(debug bool) {
	GetLogger().SetDebug(debug)
}
