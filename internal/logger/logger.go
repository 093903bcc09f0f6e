package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Environment variables read by New.
const (
	EnvLevel = "DEALFLOW_LOG_LEVEL"
	EnvFile  = "DEALFLOW_LOG_FILE"
)

// Level represents a log level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of a log level
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

// ParseLevel parses a log level string
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}

// Logger is a leveled logger. Output is discarded until a file or writer is
// configured so the TUI owns the terminal.
type Logger struct {
	mu     sync.Mutex
	level  Level
	prefix string
	logger *log.Logger
	file   *os.File
}

// Default is the process-wide logger.
var Default *Logger

func init() {
	Default = New()
}

// New creates a logger from DEALFLOW_LOG_LEVEL and DEALFLOW_LOG_FILE.
func New() *Logger {
	l := &Logger{
		level:  LevelInfo,
		logger: log.New(io.Discard, "", log.LstdFlags),
	}

	if levelStr := os.Getenv(EnvLevel); levelStr != "" {
		if level, err := ParseLevel(levelStr); err == nil {
			l.level = level
		}
	}

	if logFile := os.Getenv(EnvFile); logFile != "" {
		_ = l.openFile(logFile)
	}

	return l
}

// Configure applies config-file settings. Environment variables win over
// them, so a value already set through the environment is left alone.
func (l *Logger) Configure(level, file string) error {
	if level != "" && os.Getenv(EnvLevel) == "" {
		lv, err := ParseLevel(level)
		if err != nil {
			return err
		}
		l.SetLevel(lv)
	}
	if file != "" && os.Getenv(EnvFile) == "" {
		return l.openFile(file)
	}
	return nil
}

func (l *Logger) openFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
	}
	l.file = f
	l.logger.SetOutput(f)
	return nil
}

// Close closes the logger and any open file handles
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.logger.SetOutput(io.Discard)
		return err
	}
	return nil
}

// SetLevel sets the log level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the current log level.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetOutput sets the output writer. A nil writer discards output.
func (l *Logger) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.SetOutput(w)
}

// Named returns a logger sharing l's output that tags every line with
// component.
func (l *Logger) Named(component string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		level:  l.level,
		prefix: component,
		logger: l.logger,
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...any) {
	l.log(LevelDebug, format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...any) {
	l.log(LevelInfo, format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...any) {
	l.log(LevelWarn, format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...any) {
	l.log(LevelError, format, v...)
}

func (l *Logger) log(level Level, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	msg := fmt.Sprintf(format, v...)
	if l.prefix != "" {
		l.logger.Printf("[%s] %s: %s", level, l.prefix, msg)
		return
	}
	l.logger.Printf("[%s] %s", level, msg)
}

// Package-level functions that use the default logger

// Debug logs a debug message using the default logger
func Debug(format string, v ...any) {
	Default.Debug(format, v...)
}

// Info logs an info message using the default logger
func Info(format string, v ...any) {
	Default.Info(format, v...)
}

// Warn logs a warning message using the default logger
func Warn(format string, v ...any) {
	Default.Warn(format, v...)
}

// Error logs an error message using the default logger
func Error(format string, v ...any) {
	Default.Error(format, v...)
}

// Configure applies config-file settings to the default logger.
func Configure(level, file string) error {
	return Default.Configure(level, file)
}

// Close closes the default logger
func Close() error {
	return Default.Close()
}
