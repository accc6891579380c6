package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Logger provides leveled logging to the console and, optionally, to a
// plain-text log file.
type Logger struct {
	mu      sync.Mutex
	console *log.Logger
	errOut  *log.Logger
	file    *log.Logger
	closer  io.Closer
	debug   bool
}

// NewLogger creates a console-only Logger writing to stdout/stderr.
func NewLogger() *Logger {
	return &Logger{
		console: log.New(os.Stdout, "", 0),
		errOut:  log.New(os.Stderr, "", 0),
	}
}

// NewFileLogger creates a Logger that writes to the console and appends to
// the file at path. The parent directory is created if missing.
func NewFileLogger(path string) (*Logger, error) {
	l := NewLogger()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return l, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return l, fmt.Errorf("logger: open %q: %w", path, err)
	}
	l.file = log.New(f, "", 0)
	l.closer = f
	return l, nil
}

// NewWriterLogger sends every level to w without colors. Used by tests.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{
		console: log.New(io.Discard, "", 0),
		errOut:  log.New(io.Discard, "", 0),
		file:    log.New(w, "", 0),
		debug:   true,
	}
}

// SetLevel enables debug output when level is "debug".
func (l *Logger) SetLevel(level string) {
	l.mu.Lock()
	l.debug = strings.EqualFold(level, "debug")
	l.mu.Unlock()
}

// Close releases the file sink, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) emit(out *log.Logger, level, color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	ts := l.timestamp()

	l.mu.Lock()
	defer l.mu.Unlock()
	out.Printf("[%s] \033[%sm%-5s\033[0m %s\n", ts, color, level, msg)
	if l.file != nil {
		l.file.Printf("%s - %s - %s\n", ts, level, msg)
	}
}

func (l *Logger) Info(format string, args ...any) {
	l.emit(l.console, "INFO", "32", format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.emit(l.console, "WARN", "33", format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.emit(l.errOut, "ERROR", "31", format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if !l.debug {
		return
	}
	l.emit(l.console, "DEBUG", "36", format, args...)
}
