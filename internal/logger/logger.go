// Package logger provides leveled, component-tagged logging on top of the
// standard log package.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level is the severity of a log line.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	SILENT
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "SILENT"}

var levelColors = [...]string{
	"\033[36m", // cyan
	"\033[32m", // green
	"\033[33m", // yellow
	"\033[31m", // red
	"",
}

const resetColor = "\033[0m"

func (l Level) String() string {
	if l < DEBUG || l > SILENT {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel accepts level names case-insensitively. "warning" and "none"
// are aliases for WARN and SILENT.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "info", "":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "silent", "none":
		return SILENT, nil
	}
	return INFO, fmt.Errorf("invalid log level: %s", s)
}

// Logger writes "[LEVEL] [Component] message" lines.
type Logger struct {
	mu       sync.RWMutex
	level    Level
	useColor bool
	out      *log.Logger
	w        io.Writer
}

// New creates a Logger. A nil output writes to stderr.
func New(level Level, output io.Writer, useColor bool) *Logger {
	if output == nil {
		output = os.Stderr
	}
	return &Logger{
		level:    level,
		useColor: useColor,
		out:      log.New(output, "", log.Ldate|log.Ltime|log.Lmicroseconds),
		w:        output,
	}
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *Logger) Level() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// Enabled reports whether lines at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.Level() && level < SILENT
}

// Writer returns the underlying output, for libraries that want an io.Writer.
func (l *Logger) Writer() io.Writer { return l.w }

func (l *Logger) logf(level Level, component, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}

	prefix := "[" + level.String() + "]"
	if l.useColor {
		prefix = levelColors[level] + prefix + resetColor
	}
	if component != "" {
		prefix += " [" + component + "]"
	}
	l.out.Printf("%s %s", prefix, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(component, format string, args ...any) {
	l.logf(DEBUG, component, format, args...)
}

func (l *Logger) Info(component, format string, args ...any) {
	l.logf(INFO, component, format, args...)
}

func (l *Logger) Warn(component, format string, args ...any) {
	l.logf(WARN, component, format, args...)
}

func (l *Logger) Error(component, format string, args ...any) {
	l.logf(ERROR, component, format, args...)
}

var (
	std  = New(INFO, os.Stderr, false)
	once sync.Once
)

// Init replaces the process-wide logger. Only the first call has an effect.
func Init(level Level, output io.Writer, useColor bool) {
	once.Do(func() {
		std = New(level, output, useColor)
	})
}

// Default returns the process-wide logger.
func Default() *Logger { return std }

func SetLevel(level Level) { std.SetLevel(level) }

func Debug(component, format string, args ...any) { std.Debug(component, format, args...) }
func Info(component, format string, args ...any)  { std.Info(component, format, args...) }
func Warn(component, format string, args ...any)  { std.Warn(component, format, args...) }
func Error(component, format string, args ...any) { std.Error(component, format, args...) }
