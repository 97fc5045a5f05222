// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     logging
// Description: Structured key-value logging for all Cicero components
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string level to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format selects the output encoding
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Config holds logger configuration
type Config struct {
	Name   string
	Level  Level
	Format Format
	Output io.Writer
}

// Logger is a named, leveled, structured logger
type Logger struct {
	mu     sync.Mutex
	name   string
	level  Level
	format Format
	output io.Writer
	now    func() time.Time
}

var (
	defaultLevel  = LevelInfo
	defaultFormat = FormatText
	defaultsMu    sync.RWMutex
)

// SetDefaults sets level and format for loggers created afterwards via New
func SetDefaults(level Level, format Format) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultLevel = level
	defaultFormat = format
}

// New creates a logger for the named component using the package defaults
func New(name string) *Logger {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return NewWithConfig(Config{
		Name:   name,
		Level:  defaultLevel,
		Format: defaultFormat,
		Output: os.Stdout,
	})
}

// NewWithConfig creates a logger with the specified configuration
func NewWithConfig(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		name:   cfg.Name,
		level:  cfg.Level,
		format: cfg.Format,
		output: out,
		now:    time.Now,
	}
}

// WithLevel returns a copy of the logger with the specified minimum level
func (l *Logger) WithLevel(level Level) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		name:   l.name,
		level:  level,
		format: l.format,
		output: l.output,
		now:    l.now,
	}
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LevelDebug, msg, keysAndValues...)
}

// Info logs an info message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LevelInfo, msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LevelWarn, msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LevelError, msg, keysAndValues...)
}

func (l *Logger) log(level Level, msg string, keysAndValues ...interface{}) {
	if level < l.level {
		return
	}

	fields := toFields(keysAndValues...)
	ts := l.now().Format(time.RFC3339)

	var line string
	switch l.format {
	case FormatJSON:
		entry := map[string]interface{}{
			"time":    ts,
			"level":   level.String(),
			"logger":  l.name,
			"message": msg,
		}
		for k, v := range fields {
			entry[k] = v
		}
		data, err := json.Marshal(entry)
		if err != nil {
			// Fall back to a text rendering rather than dropping the entry
			line = fmt.Sprintf("%s %-5s [%s] %s (marshal error: %v)", ts, level.String(), l.name, msg, err)
		} else {
			line = string(data)
		}
	default:
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s %-5s [%s] %s", ts, level.String(), l.name, msg)
		if len(fields) > 0 {
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&sb, " %s=%v", k, fields[k])
			}
		}
		line = sb.String()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.output, line)
}

// toFields converts key-value pairs to a field map, skipping malformed pairs
func toFields(keysAndValues ...interface{}) map[string]interface{} {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(map[string]interface{})
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
