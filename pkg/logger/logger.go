// Package logger provides logging implementations for chunklab
package logger

import (
	"io"
	"os"
	"sort"

	charmlog "github.com/charmbracelet/log"

	"github.com/chunklab/chunklab/pkg/interfaces"
)

// Config controls logger construction
type Config struct {
	Level      string
	Output     io.Writer
	JSON       bool
	TimeFormat string
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Output:     os.Stderr,
		JSON:       false,
		TimeFormat: "15:04:05",
	}
}

// CharmLogger implements interfaces.Logger on top of charmbracelet/log
type CharmLogger struct {
	backend *charmlog.Logger
}

func parseLevel(level string) charmlog.Level {
	switch level {
	case "debug":
		return charmlog.DebugLevel
	case "info":
		return charmlog.InfoLevel
	case "warn", "warning":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// New creates a logger from config; nil config means defaults
func New(cfg *Config) interfaces.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	backend := charmlog.NewWithOptions(cfg.Output, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           parseLevel(cfg.Level),
	})
	if cfg.JSON {
		backend.SetFormatter(charmlog.JSONFormatter)
	} else {
		backend.SetFormatter(charmlog.TextFormatter)
	}
	return &CharmLogger{backend: backend}
}

// NewConsoleLogger creates a text logger at the given level
func NewConsoleLogger(level string) interfaces.Logger {
	cfg := DefaultConfig()
	cfg.Level = level
	return New(cfg)
}

// NewTestLogger creates a logger for testing, writing to the given writer
func NewTestLogger(w io.Writer) interfaces.Logger {
	return New(&Config{Level: "debug", Output: w})
}

// NewLogger creates a new logger with default settings
func NewLogger() interfaces.Logger {
	return New(nil)
}

// flatten converts field maps into charm keyvals with stable key order
func flatten(fields []map[string]interface{}) []interface{} {
	var keyvals []interface{}
	for _, fieldMap := range fields {
		keys := make([]string, 0, len(fieldMap))
		for k := range fieldMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			keyvals = append(keyvals, k, fieldMap[k])
		}
	}
	return keyvals
}

// Debug logs debug level messages
func (l *CharmLogger) Debug(msg string, fields ...map[string]interface{}) {
	l.backend.Debug(msg, flatten(fields)...)
}

// Info logs info level messages
func (l *CharmLogger) Info(msg string, fields ...map[string]interface{}) {
	l.backend.Info(msg, flatten(fields)...)
}

// Warn logs warning level messages
func (l *CharmLogger) Warn(msg string, fields ...map[string]interface{}) {
	l.backend.Warn(msg, flatten(fields)...)
}

// Error logs error level messages
func (l *CharmLogger) Error(msg string, err error, fields ...map[string]interface{}) {
	keyvals := flatten(fields)
	if err != nil {
		keyvals = append(keyvals, "error", err.Error())
	}
	l.backend.Error(msg, keyvals...)
}

// Fatal logs fatal level messages and exits
func (l *CharmLogger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	l.Error(msg, err, fields...)
	os.Exit(1)
}

// WithFields returns a logger with additional fields
func (l *CharmLogger) WithFields(fields map[string]interface{}) interfaces.Logger {
	return &CharmLogger{backend: l.backend.With(flatten([]map[string]interface{}{fields})...)}
}
