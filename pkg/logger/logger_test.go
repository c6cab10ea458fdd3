package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		logger := NewLogger()
		assert.NotNil(t, logger)
	})

	t.Run("NilConfig", func(t *testing.T) {
		logger := New(nil)
		require.NotNil(t, logger)
		logger.Info("works with defaults")
	})

	t.Run("ConsoleLogger", func(t *testing.T) {
		logger := NewConsoleLogger("debug")
		assert.NotNil(t, logger)
	})
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message", errors.New("boom"))

	output := buf.String()
	assert.Contains(t, output, "debug message")
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
	assert.Contains(t, output, "boom")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "warn", Output: &buf})

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("visible warn")

	output := buf.String()
	assert.NotContains(t, output, "hidden debug")
	assert.NotContains(t, output, "hidden info")
	assert.Contains(t, output, "visible warn")
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "chatty", Output: &buf})

	logger.Debug("hidden debug")
	logger.Info("visible info")

	output := buf.String()
	assert.NotContains(t, output, "hidden debug")
	assert.Contains(t, output, "visible info")
}

func TestFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Info("chunking done", map[string]interface{}{
		"chunks":   4,
		"strategy": "fixed",
	})

	output := buf.String()
	assert.Contains(t, output, "chunks")
	assert.Contains(t, output, "4")
	assert.Contains(t, output, "strategy")
	assert.Contains(t, output, "fixed")
}

func TestFieldOrderStable(t *testing.T) {
	fields := []map[string]interface{}{{
		"zebra": 1,
		"alpha": 2,
		"mango": 3,
	}}

	keyvals := flatten(fields)
	require.Len(t, keyvals, 6)
	assert.Equal(t, "alpha", keyvals[0])
	assert.Equal(t, "mango", keyvals[2])
	assert.Equal(t, "zebra", keyvals[4])
}

func TestErrorWithoutCause(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Error("failed without detail", nil)

	output := buf.String()
	assert.Contains(t, output, "failed without detail")
	assert.NotContains(t, output, "error=")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf).WithFields(map[string]interface{}{
		"component": "chunker",
	})

	logger.Info("started")

	output := buf.String()
	assert.Contains(t, output, "component")
	assert.Contains(t, output, "chunker")
	assert.Contains(t, output, "started")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Output: &buf, JSON: true})

	logger.Info("structured entry", map[string]interface{}{"run": "abc"})

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasPrefix(line, "{"))
	assert.Contains(t, line, `"msg":"structured entry"`)
	assert.Contains(t, line, `"run":"abc"`)
}
