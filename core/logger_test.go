package core

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(format string, debug bool) (*ProductionLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := &ProductionLogger{
		level:       "info",
		debug:       debug,
		serviceName: "test-bot",
		component:   "framework",
		format:      format,
		output:      buf,
	}
	return logger, buf
}

func TestProductionLoggerJSONFormat(t *testing.T) {
	logger, buf := newBufferLogger("json", false)

	logger.Info("Command scheduled", map[string]interface{}{
		"command":   "DriveForward",
		"operation": "schedule",
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "test-bot", entry["service"])
	assert.Equal(t, "framework", entry["component"])
	assert.Equal(t, "Command scheduled", entry["message"])
	assert.Equal(t, "DriveForward", entry["command"])
}

func TestProductionLoggerTextFormat(t *testing.T) {
	logger, buf := newBufferLogger("text", false)

	logger.Warn("Loop overrun", map[string]interface{}{"elapsed_ms": 25.0})

	out := buf.String()
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "[test-bot]")
	assert.Contains(t, out, "Loop overrun")
	assert.Contains(t, out, "elapsed_ms=25")
}

func TestProductionLoggerDebugGate(t *testing.T) {
	logger, buf := newBufferLogger("json", false)
	logger.Debug("hidden", nil)
	assert.Zero(t, buf.Len())

	debugLogger, debugBuf := newBufferLogger("json", true)
	debugLogger.Debug("visible", nil)
	assert.NotZero(t, debugBuf.Len())
}

func TestWithComponentStampsEntries(t *testing.T) {
	logger, buf := newBufferLogger("json", false)

	scoped := logger.WithComponent("framework/command")
	scoped.Info("scoped entry", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "framework/command", entry["component"])

	// The parent keeps its own component.
	buf.Reset()
	logger.Info("parent entry", nil)
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "framework", entry["component"])
}

func TestNewProductionLoggerOutputSelection(t *testing.T) {
	logger := NewProductionLogger(
		LoggingConfig{Level: "debug", Format: "json", Output: "stderr"},
		DevelopmentConfig{},
		"bot",
	)
	prod, ok := logger.(*ProductionLogger)
	require.True(t, ok)
	assert.True(t, prod.debug)
}

func TestNoOpLoggerDoesNothing(t *testing.T) {
	var logger Logger = &NoOpLogger{}
	logger.Info("ignored", nil)
	logger.Warn("ignored", nil)
	logger.Error("ignored", nil)
	logger.Debug("ignored", nil)
}

func TestRobotStateDefaultAndOverride(t *testing.T) {
	t.Cleanup(func() { SetRobotState(nil) })

	assert.False(t, GetRobotState().IsDisabled())

	SetRobotState(RobotStateFunc(func() bool { return true }))
	assert.True(t, GetRobotState().IsDisabled())

	SetRobotState(nil)
	assert.False(t, GetRobotState().IsDisabled())
}

func TestLogEntryEndsWithNewline(t *testing.T) {
	logger, buf := newBufferLogger("json", false)
	logger.Error("boom", nil)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}
