package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerAdapter_WithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromCore(core)

	log.WithField("component", "dispatcher").
		WithFields(map[string]any{"tool": "page_navigate", "request_id": "abc"}).
		Info("Executing tool", "timeout", "30s")

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "Executing tool", entries[0].Message)
	assert.Equal(t, "dispatcher", ctx["component"])
	assert.Equal(t, "page_navigate", ctx["tool"])
	assert.Equal(t, "abc", ctx["request_id"])
	assert.Equal(t, "30s", ctx["timeout"])
}

func TestLoggerAdapter_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := NewFromCore(core)

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")
	log.Error("shown")

	assert.Equal(t, 2, logs.Len())
}

func TestNewLoggerAdapter_InvalidLevel(t *testing.T) {
	_, err := NewLoggerAdapter(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewLoggerAdapter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "console"

	log, err := NewLoggerAdapter(cfg)
	require.NoError(t, err)
	log.Info("started")
	assert.NoError(t, log.Close())
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.WithField("k", "v").Error("ignored")
	assert.NoError(t, log.Close())
}
