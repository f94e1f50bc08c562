package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerV2_WritesNamedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetBase(zap.New(core))
	t.Cleanup(func() { SetBase(zap.NewNop()) })

	logger := NewLoggerV2("pricing")
	logger.Info("Breakdown computed", Fields{"order_id": "ord_1", "variant": "excluding_item_tax"})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "pricing", entry.LoggerName)
	assert.Equal(t, "Breakdown computed", entry.Message)
	assert.Equal(t, "ord_1", entry.ContextMap()["order_id"])
	assert.Equal(t, "excluding_item_tax", entry.ContextMap()["variant"])
}

func TestLoggerV2_NoFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetBase(zap.New(core))
	t.Cleanup(func() { SetBase(zap.NewNop()) })

	NewLoggerV2("server").Info("Shutting down server...")
	NewLoggerV2("server").Debug("filtered out")

	require.Equal(t, 1, logs.Len())
	assert.Empty(t, logs.All()[0].Context)
}

func TestLoggerV2_With(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetBase(zap.New(core))
	t.Cleanup(func() { SetBase(zap.NewNop()) })

	bound := NewLoggerV2("handlers").With(Fields{"request_id": "req-1"})
	bound.Warn("slow request", Fields{"latency_ms": 1200})

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", ctx["request_id"])
	assert.EqualValues(t, 1200, ctx["latency_ms"])
}

func TestConfigure_FallsBackToInfo(t *testing.T) {
	require.NoError(t, Configure(Config{Level: "not-a-level", Format: "json"}))
	t.Cleanup(func() { SetBase(zap.NewNop()) })

	assert.False(t, current().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, current().Core().Enabled(zapcore.InfoLevel))
}
