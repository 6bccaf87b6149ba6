package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	prev := L()
	core, logs := observer.New(level)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })
	return logs
}

func TestWithFields(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	ctx := WithFields(context.Background(), "request_id", "abc")
	ctx = WithFields(ctx, "dataset", "CA21")
	Infof(ctx, "fetched %d rows", 3)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "fetched 3 rows", entry.Message)
	assert.Equal(t, map[string]any{"request_id": "abc", "dataset": "CA21"}, entry.ContextMap())
}

func TestLevels(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	ctx := context.Background()
	Debugf(ctx, "hidden")
	Warnf(ctx, "careful")
	Error(ctx, "broken")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)
}

func TestInit(t *testing.T) {
	prev := L()
	t.Cleanup(func() { SetLogger(prev) })

	require.NoError(t, Init(" WARN "))
	assert.False(t, L().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, L().Core().Enabled(zapcore.WarnLevel))

	assert.Error(t, Init("loud"))
}
