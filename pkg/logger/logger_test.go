package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRunLevels(t *testing.T) {
	l := Run("debug")
	assert.True(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))

	l = Run("nonsense")
	assert.False(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestLogFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := zap.New(core).Sugar().With("request_id", "abc")

	ctx := WithLogger(context.Background(), l)
	Log(ctx).Infow("hello")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "abc", entries[0].ContextMap()["request_id"])
	}

	assert.NotNil(t, Log(context.Background()))
}
