package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextLogger_WithContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cl := NewContextLogger(zap.New(core))

	ctx := WithSession(WithCycleID(context.Background(), "abc"), 3)
	cl.WithContext(ctx).Info("tick")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "abc", fields["cycle_id"])
		assert.Equal(t, uint64(3), fields["obs_session"])
	}
}

func TestContextLogger_NoFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)
	cl := NewContextLogger(base)

	assert.Same(t, base, cl.WithContext(context.Background()))
	cl.Sugar(context.Background()).Infow("plain", "k", "v")
	assert.Equal(t, 1, logs.Len())
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l := New("not-a-level", "json")
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))

	dev := New("debug", "console")
	assert.True(t, dev.Core().Enabled(zap.DebugLevel))
}
