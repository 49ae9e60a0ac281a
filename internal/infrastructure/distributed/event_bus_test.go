package distributed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"srtalert/internal/core/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type publishCall struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	mu    sync.Mutex
	calls []publishCall
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, publishCall{channel: channel, payload: message.([]byte)})
	return redis.NewIntResult(1, f.err)
}

func TestEventBus_Publish(t *testing.T) {
	fake := &fakePublisher{}
	bus := NewEventBus(fake, "instance-1", "", zaptest.NewLogger(t).Sugar())

	bitrate := 800.0
	err := bus.Publish(context.Background(), &domain.AlertEvent{
		Type:        domain.EventWarningRaised,
		Publisher:   "live/feed",
		BitrateKbps: &bitrate,
		Reasons:     []string{"Low bitrate: 800 kbps"},
	})
	require.NoError(t, err)

	require.Len(t, fake.calls, 1)
	assert.Equal(t, DefaultChannel, fake.calls[0].channel)

	var got domain.AlertEvent
	require.NoError(t, json.Unmarshal(fake.calls[0].payload, &got))
	assert.Equal(t, domain.EventWarningRaised, got.Type)
	assert.Equal(t, "instance-1", got.InstanceID)
	assert.False(t, got.Timestamp.IsZero())
	assert.Equal(t, []string{"Low bitrate: 800 kbps"}, got.Reasons)
	require.NotNil(t, got.BitrateKbps)
	assert.Equal(t, 800.0, *got.BitrateKbps)
}

func TestEventBus_KeepsEventTimestamp(t *testing.T) {
	fake := &fakePublisher{}
	bus := NewEventBus(fake, "instance-1", "custom:channel", zaptest.NewLogger(t).Sugar())

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, bus.Publish(context.Background(), &domain.AlertEvent{
		Type:      domain.EventConnectionLost,
		Target:    domain.TargetOBS,
		Timestamp: at,
	}))

	var got domain.AlertEvent
	require.NoError(t, json.Unmarshal(fake.calls[0].payload, &got))
	assert.Equal(t, "custom:channel", fake.calls[0].channel)
	assert.True(t, at.Equal(got.Timestamp))
	assert.Equal(t, domain.TargetOBS, got.Target)
}

func TestEventBus_PublishError(t *testing.T) {
	fake := &fakePublisher{err: errors.New("connection refused")}
	bus := NewEventBus(fake, "instance-1", "", zaptest.NewLogger(t).Sugar())

	err := bus.Publish(context.Background(), &domain.AlertEvent{Type: domain.EventGraceEnded})
	assert.ErrorContains(t, err, "failed to publish event")
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, "127.0.0.1:1", "", 0, 1, zaptest.NewLogger(t).Sugar())
	assert.Error(t, err)
	assert.Nil(t, client)
}
