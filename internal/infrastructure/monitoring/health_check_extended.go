package monitoring

import (
	"context"
	"errors"
	"time"

	"srtalert/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// AddRedisCheck adds a Redis health check
func (h *HealthChecker) AddRedisCheck(client *redis.Client, timeout time.Duration) {
	h.AddCheck("redis", func(ctx context.Context) (bool, error) {
		if err := client.Ping(ctx).Err(); err != nil {
			return false, err
		}
		return true, nil
	}, timeout)
}

// AddConnectionChecks adds one check per monitored dependency
func (h *HealthChecker) AddConnectionChecks(provider ports.StatusProvider, timeout time.Duration) {
	h.AddCheck("obs", func(ctx context.Context) (bool, error) {
		st := provider.Status()
		if !st.OBS.Connected {
			return false, errors.New("obs websocket disconnected")
		}
		return true, nil
	}, timeout)

	h.AddCheck("stats", func(ctx context.Context) (bool, error) {
		st := provider.Status()
		if !st.Stats.Connected {
			return false, errors.New("stats endpoint unreachable")
		}
		return true, nil
	}, timeout)
}
