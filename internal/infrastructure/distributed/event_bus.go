package distributed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"srtalert/internal/core/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "srtalert:events"

// publisher is the subset of *redis.Client used by the bus
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// EventBus publishes alert events to a Redis channel so dashboards and
// chat bots can follow the monitor without polling it
type EventBus struct {
	client     publisher
	instanceID string
	channel    string
	logger     *zap.SugaredLogger
}

// NewEventBus creates a new event bus
func NewEventBus(
	client publisher,
	instanceID string,
	channel string,
	logger *zap.SugaredLogger,
) *EventBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &EventBus{
		client:     client,
		instanceID: instanceID,
		channel:    channel,
		logger:     logger,
	}
}

// Publish implements ports.EventPublisher
func (eb *EventBus) Publish(ctx context.Context, event *domain.AlertEvent) error {
	event.InstanceID = eb.instanceID
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := eb.client.Publish(ctx, eb.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	eb.logger.Debugw("published event",
		"type", event.Type,
		"channel", eb.channel,
	)

	return nil
}

// InstanceID returns the id stamped on every published event
func (eb *EventBus) InstanceID() string {
	return eb.instanceID
}
