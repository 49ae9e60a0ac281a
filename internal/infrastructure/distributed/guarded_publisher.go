package distributed

import (
	"context"

	"srtalert/internal/core/domain"
	"srtalert/internal/core/ports"
	"srtalert/pkg/circuitbreaker"

	"go.uber.org/zap"
)

// GuardedPublisher stops calling an unreachable event sink for a while so
// the poll loop does not pay a publish timeout on every event
type GuardedPublisher struct {
	next    ports.EventPublisher
	breaker *circuitbreaker.CircuitBreaker
}

func NewGuardedPublisher(next ports.EventPublisher, cfg circuitbreaker.Config, logger *zap.SugaredLogger) *GuardedPublisher {
	cb := circuitbreaker.New(cfg)
	cb.OnStateChange(func(from, to circuitbreaker.State) {
		if to == circuitbreaker.StateOpen {
			logger.Warnw("event publishing suspended", "from", from.String(), "retry_in", cfg.Timeout)
			return
		}
		logger.Infow("event publishing state changed", "from", from.String(), "to", to.String())
	})
	return &GuardedPublisher{next: next, breaker: cb}
}

func (g *GuardedPublisher) Publish(ctx context.Context, event *domain.AlertEvent) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.next.Publish(ctx, event)
	})
}

// State returns the breaker state
func (g *GuardedPublisher) State() circuitbreaker.State {
	return g.breaker.GetState()
}
