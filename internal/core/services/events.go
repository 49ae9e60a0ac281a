package services

import (
	"context"
	"time"

	"srtalert/internal/core/domain"
	"srtalert/internal/core/ports"

	"go.uber.org/zap"
)

const eventPublishTimeout = time.Second

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *domain.AlertEvent) error { return nil }

// publishEvents forwards events best-effort; failures are only logged.
func publishEvents(ctx context.Context, pub ports.EventPublisher, logger *zap.SugaredLogger, events []*domain.AlertEvent) {
	for _, ev := range events {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
		if err := pub.Publish(pctx, ev); err != nil {
			logger.Debugw("failed to publish alert event", "type", ev.Type, "error", err)
		}
		cancel()
	}
}

type nopMetrics struct{}

func (nopMetrics) ObserveSample(domain.Sample)              {}
func (nopMetrics) ObserveFetchDuration(time.Duration, bool) {}
func (nopMetrics) SetConnectionUp(string, bool)             {}
func (nopMetrics) IncReconnectAttempt(string)               {}
func (nopMetrics) IncWarningRaised()                        {}
func (nopMetrics) IncWarningSuppressed()                    {}
func (nopMetrics) SetWarningActive(bool)                    {}
func (nopMetrics) SetGracePhase(string)                     {}
func (nopMetrics) IncOverlayError(string)                   {}

// NopMetrics returns an AlertMetrics that records nothing
func NopMetrics() ports.AlertMetrics { return nopMetrics{} }
