package services

import (
	"context"
	"sync/atomic"
	"time"

	"srtalert/internal/core/domain"
	"srtalert/internal/core/ports"
	apperrors "srtalert/pkg/errors"
	"srtalert/pkg/retry"

	"go.uber.org/zap"
)

// ConnectionSupervisor keeps the OBS websocket session alive. It is
// Disconnected or Connected; every successful connect starts a new session
// generation.
type ConnectionSupervisor struct {
	client         ports.RemoteConnector
	tracker        *retry.Tracker
	connectTimeout time.Duration
	generation     atomic.Uint64

	metrics ports.AlertMetrics
	events  ports.EventPublisher
	logger  *zap.SugaredLogger
}

// NewConnectionSupervisor creates a supervisor in the Disconnected state
func NewConnectionSupervisor(
	client ports.RemoteConnector,
	backoff retry.Backoff,
	connectTimeout time.Duration,
	logger *zap.SugaredLogger,
) *ConnectionSupervisor {
	return &ConnectionSupervisor{
		client:         client,
		tracker:        retry.NewTracker(backoff),
		connectTimeout: connectTimeout,
		metrics:        NopMetrics(),
		events:         NopPublisher{},
		logger:         logger,
	}
}

// SetMetrics sets the metrics recorder
func (s *ConnectionSupervisor) SetMetrics(m ports.AlertMetrics) {
	s.metrics = m
}

// SetEventPublisher sets the publisher for connection lost/restored events
func (s *ConnectionSupervisor) SetEventPublisher(p ports.EventPublisher) {
	s.events = p
}

// EnsureConnected is a no-op while the session is live. Otherwise it tries
// to connect; on failure it returns the delay to wait before the next
// attempt together with a TRANSIENT_NETWORK error.
func (s *ConnectionSupervisor) EnsureConnected(ctx context.Context) (time.Duration, error) {
	if s.tracker.Connected() {
		if s.client.Connected() {
			return 0, nil
		}
		if s.tracker.MarkLost() {
			s.logger.Errorw("OBS websocket connection lost")
			s.metrics.SetConnectionUp(domain.TargetOBS, false)
			publishEvents(ctx, s.events, s.logger, []*domain.AlertEvent{{
				Type:   domain.EventConnectionLost,
				Target: domain.TargetOBS,
			}})
		}
	}

	cctx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	defer cancel()

	if err := s.client.Connect(cctx); err != nil {
		delay, _ := s.tracker.Failure()
		s.metrics.IncReconnectAttempt(domain.TargetOBS)
		s.logger.Errorw("OBS websocket connection failed",
			"error", err,
			"retry_in", delay,
			"retry_count", s.tracker.RetryCount(),
		)
		return delay, apperrors.NewTransientError(domain.TargetOBS, err)
	}

	s.tracker.Success()
	gen := s.generation.Add(1)
	s.metrics.SetConnectionUp(domain.TargetOBS, true)
	s.logger.Infow("OBS websocket connection successful", "session", gen)
	publishEvents(ctx, s.events, s.logger, []*domain.AlertEvent{{
		Type:   domain.EventConnectionRestored,
		Target: domain.TargetOBS,
	}})
	return 0, nil
}

// Generation returns the current session generation (0 before the first connect)
func (s *ConnectionSupervisor) Generation() uint64 {
	return s.generation.Load()
}

// Status returns the connection state of the OBS track
func (s *ConnectionSupervisor) Status() domain.ConnectionStatus {
	stats := s.tracker.GetStats()
	return domain.ConnectionStatus{Connected: stats.Connected, RetryCount: stats.RetryCount}
}

// RetryCount returns the number of consecutive failed connects
func (s *ConnectionSupervisor) RetryCount() int {
	return s.tracker.RetryCount()
}

// Close closes the underlying session
func (s *ConnectionSupervisor) Close() error {
	s.tracker.MarkLost()
	return s.client.Close()
}
