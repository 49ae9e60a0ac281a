package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"srtalert/internal/core/domain"
	"srtalert/internal/core/ports"
	apperrors "srtalert/pkg/errors"
	"srtalert/pkg/logger"
	"srtalert/pkg/retry"
	"srtalert/pkg/tracing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const warningTimerKey = "warning"

// MonitorConfig holds the loop parameters
type MonitorConfig struct {
	Policy       AlertPolicy
	PollInterval time.Duration
	Publisher    string
	SourceName   string
	// OverlayTimeout bounds the hide call made from the timer goroutine
	OverlayTimeout time.Duration
}

// MonitorService runs the poll loop: it keeps OBS reachable, fetches one
// sample per tick, feeds it through the alert policy and performs the
// resulting effects.
type MonitorService struct {
	cfg        MonitorConfig
	supervisor *ConnectionSupervisor
	stats      ports.StatsSource
	statsConn  *retry.Tracker
	overlay    ports.Overlay
	scheduler  ports.Scheduler
	clock      ports.Clock

	metrics ports.AlertMetrics
	events  ports.EventPublisher
	log     *logger.ContextLogger

	// opMu serializes evaluation and overlay effects with the hide timer.
	// mu only guards state and lastSample, so Status never waits on OBS.
	opMu       sync.Mutex
	mu         sync.Mutex
	state      AlertState
	lastSample *domain.Sample
}

// NewMonitorService creates a monitor in the Idle/Clear state
func NewMonitorService(
	cfg MonitorConfig,
	supervisor *ConnectionSupervisor,
	stats ports.StatsSource,
	statsBackoff retry.Backoff,
	overlay ports.Overlay,
	scheduler ports.Scheduler,
	clock ports.Clock,
	zapLogger *zap.Logger,
) *MonitorService {
	if cfg.OverlayTimeout <= 0 {
		cfg.OverlayTimeout = 2 * time.Second
	}
	return &MonitorService{
		cfg:        cfg,
		supervisor: supervisor,
		stats:      stats,
		statsConn:  retry.NewTracker(statsBackoff),
		overlay:    overlay,
		scheduler:  scheduler,
		clock:      clock,
		metrics:    NopMetrics(),
		events:     NopPublisher{},
		log:        logger.NewContextLogger(zapLogger),
	}
}

// SetMetrics sets the metrics recorder
func (m *MonitorService) SetMetrics(metrics ports.AlertMetrics) {
	m.metrics = metrics
	m.metrics.SetGracePhase(GraceIdle.String())
	m.metrics.SetWarningActive(false)
}

// SetEventPublisher sets the publisher for alert events
func (m *MonitorService) SetEventPublisher(p ports.EventPublisher) {
	m.events = p
}

// Run ticks until ctx is cancelled, sleeping whatever each tick asks for.
// A panic inside a tick is returned as an UNEXPECTED_FAULT error.
func (m *MonitorService) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewUnexpectedError(fmt.Errorf("panic in monitor loop: %v", r))
		}
	}()

	m.log.WithContext(ctx).Sugar().Infow("monitor started",
		"publisher", m.cfg.Publisher,
		"poll_interval", m.cfg.PollInterval,
		"grace_period", m.cfg.Policy.GracePeriod,
	)

	for {
		if ctx.Err() != nil {
			m.shutdown()
			return nil
		}

		delay := m.Tick(ctx)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			m.shutdown()
			return nil
		case <-timer.C:
		}
	}
}

// shutdown cancels the pending hide and takes down a warning that is
// still shown, so the overlay does not outlive the process.
func (m *MonitorService) shutdown() {
	m.scheduler.Cancel(warningTimerKey)

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	seq := m.state.WarningSeq
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.OverlayTimeout)
	defer cancel()
	if ev := m.clearWarningLocked(ctx, seq); ev != nil {
		m.log.Sugar(ctx).Infow("warning overlay hidden on shutdown", "source", m.cfg.SourceName)
	}
}

// Tick performs one iteration of the loop and returns how long to wait
// before the next one.
func (m *MonitorService) Tick(ctx context.Context) time.Duration {
	cycleID := uuid.NewString()
	ctx = logger.WithCycleID(ctx, cycleID)
	ctx, span := tracing.TracePollCycle(ctx, cycleID)
	defer span.End()

	if delay, err := m.supervisor.EnsureConnected(ctx); err != nil {
		tracing.RecordError(ctx, err)
		return delay
	}
	ctx = logger.WithSession(ctx, m.supervisor.Generation())
	log := m.log.Sugar(ctx)

	sample, err := m.stats.Fetch(ctx)
	if err != nil {
		tracing.RecordError(ctx, err)
		return m.statsFailed(ctx, log, err)
	}
	if m.statsConn.Success() {
		log.Infow("stats server connection successful", "publisher", m.cfg.Publisher)
		m.metrics.SetConnectionUp(domain.TargetStats, true)
		publishEvents(ctx, m.events, log, []*domain.AlertEvent{{
			Type:   domain.EventConnectionRestored,
			Target: domain.TargetStats,
		}})
	}
	m.metrics.ObserveSample(sample)

	events, st, graceEnded := m.evaluate(ctx, log, sample)
	publishEvents(ctx, m.events, log, events)

	tracing.AddSpanAttributes(ctx,
		tracing.HasStreamKey.Bool(sample.HasStream()),
		tracing.RTTKey.Float64(sample.RTT),
		tracing.BitrateKey.Float64(sample.BitrateOr(0)),
		tracing.GraceKey.String(st.Grace.String()),
		tracing.WarningKey.String(st.Warning.String()),
	)

	// The tick that ends grace skips threshold checks; poll again right
	// away so the first check is not a full interval late.
	if graceEnded {
		return 0
	}
	return m.cfg.PollInterval
}

func (m *MonitorService) statsFailed(ctx context.Context, log *zap.SugaredLogger, err error) time.Duration {
	delay, lost := m.statsConn.Failure()
	m.metrics.IncReconnectAttempt(domain.TargetStats)
	if lost {
		m.metrics.SetConnectionUp(domain.TargetStats, false)
		publishEvents(ctx, m.events, log, []*domain.AlertEvent{{
			Type:   domain.EventConnectionLost,
			Target: domain.TargetStats,
		}})
	}
	log.Errorw("stats server connection failed",
		"error", err,
		"retry_in", delay,
		"retry_count", m.statsConn.RetryCount(),
	)
	return delay
}

// evaluate runs the policy on sample and performs the resulting effects.
// It returns the events to publish, the state after the transition and
// whether this tick ended the grace period.
func (m *MonitorService) evaluate(ctx context.Context, log *zap.SugaredLogger, sample domain.Sample) ([]*domain.AlertEvent, AlertState, bool) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	now := m.clock.Now()
	m.lastSample = &sample
	next, effects := m.cfg.Policy.Evaluate(m.state, sample, now)
	m.state = next
	m.mu.Unlock()

	var (
		events     []*domain.AlertEvent
		graceEnded bool
	)
	for _, eff := range effects {
		if eff.Kind == EffectGraceEnded {
			graceEnded = true
		}
		if ev := m.apply(ctx, log, eff, next, sample, now); ev != nil {
			events = append(events, ev)
		}
	}
	return events, next, graceEnded
}

// apply performs one effect. The caller holds opMu.
func (m *MonitorService) apply(ctx context.Context, log *zap.SugaredLogger, eff Effect, st AlertState, sample domain.Sample, now time.Time) *domain.AlertEvent {
	switch eff.Kind {
	case EffectGraceStarted:
		m.metrics.SetGracePhase(GraceActive.String())
		log.Infow("stream detected, skipping threshold checks during grace period",
			"grace_period", m.cfg.Policy.GracePeriod,
			"bitrate_kbps", sample.BitrateOr(0),
		)
		return m.newEvent(domain.EventStreamDetected, sample, nil)

	case EffectGraceEnded:
		m.metrics.SetGracePhase(GraceSteady.String())
		log.Infow("grace period ended, threshold checks enabled")
		return m.newEvent(domain.EventGraceEnded, sample, nil)

	case EffectStreamLost:
		m.metrics.SetGracePhase(GraceIdle.String())
		log.Infow("stream ended, next stream starts a new grace period")
		return m.newEvent(domain.EventStreamLost, sample, nil)

	case EffectWarningRaised:
		m.metrics.IncWarningRaised()
		m.metrics.SetWarningActive(true)
		log.Warnw("stream quality warning",
			"reason", strings.Join(eff.Reasons, " / "),
			"next_alert_in", m.cfg.Policy.Cooldown,
			"source", m.cfg.SourceName,
			"overlay", "shown",
		)
		m.overlay.SetVisible(ctx, true)
		seq := eff.Seq
		m.scheduler.Schedule(warningTimerKey, eff.HideAfter, func() {
			m.hideWarning(seq)
		})
		return m.newEvent(domain.EventWarningRaised, sample, eff.Reasons)

	case EffectWarningSuppressed:
		m.metrics.IncWarningSuppressed()
		log.Debugw("threshold violation dropped",
			"reason", strings.Join(eff.Reasons, " / "),
			"warning_active", st.Warning == WarningActive,
			"next_alert_in", m.cfg.Policy.NextAlertIn(st, now),
		)
	}
	return nil
}

// hideWarning runs on the scheduler's goroutine once the display time of
// warning seq has elapsed.
func (m *MonitorService) hideWarning(seq uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.OverlayTimeout)
	defer cancel()

	m.opMu.Lock()
	ev := m.clearWarningLocked(ctx, seq)
	m.opMu.Unlock()

	if ev == nil {
		m.log.Sugar(ctx).Debugw("ignoring stale warning hide", "seq", seq)
		return
	}
	publishEvents(ctx, m.events, m.log.Sugar(ctx), []*domain.AlertEvent{ev})
}

// clearWarningLocked ends warning seq and hides the overlay. It returns nil
// when seq is not the active warning. The caller holds opMu.
func (m *MonitorService) clearWarningLocked(ctx context.Context, seq uint64) *domain.AlertEvent {
	m.mu.Lock()
	next, effects := m.cfg.Policy.Clear(m.state, seq)
	if len(effects) == 0 {
		m.mu.Unlock()
		return nil
	}
	m.state = next
	var ev *domain.AlertEvent
	if m.lastSample != nil {
		ev = m.newEvent(domain.EventWarningCleared, *m.lastSample, nil)
	} else {
		ev = &domain.AlertEvent{Type: domain.EventWarningCleared, Publisher: m.cfg.Publisher}
	}
	m.mu.Unlock()

	m.overlay.SetVisible(ctx, false)
	m.metrics.SetWarningActive(false)
	m.log.Sugar(ctx).Infow("stream quality warning ended", "source", m.cfg.SourceName, "overlay", "hidden")
	return ev
}

func (m *MonitorService) newEvent(t domain.EventType, sample domain.Sample, reasons []string) *domain.AlertEvent {
	ev := &domain.AlertEvent{
		Type:      t,
		Publisher: m.cfg.Publisher,
		Reasons:   reasons,
	}
	if sample.HasStream() {
		bitrate := *sample.Bitrate
		rtt := sample.RTT
		ev.BitrateKbps = &bitrate
		ev.RTTMillis = &rtt
	}
	return ev
}

// State returns a copy of the alert state
func (m *MonitorService) State() AlertState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status implements ports.StatusProvider
func (m *MonitorService) Status() domain.MonitorStatus {
	m.mu.Lock()
	st := m.state
	var last *domain.Sample
	if m.lastSample != nil {
		s := *m.lastSample
		last = &s
	}
	m.mu.Unlock()

	status := domain.MonitorStatus{
		Publisher:    m.cfg.Publisher,
		GracePhase:   st.Grace.String(),
		WarningPhase: st.Warning.String(),
		NextAlertIn:  m.cfg.Policy.NextAlertIn(st, m.clock.Now()),
		LastSample:   last,
		OBS:          m.supervisor.Status(),
		OBSSession:   m.supervisor.Generation(),
	}
	if !st.LastRaisedAt.IsZero() {
		raised := st.LastRaisedAt
		status.LastRaisedAt = &raised
	}
	statsConn := m.statsConn.GetStats()
	status.Stats = domain.ConnectionStatus{Connected: statsConn.Connected, RetryCount: statsConn.RetryCount}
	return status
}

// Ready reports whether both the stats endpoint and OBS are reachable
func (m *MonitorService) Ready() bool {
	return m.statsConn.Connected() && m.supervisor.Status().Connected
}

// StatsRetryCount returns the number of consecutive failed fetches
func (m *MonitorService) StatsRetryCount() int {
	return m.statsConn.RetryCount()
}
