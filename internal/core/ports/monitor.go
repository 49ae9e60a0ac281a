package ports

import (
	"context"
	"time"

	"srtalert/internal/core/domain"
)

// StatsSource performs one request against the stats endpoint per call.
// Failures are TRANSIENT_NETWORK errors; a missing stream is not a failure.
type StatsSource interface {
	Fetch(ctx context.Context) (domain.Sample, error)
}

// RemoteConnector owns the lifecycle of the OBS websocket session
type RemoteConnector interface {
	Connect(ctx context.Context) error
	Connected() bool
	Close() error
}

// SceneController issues scene requests over an established session
type SceneController interface {
	ListSceneItems(ctx context.Context, sceneName string) ([]domain.SceneItem, error)
	SetSceneItemEnabled(ctx context.Context, sceneName string, sceneItemID int64, enabled bool) error
}

// RemoteControl is the full OBS client surface
type RemoteControl interface {
	RemoteConnector
	SceneController
}

// SessionTracker exposes the generation of the current remote session.
// The generation changes on every successful (re)connect.
type SessionTracker interface {
	Generation() uint64
}

// Overlay shows or hides the warning overlay. Failures are handled internally.
type Overlay interface {
	SetVisible(ctx context.Context, visible bool)
}

// TimerHandle cancels a scheduled action
type TimerHandle interface {
	Stop() bool
}

// Scheduler runs delayed one-shot actions. Scheduling under a key cancels
// any action still pending for that key.
type Scheduler interface {
	Schedule(key string, delay time.Duration, fn func()) TimerHandle
	Cancel(key string) bool
}

// Clock abstracts wall time for the monitor
type Clock interface {
	Now() time.Time
}

// EventPublisher forwards alert events to external observers
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.AlertEvent) error
}

// AlertMetrics records monitor activity
type AlertMetrics interface {
	ObserveSample(sample domain.Sample)
	ObserveFetchDuration(d time.Duration, ok bool)
	SetConnectionUp(target string, up bool)
	IncReconnectAttempt(target string)
	IncWarningRaised()
	IncWarningSuppressed()
	SetWarningActive(active bool)
	SetGracePhase(phase string)
	IncOverlayError(operation string)
}

// StatusProvider exposes the monitor state to the status server
type StatusProvider interface {
	Status() domain.MonitorStatus
	Ready() bool
}
