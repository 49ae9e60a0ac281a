package retry

import (
	"sync"
	"time"
)

// Tracker records the connection state of one external dependency and the
// number of consecutive failures since the last successful connect.
type Tracker struct {
	backoff Backoff

	mu                sync.RWMutex
	connected         bool
	retryCount        int
	lastSeenConnected bool
}

// TrackerStats is a point-in-time copy of a Tracker
type TrackerStats struct {
	Connected         bool `json:"connected"`
	RetryCount        int  `json:"retry_count"`
	LastSeenConnected bool `json:"last_seen_connected"`
}

// NewTracker creates a tracker in the disconnected state
func NewTracker(backoff Backoff) *Tracker {
	return &Tracker{backoff: backoff}
}

// Success marks the dependency connected and resets the retry count.
// It reports whether this was a Disconnected -> Connected transition.
func (t *Tracker) Success() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	transitioned := !t.connected
	t.connected = true
	t.lastSeenConnected = true
	t.retryCount = 0
	return transitioned
}

// Failure marks the dependency disconnected. It returns the delay the caller
// should wait before the next attempt (computed from the retry count before
// it is incremented) and whether the dependency was connected until now.
func (t *Tracker) Failure() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lost := t.connected
	t.connected = false
	delay := t.backoff.Delay(t.retryCount)
	t.retryCount++
	return delay, lost
}

// MarkLost records a detected loss without counting a failed attempt.
// It reports whether the dependency was connected until now.
func (t *Tracker) MarkLost() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	lost := t.connected
	t.connected = false
	return lost
}

// Connected reports the last known state
func (t *Tracker) Connected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

// RetryCount returns the number of consecutive failures
func (t *Tracker) RetryCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.retryCount
}

// GetStats returns a copy of the tracker state
func (t *Tracker) GetStats() TrackerStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TrackerStats{
		Connected:         t.connected,
		RetryCount:        t.retryCount,
		LastSeenConnected: t.lastSeenConnected,
	}
}
