package scheduler

import (
	"sync"
	"time"

	"srtalert/internal/core/ports"
)

// Scheduler runs keyed one-shot actions on their own goroutines. At most
// one action is pending per key: scheduling again cancels the previous one.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*entry
}

type entry struct {
	timer     *time.Timer
	cancelled bool
}

type handle struct {
	s   *Scheduler
	key string
	e   *entry
}

// New creates an empty scheduler
func New() *Scheduler {
	return &Scheduler{pending: make(map[string]*entry)}
}

// Schedule runs fn after delay under key, replacing any pending action for key
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) ports.TimerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.pending[key]; ok {
		old.cancelled = true
		old.timer.Stop()
	}

	e := &entry{}
	e.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if e.cancelled {
			s.mu.Unlock()
			return
		}
		if s.pending[key] == e {
			delete(s.pending, key)
		}
		s.mu.Unlock()
		fn()
	})
	s.pending[key] = e

	return &handle{s: s, key: key, e: e}
}

// Cancel stops the pending action for key. It reports whether one was pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[key]
	if !ok {
		return false
	}
	e.cancelled = true
	e.timer.Stop()
	delete(s.pending, key)
	return true
}

// Pending reports whether an action is waiting under key
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Stop cancels every pending action
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.pending {
		e.cancelled = true
		e.timer.Stop()
		delete(s.pending, key)
	}
}

// Stop cancels this action if it has not started yet
func (h *handle) Stop() bool {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	if h.e.cancelled {
		return false
	}
	stopped := h.e.timer.Stop()
	h.e.cancelled = true
	if h.s.pending[h.key] == h.e {
		delete(h.s.pending, h.key)
	}
	return stopped
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
