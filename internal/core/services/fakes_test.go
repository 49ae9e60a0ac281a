package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"srtalert/internal/core/domain"
	"srtalert/internal/core/ports"
)

var errRefused = errors.New("connection refused")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fakeScheduler keeps pending actions until the test fires them
type fakeScheduler struct {
	mu      sync.Mutex
	pending map[string]*fakeTimer
}

type fakeTimer struct {
	s     *fakeScheduler
	key   string
	delay time.Duration
	fn    func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: make(map[string]*fakeTimer)}
}

func (s *fakeScheduler) Schedule(key string, delay time.Duration, fn func()) ports.TimerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, key: key, delay: delay, fn: fn}
	s.pending[key] = t
	return t
}

func (s *fakeScheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	delete(s.pending, key)
	return ok
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.pending[t.key] != t {
		return false
	}
	delete(t.s.pending, t.key)
	return true
}

// Fire runs the pending action for key, reporting whether there was one
func (s *fakeScheduler) Fire(key string) bool {
	s.mu.Lock()
	t, ok := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()
	if !ok {
		return false
	}
	t.fn()
	return true
}

func (s *fakeScheduler) Delay(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.pending[key]
	if !ok {
		return 0, false
	}
	return t.delay, true
}

// fakeStats returns queued results, repeating the last one
type fakeStats struct {
	mu      sync.Mutex
	sample  domain.Sample
	err     error
	fetches int
}

func (f *fakeStats) Fetch(ctx context.Context) (domain.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.sample, f.err
}

func (f *fakeStats) Set(sample domain.Sample, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sample = sample
	f.err = err
}

type toggle struct {
	id      int64
	enabled bool
}

// fakeRemote implements ports.RemoteControl
type fakeRemote struct {
	mu         sync.Mutex
	connected  bool
	connectErr error
	connects   int
	items      []domain.SceneItem
	listErr    error
	listCalls  int
	setErr     error
	toggles    []toggle

	// when set, SetSceneItemEnabled signals entered and waits on release
	entered chan struct{}
	release chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		items: []domain.SceneItem{
			{SourceName: "Camera", SceneItemID: 1},
			{SourceName: "Warning", SceneItemID: 7},
		},
	}
}

func (f *fakeRemote) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeRemote) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeRemote) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

func (f *fakeRemote) ListSceneItems(ctx context.Context, sceneName string) ([]domain.SceneItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.SceneItem(nil), f.items...), nil
}

func (f *fakeRemote) SetSceneItemEnabled(ctx context.Context, sceneName string, sceneItemID int64, enabled bool) error {
	f.mu.Lock()
	entered, release := f.entered, f.release
	f.mu.Unlock()
	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.toggles = append(f.toggles, toggle{id: sceneItemID, enabled: enabled})
	return nil
}

func (f *fakeRemote) SetConnectErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectErr = err
}

func (f *fakeRemote) HoldToggles(entered, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entered = entered
	f.release = release
}

func (f *fakeRemote) Drop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

func (f *fakeRemote) Toggles() []toggle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]toggle(nil), f.toggles...)
}

func (f *fakeRemote) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type fakeSession struct {
	mu  sync.Mutex
	gen uint64
}

func (s *fakeSession) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *fakeSession) Bump() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.AlertEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, ev *domain.AlertEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *ev)
	return nil
}

func (p *recordingPublisher) Types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]domain.EventType, 0, len(p.events))
	for _, ev := range p.events {
		types = append(types, ev.Type)
	}
	return types
}

// recordingMetrics counts the calls the tests assert on
type recordingMetrics struct {
	nopMetrics

	mu            sync.Mutex
	overlayErrors map[string]int
	raised        int
	suppressed    int
	reconnects    map[string]int
	warningActive bool
	gracePhase    string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		overlayErrors: make(map[string]int),
		reconnects:    make(map[string]int),
	}
}

func (m *recordingMetrics) IncOverlayError(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overlayErrors[op]++
}

func (m *recordingMetrics) IncWarningRaised() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raised++
}

func (m *recordingMetrics) IncWarningSuppressed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suppressed++
}

func (m *recordingMetrics) IncReconnectAttempt(target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconnects[target]++
}

func (m *recordingMetrics) SetWarningActive(active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warningActive = active
}

func (m *recordingMetrics) SetGracePhase(phase string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gracePhase = phase
}
