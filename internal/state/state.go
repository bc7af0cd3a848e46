// Package state provides the thread-safe simulated clock that drives the sky.
package state

import (
	"sync"
	"time"
)

// EventType represents the type of clock event.
type EventType string

const (
	EventApplied EventType = "APPLIED"
	EventJump    EventType = "JUMP"
	EventRate    EventType = "RATE"
	EventPause   EventType = "PAUSE"
	EventResume  EventType = "RESUME"
)

// Event records a change to the simulated clock or a date/time applied to
// the sky.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	SimTime   time.Time `json:"sim_time"`
	Rate      float64   `json:"rate,omitempty"`
}

// Manager owns the simulated clock with thread-safe access. Simulated time
// advances at Rate times wall-clock time unless paused.
type Manager struct {
	mu sync.RWMutex

	// Simulated time at anchor (wall clock)
	simAt  time.Time
	anchor time.Time
	rate   float64
	paused bool

	lastApplied  time.Time
	appliedCount int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	tickInterval time.Duration
	wall         func() time.Time
}

// Config holds configuration for the clock.
type Config struct {
	Start        time.Time
	Rate         float64
	MaxEvents    int
	TickInterval time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Rate:         1,
		MaxEvents:    50, // Last 50 events
		TickInterval: time.Second,
	}
}

// NewManager creates a clock reading the system wall clock.
func NewManager(cfg Config) *Manager {
	return NewManagerWithClock(cfg, time.Now)
}

// NewManagerWithClock creates a clock reading wall time from wall. A zero
// cfg.Start starts at the current wall time.
func NewManagerWithClock(cfg Config, wall func() time.Time) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	rate := cfg.Rate
	if rate == 0 {
		rate = 1
	}
	now := wall()
	start := cfg.Start
	if start.IsZero() {
		start = now
	}
	return &Manager{
		simAt:        start.UTC(),
		anchor:       now,
		rate:         rate,
		maxEvents:    maxEvents,
		events:       make([]Event, 0, maxEvents),
		tickInterval: cfg.TickInterval,
		wall:         wall,
	}
}

// now returns the simulated time. Callers hold mu.
func (m *Manager) now() time.Time {
	if m.paused {
		return m.simAt
	}
	elapsed := m.wall().Sub(m.anchor)
	return m.simAt.Add(time.Duration(float64(elapsed) * m.rate))
}

// rebase pins simulated time to the current wall time. Callers hold mu.
func (m *Manager) rebase() {
	m.simAt = m.now()
	m.anchor = m.wall()
}

// Now returns the current simulated time.
func (m *Manager) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now()
}

// Jump sets the simulated time.
func (m *Manager) Jump(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.simAt = t.UTC()
	m.anchor = m.wall()
	m.addEvent(Event{Type: EventJump, Timestamp: m.anchor, SimTime: m.simAt, Rate: m.rate})
}

// SetRate changes how fast simulated time runs. Negative rates run the
// clock backwards; zero is ignored.
func (m *Manager) SetRate(rate float64) {
	if rate == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebase()
	m.rate = rate
	m.addEvent(Event{Type: EventRate, Timestamp: m.anchor, SimTime: m.simAt, Rate: rate})
}

// Rate returns the current rate.
func (m *Manager) Rate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rate
}

// Pause freezes simulated time.
func (m *Manager) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paused {
		return
	}
	m.rebase()
	m.paused = true
	m.addEvent(Event{Type: EventPause, Timestamp: m.anchor, SimTime: m.simAt, Rate: m.rate})
}

// Resume restarts a paused clock from where it stopped.
func (m *Manager) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.paused {
		return
	}
	m.paused = false
	m.anchor = m.wall()
	m.addEvent(Event{Type: EventResume, Timestamp: m.anchor, SimTime: m.simAt, Rate: m.rate})
}

// Paused reports whether the clock is paused.
func (m *Manager) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// RecordApplied notes that t was applied to the sky.
func (m *Manager) RecordApplied(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastApplied = t
	m.appliedCount++
	m.addEvent(Event{Type: EventApplied, Timestamp: m.wall(), SimTime: t, Rate: m.rate})
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of the clock.
type Snapshot struct {
	SimTime      time.Time
	Rate         float64
	Paused       bool
	LastApplied  time.Time
	AppliedCount int
	Events       []Event
}

// Snapshot returns a consistent snapshot of the clock.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		SimTime:      m.now(),
		Rate:         m.rate,
		Paused:       m.paused,
		LastApplied:  m.lastApplied,
		AppliedCount: m.appliedCount,
		Events:       m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// TickInterval returns the configured tick interval.
func (m *Manager) TickInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tickInterval
}

// SetTickInterval updates the tick interval.
func (m *Manager) SetTickInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickInterval = d
}
