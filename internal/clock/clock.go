// Package clock supplies the time source used for the laying cooldown.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time. Implementations must be monotonic
// non-decreasing.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

// Now returns time.Now in UTC.
func (System) Now() time.Time { return time.Now().UTC() }

// Manual is a simulated clock that only moves when advanced.
type Manual struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManual starts a simulated clock at the given instant.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start.UTC()}
}

// Now returns the simulated instant.
func (m *Manual) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Advance moves the clock forward. Negative durations are ignored so the clock
// never runs backwards.
func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.now = m.now.Add(d)
	}
	return m.now
}
