// Package clock supplies the logical timestamps ledger operations run at.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current logical time. Successive calls never decrease.
type Clock interface {
	Now() int64
}

// Monotonic reads Unix seconds from a source and never lets the result go backwards.
type Monotonic struct {
	mu     sync.Mutex
	source func() time.Time
	last   int64
}

// NewMonotonic returns a wall-clock backed Monotonic.
func NewMonotonic() *Monotonic {
	return &Monotonic{source: time.Now}
}

func (m *Monotonic) Now() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.source().Unix()
	if now < m.last {
		return m.last
	}
	m.last = now
	return now
}

// Manual is a clock tests advance by hand.
type Manual struct {
	mu  sync.Mutex
	now int64
}

func NewManual(start int64) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d; negative values are ignored.
func (m *Manual) Advance(d int64) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()
}
