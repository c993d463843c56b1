package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is the first instant returned by a DeterministicClock created
// with a zero start time.
var DefaultEpoch = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// DeterministicClock is a wall clock for tests that advances by a fixed step
// on every call to Now.
//
// Unlike time.Now, DeterministicClock can be reset for test reuse, so the same
// scenario produces identical end_time values on every run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	ticks int64
}

// NewDeterministicClock creates a clock whose first Now() returns start and
// each later call returns the previous value plus step.
//
// A zero start selects DefaultEpoch.
func NewDeterministicClock(start time.Time, step time.Duration) *DeterministicClock {
	if start.IsZero() {
		start = DefaultEpoch
	}
	return &DeterministicClock{start: start, step: step}
}

// Now returns the next instant.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.ticks) * c.step)
	c.ticks++
	return t
}

// Peek returns the instant the next Now() will return, without advancing.
func (c *DeterministicClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(time.Duration(c.ticks) * c.step)
}

// Reset rewinds the clock so the next Now() returns the start time again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
