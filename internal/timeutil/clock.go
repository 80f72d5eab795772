// Package timeutil supplies the clock fit runs are stamped with and the
// conversions between run timestamps and their ledger encoding.
package timeutil

import (
	"sync"
	"time"
)

// RunLayout is how the command line tools print run timestamps.
const RunLayout = "2006-01-02 15:04:05"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// MockClock is a manually advanced clock for tests.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock returns a MockClock stopped at t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the mocked time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Stamp encodes t as unix nanoseconds, the ledger's timestamp column format.
func Stamp(t time.Time) int64 {
	return t.UnixNano()
}

// FromStamp decodes a ledger timestamp into a UTC time.
func FromStamp(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}
