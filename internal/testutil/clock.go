package testutil

import (
	"sync"
	"time"
)

// DefaultStart is the instant a new DeterministicClock starts from.
var DefaultStart = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// DeterministicClock is a wall clock for tests that advances by a fixed step
// on every reading.
//
// The first call to Now returns the start instant. Each later call returns
// the previous value plus Step. SetDay moves the clock without resetting the
// step, so scenarios can walk across calendar days.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	next  time.Time
	step  time.Duration
	reads int64
}

// NewDeterministicClock creates a clock starting at DefaultStart with a
// one-minute step.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(DefaultStart, time.Minute)
}

// NewDeterministicClockAt creates a clock starting at start.
func NewDeterministicClockAt(start time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{next: start, step: step}
}

// Now returns the current reading and advances the clock by one step.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	c.reads++
	return now
}

// Peek returns what the next Now will return without advancing.
func (c *DeterministicClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// SetDay moves the clock to 09:00 on the given "YYYY-MM-DD" day.
// It panics on a malformed date; tests pass literals.
func (c *DeterministicClock) SetDay(date string) {
	day, err := time.ParseInLocation("2006-01-02", date, c.Peek().Location())
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = day.Add(9 * time.Hour)
}

// Reads returns how many times Now has been called.
func (c *DeterministicClock) Reads() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
