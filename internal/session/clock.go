package session

import "sync/atomic"

// Clock is a monotonic logical clock for item ordering.
//
// Every consumed item is stamped with a strictly increasing seq number.
// Wall-clock timestamps are never used for ordering: replaying a
// recorded stream must reproduce identical seq values.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// although the Session's single-writer discipline means only one
// goroutine typically calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used by replay to resume from the last recorded position.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
