// Package clock abstracts the time source for components that schedule or
// stamp work: retry backoff, the GitHub rate limiter, analysis cache expiry
// and metric samples. Tests drive a FakeClock instead of sleeping.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock supplies the time operations codesweep schedules against.
// Implementations must be safe for concurrent use.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// After returns a channel that delivers the current time once d has
	// elapsed. A non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time
	// Since returns the time elapsed since t.
	Since(t time.Time) time.Duration
}

// RealClock delegates to the time package.
type RealClock struct{}

// NewRealClock returns the wall clock.
func NewRealClock() Clock {
	return RealClock{}
}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// FakeClock is a manually driven clock for tests. Time moves only through
// Advance; timers created by After fire as their deadlines are crossed.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []fakeTimer
}

type fakeTimer struct {
	ch  chan time.Time
	due time.Time
}

// NewFakeClock creates a fake clock frozen at now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.timers = append(c.timers, fakeTimer{ch: ch, due: c.now.Add(d)})
	return ch
}

func (c *FakeClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Advance moves the clock forward by d and fires every timer whose deadline
// has been reached, in deadline order. Each timer channel is buffered, so
// firing never blocks on slow receivers.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now

	var fired []fakeTimer
	pending := c.timers[:0]
	for _, timer := range c.timers {
		if timer.due.After(now) {
			pending = append(pending, timer)
			continue
		}
		fired = append(fired, timer)
	}
	c.timers = pending
	c.mu.Unlock()

	sort.Slice(fired, func(i, j int) bool {
		return fired[i].due.Before(fired[j].due)
	})
	for _, timer := range fired {
		timer.ch <- now
	}
}
