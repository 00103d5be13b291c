package resilience

import (
	"sync"
	"time"
)

// Clock abstracts time so strategies (circuit breaker open-until, rate
// limit windows, retry delays, timeout deadlines) can be driven
// deterministically in tests instead of depending on wall-clock time.
//
// The default, [RealClock], delegates to the time package. Strategies take
// a Clock at construction time rather than reading a package-level
// override var, so independent pipelines in the same process (and the same
// test binary) can run with independent clocks.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) (<-chan time.Time, func() bool)
	AfterFunc(d time.Duration, f func()) func() bool
}

// RealClock is the production Clock, backed by the time package.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) NewTimer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

func (RealClock) AfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, f)
	return t.Stop
}

// FakeClock is a manually-advanced Clock for deterministic tests driven by
// an absolute simulated time axis rather than wall-clock time.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []fakeWaiter
}

type fakeWaiter struct {
	at uint64 // deadline, as UnixNano
	ch chan time.Time
	fn func()
}

// NewFakeClock creates a FakeClock starting at the given time.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) NewTimer(d time.Duration) (<-chan time.Time, func() bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	deadline := c.now.Add(d)
	if d <= 0 {
		ch <- deadline
		return ch, func() bool { return false }
	}
	w := fakeWaiter{at: uint64(deadline.UnixNano()), ch: ch}
	c.waiters = append(c.waiters, w)
	idx := len(c.waiters) - 1
	stop := func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < len(c.waiters) && c.waiters[idx].ch == ch {
			c.waiters[idx].ch = nil
			return true
		}
		return false
	}
	return ch, stop
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := c.now.Add(d)
	w := fakeWaiter{at: uint64(deadline.UnixNano()), fn: f}
	c.waiters = append(c.waiters, w)
	idx := len(c.waiters) - 1
	stop := func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < len(c.waiters) && c.waiters[idx].fn != nil {
			c.waiters[idx].fn = nil
			return true
		}
		return false
	}
	return stop
}

// Advance moves the fake clock forward by d, firing any timers or
// AfterFunc callbacks whose deadline has been reached, in deadline order.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.now = target

	var fire []fakeWaiter
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if w.at <= uint64(target.UnixNano()) && (w.ch != nil || w.fn != nil) {
			fire = append(fire, w)
		} else if w.ch != nil || w.fn != nil {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
	for i := 1; i < len(fire); i++ {
		for j := i; j > 0 && fire[j].at < fire[j-1].at; j-- {
			fire[j], fire[j-1] = fire[j-1], fire[j]
		}
	}
	c.mu.Unlock()

	for _, w := range fire {
		if w.ch != nil {
			w.ch <- target
		}
		if w.fn != nil {
			w.fn()
		}
	}
}
