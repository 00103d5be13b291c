package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimitType selects the admission algorithm a RateLimiter uses.
type RateLimitType int

const (
	// RateLimitFixed resets its counter to Value at the start of every
	// Window-length interval.
	RateLimitFixed RateLimitType = iota
	// RateLimitRolling admits up to Value invocations in any trailing
	// Window, tracked by an ordered log of admission timestamps.
	RateLimitRolling
	// RateLimitSmooth spreads Value permits evenly across Window, admitting
	// at most one permit per Window/Value interval.
	RateLimitSmooth
)

// RateLimitConfig configures a RateLimiter.
type RateLimitConfig struct {
	// Value is the number of invocations permitted per Window. Default: 100.
	Value int
	// Window is the period Value applies to. Default: time.Second.
	Window time.Duration
	// MinSpacing additionally requires at least this much time between any
	// two permitted invocations, regardless of Type. Default: 0 (no extra
	// spacing requirement).
	MinSpacing time.Duration
	// Type selects the admission algorithm. Default: RateLimitFixed.
	Type RateLimitType

	OnPermitted func()
	OnRejected  func()
}

// Validate reports a FaultToleranceDefinitionError for any explicitly-set
// field that is out of range. Zero values are left alone since they mean
// "apply the default" rather than "disable".
func (c RateLimitConfig) Validate() error {
	if c.Value < 0 {
		return &FaultToleranceDefinitionError{Component: "rateLimit", Reason: "Value must not be negative"}
	}
	if c.Window < 0 {
		return &FaultToleranceDefinitionError{Component: "rateLimit", Reason: "Window must not be negative"}
	}
	if c.MinSpacing < 0 {
		return &FaultToleranceDefinitionError{Component: "rateLimit", Reason: "MinSpacing must not be negative"}
	}
	return nil
}

// RateLimiter bounds invocation throughput. A single RateLimiter instance
// is shared across concurrent invocations of the guarded target; Allow is
// safe for concurrent use.
type RateLimiter struct {
	config RateLimitConfig
	clock  Clock

	mu             sync.Mutex
	lastInvocation time.Time

	// fixed
	counter     int
	nextRefresh time.Time

	// rolling
	ring *timeRing

	// smooth
	nextPermit time.Time
}

// NewRateLimiter creates a RateLimiter with the given configuration.
func NewRateLimiter(config RateLimitConfig, clock Clock) *RateLimiter {
	if config.Value <= 0 {
		config.Value = 100
	}
	if config.Window <= 0 {
		config.Window = time.Second
	}
	if clock == nil {
		clock = RealClock{}
	}
	r := &RateLimiter{config: config, clock: clock, counter: config.Value}
	if config.Type == RateLimitRolling {
		r.ring = newTimeRing(config.Value)
	}
	return r
}

// Allow reports whether an invocation starting now should be permitted. A
// permitted call is counted immediately; there is no separate release
// step, since rate limiting throttles admission rate rather than
// concurrency.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	var allowed bool
	switch rl.config.Type {
	case RateLimitRolling:
		allowed = rl.allowRollingLocked(now)
	case RateLimitSmooth:
		allowed = rl.allowSmoothLocked(now)
	default:
		allowed = rl.allowFixedLocked(now)
	}

	if allowed && rl.config.MinSpacing > 0 && !rl.lastInvocation.IsZero() {
		if now.Sub(rl.lastInvocation) < rl.config.MinSpacing {
			allowed = false
		}
	}
	rl.lastInvocation = now
	return allowed
}

func (rl *RateLimiter) allowFixedLocked(now time.Time) bool {
	if rl.nextRefresh.IsZero() {
		rl.nextRefresh = now.Add(rl.config.Window)
	} else if !now.Before(rl.nextRefresh) {
		elapsed := now.Sub(rl.nextRefresh)
		periods := elapsed/rl.config.Window + 1
		rl.nextRefresh = rl.nextRefresh.Add(rl.config.Window * periods)
		rl.counter = rl.config.Value
	}
	allowed := rl.counter > 0
	rl.counter--
	return allowed
}

func (rl *RateLimiter) allowRollingLocked(now time.Time) bool {
	rl.ring.DropOlderThan(now.Add(-rl.config.Window))
	if rl.ring.Len() >= rl.config.Value {
		return false
	}
	rl.ring.Push(now)
	return true
}

func (rl *RateLimiter) allowSmoothLocked(now time.Time) bool {
	interval := rl.config.Window / time.Duration(rl.config.Value)
	if rl.nextPermit.IsZero() {
		rl.nextPermit = now
	}
	if now.Before(rl.nextPermit) {
		return false
	}
	rl.nextPermit = rl.nextPermit.Add(interval)
	if rl.nextPermit.Before(now) {
		rl.nextPermit = now.Add(interval)
	}
	return true
}

// Reset returns the limiter to its initial, freshly-constructed state.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.counter = rl.config.Value
	rl.nextRefresh = time.Time{}
	rl.nextPermit = time.Time{}
	rl.lastInvocation = time.Time{}
	if rl.config.Type == RateLimitRolling {
		rl.ring = newTimeRing(rl.config.Value)
	}
}

// Execute runs op if Allow permits it, else returns ErrRateLimitExceeded
// without calling op.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if !rl.Allow() {
		return ErrRateLimitExceeded
	}
	return op(ctx)
}

// RateLimitStrategy adapts rl into a Strategy: the inner invocation runs
// only if rl.Allow() permits it; otherwise the pipeline resolves
// immediately with ErrRateLimitExceeded without ever calling next.
func RateLimitStrategy[T any](rl *RateLimiter, sink MetricsSink) Strategy[T] {
	return func(next Invocation[T]) Invocation[T] {
		return func(ctx context.Context) Handle[T] {
			if !rl.Allow() {
				emit(sink, EventRateLimitRejected, 0)
				if rl.config.OnRejected != nil {
					safeCall(rl.config.OnRejected)
				}
				var zero T
				return Resolved(zero, ErrRateLimitExceeded)
			}
			emit(sink, EventRateLimitPermitted, 0)
			if rl.config.OnPermitted != nil {
				safeCall(rl.config.OnPermitted)
			}
			return next(ctx)
		}
	}
}
