package resilience

import (
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DelayScheduler computes the delay before retry attempt n (1-based: n=1 is
// the delay before the second overall attempt). It is queried once per
// retry, never cached across attempts, so it may hold its own internal
// state if it needs to.
type DelayScheduler func(attempt int) time.Duration

// clampAndJitter caps delay at maxDelay (maxDelay <= 0 means no cap) and,
// if jitter > 0, adds a uniformly random extra amount up to jitter*delay.
// Jitter is applied after clamping, so the configured ceiling is the delay
// before jitter, not after — a retry storm synchronized on the cap still
// gets spread out.
func clampAndJitter(delay time.Duration, maxDelay time.Duration, jitter float64) time.Duration {
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	if jitter > 0 && delay > 0 {
		extra := time.Duration(float64(delay) * jitter * rand.Float64())
		delay += extra
	}
	return delay
}

// ConstantDelay returns a DelayScheduler that always waits d, with optional
// jitter (a fraction of d, e.g. 0.25 for up to +25%).
func ConstantDelay(d time.Duration, jitter float64) DelayScheduler {
	return func(attempt int) time.Duration {
		return clampAndJitter(d, 0, jitter)
	}
}

// FibonacciDelay returns a DelayScheduler whose delay grows along the
// Fibonacci sequence scaled by initial (attempt 1 -> initial*1, attempt 2
// -> initial*1, attempt 3 -> initial*2, attempt 4 -> initial*3, attempt 5
// -> initial*5, ...), capped at maxDelay (<=0 means uncapped) with optional
// jitter.
func FibonacciDelay(initial, maxDelay time.Duration, jitter float64) DelayScheduler {
	return func(attempt int) time.Duration {
		a, b := 1, 1
		for i := 1; i < attempt; i++ {
			a, b = b, a+b
		}
		return clampAndJitter(initial*time.Duration(a), maxDelay, jitter)
	}
}

// ExponentialDelay returns a DelayScheduler backed by
// github.com/cenkalti/backoff/v5's ExponentialBackOff: attempt n waits
// initial*multiplier^(n-1) (multiplier <= 0 means 2), capped at maxDelay
// (<=0 means uncapped), with optional jitter. The library's own
// randomization is turned off.
func ExponentialDelay(initial, maxDelay time.Duration, multiplier float64, jitter float64) DelayScheduler {
	if multiplier <= 0 {
		multiplier = 2.0
	}
	maxInterval := maxDelay
	if maxInterval <= 0 {
		maxInterval = time.Duration(1 << 62)
	}
	return func(attempt int) time.Duration {
		eb := &backoff.ExponentialBackOff{
			InitialInterval:     initial,
			MaxInterval:         maxInterval,
			Multiplier:          multiplier,
			RandomizationFactor: 0,
		}
		eb.Reset()
		d := eb.NextBackOff()
		for i := 1; i < attempt; i++ {
			d = eb.NextBackOff()
		}
		if d == backoff.Stop {
			d = maxDelay
		}
		return clampAndJitter(d, maxDelay, jitter)
	}
}

// CustomDelay wraps a caller-provided function as a DelayScheduler
// unchanged, for schedules that don't fit the built-in shapes.
func CustomDelay(fn func(attempt int) time.Duration) DelayScheduler {
	return fn
}
