package resilience

import (
	"context"
	"sync"
	"time"
)

// BreakerState is the circuit breaker's current state.
type BreakerState int

const (
	// BreakerClosed lets every invocation through, tallying outcomes in a
	// rolling window.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects every invocation until Delay has elapsed since it
	// opened.
	BreakerOpen
	// BreakerHalfOpen lets a single probe invocation through at a time,
	// closing the circuit after SuccessThreshold consecutive successes or
	// reopening it on the first failure.
	BreakerHalfOpen
)

// String returns a lowercase name for the state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// RequestVolumeThreshold is the rolling window size: the number of
	// recorded outcomes considered before the failure ratio is evaluated.
	// Default: 20.
	RequestVolumeThreshold int
	// FailureRatio is the fraction of failures within the rolling window
	// that trips the breaker to open, once the window is full. Default: 0.5.
	FailureRatio float64
	// Delay is how long the breaker stays open before allowing a probe
	// invocation in half-open state. Default: 5 seconds.
	Delay time.Duration
	// SuccessThreshold is the number of consecutive half-open successes
	// required to close the breaker again. Default: 1.
	SuccessThreshold int
	// Classifier decides, per error, whether it counts as a failure
	// (ApplyOn) or is ignored entirely (SkipOn, "skip beats apply"). With
	// the zero Classifier, every non-nil error counts as a failure.
	Classifier Classifier

	OnStateChange func(from, to BreakerState)
	OnSuccess     func()
	OnFailure     func()
	OnPrevented   func()
}

// Validate reports a FaultToleranceDefinitionError for any explicitly-set
// field that is out of range. Zero values are left alone since they mean
// "apply the default" rather than "disable".
func (c CircuitBreakerConfig) Validate() error {
	if c.RequestVolumeThreshold < 0 {
		return &FaultToleranceDefinitionError{Component: "circuitBreaker", Reason: "RequestVolumeThreshold must not be negative"}
	}
	if c.FailureRatio < 0 || c.FailureRatio > 1 {
		return &FaultToleranceDefinitionError{Component: "circuitBreaker", Reason: "FailureRatio must be between 0 and 1"}
	}
	if c.Delay < 0 {
		return &FaultToleranceDefinitionError{Component: "circuitBreaker", Reason: "Delay must not be negative"}
	}
	if c.SuccessThreshold < 0 {
		return &FaultToleranceDefinitionError{Component: "circuitBreaker", Reason: "SuccessThreshold must not be negative"}
	}
	return nil
}

// CircuitBreaker implements the standard closed/open/half-open breaker
// state machine over a rolling window of recent outcomes.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	clock  Clock
	sink   MetricsSink

	mu                sync.Mutex
	state             BreakerState
	ring              *outcomeRing
	openedAt          time.Time
	halfOpenInFlight  bool
	halfOpenSuccesses int
	listeners         []func(from, to BreakerState)
}

// NewCircuitBreaker creates a CircuitBreaker with the given configuration.
// sink receives EventCircuitStateChange whenever the breaker transitions;
// it may be nil.
func NewCircuitBreaker(config CircuitBreakerConfig, clock Clock, sink MetricsSink) *CircuitBreaker {
	if config.RequestVolumeThreshold <= 0 {
		config.RequestVolumeThreshold = 20
	}
	if config.FailureRatio <= 0 {
		config.FailureRatio = 0.5
	}
	if config.Delay <= 0 {
		config.Delay = 5 * time.Second
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if len(config.Classifier.ApplyOn) == 0 {
		config.Classifier.ApplyOn = []Matcher{MatchAny()}
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &CircuitBreaker{
		config: config,
		clock:  clock,
		sink:   sink,
		ring:   newOutcomeRing(config.RequestVolumeThreshold),
	}
}

// State returns the breaker's current state, resolving an elapsed open
// delay into half-open as a side effect — mirroring beforeCall's own
// lazy transition so observers see the same state a new invocation would.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

func (cb *CircuitBreaker) currentStateLocked() BreakerState {
	if cb.state == BreakerOpen && cb.clock.Now().Sub(cb.openedAt) >= cb.config.Delay {
		cb.transitionLocked(BreakerHalfOpen)
		cb.halfOpenInFlight = false
		cb.halfOpenSuccesses = 0
	}
	return cb.state
}

func (cb *CircuitBreaker) transitionLocked(to BreakerState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	emit(cb.sink, EventCircuitStateChange, 0)
	if cb.config.OnStateChange != nil {
		safeCall(func() { cb.config.OnStateChange(from, to) })
	}
	for _, listener := range cb.listeners {
		listener := listener
		safeCall(func() { listener(from, to) })
	}
}

// onStateChange registers an additional state-change listener, invoked
// alongside config.OnStateChange on every subsequent transition. This is
// the mechanism CircuitBreakerMaintenance.OnStateChange uses to subscribe
// by name after the breaker has already been built, since
// config.OnStateChange can only be set once at construction time.
func (cb *CircuitBreaker) onStateChange(listener func(from, to BreakerState)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.listeners = append(cb.listeners, listener)
}

// Reset forces the breaker back to closed, clearing its rolling window.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionLocked(BreakerClosed)
	cb.ring.Reset()
	cb.halfOpenInFlight = false
	cb.halfOpenSuccesses = 0
}

// beforeCall admits or rejects an invocation attempt, transitioning state
// as needed. Returns a non-nil error when the invocation must not proceed.
func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case BreakerOpen:
		return ErrCircuitBreakerOpen
	case BreakerHalfOpen:
		if cb.halfOpenInFlight {
			return ErrCircuitBreakerOpen
		}
		cb.halfOpenInFlight = true
	}
	return nil
}

// afterCall records the outcome of an admitted invocation.
func (cb *CircuitBreaker) afterCall(err error) (failed, skipped bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	skip, apply := cb.config.Classifier.Classify(err)
	if cb.state == BreakerHalfOpen {
		cb.halfOpenInFlight = false
	}

	// A skipped error is treated as a success for rolling-window and
	// half-open accounting — it is excluded only from the OnSuccess/
	// OnFailure callbacks and metrics emitted by the caller (skipped=skip
	// below), never from the failure ratio itself.
	failed = apply && !skip

	switch cb.state {
	case BreakerHalfOpen:
		if failed {
			cb.transitionLocked(BreakerOpen)
			cb.openedAt = cb.clock.Now()
			cb.ring.Reset()
		} else {
			cb.halfOpenSuccesses++
			if cb.halfOpenSuccesses >= cb.config.SuccessThreshold {
				cb.transitionLocked(BreakerClosed)
				cb.ring.Reset()
				cb.halfOpenSuccesses = 0
			}
		}
	case BreakerClosed:
		full := cb.ring.Add(failed)
		if full && cb.ring.FailureRatio() >= cb.config.FailureRatio {
			cb.transitionLocked(BreakerOpen)
			cb.openedAt = cb.clock.Now()
		}
	}
	return failed, skip
}

// CircuitBreakerMetrics reports a snapshot of breaker occupancy.
type CircuitBreakerMetrics struct {
	State        BreakerState
	WindowFilled int
	FailureRatio float64
}

// Metrics returns a snapshot of the breaker's current rolling window.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerMetrics{
		State:        cb.currentStateLocked(),
		WindowFilled: cb.ring.count,
		FailureRatio: cb.ring.FailureRatio(),
	}
}

// CircuitBreakerStrategy adapts cb into a Strategy. Admission and outcome
// recording happen around next's completion, whether next resolves
// synchronously or asynchronously.
func CircuitBreakerStrategy[T any](cb *CircuitBreaker, sink MetricsSink) Strategy[T] {
	return func(next Invocation[T]) Invocation[T] {
		return func(ctx context.Context) Handle[T] {
			if err := cb.beforeCall(); err != nil {
				emit(sink, EventCircuitPrevented, 0)
				if cb.config.OnPrevented != nil {
					safeCall(cb.config.OnPrevented)
				}
				var zero T
				return Resolved(zero, err)
			}

			inner := next(ctx)
			h := newFutureHandle[T](nil)
			inner.OnComplete(func(out Outcome[T]) {
				failed, skipped := cb.afterCall(out.Err)
				if !skipped {
					if failed {
						emit(sink, EventCircuitFailure, 0)
						if cb.config.OnFailure != nil {
							safeCall(cb.config.OnFailure)
						}
					} else {
						emit(sink, EventCircuitSuccess, 0)
						if cb.config.OnSuccess != nil {
							safeCall(cb.config.OnSuccess)
						}
					}
				}
				h.resolve(out.Value, out.Err)
			})
			return h
		}
	}
}
