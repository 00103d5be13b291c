package resilience

import (
	"context"
	"errors"
)

// Builder assembles a guarded Pipeline[T] from a target plus whichever
// strategies are configured. Strategies are wired in a fixed canonical
// order regardless of the order their With* methods are called:
// Fallback, Retry, CircuitBreaker, RateLimit, Timeout, Bulkhead,
// ThreadOffload, target — outermost to innermost. An unconfigured
// strategy contributes nothing; it is never a no-op wrapper taking up a
// position in the chain.
type Builder[T any] struct {
	mode   Mode
	target Invocation[T]
	clock  Clock
	sink   MetricsSink

	bulkhead       *BulkheadConfig
	circuitBreaker *CircuitBreakerConfig
	breakerName    string
	maintenance    *CircuitBreakerMaintenance
	rateLimit      *RateLimitConfig
	retry          *RetryConfig
	timeout        *TimeoutConfig
	fallback       *FallbackConfig[T]
	offload        bool
	executor       AsyncExecutor
}

// Create starts building a synchronous pipeline around a blocking target.
func Create[T any](target Target[T]) *Builder[T] {
	return &Builder[T]{mode: ModeSync, target: SyncTarget(target), clock: RealClock{}, sink: NoopMetricsSink{}}
}

// CreateAsync starts building an asynchronous pipeline around a target
// that returns its own Handle.
func CreateAsync[T any](target AsyncTarget[T]) *Builder[T] {
	return &Builder[T]{mode: ModeAsync, target: Invocation[T](target), clock: RealClock{}, sink: NoopMetricsSink{}}
}

// WithClock overrides the Clock every time-driven strategy uses. Tests
// supply a *FakeClock here; production code normally leaves the default
// RealClock in place.
func (b *Builder[T]) WithClock(c Clock) *Builder[T] {
	b.clock = c
	return b
}

// WithMetricsSink sets where strategy events are emitted. Default:
// NoopMetricsSink.
func (b *Builder[T]) WithMetricsSink(sink MetricsSink) *Builder[T] {
	b.sink = sink
	return b
}

// WithBulkhead enables bulkhead isolation.
func (b *Builder[T]) WithBulkhead(config BulkheadConfig) *Builder[T] {
	b.bulkhead = &config
	return b
}

// WithCircuitBreaker enables a circuit breaker. If name is non-empty the
// breaker is registered in maintenance (DefaultMaintenance if maintenance
// is nil) under that name, so it can be inspected or reset externally;
// Build fails if the name is already taken.
func (b *Builder[T]) WithCircuitBreaker(config CircuitBreakerConfig, name string, maintenance *CircuitBreakerMaintenance) *Builder[T] {
	b.circuitBreaker = &config
	b.breakerName = name
	b.maintenance = maintenance
	return b
}

// WithRateLimit enables rate limiting.
func (b *Builder[T]) WithRateLimit(config RateLimitConfig) *Builder[T] {
	b.rateLimit = &config
	return b
}

// WithRetry enables retries.
func (b *Builder[T]) WithRetry(config RetryConfig) *Builder[T] {
	b.retry = &config
	return b
}

// WithTimeout enables a deadline on the inner invocation.
func (b *Builder[T]) WithTimeout(config TimeoutConfig) *Builder[T] {
	b.timeout = &config
	return b
}

// WithFallback enables a fallback handler. Fallback is the one strategy
// MP_Fault_Tolerance_NonFallback_Enabled cannot disable: when that
// property is false, every other configured strategy is elided from the
// pipeline but a configured fallback still runs.
func (b *Builder[T]) WithFallback(config FallbackConfig[T]) *Builder[T] {
	b.fallback = &config
	return b
}

// WithThreadOffload enables thread offload, resubmitting the inner
// pipeline onto executor (GoExecutor if executor is nil).
func (b *Builder[T]) WithThreadOffload(executor AsyncExecutor) *Builder[T] {
	b.offload = true
	b.executor = executor
	return b
}

// Build assembles the configured Pipeline. It fails with the joined
// definition errors of every invalid sub-builder configuration, or with the
// maintenance registry's error when a named circuit breaker's name is
// already registered.
func (b *Builder[T]) Build() (*Pipeline[T], error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	inv := b.target

	// MP_Fault_Tolerance_NonFallback_Enabled, when explicitly set false,
	// elides every strategy below except Fallback and ThreadOffload.
	nonFallback := nonFallbackStrategiesEnabled()

	if b.offload {
		inv = withThreadOffload[T](true, b.executor, b.sink)(inv)
	}
	if nonFallback && b.bulkhead != nil {
		bh := NewBulkhead(*b.bulkhead, b.clock)
		inv = BulkheadStrategy[T](bh, b.mode, b.sink)(inv)
	}
	if nonFallback && b.timeout != nil {
		inv = TimeoutStrategy[T](*b.timeout, b.clock, b.sink)(inv)
	}
	if nonFallback && b.rateLimit != nil {
		rl := NewRateLimiter(*b.rateLimit, b.clock)
		inv = RateLimitStrategy[T](rl, b.sink)(inv)
	}
	if nonFallback && b.circuitBreaker != nil {
		cb := NewCircuitBreaker(*b.circuitBreaker, b.clock, b.sink)
		if b.breakerName != "" {
			maintenance := b.maintenance
			if maintenance == nil {
				maintenance = DefaultMaintenance
			}
			if err := maintenance.Register(b.breakerName, cb); err != nil {
				return nil, err
			}
		}
		inv = CircuitBreakerStrategy[T](cb, b.sink)(inv)
	}
	if nonFallback && b.retry != nil {
		inv = RetryStrategy[T](*b.retry, b.clock, b.sink)(inv)
	}
	if b.fallback != nil {
		inv = FallbackStrategy[T](*b.fallback, b.sink)(inv)
	}

	return &Pipeline[T]{invocation: inv, mode: b.mode}, nil
}

// validate collects a FaultToleranceDefinitionError from every configured
// sub-builder via errors.Join, so Build() reports every mistake in one
// call instead of one per attempt.
func (b *Builder[T]) validate() error {
	var errs []error
	if b.bulkhead != nil {
		errs = append(errs, b.bulkhead.Validate())
	}
	if b.circuitBreaker != nil {
		errs = append(errs, b.circuitBreaker.Validate())
	}
	if b.rateLimit != nil {
		errs = append(errs, b.rateLimit.Validate())
	}
	if b.retry != nil {
		errs = append(errs, b.retry.Validate())
	}
	if b.timeout != nil {
		errs = append(errs, b.timeout.Validate())
	}
	if b.fallback != nil {
		errs = append(errs, b.fallback.Validate())
	}
	return errors.Join(errs...)
}

// MustBuild is Build, panicking on error. Convenient when the circuit
// breaker name is a compile-time constant known not to collide.
func (b *Builder[T]) MustBuild() *Pipeline[T] {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// Pipeline is a fully-assembled, reusable guarded invocation. It is safe
// for concurrent use: every Call/Get starts an independent invocation.
type Pipeline[T any] struct {
	invocation Invocation[T]
	mode       Mode
}

// Call runs the pipeline and blocks for its terminal outcome. Suited to a
// pipeline built with Create, though it works with CreateAsync too (it
// simply awaits the returned Handle).
func (p *Pipeline[T]) Call(ctx context.Context) (T, error) {
	out := p.invocation(ctx).Await()
	return out.Value, out.Err
}

// Get runs the pipeline and returns immediately with a Handle, suited to a
// pipeline built with CreateAsync.
func (p *Pipeline[T]) Get(ctx context.Context) Handle[T] {
	return p.invocation(ctx)
}

// Run is Call with the value discarded, for a guarded action invoked only
// for its side effects and whose error is the sole thing worth observing.
func (p *Pipeline[T]) Run(ctx context.Context) error {
	_, err := p.Call(ctx)
	return err
}

// AdaptCallable returns the pipeline's guarded invocation as a plain
// Target[T], so it can be passed anywhere a bound callable is expected
// (stored, composed into another target, handed to code that has never
// heard of Pipeline) without exposing the Pipeline value itself. Calling
// the returned Target is equivalent to calling p.Call directly.
func (p *Pipeline[T]) AdaptCallable() Target[T] {
	return p.Call
}
