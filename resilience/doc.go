// Package resilience guards arbitrary callable actions with a composable
// chain of fault-tolerance strategies: bulkhead, circuit breaker, rate
// limit, retry, timeout, thread-offload, and fallback.
//
// A guarded action may be synchronous (it returns a value or an error) or
// asynchronous (it returns a [Handle] that eventually resolves to a value
// or an error). The same strategy implementations guard both; a strategy
// never returns before it has observed the inner outcome, whichever mode
// produced it.
//
// # Ecosystem Position
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                        Guarded Invocation                        │
//	├─────────────────────────────────────────────────────────────────┤
//	│                                                                   │
//	│   caller             Pipeline[T]                     target       │
//	│   ┌──────┐        ┌──────────────┐                ┌─────────┐    │
//	│   │ Call │───────▶│ Fallback     │───────────────▶│ Handle  │    │
//	│   │ Get  │        │  Retry       │                │   or    │    │
//	│   │ Run  │        │   CircuitBrk │                │  value  │    │
//	│   └──────┘        │    RateLimit │                └─────────┘    │
//	│                   │     Timeout  │                                │
//	│                   │      Bulkhead│                                │
//	│                   │       Offload│                                │
//	│                   └──────────────┘                                │
//	│                                                                   │
//	└─────────────────────────────────────────────────────────────────┘
//
// # Resilience Patterns
//
// The package provides seven composable strategies, applied outer to inner
// in this canonical order when all are configured:
//
//	Fallback → Retry → CircuitBreaker → RateLimit → Timeout → Bulkhead → ThreadOffload → target
//
//   - [Bulkhead]: bounds concurrent in-flight invocations, optionally
//     queueing further ones (async pipelines only).
//   - ThreadOffload ([Builder.WithThreadOffload]): moves the remainder of
//     the pipeline onto an [AsyncExecutor] (async pipelines only).
//   - [TimeoutStrategy]: enforces a deadline, translating an overrun into
//     [ErrTimeout].
//   - [RateLimiter]: fixed, rolling, or smooth (token-bucket) admission
//     windows.
//   - [CircuitBreaker]: rolling-window failure-ratio state machine with
//     Closed/Open/HalfOpen transitions.
//   - [RetryStrategy]: re-invokes on classified failure with pluggable backoff.
//   - [FallbackStrategy]: substitutes an outcome when the inner invocation fails,
//     resolved by exception-parameter-type overload.
//
// # Quick Start
//
//	p := resilience.Create[string](callExternalService).
//	    WithCircuitBreaker(resilience.CircuitBreakerConfig{
//	        RequestVolumeThreshold: 5,
//	        Delay:                  30 * time.Second,
//	    }, "", nil).
//	    WithRetry(resilience.RetryConfig{
//	        MaxRetries: 3,
//	        Delay:      resilience.ConstantDelay(100*time.Millisecond, 0),
//	    }).
//	    WithTimeout(resilience.TimeoutConfig{Duration: 5 * time.Second}).
//	    MustBuild()
//
//	val, err := p.Call(ctx)
//
// Asynchronous pipelines use [CreateAsync] and guard targets that return a
// [Handle] instead of a value:
//
//	ap := resilience.CreateAsync[string](func(ctx context.Context) resilience.Handle[string] {
//	        return resilience.Offload(ctx, executor, slowCall)
//	    }).
//	    WithTimeout(resilience.TimeoutConfig{Duration: time.Second}).
//	    WithFallback(resilience.FallbackConfig[string]{
//	        Classifier: resilience.Classifier{ApplyOn: []resilience.Matcher{resilience.MatchError(resilience.ErrTimeout)}},
//	        Handler: func(ctx context.Context, cause error) (string, error) {
//	            return "fallback", nil
//	        },
//	    }).
//	    MustBuild()
//
//	h := ap.Get(ctx)
//
// # Execution Order
//
// See the canonical order above; [Builder.Build] applies whichever subset
// of strategies was configured, in that order, skipping layers that were
// never requested.
//
// # Thread Safety
//
// All exported types are safe for concurrent use after construction. Every
// stateful strategy ([Bulkhead], [CircuitBreaker], [RateLimiter]) holds at
// most one mutex. [Bulkhead] and [RateLimiter] call no user callback while
// holding it; [CircuitBreaker] calls OnStateChange, its state-change
// listeners and the metrics sink's state-change event while holding its
// mutex.
//
// # Error Handling
//
// Strategies fail with specific sentinel errors (use errors.Is):
// [ErrTimeout], [ErrCircuitBreakerOpen], [ErrBulkheadRejected],
// [ErrRateLimitExceeded], [ErrExecutionRejected]. [Builder.Build] reports
// invalid configuration with errors that match
// [ErrFaultToleranceDefinition].
//
// # Callbacks and Observability
//
// Every sub-builder accepts an OnXxx callback for state transitions and
// terminal events. Callbacks that panic are recovered and swallowed; they
// never affect the guarded invocation's outcome, per the contract callbacks
// must uphold across this package. See package config for the one
// recognised build-time property. Strategy events go to the [MetricsSink]
// given to the Builder, and recovered callback panics are logged through
// the function set with [SetLogFunc]; this package does not import package
// observe.
package resilience
