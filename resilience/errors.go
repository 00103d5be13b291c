package resilience

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the strategy layers. Use errors.Is to check
// for them; retry and fallback classification also match against these,
// since they are ordinary errors once they leave the layer that raised
// them.
var (
	// ErrCircuitBreakerOpen is returned when a circuit breaker rejects an
	// invocation because it is Open, or Half-Open with no trial slots left.
	ErrCircuitBreakerOpen = errors.New("resilience: circuit breaker is open")

	// ErrRetriesExhausted names a retry loop that ran out of maxRetries or
	// maxDuration without a successful attempt. RetryStrategy does not
	// return it: an exhausted retry resolves with the last attempt's error.
	ErrRetriesExhausted = errors.New("resilience: retries exhausted")

	// ErrRateLimitExceeded is returned when a rate limiter rejects an
	// attempted invocation.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadRejected is returned when a bulkhead has no permit
	// available and, for async pipelines, no room left in its queue.
	ErrBulkheadRejected = errors.New("resilience: bulkhead rejected")

	// ErrTimeout is returned when an invocation does not complete within
	// its configured timeout.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrExecutionRejected is returned when the configured AsyncExecutor
	// rejects submission of an offloaded invocation.
	ErrExecutionRejected = errors.New("resilience: execution rejected by executor")

	// ErrFaultToleranceDefinition is matched by the errors Builder.Build
	// returns (or MustBuild panics with) when a pipeline's configuration is
	// invalid: duplicate circuit breaker names, out-of-range sub-builder
	// settings, a fallback without a handler, or similar build-time
	// mistakes.
	ErrFaultToleranceDefinition = errors.New("resilience: invalid fault tolerance definition")

	// ErrInterrupted names a synchronous invocation ended by its
	// cancellation signal (the Go analogue of Java's thread interruption)
	// rather than by a target-originated failure. No strategy in this
	// package returns it.
	ErrInterrupted = errors.New("resilience: invocation interrupted")

	// ErrHandleCancelled names a Handle cancelled before the underlying
	// invocation completed. No Handle in this package resolves with it:
	// Cancel on a Handle from Offload cancels the context fn observes, and
	// the Handle then resolves with whatever fn returns.
	ErrHandleCancelled = errors.New("resilience: handle cancelled")
)

// FaultToleranceDefinitionError reports one invalid sub-builder
// configuration found while validating a Builder at Build() time.
// Build() collects every definition error from every configured
// sub-builder with errors.Join rather than stopping at the first one, so
// a caller fixing a bad Builder sees every mistake at once instead of
// one per Build() attempt.
type FaultToleranceDefinitionError struct {
	Component string
	Reason    string
}

func (e *FaultToleranceDefinitionError) Error() string {
	return fmt.Sprintf("resilience: invalid %s definition: %s", e.Component, e.Reason)
}

func (e *FaultToleranceDefinitionError) Unwrap() error {
	return ErrFaultToleranceDefinition
}
