package resilience

import (
	"context"
	"time"
)

// RetryConfig configures a Retry strategy.
type RetryConfig struct {
	// MaxRetries is the number of retry attempts after the first, so the
	// total number of invocations is at most MaxRetries+1. Default: 3.
	MaxRetries int
	// MaxDuration bounds the total wall-clock time spent retrying,
	// measured from the first attempt. A retry whose delay would push it
	// past MaxDuration is not attempted. Zero means no limit.
	MaxDuration time.Duration
	// Delay computes the wait before each retry attempt. Default:
	// ConstantDelay(0, 0) (retry immediately).
	Delay DelayScheduler
	// Classifier decides whether a failed attempt should be retried
	// (ApplyOn) or aborted immediately without retrying (SkipOn, "skip
	// beats apply"). With the zero Classifier, every non-nil error is
	// retried.
	Classifier Classifier

	OnRetry func(attempt int, err error, delay time.Duration)

	// Executor schedules each delayed retry attempt. Default:
	// DefaultDelayExecutor (one goroutine per pending retry, unbounded).
	// Pass an *ErrgroupDelayExecutor to cap the number of concurrently
	// pending retries across many in-flight pipelines.
	Executor DelayExecutor
}

// Validate reports a FaultToleranceDefinitionError for any explicitly-set
// field that is out of range. Zero values are left alone since they mean
// "apply the default" rather than "disable".
func (c RetryConfig) Validate() error {
	if c.MaxRetries < 0 {
		return &FaultToleranceDefinitionError{Component: "retry", Reason: "MaxRetries must not be negative"}
	}
	if c.MaxDuration < 0 {
		return &FaultToleranceDefinitionError{Component: "retry", Reason: "MaxDuration must not be negative"}
	}
	return nil
}

// RetryStrategy retries the inner invocation on failures its Classifier
// selects, waiting config.Delay(attempt) between attempts. Both
// synchronous and asynchronous pipelines are handled uniformly: retries
// are scheduled through config.Executor rather than blocking a goroutine
// on time.Sleep, so an async pipeline's retry loop never pins a thread
// idle, and callers that need bounded concurrency across many retrying
// pipelines can supply an ErrgroupDelayExecutor.
func RetryStrategy[T any](config RetryConfig, clock Clock, sink MetricsSink) Strategy[T] {
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.Delay == nil {
		config.Delay = ConstantDelay(0, 0)
	}
	if len(config.Classifier.ApplyOn) == 0 {
		config.Classifier.ApplyOn = []Matcher{MatchAny()}
	}
	if clock == nil {
		clock = RealClock{}
	}
	if config.Executor == nil {
		config.Executor = DefaultDelayExecutor
	}

	return func(next Invocation[T]) Invocation[T] {
		return func(ctx context.Context) Handle[T] {
			start := clock.Now()
			outer := newFutureHandle[T](nil)

			var attempt func(n int)
			attempt = func(n int) {
				inner := next(ctx)
				inner.OnComplete(func(out Outcome[T]) {
					if out.Err == nil {
						outer.resolve(out.Value, out.Err)
						return
					}
					skip, apply := config.Classifier.Classify(out.Err)
					if skip || !apply || n >= config.MaxRetries {
						outer.resolve(out.Value, out.Err)
						return
					}

					delay := config.Delay(n + 1)
					if config.MaxDuration > 0 {
						elapsed := clock.Now().Sub(start)
						if elapsed+delay > config.MaxDuration {
							outer.resolve(out.Value, out.Err)
							return
						}
					}

					emit(sink, EventRetryAttempt, delay)
					if config.OnRetry != nil {
						safeCall(func() { config.OnRetry(n+1, out.Err, delay) })
					}

					config.Executor.Schedule(ctx, clock, delay,
						func() { attempt(n + 1) },
						func() { outer.resolve(out.Value, ctx.Err()) },
					)
				})
			}

			attempt(0)
			return outer
		}
	}
}
