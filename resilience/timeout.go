package resilience

import (
	"context"
	"sync"
	"time"
)

// TimeoutConfig configures a Timeout strategy.
type TimeoutConfig struct {
	// Duration is the maximum time the inner invocation is allowed to run.
	Duration time.Duration

	// OnFinished fires on terminal completion only when the timer did not
	// win the race; OnTimeout fires when it did.
	OnTimeout  func()
	OnFinished func()
}

// Validate reports a FaultToleranceDefinitionError if Duration is
// negative. Zero is left alone since it means "apply the default".
func (c TimeoutConfig) Validate() error {
	if c.Duration < 0 {
		return &FaultToleranceDefinitionError{Component: "timeout", Reason: "Duration must not be negative"}
	}
	return nil
}

// TimeoutStrategy enforces that the inner invocation completes within
// config.Duration. Synchronous and asynchronous pipelines are handled
// uniformly, since both are Handle[T] underneath: a timer races the inner
// handle's completion, and whichever finishes first wins — the loser is
// cancelled.
//
// Go has no forced thread interruption; the idiom here is cooperative
// cancellation via context, so the inner target is expected to observe
// ctx.Done() the same way any other cancellable Go function would. The
// outer outcome is ErrTimeout either way, whether or not the target
// noticed its context was cancelled.
func TimeoutStrategy[T any](config TimeoutConfig, clock Clock, sink MetricsSink) Strategy[T] {
	if config.Duration <= 0 {
		config.Duration = 30 * time.Second
	}
	if clock == nil {
		clock = RealClock{}
	}

	return func(next Invocation[T]) Invocation[T] {
		return func(ctx context.Context) Handle[T] {
			innerCtx, cancel := context.WithCancel(ctx)
			start := clock.Now()
			h := newFutureHandle[T](cancel)

			timerCh, stopTimer := clock.NewTimer(config.Duration)

			var once sync.Once
			finish := func(v T, err error, timedOut bool) {
				once.Do(func() {
					stopTimer()
					cancel()
					elapsed := clock.Now().Sub(start)
					if timedOut {
						emit(sink, EventTimeoutTimedOut, elapsed)
						if config.OnTimeout != nil {
							safeCall(config.OnTimeout)
						}
						h.resolve(v, ErrTimeout)
						return
					}
					emit(sink, EventTimeoutSucceeded, elapsed)
					if config.OnFinished != nil {
						safeCall(config.OnFinished)
					}
					h.resolve(v, err)
				})
			}

			// next may block synchronously (the default SyncTarget path with no
			// ThreadOffload underneath): run it on its own goroutine so the timer
			// race below starts immediately instead of waiting for next to return.
			innerCh := make(chan Handle[T], 1)
			go func() {
				inner := next(innerCtx)
				innerCh <- inner
				inner.OnComplete(func(out Outcome[T]) {
					finish(out.Value, out.Err, false)
				})
			}()

			go func() {
				select {
				case <-timerCh:
					var zero T
					finish(zero, nil, true)
					if inner := <-innerCh; inner != nil {
						inner.Cancel()
					}
				case <-h.Done():
				}
			}()

			return h
		}
	}
}
