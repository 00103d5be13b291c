package resilience

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// DelayExecutor schedules a retry attempt's delayed continuation. Schedule
// returns immediately except where the implementation's admission policy
// requires blocking (ErrgroupDelayExecutor, once its concurrency limit is
// reached), and must eventually invoke exactly one of onFire (the delay
// elapsed) or onCancel (ctx was done first).
type DelayExecutor interface {
	Schedule(ctx context.Context, clock Clock, delay time.Duration, onFire func(), onCancel func())
}

// defaultDelayExecutor runs each scheduled delay on its own goroutine, the
// Clock-driven analogue of time.AfterFunc used so FakeClock can drive
// retry scheduling deterministically in tests.
type defaultDelayExecutor struct{}

// DefaultDelayExecutor is the zero-configuration DelayExecutor: unbounded,
// one goroutine per pending retry.
var DefaultDelayExecutor DelayExecutor = defaultDelayExecutor{}

func (defaultDelayExecutor) Schedule(ctx context.Context, clock Clock, delay time.Duration, onFire func(), onCancel func()) {
	timerCh, stopTimer := clock.NewTimer(delay)
	go func() {
		select {
		case <-timerCh:
			stopTimer()
			onFire()
		case <-ctx.Done():
			stopTimer()
			onCancel()
		}
	}()
}

// ErrgroupDelayExecutor bounds the number of concurrently pending delayed
// retries using golang.org/x/sync/errgroup's SetLimit, so a caller driving
// many simultaneously-retrying pipelines doesn't spawn an unbounded
// goroutine per pending backoff delay. Schedule blocks until a slot is
// free once the limit is reached.
type ErrgroupDelayExecutor struct {
	group *errgroup.Group
}

// NewErrgroupDelayExecutor creates a DelayExecutor allowing at most limit
// concurrently pending delayed retries. limit <= 0 means unbounded, in
// which case it behaves like DefaultDelayExecutor but still exposes Wait.
func NewErrgroupDelayExecutor(limit int) *ErrgroupDelayExecutor {
	g := &errgroup.Group{}
	if limit > 0 {
		g.SetLimit(limit)
	}
	return &ErrgroupDelayExecutor{group: g}
}

func (e *ErrgroupDelayExecutor) Schedule(ctx context.Context, clock Clock, delay time.Duration, onFire func(), onCancel func()) {
	e.group.Go(func() error {
		timerCh, stopTimer := clock.NewTimer(delay)
		select {
		case <-timerCh:
			stopTimer()
			onFire()
		case <-ctx.Done():
			stopTimer()
			onCancel()
		}
		return nil
	})
}

// Wait blocks until every retry scheduled through e has completed. Useful
// in tests and graceful-shutdown paths that need to know no more retry
// goroutines are pending.
func (e *ErrgroupDelayExecutor) Wait() error {
	return e.group.Wait()
}
