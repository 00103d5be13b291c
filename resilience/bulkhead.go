package resilience

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// BulkheadConfig configures a Bulkhead.
type BulkheadConfig struct {
	// Value is the maximum number of concurrent in-flight invocations.
	// Default: 10.
	Value int

	// WaitingTaskQueue bounds the number of further invocations queued
	// once Value permits are in use. Only consulted in async mode; a sync
	// bulkhead never queues. Default: 0 (no queueing).
	WaitingTaskQueue int

	// OnAccepted, OnRejected and OnQueueLeft fire on acceptance, rejection,
	// and leaving the wait queue (with the time spent waiting).
	OnAccepted  func()
	OnRejected  func()
	OnQueueLeft func(waitTime time.Duration)
}

// Validate reports a FaultToleranceDefinitionError for any explicitly-set
// field that is out of range. Zero values are left alone since they mean
// "apply the default" rather than "disable".
func (c BulkheadConfig) Validate() error {
	if c.Value < 0 {
		return &FaultToleranceDefinitionError{Component: "bulkhead", Reason: "Value must not be negative"}
	}
	if c.WaitingTaskQueue < 0 {
		return &FaultToleranceDefinitionError{Component: "bulkhead", Reason: "WaitingTaskQueue must not be negative"}
	}
	return nil
}

// Bulkhead bounds concurrent in-flight invocations to Value, optionally
// queueing up to WaitingTaskQueue further ones in async mode. Permits come
// from golang.org/x/sync/semaphore.Weighted, whose internal waiter list is
// itself strict FIFO, so queued invocations are admitted in arrival order.
type Bulkhead struct {
	config BulkheadConfig
	sem    *semaphore.Weighted
	clock  Clock

	mu       sync.Mutex
	active   int
	queueLen int
}

// NewBulkhead creates a Bulkhead with the given configuration.
func NewBulkhead(config BulkheadConfig, clock Clock) *Bulkhead {
	if config.Value <= 0 {
		config.Value = 10
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Bulkhead{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.Value)),
		clock:  clock,
	}
}

// BulkheadStrategy adapts a Bulkhead into a Strategy for invocations
// carrying value type T. mode controls whether admission ever queues.
func BulkheadStrategy[T any](b *Bulkhead, mode Mode, sink MetricsSink) Strategy[T] {
	return func(next Invocation[T]) Invocation[T] {
		return func(ctx context.Context) Handle[T] {
			if !b.sem.TryAcquire(1) {
				if mode == ModeSync || b.config.WaitingTaskQueue <= 0 {
					return rejectBulkhead[T](b, sink)
				}
				if !b.enterQueue() {
					return rejectBulkhead[T](b, sink)
				}
				start := b.clock.Now()
				if err := b.sem.Acquire(ctx, 1); err != nil {
					b.leaveQueue()
					var zero T
					return Resolved(zero, err)
				}
				waited := b.clock.Now().Sub(start)
				b.leaveQueue()
				emit(sink, EventBulkheadQueueLeft, waited)
				if b.config.OnQueueLeft != nil {
					safeCall(func() { b.config.OnQueueLeft(waited) })
				}
			}

			b.mu.Lock()
			b.active++
			b.mu.Unlock()
			emit(sink, EventBulkheadAccepted, 0)
			if b.config.OnAccepted != nil {
				safeCall(b.config.OnAccepted)
			}

			inner := next(ctx)
			inner.OnComplete(func(Outcome[T]) {
				b.mu.Lock()
				b.active--
				b.mu.Unlock()
				b.sem.Release(1)
			})
			return inner
		}
	}
}

// rejectBulkhead builds the ErrBulkheadRejected outcome and emits the
// associated event. A free function rather than a method because Go does
// not allow a generic method on the non-generic Bulkhead receiver.
func rejectBulkhead[T any](b *Bulkhead, sink MetricsSink) Handle[T] {
	emit(sink, EventBulkheadRejected, 0)
	if b.config.OnRejected != nil {
		safeCall(b.config.OnRejected)
	}
	var zero T
	return Resolved(zero, ErrBulkheadRejected)
}

func (b *Bulkhead) enterQueue() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.queueLen >= b.config.WaitingTaskQueue {
		return false
	}
	b.queueLen++
	return true
}

func (b *Bulkhead) leaveQueue() {
	b.mu.Lock()
	b.queueLen--
	b.mu.Unlock()
}

// BulkheadMetrics reports current bulkhead occupancy.
type BulkheadMetrics struct {
	Active    int
	QueueLen  int
	Available int
}

// Metrics returns a snapshot of current bulkhead occupancy.
func (b *Bulkhead) Metrics() BulkheadMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BulkheadMetrics{
		Active:    b.active,
		QueueLen:  b.queueLen,
		Available: b.config.Value - b.active,
	}
}
