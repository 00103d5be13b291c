package resilience

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// AsyncExecutor is the external collaborator that runs offloaded work.
// Production code typically supplies GoExecutor (an unbounded goroutine
// pool); ErrgroupExecutor bounds concurrency, useful in tests that must
// observe a fixed worker-pool ceiling.
type AsyncExecutor interface {
	// Go submits fn for execution. It must return a non-nil error, without
	// running fn, if submission is rejected (e.g. a bounded pool is full).
	Go(ctx context.Context, fn func()) error
}

// GoExecutor submits every fn on a freshly spawned goroutine. Go never
// rejects.
type GoExecutor struct{}

func (GoExecutor) Go(_ context.Context, fn func()) error {
	go fn()
	return nil
}

// ErrgroupExecutor bounds concurrency using golang.org/x/sync/errgroup's
// SetLimit, rejecting submissions once the limit is reached instead of
// blocking the caller.
type ErrgroupExecutor struct {
	mu    sync.Mutex
	group *errgroup.Group
	limit int
}

// NewErrgroupExecutor creates an executor that runs at most limit
// goroutines concurrently; further submissions while at the limit are
// rejected with ErrExecutionRejected rather than queued.
func NewErrgroupExecutor(limit int) *ErrgroupExecutor {
	g := &errgroup.Group{}
	g.SetLimit(limit)
	return &ErrgroupExecutor{group: g, limit: limit}
}

func (e *ErrgroupExecutor) Go(_ context.Context, fn func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.group.TryGo(func() error {
		fn()
		return nil
	}) {
		return ErrExecutionRejected
	}
	return nil
}

// Offload submits fn to executor and returns a Handle that resolves with
// fn's result once it completes. If the executor rejects submission, the
// returned Handle is already resolved with ErrExecutionRejected.
//
// The returned Handle's Cancel cancels the context fn observes; fn must
// check ctx to cooperate, same as any other cancellable Go function.
func Offload[T any](ctx context.Context, executor AsyncExecutor, fn Target[T]) Handle[T] {
	runCtx, cancel := context.WithCancel(ctx)
	h := newFutureHandle[T](cancel)

	if err := executor.Go(ctx, func() {
		v, err := fn(runCtx)
		h.resolve(v, err)
	}); err != nil {
		cancel()
		var zero T
		return Resolved(zero, ErrExecutionRejected)
	}
	return h
}

// withThreadOffload returns a Strategy that, when enabled, resubmits the
// remainder of the pipeline onto executor; every invocation is scheduled
// via the executor rather than proceeding on the caller's goroutine. When
// disabled it is the identity strategy.
func withThreadOffload[T any](enabled bool, executor AsyncExecutor, sink MetricsSink) Strategy[T] {
	if !enabled {
		return func(next Invocation[T]) Invocation[T] { return next }
	}
	if executor == nil {
		executor = GoExecutor{}
	}
	return func(next Invocation[T]) Invocation[T] {
		return func(ctx context.Context) Handle[T] {
			h := Offload(ctx, executor, func(ctx context.Context) (T, error) {
				inner := next(ctx)
				out := inner.Await()
				return out.Value, out.Err
			})
			if out := tryPeek(h); out != nil && out.Err == ErrExecutionRejected {
				emit(sink, EventExecutionRejected, 0)
			}
			return h
		}
	}
}

// tryPeek returns the outcome of h if it is already resolved, else nil. It
// never blocks.
func tryPeek[T any](h Handle[T]) *Outcome[T] {
	select {
	case <-h.Done():
		out := h.Await()
		return &out
	default:
		return nil
	}
}

// futureHandle is the lazily-resolved Handle implementation backing
// Offload and the timeout, circuit breaker, retry and fallback strategies
// that must produce a Handle before the inner work finishes.
type futureHandle[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	outcome   Outcome[T]
	resolved  bool
	callbacks []func(Outcome[T])
	cancel    context.CancelFunc
	cancelled bool
}

func newFutureHandle[T any](cancel context.CancelFunc) *futureHandle[T] {
	return &futureHandle[T]{done: make(chan struct{}), cancel: cancel}
}

func (h *futureHandle[T]) resolve(v T, err error) {
	h.mu.Lock()
	if h.resolved {
		h.mu.Unlock()
		return
	}
	h.resolved = true
	h.outcome = Outcome[T]{Value: v, Err: err}
	cbs := h.callbacks
	h.callbacks = nil
	h.mu.Unlock()

	close(h.done)
	for _, cb := range cbs {
		cb := cb
		safeCall(func() { cb(h.outcome) })
	}
}

func (h *futureHandle[T]) OnComplete(cb func(Outcome[T])) {
	h.mu.Lock()
	if h.resolved {
		out := h.outcome
		h.mu.Unlock()
		safeCall(func() { cb(out) })
		return
	}
	h.callbacks = append(h.callbacks, cb)
	h.mu.Unlock()
}

func (h *futureHandle[T]) Cancel() bool {
	h.mu.Lock()
	if h.resolved || h.cancelled {
		h.mu.Unlock()
		return false
	}
	h.cancelled = true
	cancel := h.cancel
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return true
}

func (h *futureHandle[T]) Done() <-chan struct{} { return h.done }

func (h *futureHandle[T]) Await() Outcome[T] {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outcome
}
