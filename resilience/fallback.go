package resilience

import (
	"context"
	"errors"
	"reflect"
)

// FallbackConfig configures a Fallback strategy.
type FallbackConfig[T any] struct {
	// Handler supplies a replacement result when the inner invocation
	// fails and Classifier selects its error for fallback. It receives the
	// triggering error and the same context the inner invocation ran
	// under. Required.
	Handler func(ctx context.Context, cause error) (T, error)
	// Classifier decides whether a failed attempt should be handled
	// (ApplyOn) or rethrown untouched (SkipOn, "skip beats apply"). With
	// the zero Classifier, every non-nil error is handled.
	Classifier Classifier
	// CauseChain, when true, also matches Classifier against err's unwrap
	// chain — not just err itself — the same dispatch-by-cause-type
	// semantics applied when choosing among several FallbackByType
	// handlers.
	CauseChain bool

	OnFallback func(cause error)
}

// Validate reports a FaultToleranceDefinitionError if Handler is unset;
// a Fallback strategy with nothing to fall back to is a definition
// mistake, not a runtime condition.
func (c FallbackConfig[T]) Validate() error {
	if c.Handler == nil {
		return &FaultToleranceDefinitionError{Component: "fallback", Reason: "Handler is required"}
	}
	return nil
}

// FallbackStrategy supplies config.Handler's result whenever the inner
// invocation's error is selected by config.Classifier, instead of letting
// the error propagate.
func FallbackStrategy[T any](config FallbackConfig[T], sink MetricsSink) Strategy[T] {
	config.Classifier.CauseChain = config.Classifier.CauseChain || config.CauseChain
	if len(config.Classifier.ApplyOn) == 0 {
		config.Classifier.ApplyOn = []Matcher{MatchAny()}
	}

	return func(next Invocation[T]) Invocation[T] {
		return func(ctx context.Context) Handle[T] {
			inner := next(ctx)
			h := newFutureHandle[T](nil)
			inner.OnComplete(func(out Outcome[T]) {
				if out.Err == nil {
					h.resolve(out.Value, out.Err)
					return
				}
				skip, apply := config.Classifier.Classify(out.Err)
				if skip || !apply {
					h.resolve(out.Value, out.Err)
					return
				}
				emit(sink, EventFallbackApplied, 0)
				if config.OnFallback != nil {
					safeCall(func() { config.OnFallback(out.Err) })
				}
				v, err := config.Handler(ctx, out.Err)
				h.resolve(v, err)
			})
			return h
		}
	}
}

// FallbackByType builds a Handler that dispatches on the concrete type of
// the triggering error (or a type in its unwrap chain), mirroring overload
// resolution across several differently-typed fallback methods: the first
// case whose error type matches via errors.As wins, in the order given.
// caseFn's signature must be func(ctx context.Context, cause E) (T, error)
// for some error type E; a case with the wrong shape is a programmer error
// and FallbackByType panics while building the dispatcher, not at call
// time. A final no-argument case of signature func(ctx context.Context)
// (T, error) acts as the catch-all and must be listed last if present.
func FallbackByType[T any](cases ...any) func(ctx context.Context, cause error) (T, error) {
	type typedCase struct {
		errType reflect.Type
		catchAll bool
		fn       reflect.Value
	}

	built := make([]typedCase, 0, len(cases))
	for _, c := range cases {
		fn := reflect.ValueOf(c)
		if fn.Kind() != reflect.Func {
			panic("resilience: FallbackByType case must be a function")
		}
		ft := fn.Type()
		if ft.NumIn() == 1 {
			built = append(built, typedCase{catchAll: true, fn: fn})
			continue
		}
		if ft.NumIn() != 2 {
			panic("resilience: FallbackByType case must take (context.Context) or (context.Context, error)")
		}
		built = append(built, typedCase{errType: ft.In(1), fn: fn})
	}

	return func(ctx context.Context, cause error) (T, error) {
		for _, c := range built {
			if c.catchAll {
				return callFallbackCase[T](c.fn, ctx, reflect.Value{})
			}
			target := reflect.New(c.errType).Elem()
			if errorsAsReflect(cause, c.errType, target) {
				return callFallbackCase[T](c.fn, ctx, target)
			}
		}
		var zero T
		return zero, cause
	}
}

func callFallbackCase[T any](fn reflect.Value, ctx context.Context, causeVal reflect.Value) (T, error) {
	var args []reflect.Value
	if causeVal.IsValid() {
		args = []reflect.Value{reflect.ValueOf(ctx), causeVal}
	} else {
		args = []reflect.Value{reflect.ValueOf(ctx)}
	}
	out := fn.Call(args)
	v, _ := out[0].Interface().(T)
	err, _ := out[1].Interface().(error)
	return v, err
}

// errorsAsReflect is errors.As with a runtime-determined target type,
// needed because FallbackByType builds its dispatch table from reflected
// function signatures rather than compile-time type parameters.
func errorsAsReflect(err error, targetType reflect.Type, target reflect.Value) bool {
	if !targetType.Implements(reflect.TypeOf((*error)(nil)).Elem()) && targetType.Kind() != reflect.Interface {
		return false
	}
	// errors.As requires a non-nil pointer to a type implementing error,
	// or to an interface type; build one and delegate.
	ptr := reflect.New(targetType)
	ptr.Elem().Set(target)
	if !errors.As(err, ptr.Interface()) {
		return false
	}
	target.Set(ptr.Elem())
	return true
}
