package resilience

import "github.com/google/uuid"

// InterceptionPoint identifies a guarded target stably enough to be used
// as the key of a strategy cache (see package strategycache), through
// which stateful strategies stored under the same point can share state
// across invocations. In the declarative/annotation case this would be
// class+method; here it is whatever the caller says it is. Builder does
// not use InterceptionPoints.
type InterceptionPoint struct {
	// Name identifies the guarded target, e.g. "orders.create" or a
	// fully-qualified method name.
	Name string
	// Kind further scopes Name, e.g. "bulkhead", "circuit-breaker", so one
	// guarded target can own independent bulkhead and circuit-breaker state
	// under the same Name. The caller sets it.
	Kind string
}

// NewInterceptionPoint builds a stable point from an explicit name.
func NewInterceptionPoint(kind, name string) InterceptionPoint {
	return InterceptionPoint{Name: name, Kind: kind}
}

// anonymousInterceptionPoint synthesizes a process-unique identity for a
// stateful strategy that has no declared name. Unlike a named point, an
// anonymous one is never shared. No code in this package calls it.
func anonymousInterceptionPoint(kind string) InterceptionPoint {
	return InterceptionPoint{Name: uuid.NewString(), Kind: kind}
}
