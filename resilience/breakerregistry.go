package resilience

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// CircuitBreakerMaintenance is a named registry of circuit breakers,
// letting an operator inspect and reset breakers by name at runtime
// (health checks, admin endpoints, tests) without plumbing a *CircuitBreaker
// reference through to every caller that needs one.
type CircuitBreakerMaintenance struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
}

// NewCircuitBreakerMaintenance creates an empty registry.
func NewCircuitBreakerMaintenance() *CircuitBreakerMaintenance {
	return &CircuitBreakerMaintenance{breakers: make(map[string]*CircuitBreaker)}
}

// Register adds a breaker under name. Registering the same name twice is an
// error — names must identify a single breaker instance unambiguously.
func (m *CircuitBreakerMaintenance) Register(name string, cb *CircuitBreaker) error {
	name = strings.TrimSpace(name)
	if name == "" || cb == nil {
		return &FaultToleranceDefinitionError{Component: "circuitBreaker", Reason: "registration requires a non-empty name and a non-nil breaker"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.breakers[name]; exists {
		return &FaultToleranceDefinitionError{Component: "circuitBreaker", Reason: fmt.Sprintf("name %q already registered", name)}
	}
	m.breakers[name] = cb
	return nil
}

// CurrentState returns the named breaker's current state.
func (m *CircuitBreakerMaintenance) CurrentState(name string) (BreakerState, error) {
	cb, err := m.lookup(name)
	if err != nil {
		return BreakerClosed, err
	}
	return cb.State(), nil
}

// Reset forces the named breaker back to closed.
func (m *CircuitBreakerMaintenance) Reset(name string) error {
	cb, err := m.lookup(name)
	if err != nil {
		return err
	}
	cb.Reset()
	return nil
}

// ResetAll forces every registered breaker back to closed.
func (m *CircuitBreakerMaintenance) ResetAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, cb := range m.breakers {
		cb.Reset()
	}
}

// OnStateChange subscribes listener to every subsequent state transition
// of the named breaker. Unlike CircuitBreakerConfig.OnStateChange (set
// once, at build time), this registers an additional, post-construction
// subscription by name — the mechanism a health check or admin endpoint
// uses to observe a breaker it did not build itself.
func (m *CircuitBreakerMaintenance) OnStateChange(name string, listener func(from, to BreakerState)) error {
	cb, err := m.lookup(name)
	if err != nil {
		return err
	}
	cb.onStateChange(listener)
	return nil
}

// Names returns the registered breaker names, sorted.
func (m *CircuitBreakerMaintenance) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.breakers))
	for name := range m.breakers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *CircuitBreakerMaintenance) lookup(name string) (*CircuitBreaker, error) {
	name = strings.TrimSpace(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	cb, ok := m.breakers[name]
	if !ok {
		return nil, fmt.Errorf("resilience: circuit breaker %q is not registered", name)
	}
	return cb, nil
}

// DefaultMaintenance is the process-wide circuit breaker registry used by
// pipelines built without an explicit CircuitBreakerMaintenance.
var DefaultMaintenance = NewCircuitBreakerMaintenance()
