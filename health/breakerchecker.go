package health

import (
	"context"
	"time"

	"github.com/jonwraymond/faulttolerance/resilience"
)

// CircuitBreakerChecker reports a named circuit breaker's state as a
// health Result: Closed is healthy, HalfOpen is degraded (the breaker is
// actively probing recovery), Open is unhealthy.
type CircuitBreakerChecker struct {
	name        string
	maintenance *resilience.CircuitBreakerMaintenance
}

// NewCircuitBreakerChecker builds a Checker for the breaker registered
// under name in maintenance. Check reports StatusUnhealthy with an error
// if no breaker is registered under that name, rather than panicking, so a
// checker can be wired up before its breaker is built.
func NewCircuitBreakerChecker(maintenance *resilience.CircuitBreakerMaintenance, name string) *CircuitBreakerChecker {
	return &CircuitBreakerChecker{name: name, maintenance: maintenance}
}

func (c *CircuitBreakerChecker) Name() string {
	return "circuit-breaker:" + c.name
}

func (c *CircuitBreakerChecker) Check(_ context.Context) Result {
	start := time.Now()
	state, err := c.maintenance.CurrentState(c.name)
	if err != nil {
		return Unhealthy(err.Error(), err).WithDuration(time.Since(start))
	}

	switch state {
	case resilience.BreakerClosed:
		return Healthy("circuit closed").WithDuration(time.Since(start))
	case resilience.BreakerHalfOpen:
		return Degraded("circuit half-open, probing recovery").WithDuration(time.Since(start))
	default:
		return Unhealthy("circuit open", nil).WithDuration(time.Since(start))
	}
}
