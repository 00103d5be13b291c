package resilience

import "testing"

func TestSentinelErrors(t *testing.T) {
	errs := []struct {
		name string
		err  error
	}{
		{"ErrCircuitBreakerOpen", ErrCircuitBreakerOpen},
		{"ErrRetriesExhausted", ErrRetriesExhausted},
		{"ErrRateLimitExceeded", ErrRateLimitExceeded},
		{"ErrBulkheadRejected", ErrBulkheadRejected},
		{"ErrTimeout", ErrTimeout},
		{"ErrExecutionRejected", ErrExecutionRejected},
		{"ErrFaultToleranceDefinition", ErrFaultToleranceDefinition},
		{"ErrInterrupted", ErrInterrupted},
		{"ErrHandleCancelled", ErrHandleCancelled},
	}

	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatalf("%s is nil", tt.name)
			}
			if tt.err.Error() == "" {
				t.Errorf("%s has empty message", tt.name)
			}
		})
	}
}
