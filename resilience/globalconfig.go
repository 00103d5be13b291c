package resilience

import "sync"

// ConfigSource is the minimal external-configuration lookup the
// resilience package itself needs. It is satisfied by config.Source from
// the sibling config package; declared locally to avoid an import cycle
// (config has no reason to depend on resilience, and resilience should
// not force every caller to import config just to build a pipeline that
// never touches it).
type ConfigSource interface {
	Bool(key string) (value bool, ok bool)
}

// GlobalConfig is consulted once, on the first Pipeline build, for
// MP_Fault_Tolerance_NonFallback_Enabled. Leave nil (the default) to keep
// every strategy enabled process-wide.
var GlobalConfig ConfigSource

var (
	nonFallbackEnabledOnce sync.Once
	nonFallbackEnabled     bool
)

const nonFallbackEnabledKey = "MP_Fault_Tolerance_NonFallback_Enabled"

// nonFallbackStrategiesEnabled reports whether GlobalConfig's
// MP_Fault_Tolerance_NonFallback_Enabled is true. Defaults to true (every
// strategy enabled) when GlobalConfig is nil or the key is absent. When
// explicitly set to false, Build elides every non-fallback strategy
// (Bulkhead, Retry, CircuitBreaker, RateLimit, Timeout) from the pipeline
// — Fallback and ThreadOffload are unaffected. The value is read once per
// process and cached, matching the read-once-at-first-use semantics
// MicroProfile Config implementations apply to this property.
func nonFallbackStrategiesEnabled() bool {
	nonFallbackEnabledOnce.Do(func() {
		nonFallbackEnabled = true
		if GlobalConfig == nil {
			return
		}
		if v, ok := GlobalConfig.Bool(nonFallbackEnabledKey); ok {
			nonFallbackEnabled = v
		}
	})
	return nonFallbackEnabled
}
