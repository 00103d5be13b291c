// Package config provides the small external-configuration surface the
// resilience package reads at pipeline build time (currently just the
// switch that turns off every strategy except fallback and thread-offload),
// modeled as a Source a host application can back
// with environment variables, a YAML file, or anything else.
package config

// Source looks up configuration values by key. A Source need only answer
// the keys it knows about; the second return value reports whether the
// key was found with a usable value. A value that is present but cannot be
// parsed as the requested type is reported the same way as a missing key
// (ok is false).
type Source interface {
	String(key string) (value string, ok bool)
	Bool(key string) (value bool, ok bool)
}

// MultiSource tries each Source in order, returning the first hit. Useful
// for layering an override source (e.g. environment variables) over a
// base source (e.g. a YAML file).
type MultiSource []Source

func (m MultiSource) String(key string) (string, bool) {
	for _, s := range m {
		if s == nil {
			continue
		}
		if v, ok := s.String(key); ok {
			return v, true
		}
	}
	return "", false
}

func (m MultiSource) Bool(key string) (bool, bool) {
	for _, s := range m {
		if s == nil {
			continue
		}
		if v, ok := s.Bool(key); ok {
			return v, true
		}
	}
	return false, false
}
