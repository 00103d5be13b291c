package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvSource reads configuration from process environment variables,
// applying Prefix (if set) and uppercasing/underscoring the key the same
// way MicroProfile Config env-var mapping does: "MP_Fault_Tolerance_..."
// is looked up verbatim first, then as its upper-snake-case form.
type EnvSource struct {
	Prefix string
}

func (e EnvSource) lookup(key string) (string, bool) {
	full := e.Prefix + key
	if v, ok := os.LookupEnv(full); ok {
		return v, true
	}
	if v, ok := os.LookupEnv(envName(full)); ok {
		return v, true
	}
	return "", false
}

func envName(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 32)
		case r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (e EnvSource) String(key string) (string, bool) {
	return e.lookup(key)
}

func (e EnvSource) Bool(key string) (bool, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
