package config

import (
	"fmt"
	"os"
	"strconv"

	yaml "go.yaml.in/yaml/v2"
)

// YAMLSource is a Source backed by a flat YAML document of key/value
// pairs, e.g.:
//
//	MP_Fault_Tolerance_NonFallback_Enabled: false
//	payments-breaker.requestVolumeThreshold: 20
//
// String values go through os.ExpandEnv, so a YAML file can defer to the
// environment for values that vary per deployment without a templating
// step.
type YAMLSource struct {
	values map[string]string
}

// LoadYAMLFile reads and parses path into a YAMLSource.
func LoadYAMLFile(path string) (*YAMLSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return ParseYAML(data)
}

// ParseYAML parses a YAML document's bytes into a YAMLSource.
func ParseYAML(data []byte) (*YAMLSource, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		values[k] = os.ExpandEnv(fmt.Sprint(v))
	}
	return &YAMLSource{values: values}, nil
}

func (s *YAMLSource) String(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *YAMLSource) Bool(key string) (bool, bool) {
	v, ok := s.values[key]
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
