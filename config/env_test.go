package config

import "testing"

func TestEnvSource_StringExactKey(t *testing.T) {
	t.Setenv("MP_Fault_Tolerance_NonFallback_Enabled", "true")
	s := EnvSource{}
	v, ok := s.String("MP_Fault_Tolerance_NonFallback_Enabled")
	if !ok || v != "true" {
		t.Errorf("String() = (%q, %v), want (\"true\", true)", v, ok)
	}
}

func TestEnvSource_StringFallsBackToUpperSnakeCase(t *testing.T) {
	t.Setenv("MP_FAULT_TOLERANCE_NONFALLBACK_ENABLED", "true")
	s := EnvSource{}
	v, ok := s.String("MP_Fault_Tolerance_NonFallback_Enabled")
	if !ok || v != "true" {
		t.Errorf("String() = (%q, %v), want (\"true\", true) via upper-snake fallback", v, ok)
	}
}

func TestEnvSource_StringAppliesPrefix(t *testing.T) {
	t.Setenv("APP_BREAKER_DELAY", "5s")
	s := EnvSource{Prefix: "APP_"}
	v, ok := s.String("BREAKER_DELAY")
	if !ok || v != "5s" {
		t.Errorf("String() = (%q, %v), want (\"5s\", true)", v, ok)
	}
}

func TestEnvSource_StringNotFound(t *testing.T) {
	s := EnvSource{}
	_, ok := s.String("DEFINITELY_UNSET_KEY_XYZ")
	if ok {
		t.Error("String() ok = true for an unset key")
	}
}

func TestEnvSource_BoolParsesAndRejectsGarbage(t *testing.T) {
	t.Setenv("FEATURE_FLAG", "false")
	s := EnvSource{}
	v, ok := s.Bool("FEATURE_FLAG")
	if !ok || v != false {
		t.Errorf("Bool() = (%v, %v), want (false, true)", v, ok)
	}

	t.Setenv("GARBAGE_FLAG", "not-a-bool")
	_, ok = s.Bool("GARBAGE_FLAG")
	if ok {
		t.Error("Bool() ok = true for an unparseable value")
	}
}

func TestEnvName(t *testing.T) {
	cases := map[string]string{
		"MP_Fault_Tolerance":      "MP_FAULT_TOLERANCE",
		"payments-breaker.delay":  "PAYMENTS_BREAKER_DELAY",
		"already_upper_123":       "ALREADY_UPPER_123",
	}
	for in, want := range cases {
		if got := envName(in); got != want {
			t.Errorf("envName(%q) = %q, want %q", in, got, want)
		}
	}
}
