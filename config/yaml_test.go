package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseYAML_StringAndBool(t *testing.T) {
	src, err := ParseYAML([]byte(`
MP_Fault_Tolerance_NonFallback_Enabled: false
payments-breaker.requestVolumeThreshold: 20
`))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	b, ok := src.Bool("MP_Fault_Tolerance_NonFallback_Enabled")
	if !ok || b != false {
		t.Errorf("Bool() = (%v, %v), want (false, true)", b, ok)
	}

	v, ok := src.String("payments-breaker.requestVolumeThreshold")
	if !ok || v != "20" {
		t.Errorf("String() = (%q, %v), want (\"20\", true)", v, ok)
	}
}

func TestParseYAML_ExpandsEnvInValues(t *testing.T) {
	t.Setenv("BREAKER_DELAY_OVERRIDE", "10s")
	src, err := ParseYAML([]byte(`delay: "$BREAKER_DELAY_OVERRIDE"`))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	v, ok := src.String("delay")
	if !ok || v != "10s" {
		t.Errorf("String() = (%q, %v), want (\"10s\", true)", v, ok)
	}
}

func TestParseYAML_MissingKeyNotFound(t *testing.T) {
	src, err := ParseYAML([]byte(`known: value`))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if _, ok := src.String("unknown"); ok {
		t.Error("String() ok = true for a key not in the document")
	}
}

func TestParseYAML_InvalidDocumentErrors(t *testing.T) {
	_, err := ParseYAML([]byte("not: valid: yaml: [["))
	if err == nil {
		t.Fatal("ParseYAML() error = nil for malformed YAML")
	}
}

func TestYAMLSource_BoolRejectsUnparseableValue(t *testing.T) {
	src, err := ParseYAML([]byte(`flag: not-a-bool`))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if _, ok := src.Bool("flag"); ok {
		t.Error("Bool() ok = true for an unparseable value")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("enabled: true\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	src, err := LoadYAMLFile(path)
	if err != nil {
		t.Fatalf("LoadYAMLFile() error = %v", err)
	}
	b, ok := src.Bool("enabled")
	if !ok || !b {
		t.Errorf("Bool() = (%v, %v), want (true, true)", b, ok)
	}
}

func TestLoadYAMLFile_MissingFileErrors(t *testing.T) {
	_, err := LoadYAMLFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("LoadYAMLFile() error = nil for a missing file")
	}
}
