package codegen

import (
	"strings"
	"testing"
)

func TestParseConfigYAML(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
package: laundry
machine: Washer
context_type: Hooks
runtime_import: example.com/runtime/machine
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Package != "laundry" || cfg.Machine != "Washer" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ContextType != "Hooks" || cfg.RuntimeImport != "example.com/runtime/machine" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseConfigJSON(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"package": "laundry", "machine": "Washer"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Package != "laundry" || cfg.Machine != "Washer" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseConfigRejectsBadIdentifiers(t *testing.T) {
	if _, err := ParseConfig([]byte(`package: "not a package"`)); err == nil {
		t.Fatalf("expected invalid package name to fail")
	}
	_, err := ParseConfig([]byte(`context_type: "1bad"`))
	if err == nil || !strings.Contains(err.Error(), "context type") {
		t.Fatalf("expected invalid context type, got %v", err)
	}
}

func TestParseConfigRejectsMalformedInput(t *testing.T) {
	if _, err := ParseConfig([]byte("package: [unterminated")); err == nil {
		t.Fatalf("expected malformed yaml to fail")
	}
}

func TestExportedIdent(t *testing.T) {
	cases := []struct{ in, want string }{
		{"ring bell!", "RingBell"},
		{"unlock the door", "UnlockTheDoor"},
		{"washing_machine", "WashingMachine"},
		{"4 cycles done", "CyclesDone"},
		{"heat to 90 degrees", "HeatTo90Degrees"},
		{"???", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := exportedIdent(tc.in); got != tc.want {
			t.Fatalf("exportedIdent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGuardEmittable(t *testing.T) {
	for _, expr := range []string{"cycles > 3", "c.Ready()", "!locked && door_closed", `mode == "eco"`} {
		if !guardEmittable(expr) {
			t.Fatalf("expected %q to be emittable", expr)
		}
	}
	for _, expr := range []string{"", "x @ y", "a;b", "line\nbreak", "temp ≥ 90"} {
		if guardEmittable(expr) {
			t.Fatalf("expected %q to be rejected", expr)
		}
	}
}
