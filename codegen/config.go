package codegen

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRuntimeImport is the runtime package generated machines depend on.
const DefaultRuntimeImport = "github.com/goliatone/go-statechart/machine"

// Config controls the shape of the emitted source file.
type Config struct {
	// Package is the package clause of the generated file.
	Package string `json:"package" yaml:"package"`
	// Machine overrides the machine name derived from the diagram.
	Machine string `json:"machine" yaml:"machine"`
	// ContextType names the generated hook-receiver struct.
	ContextType string `json:"context_type" yaml:"context_type"`
	// RuntimeImport overrides the runtime package import path.
	RuntimeImport string `json:"runtime_import" yaml:"runtime_import"`
}

// ParseConfig parses JSON or YAML generator settings.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		// yaml can handle JSON too, so a single attempt is fine
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the generator cannot honor.
func (c Config) Validate() error {
	if pkg := strings.TrimSpace(c.Package); pkg != "" && !isIdent(pkg) {
		return fmt.Errorf("package %q is not a valid Go package name", c.Package)
	}
	if ctx := strings.TrimSpace(c.ContextType); ctx != "" && !isIdent(ctx) {
		return fmt.Errorf("context type %q is not a valid Go identifier", c.ContextType)
	}
	return nil
}

// withDefaults resolves unset fields against the diagram name.
func (c Config) withDefaults(diagramName string) Config {
	out := c
	if strings.TrimSpace(out.Machine) == "" {
		out.Machine = exportedIdent(diagramName)
	}
	if strings.TrimSpace(out.Package) == "" {
		out.Package = packageIdent(diagramName)
	}
	if strings.TrimSpace(out.ContextType) == "" {
		out.ContextType = "Context"
	}
	if strings.TrimSpace(out.RuntimeImport) == "" {
		out.RuntimeImport = DefaultRuntimeImport
	}
	return out
}
