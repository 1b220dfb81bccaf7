// Package statechart compiles a restricted PlantUML statechart notation
// into executable Go state machines. The pipeline is strictly one way:
// text is scanned into classified statements, parsed into a validated AST,
// and lowered to source code; any error aborts the run and is returned to
// the caller with its line and text-code diagnostics attached.
package statechart

import (
	"github.com/goliatone/go-statechart/codegen"
	"github.com/goliatone/go-statechart/puml"
)

// Option configures a compilation run.
type Option func(*compiler)

type compiler struct {
	logger Logger
	cfg    codegen.Config
}

// WithLogger routes stage logging to the given logger.
func WithLogger(logger Logger) Option {
	return func(c *compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithGeneratorConfig overrides the emitted file's package, machine name,
// context type, or runtime import path.
func WithGeneratorConfig(cfg codegen.Config) Option {
	return func(c *compiler) {
		c.cfg = cfg
	}
}

// ParseDiagram scans, parses and validates diagram text, returning the
// immutable AST. The name seeds the diagram (and default machine) name.
func ParseDiagram(name, source string) (*puml.Diagram, error) {
	statements, err := puml.Scan(source)
	if err != nil {
		return nil, err
	}
	diagram, err := puml.Parse(name, statements)
	if err != nil {
		return nil, err
	}
	if err := puml.Validate(diagram); err != nil {
		return nil, err
	}
	return diagram, nil
}

// Compile runs the full pipeline, text through generated source, one
// compilation unit at a time. The returned string is the generated Go file;
// persisting it is the caller's concern.
func Compile(name, source string, opts ...Option) (string, error) {
	c := &compiler{logger: NewFmtLogger(nil)}
	for _, opt := range opts {
		opt(c)
	}

	statements, err := puml.Scan(source)
	if err != nil {
		c.logger.Error("scan failed: %v", err)
		return "", err
	}
	c.logger.Debug("scanned %s: %d statements", name, len(statements))

	diagram, err := puml.Parse(name, statements)
	if err != nil {
		c.logger.Error("parse failed: %v", err)
		return "", err
	}
	if err := puml.Validate(diagram); err != nil {
		c.logger.Error("validation failed: %v", err)
		return "", err
	}
	c.logger.Debug("validated %s: %d top-level states", name, len(diagram.States))

	out, err := codegen.New(c.cfg).Generate(diagram)
	if err != nil {
		c.logger.Error("generation failed: %v", err)
		return "", err
	}
	c.logger.Info("generated machine %s (%d bytes)", name, len(out))
	return out, nil
}
