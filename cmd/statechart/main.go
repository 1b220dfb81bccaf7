// Command statechart compiles PlantUML statechart diagrams into Go state
// machines.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goliatone/go-logger/glog"

	statechart "github.com/goliatone/go-statechart"
	"github.com/goliatone/go-statechart/codegen"
	"github.com/goliatone/go-statechart/puml"
)

type cli struct {
	Verbose  bool        `help:"Enable debug logging." short:"v"`
	Generate generateCmd `cmd:"" help:"Generate a Go state machine from a diagram file."`
}

type generateCmd struct {
	Input   string `arg:"" help:"Diagram file (.puml)." type:"existingfile"`
	Out     string `help:"Output file; prints to stdout when omitted." short:"o"`
	Package string `help:"Package name for the generated file."`
	Machine string `help:"Machine name override."`
	Config  string `help:"YAML or JSON generator settings file." type:"existingfile"`
}

func main() {
	root := &cli{}
	ctx := kong.Parse(root,
		kong.Name("statechart"),
		kong.Description("PlantUML statechart subset to Go compiler."),
		kong.UsageOnError(),
	)

	level := "info"
	if root.Verbose {
		level = "debug"
	}
	logger := glogAdapter{logger: glog.NewLogger(
		glog.WithLevel(level),
	)}

	ctx.BindTo(logger, (*statechart.Logger)(nil))
	ctx.FatalIfErrorf(ctx.Run())
}

func (g *generateCmd) Run(logger statechart.Logger) error {
	data, err := os.ReadFile(g.Input)
	if err != nil {
		return err
	}

	cfg := codegen.Config{}
	if g.Config != "" {
		raw, err := os.ReadFile(g.Config)
		if err != nil {
			return err
		}
		if cfg, err = codegen.ParseConfig(raw); err != nil {
			return fmt.Errorf("generator config: %w", err)
		}
	}
	if g.Package != "" {
		cfg.Package = g.Package
	}
	if g.Machine != "" {
		cfg.Machine = g.Machine
	}

	name := diagramName(g.Input)
	out, err := statechart.Compile(name, string(data), statechart.WithLogger(logger), statechart.WithGeneratorConfig(cfg))
	if err != nil {
		if line := puml.ErrorLine(err); line > 0 {
			return fmt.Errorf("%s:%d: %w", g.Input, line, err)
		}
		return err
	}

	if g.Out == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(g.Out, []byte(out), 0o644); err != nil {
		return err
	}
	logger.Info("wrote %s", g.Out)
	return nil
}

// diagramName derives the machine name from the input file stem, matching
// the convention of naming the diagram after its file.
func diagramName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// glogAdapter bridges go-logger to the compiler's Logger contract.
type glogAdapter struct {
	logger glog.Logger
}

func (l glogAdapter) Trace(msg string, args ...any) { l.logger.Trace(msg, args...) }
func (l glogAdapter) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l glogAdapter) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l glogAdapter) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l glogAdapter) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l glogAdapter) Fatal(msg string, args ...any) { l.logger.Fatal(msg, args...) }

func (l glogAdapter) WithContext(ctx context.Context) statechart.Logger {
	return glogAdapter{logger: l.logger.WithContext(ctx)}
}
