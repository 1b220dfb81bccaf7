package statechart

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-statechart/codegen"
	"github.com/goliatone/go-statechart/puml"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(data)
}

func TestCompileWashingMachine(t *testing.T) {
	out, err := Compile("washing_machine", fixture(t, "washing_machine.puml"),
		WithLogger(NewFmtLogger(io.Discard)))
	require.NoError(t, err)

	assert.Contains(t, out, "package washingmachine")
	assert.Contains(t, out, "func NewWashingMachine(ctx *Context) (*machine.Machine, error) {")
	assert.Contains(t, out, `StateClosedWash = "Closed.Wash"`)
	assert.Contains(t, out, "Initial: StateOpen,")
	assert.Contains(t, out, "History: true,")
	assert.Contains(t, out, "Target: machine.ToHistory(StateClosed),")
	assert.Contains(t, out, "func (c *Context) LockTheDoor() {}")
}

func TestCompileCoffeeMachine(t *testing.T) {
	out, err := Compile("coffee_machine", fixture(t, "coffee_machine.puml"),
		WithLogger(NewFmtLogger(io.Discard)))
	require.NoError(t, err)

	assert.Contains(t, out, "package coffeemachine")
	assert.Contains(t, out, "Guard: func() bool { return water_ok },")
	assert.Contains(t, out, "Action: ctx.StartPump,")
	assert.Contains(t, out, "Exit: ctx.StopPump,")
}

func TestCompileHonorsGeneratorConfig(t *testing.T) {
	out, err := Compile("washing_machine", fixture(t, "washing_machine.puml"),
		WithLogger(NewFmtLogger(io.Discard)),
		WithGeneratorConfig(codegen.Config{Package: "laundry", Machine: "FrontLoader"}))
	require.NoError(t, err)

	assert.Contains(t, out, "package laundry")
	assert.Contains(t, out, "func NewFrontLoaderMachine(ctx *Context) (*machine.Machine, error) {")
}

func TestCompileSurfacesLineDiagnostics(t *testing.T) {
	src := "@startuml\nstate Open\nthis line is broken\n@enduml\n"
	_, err := Compile("broken", src, WithLogger(NewFmtLogger(io.Discard)))
	require.Error(t, err)
	assert.Equal(t, puml.ErrCodeSyntax, puml.ErrorCode(err))
	assert.Equal(t, 3, puml.ErrorLine(err))
}

func TestCompileSurfacesValidationFailures(t *testing.T) {
	src := "@startuml\nstate Open\nOpen --> Ghost : vanish\n[*] --> Open\n@enduml\n"
	_, err := Compile("broken", src, WithLogger(NewFmtLogger(io.Discard)))
	require.Error(t, err)
	assert.Equal(t, puml.ErrCodeUnresolvedEndpoint, puml.ErrorCode(err))
}

func TestParseDiagramIsDeterministic(t *testing.T) {
	src := fixture(t, "washing_machine.puml")

	first, err := ParseDiagram("washing_machine", src)
	require.NoError(t, err)
	second, err := ParseDiagram("washing_machine", src)
	require.NoError(t, err)
	require.Equal(t, first, second)

	outA, err := Compile("washing_machine", src, WithLogger(NewFmtLogger(io.Discard)))
	require.NoError(t, err)
	outB, err := Compile("washing_machine", src, WithLogger(NewFmtLogger(io.Discard)))
	require.NoError(t, err)
	require.Equal(t, outA, outB)
}

func TestFmtLoggerOutput(t *testing.T) {
	var buf strings.Builder
	logger := NewFmtLogger(&buf)
	logger.Info("compiled %s", "washer")

	line := buf.String()
	require.NotEmpty(t, line)
	assert.Contains(t, line, "INFO")
	assert.Contains(t, line, "compiled washer")
}

func TestFmtLoggerFields(t *testing.T) {
	var buf strings.Builder
	logger := NewFmtLogger(&buf).WithFields(map[string]any{"diagram": "washer", "bytes": 42})
	logger.Debug("generated")

	line := buf.String()
	assert.Contains(t, line, "bytes=42")
	assert.Contains(t, line, "diagram=washer")
	// Fields render in sorted key order.
	assert.Less(t, strings.Index(line, "bytes=42"), strings.Index(line, "diagram=washer"))
}
