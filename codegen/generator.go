// Package codegen lowers a validated diagram into Go source implementing
// the state machine on top of the machine runtime package.
package codegen

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-statechart/puml"
)

// Generator walks a validated AST and emits one compilable Go file: state
// identifier constants, a hook-receiver context struct with stub methods,
// and a constructor assembling the runtime definition in declaration order.
type Generator struct {
	cfg Config
}

// New returns a generator for the given configuration.
func New(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// stateInfo binds one declared state to its emitted identifier. Child
// states carry a parent-qualified runtime name so identifiers stay
// distinguishable across scopes.
type stateInfo struct {
	state     *puml.State
	parent    *puml.State
	constName string
	value     string
}

// hookRef is the emitted form of one opaque action label: either a context
// method call or a manual-implementation comment stub.
type hookRef struct {
	method string
	label  string
}

type model struct {
	cfg         Config
	machineName string
	ctorName    string
	diagram     *puml.Diagram

	states  []*stateInfo
	byState map[*puml.State]*stateInfo

	methodOrder []string
	methodLabel map[string]string
}

// Generate emits the target source text. Only structural impossibilities
// already excluded by validation abort generation; free-text labels that
// cannot be transliterated degrade to comment stubs instead.
func (g *Generator) Generate(d *puml.Diagram) (string, error) {
	if d == nil {
		return "", fmt.Errorf("diagram required")
	}
	if _, ok := d.Initial(); !ok {
		return "", fmt.Errorf("diagram %q reached the generator without an initial transition", d.Name)
	}

	m, err := g.buildModel(d)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	m.emitHeader(&b)
	m.emitConstants(&b)
	m.emitContext(&b)
	m.emitConstructor(&b)
	return b.String(), nil
}

func (g *Generator) buildModel(d *puml.Diagram) (*model, error) {
	cfg := g.cfg.withDefaults(d.Name)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	machineName := exportedIdent(cfg.Machine)
	if machineName == "" {
		return nil, fmt.Errorf("machine name %q does not transliterate to a Go identifier", cfg.Machine)
	}
	ctor := "New" + machineName
	if !strings.HasSuffix(machineName, "Machine") {
		ctor += "Machine"
	}

	m := &model{
		cfg:         cfg,
		machineName: machineName,
		ctorName:    ctor,
		diagram:     d,
		byState:     make(map[*puml.State]*stateInfo),
		methodLabel: make(map[string]string),
	}

	used := make(map[string]string)
	add := func(st, parent *puml.State) error {
		constName := "State" + exportedIdent(st.Name)
		value := st.Name
		if parent != nil {
			constName = "State" + exportedIdent(parent.Name) + exportedIdent(st.Name)
			value = parent.Name + "." + st.Name
		}
		if constName == "State" {
			return fmt.Errorf("state %q does not transliterate to a Go identifier", st.Name)
		}
		if prev, taken := used[constName]; taken {
			return fmt.Errorf("states %q and %q both map to identifier %s", prev, st.Name, constName)
		}
		used[constName] = st.Name
		info := &stateInfo{state: st, parent: parent, constName: constName, value: value}
		m.states = append(m.states, info)
		m.byState[st] = info
		return nil
	}

	for _, st := range d.States {
		if err := add(st, nil); err != nil {
			return nil, err
		}
		if !st.IsComposite() {
			continue
		}
		for _, child := range st.Composite.States {
			if err := add(child, st); err != nil {
				return nil, err
			}
		}
	}

	// Register hook methods in first-seen order so output is deterministic.
	for _, info := range m.states {
		m.hookFor(info.state.Entry)
		m.hookFor(info.state.Exit)
		m.hookFor(info.state.Do)
	}
	m.walkTransitions(func(tr puml.Transition, _ *puml.State) {
		m.hookFor(tr.Action)
	})
	return m, nil
}

func (m *model) walkTransitions(fn func(puml.Transition, *puml.State)) {
	for _, tr := range m.diagram.Transitions {
		fn(tr, nil)
	}
	for _, st := range m.diagram.States {
		if !st.IsComposite() {
			continue
		}
		for _, tr := range st.Composite.Transitions {
			fn(tr, st)
		}
	}
}

// hookFor registers the context method for an action label. Labels without
// identifier material return a stub-only reference.
func (m *model) hookFor(label string) hookRef {
	label = strings.TrimSpace(label)
	if label == "" {
		return hookRef{}
	}
	method := exportedIdent(label)
	if method == "" {
		return hookRef{label: label}
	}
	if _, seen := m.methodLabel[method]; !seen {
		m.methodLabel[method] = label
		m.methodOrder = append(m.methodOrder, method)
	}
	return hookRef{method: method, label: label}
}

// constFor returns the emitted constant for a named endpoint, resolving
// through the declaring scope first, then the top level.
func (m *model) constFor(name string, scope *puml.State) string {
	if scope != nil && scope.IsComposite() {
		if child := scope.Composite.State(name); child != nil {
			return m.byState[child].constName
		}
	}
	if st := m.diagram.State(name); st != nil {
		return m.byState[st].constName
	}
	// Validation resolves every endpoint; reaching this is a generator bug.
	return fmt.Sprintf("%q", name)
}

func (m *model) emitHeader(b *strings.Builder) {
	fmt.Fprintf(b, "// Code generated by statechart-gen from %q. DO NOT EDIT.\n", m.diagram.Name)
	b.WriteString("\n")
	fmt.Fprintf(b, "package %s\n\n", m.cfg.Package)
	b.WriteString("import (\n")
	fmt.Fprintf(b, "\t%q\n", m.cfg.RuntimeImport)
	b.WriteString(")\n\n")
}

func (m *model) emitConstants(b *strings.Builder) {
	b.WriteString("// State identifiers. Nested states are qualified with their composite\n")
	b.WriteString("// so every identifier stays distinguishable.\n")
	b.WriteString("const (\n")
	for _, info := range m.states {
		fmt.Fprintf(b, "\t%s = %q\n", info.constName, info.value)
	}
	b.WriteString(")\n\n")
}

func (m *model) emitContext(b *strings.Builder) {
	fmt.Fprintf(b, "// %s receives the diagram's entry/exit/do hooks and transition\n", m.cfg.ContextType)
	b.WriteString("// effects. The generated method bodies are stubs: fill in the behavior\n")
	b.WriteString("// and any data the guard expressions reference.\n")
	fmt.Fprintf(b, "type %s struct{}\n\n", m.cfg.ContextType)
	for _, method := range m.methodOrder {
		fmt.Fprintf(b, "// %s implements the %q action label.\n", method, commentSafe(m.methodLabel[method]))
		fmt.Fprintf(b, "func (c *%s) %s() {}\n\n", m.cfg.ContextType, method)
	}
}

func (m *model) emitConstructor(b *strings.Builder) {
	initial, _ := m.diagram.Initial()

	fmt.Fprintf(b, "// %s assembles the executable state machine. Transition table\n", m.ctorName)
	b.WriteString("// order mirrors the diagram and is load-bearing: dispatch selects the\n")
	b.WriteString("// first match, innermost scope first.\n")
	fmt.Fprintf(b, "func %s(ctx *%s) (*machine.Machine, error) {\n", m.ctorName, m.cfg.ContextType)
	b.WriteString("\tdef := machine.Definition{\n")
	fmt.Fprintf(b, "\t\tName:    %q,\n", m.diagram.Name)
	fmt.Fprintf(b, "\t\tInitial: %s,\n", m.constFor(initial.Target.Name, nil))
	b.WriteString("\t\tStates: []machine.State{\n")
	for _, st := range m.diagram.States {
		m.emitState(b, st, 3)
	}
	b.WriteString("\t\t},\n")
	b.WriteString("\t\tTransitions: []machine.Transition{\n")
	for _, tr := range m.diagram.Transitions {
		m.emitTransition(b, tr, nil, 3)
	}
	b.WriteString("\t\t},\n")
	b.WriteString("\t}\n")
	b.WriteString("\treturn machine.New(def)\n")
	b.WriteString("}\n")
}

func (m *model) emitState(b *strings.Builder, st *puml.State, depth int) {
	pad := strings.Repeat("\t", depth)
	info := m.byState[st]

	fmt.Fprintf(b, "%s{\n", pad)
	fmt.Fprintf(b, "%s\tName: %s,\n", pad, info.constName)
	m.emitHook(b, "Entry", st.Entry, "entry action", depth+1)
	m.emitHook(b, "Exit", st.Exit, "exit action", depth+1)
	m.emitHook(b, "Do", st.Do, "do activity", depth+1)

	if st.IsComposite() {
		region := st.Composite
		regionInitial, _ := region.Initial()
		fmt.Fprintf(b, "%s\tRegion: &machine.Region{\n", pad)
		fmt.Fprintf(b, "%s\t\tInitial: %s,\n", pad, m.constFor(regionInitial.Target.Name, st))
		if region.History {
			fmt.Fprintf(b, "%s\t\tHistory: true,\n", pad)
		}
		fmt.Fprintf(b, "%s\t\tStates: []machine.State{\n", pad)
		for _, child := range region.States {
			m.emitState(b, child, depth+3)
		}
		fmt.Fprintf(b, "%s\t\t},\n", pad)
		fmt.Fprintf(b, "%s\t\tTransitions: []machine.Transition{\n", pad)
		for _, tr := range region.Transitions {
			m.emitTransition(b, tr, st, depth+3)
		}
		fmt.Fprintf(b, "%s\t\t},\n", pad)
		fmt.Fprintf(b, "%s\t},\n", pad)
	}
	fmt.Fprintf(b, "%s},\n", pad)
}

func (m *model) emitHook(b *strings.Builder, field, label, what string, depth int) {
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}
	pad := strings.Repeat("\t", depth)
	hook := m.hookFor(label)
	if hook.method == "" {
		// Deliberate soft failure: free text never aborts generation.
		fmt.Fprintf(b, "%s// %s requires manual implementation: %s\n", pad, what, commentSafe(label))
		return
	}
	fmt.Fprintf(b, "%s%s: ctx.%s,\n", pad, field, hook.method)
}

func (m *model) emitTransition(b *strings.Builder, tr puml.Transition, scope *puml.State, depth int) {
	if tr.Source.Kind == puml.EndpointInitial {
		// Initial transitions surface as the Initial fields of the
		// definition and its regions.
		return
	}
	pad := strings.Repeat("\t", depth)
	fmt.Fprintf(b, "%s{\n", pad)
	fmt.Fprintf(b, "%s\tSource: %s,\n", pad, m.constFor(tr.Source.Name, scope))
	fmt.Fprintf(b, "%s\tTarget: %s,\n", pad, m.targetExpr(tr.Target, scope))
	if tr.Event != "" {
		fmt.Fprintf(b, "%s\tEvent:  %q,\n", pad, tr.Event)
	}
	m.emitGuard(b, tr.Guard, depth+1)
	if strings.TrimSpace(tr.Action) != "" {
		hook := m.hookFor(tr.Action)
		if hook.method == "" {
			fmt.Fprintf(b, "%s\t// effect requires manual implementation: %s\n", pad, commentSafe(tr.Action))
		} else {
			fmt.Fprintf(b, "%s\tAction: ctx.%s,\n", pad, hook.method)
		}
	}
	fmt.Fprintf(b, "%s},\n", pad)
}

func (m *model) targetExpr(ep puml.Endpoint, scope *puml.State) string {
	switch ep.Kind {
	case puml.EndpointFinal:
		return "machine.ToFinal()"
	case puml.EndpointHistory:
		owner := ep.Name
		if owner == "" && scope != nil {
			owner = scope.Name
		}
		return fmt.Sprintf("machine.ToHistory(%s)", m.constFor(owner, nil))
	default:
		return fmt.Sprintf("machine.To(%s)", m.constFor(ep.Name, scope))
	}
}

// emitGuard writes the guard expression verbatim as a boolean expression.
// Expressions that fail the transliteration check degrade to an
// always-true stub carrying the original text.
func (m *model) emitGuard(b *strings.Builder, expr string, depth int) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return
	}
	pad := strings.Repeat("\t", depth)
	if !guardEmittable(expr) {
		fmt.Fprintf(b, "%s// guard requires manual implementation: %s\n", pad, commentSafe(expr))
		fmt.Fprintf(b, "%sGuard: func() bool { return true },\n", pad)
		return
	}
	fmt.Fprintf(b, "%sGuard: func() bool { return %s },\n", pad, expr)
}
