// Package machine is the runtime targeted by generated statechart code. It
// keeps exactly one active leaf state, dispatches events innermost scope
// first, sequences exit and entry actions around the least common ancestor,
// and maintains one shallow-history slot per composite.
package machine

import (
	"fmt"
	"sync"
)

// Action is an entry, exit, do or transition-effect hook.
type Action func()

// Guard is a transition predicate; a nil guard always passes.
type Guard func() bool

// TargetKind discriminates transition targets.
type TargetKind int

const (
	TargetState TargetKind = iota
	TargetFinal
	TargetHistory
)

// Target is a transition destination.
type Target struct {
	Kind TargetKind
	Name string
}

// To targets a declared state.
func To(name string) Target { return Target{Kind: TargetState, Name: name} }

// ToFinal targets the final pseudostate: the machine finishes.
func ToFinal() Target { return Target{Kind: TargetFinal} }

// ToHistory targets the shallow-history slot of the named composite.
func ToHistory(of string) Target { return Target{Kind: TargetHistory, Name: of} }

// Transition is one row of a scope's ordered transition table. An empty
// Event marks a completion transition, evaluated right after the source
// state is entered rather than on event dispatch.
type Transition struct {
	Source string
	Target Target
	Event  string
	Guard  Guard
	Action Action
}

// State declares a state and its hooks. Region is non-nil for composites.
type State struct {
	Name   string
	Entry  Action
	Exit   Action
	Do     Action
	Region *Region
}

// Region is the nested region of a composite state: ordered children (simple
// states only), the region's ordered transition table, and the name of the
// initial child.
type Region struct {
	Initial     string
	History     bool
	States      []State
	Transitions []Transition
}

// Definition is the complete machine description produced by the generator.
// Slice order mirrors diagram declaration order and is semantically
// load-bearing for transition selection.
type Definition struct {
	Name        string
	Initial     string
	States      []State
	Transitions []Transition
}

type node struct {
	state  State
	parent string
}

// Machine executes a Definition. One event is processed to completion,
// guards plus exits plus entries plus history update, before the next event
// is accepted.
type Machine struct {
	mu sync.Mutex

	name    string
	nodes   map[string]*node
	scopes  map[string][]Transition
	initial map[string]string
	history map[string]string

	active  string
	started bool
	done    bool
}

const maxCompletionDepth = 16

// New builds the runtime registry from a definition. Structural errors here
// mean the generator emitted something the validator should have excluded;
// they are reported, never silently repaired.
func New(def Definition) (*Machine, error) {
	if def.Initial == "" {
		return nil, fmt.Errorf("machine %q has no initial state", def.Name)
	}
	m := &Machine{
		name:    def.Name,
		nodes:   make(map[string]*node),
		scopes:  make(map[string][]Transition),
		initial: make(map[string]string),
		history: make(map[string]string),
	}

	for _, st := range def.States {
		if err := m.register(st, ""); err != nil {
			return nil, err
		}
	}
	m.scopes[""] = def.Transitions
	m.initial[""] = def.Initial

	for scope, initial := range m.initial {
		if _, ok := m.nodes[initial]; !ok {
			return nil, fmt.Errorf("machine %q: initial state %q of scope %q is not declared", def.Name, initial, scope)
		}
	}
	for scope, transitions := range m.scopes {
		for _, tr := range transitions {
			if err := m.checkTransition(scope, tr); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Machine) register(st State, parent string) error {
	if st.Name == "" {
		return fmt.Errorf("machine %q declares a state without a name", m.name)
	}
	if _, exists := m.nodes[st.Name]; exists {
		return fmt.Errorf("machine %q declares state %q twice", m.name, st.Name)
	}
	m.nodes[st.Name] = &node{state: st, parent: parent}

	if st.Region == nil {
		return nil
	}
	if parent != "" {
		return fmt.Errorf("machine %q: composite %q nested inside composite %q", m.name, st.Name, parent)
	}
	if st.Region.Initial == "" {
		return fmt.Errorf("machine %q: composite %q has no initial child", m.name, st.Name)
	}
	for _, child := range st.Region.States {
		if err := m.register(child, st.Name); err != nil {
			return err
		}
	}
	m.scopes[st.Name] = st.Region.Transitions
	m.initial[st.Name] = st.Region.Initial
	return nil
}

func (m *Machine) checkTransition(scope string, tr Transition) error {
	if tr.Source != "" {
		if _, ok := m.nodes[tr.Source]; !ok {
			return fmt.Errorf("machine %q: transition source %q is not declared", m.name, tr.Source)
		}
	}
	switch tr.Target.Kind {
	case TargetState:
		if _, ok := m.nodes[tr.Target.Name]; !ok {
			return fmt.Errorf("machine %q: transition target %q is not declared", m.name, tr.Target.Name)
		}
	case TargetHistory:
		owner := tr.Target.Name
		if owner == "" {
			owner = scope
		}
		n, ok := m.nodes[owner]
		if !ok || n.state.Region == nil {
			return fmt.Errorf("machine %q: history target %q is not a composite", m.name, owner)
		}
	}
	return nil
}

// Start enters the machine through its top-level initial transition. Only
// entry actions run; there is no prior active state to exit.
func (m *Machine) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	m.enter(m.leafFor(m.initial[""]), "")
	m.runCompletions(0)
}

// Current returns the active leaf state name, or "" before Start and after
// the machine finished.
func (m *Machine) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Done reports whether a final-pseudostate transition has fired.
func (m *Machine) Done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Dispatch delivers one event. Outgoing transitions of the active leaf are
// scanned first in declaration order, then the enclosing composite's, up to
// the top level; the first event match whose guard passes fires. Returns
// whether a transition fired.
func (m *Machine) Dispatch(event string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started || m.done || m.active == "" || event == "" {
		return false
	}
	tr, ok := m.match(func(t Transition) bool { return t.Event == event })
	if !ok {
		return false
	}
	m.fire(tr)
	m.runCompletions(0)
	return true
}

// match walks the active scope chain innermost first and returns the first
// transition accepted by the filter whose guard passes.
func (m *Machine) match(filter func(Transition) bool) (Transition, bool) {
	for name := m.active; name != ""; {
		n := m.nodes[name]
		if n == nil {
			break
		}
		// A composite may declare its own outgoing edges inside its block;
		// that region is more specific than the enclosing scope.
		tables := [][]Transition{m.scopes[n.parent]}
		if n.state.Region != nil {
			tables = [][]Transition{m.scopes[name], m.scopes[n.parent]}
		}
		for _, table := range tables {
			for _, tr := range table {
				if tr.Source != name || !filter(tr) {
					continue
				}
				if tr.Guard != nil && !tr.Guard() {
					continue
				}
				return tr, true
			}
		}
		name = n.parent
	}
	return Transition{}, false
}

// runCompletions fires event-less transitions of the freshly entered state,
// chaining until none matches. The depth cap breaks completion cycles.
func (m *Machine) runCompletions(depth int) {
	if depth >= maxCompletionDepth || m.done || m.active == "" {
		return
	}
	tr, ok := m.match(func(t Transition) bool { return t.Event == "" })
	if !ok {
		return
	}
	m.fire(tr)
	m.runCompletions(depth + 1)
}

func (m *Machine) fire(tr Transition) {
	if tr.Target.Kind == TargetFinal {
		m.exitTo("")
		if tr.Action != nil {
			tr.Action()
		}
		m.active = ""
		m.done = true
		return
	}

	entryTop, entryLeaf := m.resolveTarget(tr)

	lca := m.commonAncestor(m.active, entryLeaf)
	// A self-transition exits and re-enters its own state.
	if tr.Source == entryTop {
		lca = m.nodes[entryTop].parent
	}

	m.exitTo(lca)
	if tr.Action != nil {
		tr.Action()
	}
	m.enter(entryLeaf, lca)
}

// resolveTarget maps a target to the top state being entered and the leaf
// that becomes active. History resolves at firing time: the remembered child
// if the composite was active before, its declared initial child otherwise.
func (m *Machine) resolveTarget(tr Transition) (top, leaf string) {
	switch tr.Target.Kind {
	case TargetHistory:
		owner := tr.Target.Name
		if owner == "" {
			owner = m.nodes[tr.Source].parent
		}
		child := m.history[owner]
		if child == "" {
			child = m.initial[owner]
		}
		return owner, child
	default:
		return tr.Target.Name, m.leafFor(tr.Target.Name)
	}
}

// leafFor descends into a composite's initial child; simple states are their
// own leaf.
func (m *Machine) leafFor(name string) string {
	if n := m.nodes[name]; n != nil && n.state.Region != nil {
		return m.initial[name]
	}
	return name
}

// commonAncestor returns the innermost scope containing both states, "" for
// the top level.
func (m *Machine) commonAncestor(a, b string) string {
	ancestors := make(map[string]bool)
	for name := a; name != ""; {
		ancestors[name] = true
		name = m.nodes[name].parent
	}
	for name := b; name != ""; {
		if ancestors[name] {
			return name
		}
		name = m.nodes[name].parent
	}
	return ""
}

// exitTo runs exit actions from the active leaf outward up to, but not
// including, the given ancestor.
func (m *Machine) exitTo(ancestor string) {
	for name := m.active; name != "" && name != ancestor; {
		n := m.nodes[name]
		if n.state.Exit != nil {
			n.state.Exit()
		}
		name = n.parent
	}
}

// enter runs entry actions, each followed by the state's do-activity, from
// just inside the ancestor down to the leaf, updating history slots as
// composite children become active.
func (m *Machine) enter(leaf, ancestor string) {
	var path []string
	for name := leaf; name != "" && name != ancestor; {
		path = append(path, name)
		name = m.nodes[name].parent
	}
	for i := len(path) - 1; i >= 0; i-- {
		n := m.nodes[path[i]]
		if n.parent != "" {
			m.history[n.parent] = path[i]
		}
		if n.state.Entry != nil {
			n.state.Entry()
		}
		if n.state.Do != nil {
			n.state.Do()
		}
	}
	m.active = leaf
}
