package puml

// EndpointKind discriminates transition endpoints. Pseudostates are endpoint
// variants, never State records, so they can't grow entry/exit behavior.
type EndpointKind int

const (
	EndpointNamed EndpointKind = iota
	EndpointInitial
	EndpointFinal
	EndpointHistory
)

func (k EndpointKind) String() string {
	switch k {
	case EndpointNamed:
		return "named"
	case EndpointInitial:
		return "initial"
	case EndpointFinal:
		return "final"
	case EndpointHistory:
		return "history"
	default:
		return "unknown"
	}
}

// Endpoint is one end of a transition. Name is the state name for Named
// endpoints; for History endpoints it is the owning composite when the
// diagram qualifies the marker (Closed[H]), empty for a bare [H].
type Endpoint struct {
	Kind EndpointKind
	Name string
}

// Named references a declared state by name.
func Named(name string) Endpoint { return Endpoint{Kind: EndpointNamed, Name: name} }

// InitialMarker is the [*] source pseudostate.
func InitialMarker() Endpoint { return Endpoint{Kind: EndpointInitial} }

// FinalMarker is the [*] target pseudostate.
func FinalMarker() Endpoint { return Endpoint{Kind: EndpointFinal} }

// HistoryMarker is the [H] target pseudostate, optionally qualified with the
// owning composite name.
func HistoryMarker(of string) Endpoint { return Endpoint{Kind: EndpointHistory, Name: of} }

// Transition is a directed edge between endpoints. Event, Guard and Action
// are opaque labels; the compiler passes them through untouched.
type Transition struct {
	Source Endpoint
	Target Endpoint
	Event  string
	Guard  string
	Action string
	Line   int
}

// HasEvent reports whether the transition is triggered by a named event.
// Event-less transitions fire on completion of their source state.
func (t Transition) HasEvent() bool { return t.Event != "" }

// State is a declared diagram state. Composite is non-nil when the state
// owns a nested region; the subset allows exactly one nesting level.
type State struct {
	Name  string
	Entry string
	Exit  string
	Do    string
	Line  int

	Composite *Composite
}

// IsComposite reports whether the state owns a nested region.
func (s *State) IsComposite() bool { return s != nil && s.Composite != nil }

// Composite is the nested region owned by a composite state: ordered child
// states, ordered internal transitions, and exactly one initial transition
// (checked by Validate). History is set by Validate when some transition
// targets this composite's history pseudostate.
type Composite struct {
	States      []*State
	Transitions []Transition
	History     bool
}

// State returns the child with the given name, or nil.
func (c *Composite) State(name string) *State {
	if c == nil {
		return nil
	}
	return findState(c.States, name)
}

// Initial returns the region's initial transition, if declared.
func (c *Composite) Initial() (Transition, bool) {
	if c == nil {
		return Transition{}, false
	}
	return findInitial(c.Transitions)
}

// Diagram is the root of the AST: ordered top-level states and transitions.
// It is built once per compilation, immutable after Validate succeeds, and
// discarded after code generation.
type Diagram struct {
	Name        string
	States      []*State
	Transitions []Transition
}

// State returns the top-level state with the given name, or nil.
func (d *Diagram) State(name string) *State {
	if d == nil {
		return nil
	}
	return findState(d.States, name)
}

// Initial returns the diagram's top-level initial transition, if declared.
func (d *Diagram) Initial() (Transition, bool) {
	if d == nil {
		return Transition{}, false
	}
	return findInitial(d.Transitions)
}

func findState(states []*State, name string) *State {
	for _, st := range states {
		if st.Name == name {
			return st
		}
	}
	return nil
}

func findInitial(transitions []Transition) (Transition, bool) {
	for _, tr := range transitions {
		if tr.Source.Kind == EndpointInitial {
			return tr, true
		}
	}
	return Transition{}, false
}
