package puml

import "fmt"

// Validate walks the completed AST top-down and returns the first violation
// of the subset invariants. There is no partial recovery: a diagram either
// validates completely or the compilation stops here. As a side effect,
// composites reached by a history-target transition are marked
// history-capable for the generator.
func Validate(d *Diagram) error {
	if d == nil {
		return newError(ErrSyntax, "empty diagram", nil)
	}

	root := scopeView{diagram: d}
	if err := validateScope(root); err != nil {
		return err
	}
	for _, st := range d.States {
		if !st.IsComposite() {
			continue
		}
		if err := validateScope(scopeView{diagram: d, owner: st}); err != nil {
			return err
		}
	}
	return nil
}

// scopeView is one validation scope: the diagram root, or a composite region
// together with its enclosing root for visibility checks.
type scopeView struct {
	diagram *Diagram
	owner   *State
}

func (s scopeView) states() []*State {
	if s.owner != nil {
		return s.owner.Composite.States
	}
	return s.diagram.States
}

func (s scopeView) transitions() []Transition {
	if s.owner != nil {
		return s.owner.Composite.Transitions
	}
	return s.diagram.Transitions
}

func (s scopeView) label() string {
	if s.owner != nil {
		return s.owner.Name
	}
	return "top level"
}

// resolve looks a name up in the scope itself, then in the enclosing scope.
func (s scopeView) resolve(name string) *State {
	if st := findState(s.states(), name); st != nil {
		return st
	}
	if s.owner != nil {
		if st := findState(s.diagram.States, name); st != nil {
			return st
		}
	}
	return nil
}

func validateScope(scope scopeView) error {
	if err := checkDuplicates(scope); err != nil {
		return err
	}
	if err := checkInitial(scope); err != nil {
		return err
	}
	for _, tr := range scope.transitions() {
		if err := checkEndpoints(scope, tr); err != nil {
			return err
		}
	}
	return nil
}

func checkDuplicates(scope scopeView) error {
	seen := make(map[string]int, len(scope.states()))
	for _, st := range scope.states() {
		if first, ok := seen[st.Name]; ok {
			return lineError(ErrDuplicateState,
				fmt.Sprintf("state %q declared twice in %s (first at line %d)", st.Name, scope.label(), first),
				st.Line, "")
		}
		seen[st.Name] = st.Line
	}
	return nil
}

func checkInitial(scope scopeView) error {
	count := 0
	line := 0
	for _, tr := range scope.transitions() {
		if tr.Source.Kind != EndpointInitial {
			continue
		}
		count++
		line = tr.Line
		if tr.Target.Kind != EndpointNamed || findState(scope.states(), tr.Target.Name) == nil {
			return lineError(ErrUnresolvedEndpoint,
				fmt.Sprintf("initial transition in %s must target a state of the same scope", scope.label()),
				tr.Line, "")
		}
	}
	switch {
	case count == 0:
		return newError(ErrNoInitial,
			fmt.Sprintf("%s has no initial transition", scope.label()), nil)
	case count > 1:
		return lineError(ErrMultipleInitial,
			fmt.Sprintf("%s has %d initial transitions", scope.label(), count), line, "")
	}
	return nil
}

func checkEndpoints(scope scopeView, tr Transition) error {
	if tr.Source.Kind == EndpointNamed {
		if scope.resolve(tr.Source.Name) == nil {
			return lineError(ErrUnresolvedEndpoint,
				fmt.Sprintf("transition source %q does not resolve to a declared state", tr.Source.Name),
				tr.Line, "")
		}
	}

	switch tr.Target.Kind {
	case EndpointNamed:
		if scope.resolve(tr.Target.Name) == nil {
			return lineError(ErrUnresolvedEndpoint,
				fmt.Sprintf("transition target %q does not resolve to a declared state", tr.Target.Name),
				tr.Line, "")
		}
	case EndpointHistory:
		owner, err := resolveHistoryOwner(scope, tr)
		if err != nil {
			return err
		}
		owner.Composite.History = true
	case EndpointFinal, EndpointInitial:
		// Final is always a valid target; Initial targets were checked above.
	}
	return nil
}

// resolveHistoryOwner maps a history endpoint to the composite that owns the
// slot: the declaring scope's own composite for a bare [H], the named state
// for a qualified Name[H].
func resolveHistoryOwner(scope scopeView, tr Transition) (*State, error) {
	if tr.Target.Name == "" {
		if scope.owner == nil {
			return nil, lineError(ErrHistoryOnNonComposite,
				"bare [H] target is only valid inside a composite block", tr.Line, "")
		}
		return scope.owner, nil
	}
	owner := scope.resolve(tr.Target.Name)
	if owner == nil {
		return nil, lineError(ErrUnresolvedEndpoint,
			fmt.Sprintf("history owner %q does not resolve to a declared state", tr.Target.Name),
			tr.Line, "")
	}
	if !owner.IsComposite() {
		return nil, lineError(ErrHistoryOnNonComposite,
			fmt.Sprintf("history target %q is not a composite state", tr.Target.Name),
			tr.Line, "")
	}
	return owner, nil
}
