package puml

import "fmt"

// region is a mutable scope frame while parsing. The root frame has a nil
// owner; composite frames are bound to the state that opened them.
type region struct {
	owner       *State
	states      []*State
	transitions []Transition
}

// Parse consumes the classified statement sequence and builds the Diagram.
// Nesting is resolved with an explicit scope stack: CompositeOpen pushes a
// frame bound to the opening state, CompositeClose pops it. Name resolution
// against the state mapping is deferred to Validate; only pseudostate
// markers are recognized structurally here.
func Parse(name string, statements []Statement) (*Diagram, error) {
	root := &region{}
	stack := []*region{root}

	// Tracks the last plain state declaration in the current scope so a
	// block brace on the following line can attach to it.
	var lastDecl *State

	top := func() *region { return stack[len(stack)-1] }

	openComposite := func(stmt Statement, st *State) error {
		if len(stack) > 1 {
			return lineError(ErrNestedComposite,
				fmt.Sprintf("state %q cannot open a composite inside composite %q", st.Name, top().owner.Name),
				stmt.Line, stmt.Raw)
		}
		if st.IsComposite() {
			return lineError(ErrNestedComposite,
				fmt.Sprintf("state %q already owns a composite block", st.Name),
				stmt.Line, stmt.Raw)
		}
		stack = append(stack, &region{owner: st})
		return nil
	}

	for _, stmt := range statements {
		switch stmt.Kind {
		case StatementStateDecl:
			st := &State{Name: stmt.Name, Line: stmt.Line}
			scope := top()
			scope.states = append(scope.states, st)
			lastDecl = st

		case StatementCompositeOpen:
			scope := top()
			st := findState(scope.states, stmt.Name)
			if st == nil {
				st = &State{Name: stmt.Name, Line: stmt.Line}
				scope.states = append(scope.states, st)
			}
			if err := openComposite(stmt, st); err != nil {
				return nil, err
			}
			lastDecl = nil

		case StatementBlockOpen:
			if lastDecl == nil {
				return nil, lineError(ErrUnknownState,
					"block brace without a preceding state declaration", stmt.Line, stmt.Raw)
			}
			if err := openComposite(stmt, lastDecl); err != nil {
				return nil, err
			}
			lastDecl = nil

		case StatementCompositeClose:
			if len(stack) == 1 {
				return nil, lineError(ErrUnbalancedBlock,
					"closing brace without an open composite block", stmt.Line, stmt.Raw)
			}
			closed := top()
			stack = stack[:len(stack)-1]
			closed.owner.Composite = &Composite{
				States:      closed.states,
				Transitions: closed.transitions,
			}
			lastDecl = nil

		case StatementTransition:
			scope := top()
			scope.transitions = append(scope.transitions, Transition{
				Source: stmt.Source,
				Target: stmt.Target,
				Event:  stmt.Event,
				Guard:  stmt.Guard,
				Action: stmt.Action,
				Line:   stmt.Line,
			})
			lastDecl = nil

		case StatementInternalAction:
			st := resolveActionState(stack, stmt.Name)
			if st == nil {
				return nil, lineError(ErrUnknownState,
					fmt.Sprintf("internal action references undeclared state %q", stmt.Name),
					stmt.Line, stmt.Raw)
			}
			switch stmt.ActionKind {
			case ActionEntry:
				st.Entry = stmt.Label
			case ActionExit:
				st.Exit = stmt.Label
			case ActionDo:
				st.Do = stmt.Label
			}

		case StatementIgnorable:
			// Scan filters these out; tolerate them anyway.

		default:
			return nil, lineError(ErrSyntax,
				fmt.Sprintf("unexpected statement kind %s", stmt.Kind), stmt.Line, stmt.Raw)
		}
	}

	if len(stack) > 1 {
		open := top().owner
		return nil, lineError(ErrUnbalancedBlock,
			fmt.Sprintf("composite block %q is never closed", open.Name), open.Line, "")
	}

	return &Diagram{
		Name:        name,
		States:      root.states,
		Transitions: root.transitions,
	}, nil
}

// resolveActionState finds the state an internal-action line refers to. The
// active scope chain is searched innermost first; states sealed inside an
// already-closed composite remain addressable because entry/exit lines may
// legally follow the block.
func resolveActionState(stack []*region, name string) *State {
	for i := len(stack) - 1; i >= 0; i-- {
		if st := findState(stack[i].states, name); st != nil {
			return st
		}
	}
	for i := len(stack) - 1; i >= 0; i-- {
		for _, st := range stack[i].states {
			if st.IsComposite() {
				if child := st.Composite.State(name); child != nil {
					return child
				}
			}
		}
	}
	return nil
}
