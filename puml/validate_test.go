package puml

import "testing"

func mustValidate(t *testing.T, src string) *Diagram {
	t.Helper()
	d := mustParse(t, src)
	if err := Validate(d); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return d
}

func validateErr(t *testing.T, src string) error {
	t.Helper()
	err := Validate(mustParse(t, src))
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	return err
}

func TestValidateAcceptsWellFormedDiagram(t *testing.T) {
	mustValidate(t, `@startuml
state Open
state Closed {
  state Wash
  state Dry
  [*] --> Wash
  Wash --> Dry : timeout
}
[*] --> Open
Open --> Closed : close
Closed --> Open : done
@enduml`)
}

func TestValidateDuplicateState(t *testing.T) {
	err := validateErr(t, `@startuml
state Open
state Open
[*] --> Open
@enduml`)
	if ErrorCode(err) != ErrCodeDuplicateState {
		t.Fatalf("expected %s, got %v", ErrCodeDuplicateState, err)
	}
}

func TestValidateSameNameInDifferentScopesIsFine(t *testing.T) {
	mustValidate(t, `@startuml
state Idle
state Running {
  state Idle
  [*] --> Idle
}
[*] --> Idle
Idle --> Running : start
@enduml`)
}

func TestValidateMissingInitial(t *testing.T) {
	err := validateErr(t, `@startuml
state Open
state Closed
Open --> Closed : close
@enduml`)
	if ErrorCode(err) != ErrCodeNoInitial {
		t.Fatalf("expected %s, got %v", ErrCodeNoInitial, err)
	}
}

func TestValidateCompositeMissingInitial(t *testing.T) {
	err := validateErr(t, `@startuml
state Closed {
  state Wash
}
[*] --> Closed
@enduml`)
	if ErrorCode(err) != ErrCodeNoInitial {
		t.Fatalf("expected %s, got %v", ErrCodeNoInitial, err)
	}
}

func TestValidateMultipleInitial(t *testing.T) {
	err := validateErr(t, `@startuml
state Open
state Closed
[*] --> Open
[*] --> Closed
@enduml`)
	if ErrorCode(err) != ErrCodeMultipleInitial {
		t.Fatalf("expected %s, got %v", ErrCodeMultipleInitial, err)
	}
}

func TestValidateInitialMustTargetOwnScope(t *testing.T) {
	err := validateErr(t, `@startuml
state Outside
state Closed {
  state Wash
  [*] --> Outside
  [*] --> Wash
}
[*] --> Outside
@enduml`)
	if ErrorCode(err) != ErrCodeUnresolvedEndpoint {
		t.Fatalf("expected %s, got %v", ErrCodeUnresolvedEndpoint, err)
	}
}

func TestValidateUnresolvedTarget(t *testing.T) {
	err := validateErr(t, `@startuml
state Open
[*] --> Open
Open --> Ghost : vanish
@enduml`)
	if ErrorCode(err) != ErrCodeUnresolvedEndpoint {
		t.Fatalf("expected %s, got %v", ErrCodeUnresolvedEndpoint, err)
	}
	if ErrorLine(err) != 4 {
		t.Fatalf("expected line 4, got %d", ErrorLine(err))
	}
}

func TestValidateChildSeesTopLevelStates(t *testing.T) {
	mustValidate(t, `@startuml
state Open
state Closed {
  state Wash
  [*] --> Wash
  Wash --> Open : abort
}
[*] --> Open
Open --> Closed : close
@enduml`)
}

func TestValidateHistoryMarksOwner(t *testing.T) {
	d := mustValidate(t, `@startuml
state Open
state Closed {
  state Wash
  [*] --> Wash
}
[*] --> Open
Open --> Closed : close
Closed --> Open : pause
Open --> Closed[H] : resume
@enduml`)
	if !d.State("Closed").Composite.History {
		t.Fatalf("history-targeted composite not marked")
	}
}

func TestValidateBareHistoryInsideComposite(t *testing.T) {
	d := mustValidate(t, `@startuml
state Open
state Closed {
  state Wash
  state Rinse
  [*] --> Wash
  Wash --> [H] : redo
  Wash --> Rinse : next
}
[*] --> Open
Open --> Closed : close
@enduml`)
	if !d.State("Closed").Composite.History {
		t.Fatalf("bare [H] should mark the enclosing composite")
	}
}

func TestValidateHistoryOnSimpleState(t *testing.T) {
	err := validateErr(t, `@startuml
state Open
state Closed
[*] --> Open
Open --> Closed[H] : resume
@enduml`)
	if ErrorCode(err) != ErrCodeHistoryOnNonComposite {
		t.Fatalf("expected %s, got %v", ErrCodeHistoryOnNonComposite, err)
	}
}

func TestValidateBareHistoryAtTopLevel(t *testing.T) {
	err := validateErr(t, `@startuml
state Open
[*] --> Open
Open --> [H] : resume
@enduml`)
	if ErrorCode(err) != ErrCodeHistoryOnNonComposite {
		t.Fatalf("expected %s, got %v", ErrCodeHistoryOnNonComposite, err)
	}
}

func TestValidateFinalTarget(t *testing.T) {
	mustValidate(t, `@startuml
state Open
[*] --> Open
Open --> [*] : shutdown
@enduml`)
}
