package puml

import (
	"fmt"
	"strings"
	"unicode"
)

// StatementKind classifies one diagram line.
type StatementKind int

const (
	StatementIgnorable StatementKind = iota
	StatementStateDecl
	StatementCompositeOpen
	StatementBlockOpen
	StatementCompositeClose
	StatementTransition
	StatementInternalAction
)

func (k StatementKind) String() string {
	switch k {
	case StatementIgnorable:
		return "ignorable"
	case StatementStateDecl:
		return "state_decl"
	case StatementCompositeOpen:
		return "composite_open"
	case StatementBlockOpen:
		return "block_open"
	case StatementCompositeClose:
		return "composite_close"
	case StatementTransition:
		return "transition"
	case StatementInternalAction:
		return "internal_action"
	default:
		return "unknown"
	}
}

// Internal action kinds accepted on a state line.
const (
	ActionEntry = "entry"
	ActionExit  = "exit"
	ActionDo    = "do"
)

// Statement is one classified diagram line. Only the fields relevant for the
// Kind are populated.
type Statement struct {
	Kind StatementKind
	Line int
	Raw  string

	// StateDecl / CompositeOpen / InternalAction
	Name string

	// InternalAction
	ActionKind string
	Label      string

	// Transition
	Source Endpoint
	Target Endpoint
	Event  string
	Guard  string
	Action string
}

const (
	startMarker = "@startuml"
	endMarker   = "@enduml"
)

// Directives the subset recognizes as no-ops.
var ignorableDirectives = []string{
	"scale ",
	"skinparam",
	"hide ",
	"title ",
	"note ",
	"end note",
	"left to right direction",
	"top to bottom direction",
}

// Constructs the subset recognizes but deliberately excludes. Matching any of
// these is a hard UnsupportedConstruct failure, never a silent skip.
var unsupportedMarkers = []string{
	"<<fork>>",
	"<<join>>",
	"<<choice>>",
	"<<entrypoint>>",
	"<<exitpoint>>",
	"[H*]",
}

// Scan turns raw diagram text into the ordered statement sequence. Only the
// content between @startuml and @enduml is examined; everything outside the
// markers is ignored. Line numbers are 1-based over the whole input.
func Scan(src string) ([]Statement, error) {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")

	statements := make([]Statement, 0, len(lines))
	inBody := false
	sawStart := false
	for idx, raw := range lines {
		lineNo := idx + 1
		text := strings.TrimSpace(raw)

		if !inBody {
			if strings.HasPrefix(text, startMarker) {
				inBody = true
				sawStart = true
			}
			continue
		}
		if strings.HasPrefix(text, endMarker) {
			inBody = false
			continue
		}

		stmt, err := Classify(lineNo, text)
		if err != nil {
			return nil, err
		}
		if stmt.Kind == StatementIgnorable {
			continue
		}
		statements = append(statements, stmt)
	}

	if !sawStart {
		return nil, newError(ErrSyntax, "missing @startuml marker", nil)
	}
	if inBody {
		return nil, newError(ErrSyntax, "missing @enduml marker", map[string]any{"line": len(lines)})
	}
	return statements, nil
}

// Classify matches a single trimmed line against the subset grammar. Blank
// lines, comments and no-op directives classify as Ignorable.
func Classify(line int, text string) (Statement, error) {
	stmt := Statement{Kind: StatementIgnorable, Line: line, Raw: text}

	if text == "" || strings.HasPrefix(text, "'") {
		return stmt, nil
	}
	for _, directive := range ignorableDirectives {
		if text == strings.TrimSpace(directive) || strings.HasPrefix(strings.ToLower(text), directive) {
			return stmt, nil
		}
	}
	for _, marker := range unsupportedMarkers {
		if strings.Contains(text, marker) {
			return stmt, lineError(ErrUnsupportedConstruct,
				fmt.Sprintf("construct %q is outside the supported subset", marker), line, text)
		}
	}
	// Orthogonal region separators inside composite blocks.
	if isSeparatorRun(text) {
		return stmt, lineError(ErrUnsupportedConstruct,
			"orthogonal regions are outside the supported subset", line, text)
	}

	switch {
	case text == "{":
		stmt.Kind = StatementBlockOpen
		return stmt, nil
	case text == "}":
		stmt.Kind = StatementCompositeClose
		return stmt, nil
	case strings.HasPrefix(text, "state "):
		return classifyStateDecl(stmt, strings.TrimSpace(strings.TrimPrefix(text, "state ")))
	case strings.Contains(text, "->"):
		return classifyTransition(stmt, text)
	case strings.Contains(text, ":"):
		return classifyInternalAction(stmt, text)
	}

	return stmt, lineError(ErrSyntax, fmt.Sprintf("unrecognized statement %q", text), line, text)
}

func classifyStateDecl(stmt Statement, rest string) (Statement, error) {
	name := rest
	if strings.HasSuffix(name, "{") {
		stmt.Kind = StatementCompositeOpen
		name = strings.TrimSpace(strings.TrimSuffix(name, "{"))
	} else {
		stmt.Kind = StatementStateDecl
	}
	if !validIdent(name) {
		return stmt, lineError(ErrSyntax,
			fmt.Sprintf("invalid state name %q", name), stmt.Line, stmt.Raw)
	}
	stmt.Name = name
	return stmt, nil
}

func classifyTransition(stmt Statement, text string) (Statement, error) {
	left, right, ok := splitArrow(text)
	if !ok || left == "" || right == "" {
		return stmt, lineError(ErrSyntax,
			fmt.Sprintf("malformed transition %q", text), stmt.Line, stmt.Raw)
	}

	label := ""
	if idx := strings.Index(right, ":"); idx >= 0 {
		label = strings.TrimSpace(right[idx+1:])
		right = strings.TrimSpace(right[:idx])
	}

	source, err := parseEndpoint(stmt, left, true)
	if err != nil {
		return stmt, err
	}
	target, err := parseEndpoint(stmt, right, false)
	if err != nil {
		return stmt, err
	}
	event, guard, action, err := parseLabel(stmt, label)
	if err != nil {
		return stmt, err
	}

	stmt.Kind = StatementTransition
	stmt.Source = source
	stmt.Target = target
	stmt.Event = event
	stmt.Guard = guard
	stmt.Action = action
	return stmt, nil
}

func classifyInternalAction(stmt Statement, text string) (Statement, error) {
	idx := strings.Index(text, ":")
	name := strings.TrimSpace(text[:idx])
	rest := strings.TrimSpace(text[idx+1:])

	for _, kind := range []string{ActionEntry, ActionExit, ActionDo} {
		if len(rest) < len(kind) || !strings.EqualFold(rest[:len(kind)], kind) {
			continue
		}
		rem := strings.TrimSpace(rest[len(kind):])
		if !strings.HasPrefix(rem, ":") {
			continue
		}
		if !validIdent(name) {
			return stmt, lineError(ErrSyntax,
				fmt.Sprintf("invalid state name %q", name), stmt.Line, stmt.Raw)
		}
		stmt.Kind = StatementInternalAction
		stmt.Name = name
		stmt.ActionKind = kind
		stmt.Label = strings.TrimSpace(rem[1:])
		return stmt, nil
	}

	return stmt, lineError(ErrSyntax,
		fmt.Sprintf("unrecognized statement %q", text), stmt.Line, stmt.Raw)
}

// splitArrow splits on the first --> or -> separator.
func splitArrow(text string) (string, string, bool) {
	if idx := strings.Index(text, "-->"); idx >= 0 {
		return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+3:]), true
	}
	if idx := strings.Index(text, "->"); idx >= 0 {
		return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+2:]), true
	}
	return "", "", false
}

func parseEndpoint(stmt Statement, text string, isSource bool) (Endpoint, error) {
	switch {
	case text == "[*]":
		if isSource {
			return InitialMarker(), nil
		}
		return FinalMarker(), nil
	case text == "[H]":
		if isSource {
			return Endpoint{}, lineError(ErrSyntax,
				"history pseudostate cannot be a transition source", stmt.Line, stmt.Raw)
		}
		return HistoryMarker(""), nil
	case strings.HasSuffix(text, "[H]"):
		owner := strings.TrimSpace(strings.TrimSuffix(text, "[H]"))
		if isSource {
			return Endpoint{}, lineError(ErrSyntax,
				"history pseudostate cannot be a transition source", stmt.Line, stmt.Raw)
		}
		if !validIdent(owner) {
			return Endpoint{}, lineError(ErrSyntax,
				fmt.Sprintf("invalid history owner %q", owner), stmt.Line, stmt.Raw)
		}
		return HistoryMarker(owner), nil
	}
	if !validIdent(text) {
		return Endpoint{}, lineError(ErrSyntax,
			fmt.Sprintf("invalid state name %q", text), stmt.Line, stmt.Raw)
	}
	return Named(text), nil
}

// parseLabel splits a transition label into event, guard and action parts:
// `event [guard] / action`, every part optional.
func parseLabel(stmt Statement, label string) (event, guard, action string, err error) {
	if label == "" {
		return "", "", "", nil
	}
	if idx := strings.Index(label, "/"); idx >= 0 {
		action = strings.TrimSpace(label[idx+1:])
		label = strings.TrimSpace(label[:idx])
	}
	if open := strings.Index(label, "["); open >= 0 {
		closing := strings.LastIndex(label, "]")
		if closing < open {
			return "", "", "", lineError(ErrSyntax,
				fmt.Sprintf("unterminated guard in label %q", stmt.Raw), stmt.Line, stmt.Raw)
		}
		if rest := strings.TrimSpace(label[closing+1:]); rest != "" {
			return "", "", "", lineError(ErrSyntax,
				fmt.Sprintf("trailing text %q after guard", rest), stmt.Line, stmt.Raw)
		}
		guard = strings.TrimSpace(label[open+1 : closing])
		label = strings.TrimSpace(label[:open])
	}
	event = strings.TrimSpace(label)
	return event, guard, action, nil
}

// validIdent accepts Unicode-letter identifiers so diagrams may use
// non-ASCII state names.
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if unicode.IsLetter(r) || r == '_' {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

func isSeparatorRun(text string) bool {
	if len(text) < 2 {
		return false
	}
	for _, r := range text {
		if r != '-' {
			return false
		}
	}
	return true
}
