package codegen

import (
	"strings"
	"unicode"
)

// exportedIdent transliterates a free-text label into an exported Go
// identifier: words split on any non-letter/digit rune, first rune of each
// word upper-cased. Returns "" when the label carries no identifier
// material, which callers degrade to a comment stub.
func exportedIdent(label string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range label {
		switch {
		case unicode.IsLetter(r):
			if upperNext {
				r = unicode.ToUpper(r)
				upperNext = false
			}
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if b.Len() == 0 {
				continue
			}
			b.WriteRune(r)
			upperNext = true
		default:
			upperNext = true
		}
	}
	return b.String()
}

// packageIdent lowers a diagram name into a plausible package name.
func packageIdent(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || (b.Len() > 0 && unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	if b.Len() == 0 {
		return "statemachine"
	}
	return b.String()
}

// isIdent reports whether s is usable as a Go identifier verbatim.
func isIdent(s string) bool {
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

// Guard expressions are emitted verbatim as boolean expressions. The
// transliteration check only vets the character set; anything richer
// degrades to a stub so generation never aborts on free text.
func guardEmittable(expr string) bool {
	if strings.TrimSpace(expr) == "" {
		return false
	}
	for _, r := range expr {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '_', '.', '(', ')', '!', '<', '>', '=', '&', '|', '+', '-', '*', '/', '%', '"', '\'':
		default:
			return false
		}
	}
	return !strings.Contains(expr, "\n")
}

// commentSafe flattens a label so it can ride inside a line comment.
func commentSafe(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(text)
}
