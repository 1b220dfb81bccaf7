package puml

import (
	stderrors "errors"
	"strings"

	apperrors "github.com/goliatone/go-errors"
)

const (
	ErrCodeSyntax                = "SC_SYNTAX_ERROR"
	ErrCodeUnknownState          = "SC_UNKNOWN_STATE"
	ErrCodeNestedComposite       = "SC_NESTED_COMPOSITE"
	ErrCodeUnbalancedBlock       = "SC_UNBALANCED_BLOCK"
	ErrCodeDuplicateState        = "SC_DUPLICATE_STATE"
	ErrCodeNoInitial             = "SC_NO_INITIAL_TRANSITION"
	ErrCodeMultipleInitial       = "SC_MULTIPLE_INITIAL_TRANSITIONS"
	ErrCodeUnresolvedEndpoint    = "SC_UNRESOLVED_ENDPOINT"
	ErrCodeHistoryOnNonComposite = "SC_HISTORY_ON_NON_COMPOSITE"
	ErrCodeUnsupportedConstruct  = "SC_UNSUPPORTED_CONSTRUCT"
)

var (
	ErrSyntax = apperrors.New("unrecognized statement", apperrors.CategoryBadInput).
			WithTextCode(ErrCodeSyntax)
	ErrUnknownState = apperrors.New("unknown state", apperrors.CategoryBadInput).
			WithTextCode(ErrCodeUnknownState)
	ErrNestedComposite = apperrors.New("composite nested inside composite", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeNestedComposite)
	ErrUnbalancedBlock = apperrors.New("unbalanced composite block", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeUnbalancedBlock)
	ErrDuplicateState = apperrors.New("duplicate state declaration", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeDuplicateState)
	ErrNoInitial = apperrors.New("scope has no initial transition", apperrors.CategoryBadInput).
			WithTextCode(ErrCodeNoInitial)
	ErrMultipleInitial = apperrors.New("scope has multiple initial transitions", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeMultipleInitial)
	ErrUnresolvedEndpoint = apperrors.New("transition endpoint does not resolve", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeUnresolvedEndpoint)
	ErrHistoryOnNonComposite = apperrors.New("history target outside a composite", apperrors.CategoryBadInput).
					WithTextCode(ErrCodeHistoryOnNonComposite)
	ErrUnsupportedConstruct = apperrors.New("construct outside the supported subset", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeUnsupportedConstruct)
)

// newError clones a sentinel with a per-site message and metadata so the
// caller still matches the base via errors.As and its text code.
func newError(base *apperrors.Error, message string, metadata map[string]any) *apperrors.Error {
	err := base.Clone()
	if text := strings.TrimSpace(message); text != "" {
		err.Message = text
	}
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

func lineError(base *apperrors.Error, message string, line int, raw string) *apperrors.Error {
	md := map[string]any{"line": line}
	if raw != "" {
		md["text"] = raw
	}
	return newError(base, message, md)
}

// ErrorCode extracts the text code discriminant from a compiler error,
// returning "" for foreign errors.
func ErrorCode(err error) string {
	var ge *apperrors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}

// ErrorLine extracts the 1-based source line attached to a compiler error,
// returning 0 when no location is available.
func ErrorLine(err error) int {
	var ge *apperrors.Error
	if !stderrors.As(err, &ge) {
		return 0
	}
	if line, ok := ge.Metadata["line"].(int); ok {
		return line
	}
	return 0
}
