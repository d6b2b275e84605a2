package reshape

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/reshape/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeEmptyString   = "empty_string"
	CodeConflict      = "conflict"
	CodeNotFound      = "not_found"
	CodeRequires      = "requires"
	CodeInvalidType   = "invalid_type"
	CodeInvalidFormat = "invalid_format"
	CodeDuplicateKey  = "duplicate_key"
	CodeParseError    = "parse_error"
	CodeTruncated     = "truncated"
)

// Sentinels matched with errors.Is against the typed errors below.
var (
	ErrValidation      = errors.New("reshape: validation failed")
	ErrConflict        = errors.New("reshape: conflicting query fields")
	ErrNotFound        = errors.New("reshape: not found")
	ErrUnsupportedMode = errors.New("reshape: unsupported verify mode")
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /address/street).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"fields": [...]}) for i18n
	// and observability.
	Params map[string]any
	// Rule optionally records the rule name that produced this issue.
	Rule string
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. empty_string at /name
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

type issuer interface{ Issues() Issues }

// AsIssues extracts Issues from an error chain. Typed errors of this package
// expose their structured view as well, so a *ValidationError yields one issue
// per offending field.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	var is issuer
	if errors.As(err, &is) {
		return is.Issues(), true
	}
	return nil, false
}

// ValidationError reports fields holding a disallowed empty value. Fields keeps
// the order in which they were checked.
type ValidationError struct {
	Fields []string
	// Plural selects the "Fields" wording. It follows the number of fields that
	// were checked, not the number that failed.
	Plural bool
}

func (e *ValidationError) Error() string {
	word := "Field"
	if e.Plural {
		word = "Fields"
	}
	return fmt.Sprintf("%s [%s] can't be empty string", word, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Issues returns one empty_string issue per offending field.
func (e *ValidationError) Issues() Issues {
	out := make(Issues, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, Root().Field(f).Issue(CodeEmptyString,
			i18n.T(CodeEmptyString, map[string]string{"field": f}), "field", f))
	}
	return out
}

// ConflictError reports a query that mixes two mutually exclusive groups.
type ConflictError struct {
	Invalid []string
	Valid   []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("Fields [%s] can't be together with [%s] field/s",
		strings.Join(e.Invalid, " | "), strings.Join(e.Valid, " | "))
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func (e *ConflictError) Issues() Issues {
	return Issues{Root().Issue(CodeConflict, i18n.T(CodeConflict, nil),
		"invalid", append([]string(nil), e.Invalid...),
		"valid", append([]string(nil), e.Valid...))}
}

// NotFoundError is raised by collaborators when a referenced entity cannot be
// resolved. The engine never produces it and never recovers from it.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Issues() Issues {
	return Issues{Root().Issue(CodeNotFound, i18n.T(CodeNotFound, map[string]string{"entity": e.Entity}),
		"entity", e.Entity, "key", e.Key)}
}
