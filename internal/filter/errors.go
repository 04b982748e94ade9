package filter

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownOperator is returned when an operator/field-type pair is
	// not present in the registry.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrInvalidOperator is returned when a mutation supplies an operator
	// that is not valid for the clause's field type. The expression is
	// left unchanged.
	ErrInvalidOperator = errors.New("operator not valid for field type")

	// ErrClauseIndex is returned when a mutation addresses a clause index
	// outside the expression.
	ErrClauseIndex = errors.New("clause index out of range")

	// ErrInvalidCursor is returned for malformed continuation tokens and
	// for tokens issued under a different ordering. Callers must restart
	// pagination from the beginning.
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

// CompileErrorKind classifies why an expression could not be compiled.
type CompileErrorKind string

const (
	CompileErrorInvalidExpression CompileErrorKind = "INVALID_EXPRESSION"
	CompileErrorUnresolvedField   CompileErrorKind = "UNRESOLVED_FIELD"
)

// CompileError reports a compilation failure. Clause is the index of the
// offending clause, or -1 when the failure is not tied to a single clause,
// so an editor can highlight the clause that needs fixing.
type CompileError struct {
	Kind   CompileErrorKind
	Clause int
	Reason string
}

func (e *CompileError) Error() string {
	if e.Clause >= 0 {
		return fmt.Sprintf("compile filter: %s (clause %d): %s", e.Kind, e.Clause, e.Reason)
	}
	return fmt.Sprintf("compile filter: %s: %s", e.Kind, e.Reason)
}

func newCompileError(kind CompileErrorKind, clause int, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Clause: clause, Reason: fmt.Sprintf(format, args...)}
}

// AsCompileError unwraps err into a *CompileError when possible.
func AsCompileError(err error) (*CompileError, bool) {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
