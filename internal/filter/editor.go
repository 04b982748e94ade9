package filter

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/taskgrid/taskgrid/internal/domain"
)

// Mutation transitions for an editor session's filter expression.
//
// Each transition is a pure transformation: it returns a new expression and
// never mutates its input. An invalid transition returns an error and the
// original expression, so callers can keep using the value they passed in.
// The host serializes transitions per session; no locking happens here.

// SwitchCondition sets the top-level boolean condition.
func SwitchCondition(expr domain.FilterExpression, condition domain.FilterCondition) (domain.FilterExpression, error) {
	if !condition.Valid() {
		return expr, fmt.Errorf("unknown filter condition %q", condition)
	}
	return domain.FilterExpression{Condition: condition, Clauses: expr.CopyClauses()}, nil
}

// AddClause appends a clause bound to the given field. The operator starts
// at the field type's default and the value starts empty, mirroring what a
// filter editor shows for a freshly added row.
func AddClause(expr domain.FilterExpression, fieldID uuid.UUID, fieldType domain.FieldType) (domain.FilterExpression, error) {
	if !fieldType.Valid() {
		return expr, fmt.Errorf("unknown field type %q", fieldType)
	}

	clauses := append(expr.CopyClauses(), domain.FilterClause{
		FieldID:   fieldID,
		FieldType: fieldType,
		Operator:  DefaultOperator(fieldType),
	})
	return expr.WithClauses(clauses), nil
}

// ChangeField rebinds a clause to a different field. Operator semantics are
// type-scoped, so the previously chosen operator and value are meaningless
// under the new type: the operator resets to the new type's default and
// value and sub-value are cleared rather than coerced.
func ChangeField(expr domain.FilterExpression, index int, fieldID uuid.UUID, fieldType domain.FieldType) (domain.FilterExpression, error) {
	if index < 0 || index >= len(expr.Clauses) {
		return expr, fmt.Errorf("%w: %d", ErrClauseIndex, index)
	}
	if !fieldType.Valid() {
		return expr, fmt.Errorf("unknown field type %q", fieldType)
	}

	clauses := expr.CopyClauses()
	clauses[index] = domain.FilterClause{
		FieldID:   fieldID,
		FieldType: fieldType,
		Operator:  DefaultOperator(fieldType),
	}
	return expr.WithClauses(clauses), nil
}

// ChangeOperator sets a clause's operator. The operator must be registered
// for the clause's current field type; otherwise ErrInvalidOperator is
// returned and the expression is unchanged.
func ChangeOperator(expr domain.FilterExpression, index int, operator string) (domain.FilterExpression, error) {
	if index < 0 || index >= len(expr.Clauses) {
		return expr, fmt.Errorf("%w: %d", ErrClauseIndex, index)
	}

	clause := expr.Clauses[index]
	if !IsRegistered(clause.FieldType, operator) {
		return expr, fmt.Errorf("%w: %q under %s", ErrInvalidOperator, operator, clause.FieldType)
	}

	clauses := expr.CopyClauses()
	clauses[index].Operator = operator
	return expr.WithClauses(clauses), nil
}

// ChangeValue sets a clause's primary value. Any previously paired range
// bound is invalidated by a new primary value, so the sub-value resets.
func ChangeValue(expr domain.FilterExpression, index int, value domain.FilterValue) (domain.FilterExpression, error) {
	if index < 0 || index >= len(expr.Clauses) {
		return expr, fmt.Errorf("%w: %d", ErrClauseIndex, index)
	}

	clauses := expr.CopyClauses()
	clauses[index].Value = value
	clauses[index].SubValue = ""
	return expr.WithClauses(clauses), nil
}

// ChangeSubValue sets a clause's secondary range bound. Setting it while
// the active operator has arity below 2 is accepted but inert: validation
// and compilation ignore the sub-value for non-range operators.
func ChangeSubValue(expr domain.FilterExpression, index int, subValue string) (domain.FilterExpression, error) {
	if index < 0 || index >= len(expr.Clauses) {
		return expr, fmt.Errorf("%w: %d", ErrClauseIndex, index)
	}

	clauses := expr.CopyClauses()
	clauses[index].SubValue = subValue
	return expr.WithClauses(clauses), nil
}

// DeleteClause removes a clause, preserving the order of the rest.
func DeleteClause(expr domain.FilterExpression, index int) (domain.FilterExpression, error) {
	if index < 0 || index >= len(expr.Clauses) {
		return expr, fmt.Errorf("%w: %d", ErrClauseIndex, index)
	}

	clauses := make([]domain.FilterClause, 0, len(expr.Clauses)-1)
	clauses = append(clauses, expr.Clauses[:index]...)
	clauses = append(clauses, expr.Clauses[index+1:]...)
	return expr.WithClauses(clauses), nil
}
