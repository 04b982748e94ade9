package filter

import (
	"strconv"
	"time"

	"github.com/taskgrid/taskgrid/internal/domain"
)

// dateLayouts are the accepted textual forms for DATE clause values.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// Validate checks an expression against the operator registry and the value
// shapes operators expect. A nil result means the expression can be
// compiled. Failures come back as *CompileError with kind
// CompileErrorInvalidExpression and the offending clause index.
func Validate(expr domain.FilterExpression) error {
	if !expr.Condition.Valid() {
		return newCompileError(CompileErrorInvalidExpression, -1, "unknown condition %q", expr.Condition)
	}

	for i, clause := range expr.Clauses {
		if err := validateClause(i, clause); err != nil {
			return err
		}
	}
	return nil
}

// IsValid is the boolean form of Validate.
func IsValid(expr domain.FilterExpression) bool {
	return Validate(expr) == nil
}

func validateClause(index int, clause domain.FilterClause) error {
	if !clause.FieldType.Valid() {
		return newCompileError(CompileErrorInvalidExpression, index, "unknown field type %q", clause.FieldType)
	}

	arity, err := ArityOf(clause.FieldType, clause.Operator)
	if err != nil {
		return newCompileError(CompileErrorInvalidExpression, index,
			"operator %q is not registered for field type %s", clause.Operator, clause.FieldType)
	}

	if arity == 0 {
		// Pseudo-operators like "is empty" carry no value at all.
		return nil
	}

	if ExpectsList(clause.FieldType, clause.Operator) {
		if !clause.Value.IsList() || clause.Value.IsEmpty() {
			return newCompileError(CompileErrorInvalidExpression, index,
				"operator %q requires a non-empty list value", clause.Operator)
		}
		return nil
	}

	if clause.Value.IsList() {
		return newCompileError(CompileErrorInvalidExpression, index,
			"operator %q requires a scalar value", clause.Operator)
	}
	if clause.Value.IsEmpty() {
		return newCompileError(CompileErrorInvalidExpression, index,
			"operator %q requires a value", clause.Operator)
	}

	if err := validateScalarShape(index, clause, clause.Value.Scalar()); err != nil {
		return err
	}

	if arity == 2 {
		if clause.SubValue == "" {
			return newCompileError(CompileErrorInvalidExpression, index,
				"range operator %q requires a secondary value", clause.Operator)
		}
		if err := validateScalarShape(index, clause, clause.SubValue); err != nil {
			return err
		}
	}
	return nil
}

// validateScalarShape rejects values that cannot be interpreted under the
// clause's field type. Catching this here keeps type confusion out of the
// compiled query.
func validateScalarShape(index int, clause domain.FilterClause, value string) error {
	switch clause.FieldType {
	case domain.FieldTypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return newCompileError(CompileErrorInvalidExpression, index,
				"value %q is not numeric", value)
		}
	case domain.FieldTypeDate:
		if _, err := parseDate(value); err != nil {
			return newCompileError(CompileErrorInvalidExpression, index,
				"value %q is not a date", value)
		}
	case domain.FieldTypeCheckbox:
		if _, err := strconv.ParseBool(value); err != nil {
			return newCompileError(CompileErrorInvalidExpression, index,
				"value %q is not a boolean", value)
		}
	}
	return nil
}

// parseDate tries the accepted date layouts in order.
func parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
