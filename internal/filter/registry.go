package filter

import (
	"fmt"

	"github.com/taskgrid/taskgrid/internal/domain"
)

// Operator identifiers. An identifier is only meaningful together with the
// owning clause's field type: "contains" on TEXT is a substring match while
// "contains" on MULTISELECT is set membership.
const (
	OpEqual          = "eq"
	OpNotEqual       = "neq"
	OpGreaterThan    = "gt"
	OpGreaterOrEqual = "gte"
	OpLessThan       = "lt"
	OpLessOrEqual    = "lte"
	OpBetween        = "between"
	OpContains       = "contains"
	OpNotContains    = "notContains"
	OpIs             = "is"
	OpIsNot          = "isNot"
	OpIsAnyOf        = "isAnyOf"
	OpBefore         = "before"
	OpAfter          = "after"
	OpIsEmpty        = "isEmpty"
	OpIsNotEmpty     = "isNotEmpty"
)

// operatorSpec describes the value shape an operator expects.
// Arity 0 operators take no value at all ("is empty"), arity 1 a primary
// value, arity 2 a primary value plus a secondary range bound. List marks
// operators whose primary value is a list of option ids.
type operatorSpec struct {
	Name  string
	Arity int
	List  bool
}

// registry maps each field type to its ordered operator set. The first
// entry is the default operator offered when a clause binds to a field of
// that type. Static, read-only, process-wide configuration.
var registry = map[domain.FieldType][]operatorSpec{
	domain.FieldTypeText: {
		{Name: OpContains, Arity: 1},
		{Name: OpNotContains, Arity: 1},
		{Name: OpIs, Arity: 1},
		{Name: OpIsNot, Arity: 1},
		{Name: OpIsEmpty, Arity: 0},
		{Name: OpIsNotEmpty, Arity: 0},
	},
	domain.FieldTypeEmail: {
		{Name: OpContains, Arity: 1},
		{Name: OpNotContains, Arity: 1},
		{Name: OpIs, Arity: 1},
		{Name: OpIsNot, Arity: 1},
		{Name: OpIsEmpty, Arity: 0},
		{Name: OpIsNotEmpty, Arity: 0},
	},
	domain.FieldTypeURL: {
		{Name: OpContains, Arity: 1},
		{Name: OpNotContains, Arity: 1},
		{Name: OpIs, Arity: 1},
		{Name: OpIsNot, Arity: 1},
		{Name: OpIsEmpty, Arity: 0},
		{Name: OpIsNotEmpty, Arity: 0},
	},
	domain.FieldTypeNumber: {
		{Name: OpEqual, Arity: 1},
		{Name: OpNotEqual, Arity: 1},
		{Name: OpGreaterThan, Arity: 1},
		{Name: OpGreaterOrEqual, Arity: 1},
		{Name: OpLessThan, Arity: 1},
		{Name: OpLessOrEqual, Arity: 1},
		{Name: OpBetween, Arity: 2},
	},
	domain.FieldTypeDate: {
		{Name: OpIs, Arity: 1},
		{Name: OpBefore, Arity: 1},
		{Name: OpAfter, Arity: 1},
		{Name: OpBetween, Arity: 2},
	},
	domain.FieldTypeCheckbox: {
		{Name: OpIs, Arity: 1},
	},
	domain.FieldTypeSelect: {
		{Name: OpIs, Arity: 1},
		{Name: OpIsNot, Arity: 1},
		{Name: OpIsAnyOf, Arity: 1, List: true},
		{Name: OpIsEmpty, Arity: 0},
		{Name: OpIsNotEmpty, Arity: 0},
	},
	domain.FieldTypeMultiSelect: {
		{Name: OpContains, Arity: 1},
		{Name: OpNotContains, Arity: 1},
		{Name: OpIsAnyOf, Arity: 1, List: true},
		{Name: OpIsEmpty, Arity: 0},
		{Name: OpIsNotEmpty, Arity: 0},
	},
}

func init() {
	// An unregistered field type is a programming error, not a recoverable
	// user-facing condition.
	for _, ft := range domain.FieldTypes() {
		specs, ok := registry[ft]
		if !ok || len(specs) == 0 {
			panic(fmt.Sprintf("filter: no operators registered for field type %s", ft))
		}
	}
}

// OperatorsFor returns the ordered operator identifiers valid for a field
// type. The first entry is the default operator.
func OperatorsFor(fieldType domain.FieldType) []string {
	specs := registry[fieldType]
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	return names
}

// DefaultOperator returns the operator assigned when a clause binds to a
// field of the given type.
func DefaultOperator(fieldType domain.FieldType) string {
	specs := registry[fieldType]
	if len(specs) == 0 {
		return ""
	}
	return specs[0].Name
}

// lookup returns the spec for an operator under a field type.
func lookup(fieldType domain.FieldType, operator string) (operatorSpec, bool) {
	for _, spec := range registry[fieldType] {
		if spec.Name == operator {
			return spec, true
		}
	}
	return operatorSpec{}, false
}

// IsRegistered reports whether the operator is valid for the field type.
func IsRegistered(fieldType domain.FieldType, operator string) bool {
	_, ok := lookup(fieldType, operator)
	return ok
}

// ArityOf returns the value arity (0, 1 or 2) of an operator under a field
// type, or ErrUnknownOperator when the pair is not registered.
func ArityOf(fieldType domain.FieldType, operator string) (int, error) {
	spec, ok := lookup(fieldType, operator)
	if !ok {
		return 0, fmt.Errorf("%w: %q for field type %s", ErrUnknownOperator, operator, fieldType)
	}
	return spec.Arity, nil
}

// ExpectsList reports whether the operator's primary value is a list of
// option ids rather than a scalar.
func ExpectsList(fieldType domain.FieldType, operator string) bool {
	spec, ok := lookup(fieldType, operator)
	return ok && spec.List
}
