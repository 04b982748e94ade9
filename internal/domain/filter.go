package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// FilterCondition is the boolean connective applied uniformly to all
// clauses of a filter expression. The expression is flat: there is no
// per-clause nesting or grouping.
type FilterCondition string

const (
	FilterConditionAnd FilterCondition = "AND"
	FilterConditionOr  FilterCondition = "OR"
)

// Valid reports whether c is a member of the condition enumeration.
func (c FilterCondition) Valid() bool {
	return c == FilterConditionAnd || c == FilterConditionOr
}

// FilterValue holds a clause value that is either a single scalar or a
// list of scalars. The operator registry defines which shape an operator
// expects, so compilation never has to probe the value at runtime.
//
// On the wire a scalar encodes as a JSON string and a list as a JSON
// array of strings, matching the shape filter editors submit.
type FilterValue struct {
	scalar string
	list   []string
	isList bool
}

// NewFilterValue creates a scalar filter value.
func NewFilterValue(value string) FilterValue {
	return FilterValue{scalar: value}
}

// NewFilterListValue creates a list filter value. The input slice is
// copied so later caller mutation cannot leak into the expression.
func NewFilterListValue(values []string) FilterValue {
	list := make([]string, len(values))
	copy(list, values)
	return FilterValue{list: list, isList: true}
}

// IsList reports whether the value holds a list of scalars.
func (v FilterValue) IsList() bool { return v.isList }

// IsEmpty reports whether no value has been supplied.
func (v FilterValue) IsEmpty() bool {
	if v.isList {
		return len(v.list) == 0
	}
	return v.scalar == ""
}

// Scalar returns the scalar form of the value.
func (v FilterValue) Scalar() string { return v.scalar }

// List returns a copy of the list form of the value.
func (v FilterValue) List() []string {
	if len(v.list) == 0 {
		return nil
	}
	list := make([]string, len(v.list))
	copy(list, v.list)
	return list
}

// Equal reports whether two filter values have the same shape and content.
func (v FilterValue) Equal(other FilterValue) bool {
	if v.isList != other.isList {
		return false
	}
	if !v.isList {
		return v.scalar == other.scalar
	}
	if len(v.list) != len(other.list) {
		return false
	}
	for i := range v.list {
		if v.list[i] != other.list[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes scalars as strings and lists as string arrays.
func (v FilterValue) MarshalJSON() ([]byte, error) {
	if v.isList {
		if v.list == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.list)
	}
	return json.Marshal(v.scalar)
}

// UnmarshalJSON accepts either a string or an array of strings.
func (v *FilterValue) UnmarshalJSON(data []byte) error {
	var scalar string
	if err := json.Unmarshal(data, &scalar); err == nil {
		*v = FilterValue{scalar: scalar}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = FilterValue{list: list, isList: true}
		return nil
	}

	return fmt.Errorf("filter value must be a string or an array of strings")
}

// FilterClause binds one custom field to an operator and a value. FieldType
// is a denormalized copy captured when the clause was created or edited; it
// is not re-derived from the field definition at compile time.
//
// SubValue is the secondary bound used only by range-shaped (arity 2)
// operators, e.g. the upper end of a NUMBER "between".
type FilterClause struct {
	FieldID   uuid.UUID   `json:"fieldId"`
	FieldType FieldType   `json:"fieldType"`
	Operator  string      `json:"operator"`
	Value     FilterValue `json:"value"`
	SubValue  string      `json:"subValue,omitempty"`
}

// Equal reports whether two clauses are identical field for field.
func (c FilterClause) Equal(other FilterClause) bool {
	return c.FieldID == other.FieldID &&
		c.FieldType == other.FieldType &&
		c.Operator == other.Operator &&
		c.Value.Equal(other.Value) &&
		c.SubValue == other.SubValue
}

// FilterExpression is one saved filter: a top-level condition plus an
// ordered list of clauses. Clause order is user-meaningful for display
// and preserved by serialization; it does not affect query semantics.
type FilterExpression struct {
	Condition FilterCondition `json:"condition"`
	Clauses   []FilterClause  `json:"clauses"`
}

// NewFilterExpression creates the empty expression a filter editor starts
// from: AND with no clauses.
func NewFilterExpression() FilterExpression {
	return FilterExpression{Condition: FilterConditionAnd}
}

// Equal reports whether two expressions have the same condition and the
// same clauses in the same order.
func (e FilterExpression) Equal(other FilterExpression) bool {
	if e.Condition != other.Condition {
		return false
	}
	if len(e.Clauses) != len(other.Clauses) {
		return false
	}
	for i := range e.Clauses {
		if !e.Clauses[i].Equal(other.Clauses[i]) {
			return false
		}
	}
	return true
}

// WithClauses returns a copy of the expression with the given clause slice.
// The slice is used as-is; callers own it after the call.
func (e FilterExpression) WithClauses(clauses []FilterClause) FilterExpression {
	return FilterExpression{Condition: e.Condition, Clauses: clauses}
}

// CopyClauses returns a deep enough copy of the clause slice for safe
// mutation. FilterValue contents are immutable through its API, so a
// shallow element copy suffices.
func (e FilterExpression) CopyClauses() []FilterClause {
	if e.Clauses == nil {
		return nil
	}
	clauses := make([]FilterClause, len(e.Clauses))
	copy(clauses, e.Clauses)
	return clauses
}
