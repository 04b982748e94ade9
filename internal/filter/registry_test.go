package filter

import (
	"testing"

	"github.com/taskgrid/taskgrid/internal/domain"
)

func TestOperatorsFor_CoversEveryFieldType(t *testing.T) {
	for _, ft := range domain.FieldTypes() {
		ops := OperatorsFor(ft)
		if len(ops) == 0 {
			t.Fatalf("expected operators for field type %s", ft)
		}
		if ops[0] != DefaultOperator(ft) {
			t.Fatalf("default operator for %s should be first in the list, got %q vs %q", ft, DefaultOperator(ft), ops[0])
		}
	}
}

func TestArityOf_KnownOperators(t *testing.T) {
	cases := []struct {
		fieldType domain.FieldType
		operator  string
		arity     int
	}{
		{domain.FieldTypeNumber, OpGreaterThan, 1},
		{domain.FieldTypeNumber, OpBetween, 2},
		{domain.FieldTypeDate, OpBetween, 2},
		{domain.FieldTypeText, OpIsEmpty, 0},
		{domain.FieldTypeSelect, OpIsAnyOf, 1},
		{domain.FieldTypeCheckbox, OpIs, 1},
	}

	for _, tc := range cases {
		arity, err := ArityOf(tc.fieldType, tc.operator)
		if err != nil {
			t.Fatalf("ArityOf(%s, %s): unexpected error: %v", tc.fieldType, tc.operator, err)
		}
		if arity != tc.arity {
			t.Fatalf("ArityOf(%s, %s) = %d, want %d", tc.fieldType, tc.operator, arity, tc.arity)
		}
	}
}

func TestArityOf_UnknownOperator(t *testing.T) {
	if _, err := ArityOf(domain.FieldTypeNumber, "contains"); err == nil {
		t.Fatalf("expected error for operator registered under a different field type")
	}
	if _, err := ArityOf(domain.FieldTypeText, "not-a-real-operator"); err == nil {
		t.Fatalf("expected error for unregistered operator")
	}
}

func TestExpectsList_SelectMembershipOperators(t *testing.T) {
	if !ExpectsList(domain.FieldTypeSelect, OpIsAnyOf) {
		t.Fatalf("expected SELECT isAnyOf to take a list value")
	}
	if !ExpectsList(domain.FieldTypeMultiSelect, OpIsAnyOf) {
		t.Fatalf("expected MULTISELECT isAnyOf to take a list value")
	}
	if ExpectsList(domain.FieldTypeSelect, OpIs) {
		t.Fatalf("SELECT is should take a scalar value")
	}
}

func TestDefaultOperator_AcceptedByRegistry(t *testing.T) {
	for _, ft := range domain.FieldTypes() {
		if !IsRegistered(ft, DefaultOperator(ft)) {
			t.Fatalf("default operator %q not registered for %s", DefaultOperator(ft), ft)
		}
	}
}
