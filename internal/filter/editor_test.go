package filter

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/taskgrid/taskgrid/internal/domain"
)

func numberClauseExpression(t *testing.T) domain.FilterExpression {
	t.Helper()

	expr, err := AddClause(domain.NewFilterExpression(), uuid.New(), domain.FieldTypeNumber)
	if err != nil {
		t.Fatalf("add clause: %v", err)
	}
	expr, err = ChangeOperator(expr, 0, OpGreaterThan)
	if err != nil {
		t.Fatalf("change operator: %v", err)
	}
	expr, err = ChangeValue(expr, 0, domain.NewFilterValue("5"))
	if err != nil {
		t.Fatalf("change value: %v", err)
	}
	return expr
}

func TestAddClause_DefaultsOperatorAndEmptyValue(t *testing.T) {
	fieldID := uuid.New()
	expr, err := AddClause(domain.NewFilterExpression(), fieldID, domain.FieldTypeSelect)
	if err != nil {
		t.Fatalf("add clause: %v", err)
	}

	if len(expr.Clauses) != 1 {
		t.Fatalf("expected one clause, got %d", len(expr.Clauses))
	}
	clause := expr.Clauses[0]
	if clause.Operator != OperatorsFor(domain.FieldTypeSelect)[0] {
		t.Fatalf("expected default operator, got %q", clause.Operator)
	}
	if !clause.Value.IsEmpty() || clause.SubValue != "" {
		t.Fatalf("expected empty value and sub-value on a new clause")
	}
}

func TestChangeField_ResetsOperatorAndValues(t *testing.T) {
	expr := numberClauseExpression(t)
	expr, err := ChangeSubValue(expr, 0, "10")
	if err != nil {
		t.Fatalf("change sub-value: %v", err)
	}

	newField := uuid.New()
	changed, err := ChangeField(expr, 0, newField, domain.FieldTypeSelect)
	if err != nil {
		t.Fatalf("change field: %v", err)
	}

	clause := changed.Clauses[0]
	if clause.FieldID != newField || clause.FieldType != domain.FieldTypeSelect {
		t.Fatalf("clause not rebound: %+v", clause)
	}
	if clause.Operator != OperatorsFor(domain.FieldTypeSelect)[0] {
		t.Fatalf("expected operator reset to SELECT default, got %q", clause.Operator)
	}
	if !clause.Value.IsEmpty() || clause.SubValue != "" {
		t.Fatalf("expected value and sub-value cleared after field change")
	}
}

func TestChangeOperator_InvalidOperatorLeavesExpressionUnchanged(t *testing.T) {
	expr := numberClauseExpression(t)

	changed, err := ChangeOperator(expr, 0, "not-a-real-operator")
	if !errors.Is(err, ErrInvalidOperator) {
		t.Fatalf("expected ErrInvalidOperator, got %v", err)
	}
	if !changed.Equal(expr) {
		t.Fatalf("expression must be unchanged after a rejected transition")
	}
}

func TestChangeOperator_CrossTypeOperatorRejected(t *testing.T) {
	expr := numberClauseExpression(t)

	// "contains" exists for TEXT but not NUMBER; validity is checked
	// against the owning clause's field type.
	if _, err := ChangeOperator(expr, 0, OpContains); !errors.Is(err, ErrInvalidOperator) {
		t.Fatalf("expected ErrInvalidOperator for cross-type operator, got %v", err)
	}
}

func TestChangeValue_Idempotent(t *testing.T) {
	expr := numberClauseExpression(t)

	once, err := ChangeValue(expr, 0, domain.NewFilterValue("7"))
	if err != nil {
		t.Fatalf("change value: %v", err)
	}
	twice, err := ChangeValue(once, 0, domain.NewFilterValue("7"))
	if err != nil {
		t.Fatalf("change value again: %v", err)
	}

	if !once.Equal(twice) {
		t.Fatalf("applying the same value twice should be a no-op")
	}
}

func TestChangeValue_ResetsSubValue(t *testing.T) {
	expr := numberClauseExpression(t)
	expr, err := ChangeOperator(expr, 0, OpBetween)
	if err != nil {
		t.Fatalf("change operator: %v", err)
	}
	expr, err = ChangeSubValue(expr, 0, "10")
	if err != nil {
		t.Fatalf("change sub-value: %v", err)
	}

	expr, err = ChangeValue(expr, 0, domain.NewFilterValue("2"))
	if err != nil {
		t.Fatalf("change value: %v", err)
	}
	if expr.Clauses[0].SubValue != "" {
		t.Fatalf("expected sub-value reset after primary value change, got %q", expr.Clauses[0].SubValue)
	}
}

func TestDeleteClause_PreservesOrder(t *testing.T) {
	expr := domain.NewFilterExpression()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	var err error
	for _, id := range ids {
		expr, err = AddClause(expr, id, domain.FieldTypeText)
		if err != nil {
			t.Fatalf("add clause: %v", err)
		}
	}

	expr, err = DeleteClause(expr, 1)
	if err != nil {
		t.Fatalf("delete clause: %v", err)
	}

	if len(expr.Clauses) != 2 {
		t.Fatalf("expected two clauses, got %d", len(expr.Clauses))
	}
	if expr.Clauses[0].FieldID != ids[0] || expr.Clauses[1].FieldID != ids[2] {
		t.Fatalf("remaining clauses out of order: %+v", expr.Clauses)
	}
}

func TestSwitchCondition_RejectsUnknownCondition(t *testing.T) {
	expr := numberClauseExpression(t)

	if _, err := SwitchCondition(expr, domain.FilterCondition("XOR")); err == nil {
		t.Fatalf("expected error for unknown condition")
	}

	switched, err := SwitchCondition(expr, domain.FilterConditionOr)
	if err != nil {
		t.Fatalf("switch condition: %v", err)
	}
	if switched.Condition != domain.FilterConditionOr {
		t.Fatalf("condition not switched: %s", switched.Condition)
	}
}

func TestTransitions_PreserveValidity(t *testing.T) {
	expr := domain.NewFilterExpression()
	var err error

	expr, err = AddClause(expr, uuid.New(), domain.FieldTypeNumber)
	if err != nil {
		t.Fatalf("add clause: %v", err)
	}
	expr, err = ChangeOperator(expr, 0, OpBetween)
	if err != nil {
		t.Fatalf("change operator: %v", err)
	}
	expr, err = ChangeValue(expr, 0, domain.NewFilterValue("1"))
	if err != nil {
		t.Fatalf("change value: %v", err)
	}
	expr, err = ChangeSubValue(expr, 0, "9")
	if err != nil {
		t.Fatalf("change sub-value: %v", err)
	}
	expr, err = AddClause(expr, uuid.New(), domain.FieldTypeText)
	if err != nil {
		t.Fatalf("add clause: %v", err)
	}
	expr, err = ChangeOperator(expr, 1, OpIsEmpty)
	if err != nil {
		t.Fatalf("change operator: %v", err)
	}

	if err := Validate(expr); err != nil {
		t.Fatalf("expression built through transitions should validate: %v", err)
	}
}

func TestValidate_MissingRangeBound(t *testing.T) {
	expr := numberClauseExpression(t)
	expr, err := ChangeOperator(expr, 0, OpBetween)
	if err != nil {
		t.Fatalf("change operator: %v", err)
	}

	err = Validate(expr)
	if err == nil {
		t.Fatalf("expected validation failure without a secondary range bound")
	}
	ce, ok := AsCompileError(err)
	if !ok || ce.Kind != CompileErrorInvalidExpression || ce.Clause != 0 {
		t.Fatalf("expected invalid-expression error for clause 0, got %v", err)
	}
}

func TestValidate_RejectsNonNumericValue(t *testing.T) {
	expr := numberClauseExpression(t)
	expr, err := ChangeValue(expr, 0, domain.NewFilterValue("five"))
	if err != nil {
		t.Fatalf("change value: %v", err)
	}

	if Validate(expr) == nil {
		t.Fatalf("expected validation failure for a non-numeric NUMBER value")
	}
}
