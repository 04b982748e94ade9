package filter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskgrid/taskgrid/internal/domain"
)

// FieldResolver looks up a custom field definition for a project. The
// compiler consults it before emitting any predicate so a clause bound to
// a deleted field fails with a compile error instead of a broken query.
type FieldResolver interface {
	ResolveField(ctx context.Context, projectID, fieldID uuid.UUID) (domain.Field, bool, error)
}

// Query is a compiled, fully parameterized filter query over the task
// collection. SQL selects Limit+1 rows so the executor can tell whether
// another page exists; Order is the effective ordering including the id
// tiebreaker and is what the next cursor must be encoded against.
type Query struct {
	SQL   string
	Args  []any
	Limit int
	Order []domain.OrderField
}

// Compiler translates validated filter expressions into store queries.
// Stateless per call; safe for concurrent use across sessions.
type Compiler struct {
	fields FieldResolver
}

// NewCompiler creates a compiler backed by the given field resolver.
func NewCompiler(fields FieldResolver) *Compiler {
	return &Compiler{fields: fields}
}

const taskSelectColumns = "id, project_id, title, fields, created_at, updated_at"

// sortColumns whitelists the task columns an ordering may reference.
// Sort fields never come from user-controlled SQL text.
var sortColumns = map[domain.TaskSortField]string{
	domain.TaskSortFieldCreatedAt: "created_at",
	domain.TaskSortFieldUpdatedAt: "updated_at",
	domain.TaskSortFieldTitle:     "title",
	domain.TaskSortFieldID:        "id",
}

// Compile builds the store query for an expression and page request.
// It either fully succeeds or reports one error; clauses are never
// silently dropped.
func (c *Compiler) Compile(ctx context.Context, projectID uuid.UUID, expr domain.FilterExpression, page domain.PageRequest) (Query, error) {
	if err := Validate(expr); err != nil {
		return Query{}, err
	}

	order, err := EffectiveOrder(page.OrderBy)
	if err != nil {
		return Query{}, err
	}

	b := &sqlBuilder{}
	where := []string{"project_id = " + b.bind(projectID)}

	if len(expr.Clauses) > 0 {
		predicates := make([]string, 0, len(expr.Clauses))
		for i, clause := range expr.Clauses {
			if _, found, err := c.fields.ResolveField(ctx, projectID, clause.FieldID); err != nil {
				return Query{}, fmt.Errorf("resolve field %s: %w", clause.FieldID, err)
			} else if !found {
				return Query{}, newCompileError(CompileErrorUnresolvedField, i,
					"field %s is not defined for project %s", clause.FieldID, projectID)
			}

			predicate, err := compileClause(b, clause)
			if err != nil {
				return Query{}, err
			}
			predicates = append(predicates, predicate)
		}

		joiner := " AND "
		if expr.Condition == domain.FilterConditionOr {
			joiner = " OR "
		}
		where = append(where, "("+strings.Join(predicates, joiner)+")")
	}

	if page.Cursor != "" {
		keys, err := DecodeCursor(page.Cursor, order)
		if err != nil {
			return Query{}, err
		}
		bound, err := cursorBound(b, order, keys)
		if err != nil {
			return Query{}, err
		}
		where = append(where, "("+bound+")")
	}

	limit := page.LimitOrDefault()
	sql := fmt.Sprintf(
		"SELECT %s FROM tasks WHERE %s ORDER BY %s LIMIT %s",
		taskSelectColumns,
		strings.Join(where, " AND "),
		orderClause(order),
		b.bind(limit+1),
	)

	return Query{SQL: sql, Args: b.args, Limit: limit, Order: order}, nil
}

// EffectiveOrder expands a requested ordering into the deterministic
// ordering queries actually run with: the default creation order when
// nothing is requested, and id as a final tiebreaker so equal sort keys
// still page stably.
func EffectiveOrder(orderBy []domain.OrderField) ([]domain.OrderField, error) {
	order := make([]domain.OrderField, 0, len(orderBy)+1)
	seen := make(map[domain.TaskSortField]bool, len(orderBy)+1)

	for _, entry := range orderBy {
		if _, ok := sortColumns[entry.Field]; !ok {
			return nil, newCompileError(CompileErrorInvalidExpression, -1,
				"unsupported sort field %q", entry.Field)
		}
		if seen[entry.Field] {
			return nil, newCompileError(CompileErrorInvalidExpression, -1,
				"duplicate sort field %q", entry.Field)
		}
		direction := entry.Direction
		if direction == "" {
			direction = domain.SortDirectionAsc
		}
		if !direction.Valid() {
			return nil, newCompileError(CompileErrorInvalidExpression, -1,
				"unknown sort direction %q", entry.Direction)
		}
		seen[entry.Field] = true
		order = append(order, domain.OrderField{Field: entry.Field, Direction: direction})
	}

	if len(order) == 0 {
		order = append(order, domain.OrderField{Field: domain.TaskSortFieldCreatedAt, Direction: domain.SortDirectionAsc})
		seen[domain.TaskSortFieldCreatedAt] = true
	}
	if !seen[domain.TaskSortFieldID] {
		order = append(order, domain.OrderField{Field: domain.TaskSortFieldID, Direction: domain.SortDirectionAsc})
	}
	return order, nil
}

// sqlBuilder accumulates bind parameters and hands out placeholders.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) bind(value any) string {
	b.args = append(b.args, value)
	return "$" + strconv.Itoa(len(b.args))
}

// compileClause maps one clause to a parameterized SQL predicate over the
// tasks.fields JSONB column. The field id and every value are bound
// parameters; nothing user-supplied is interpolated into SQL text.
func compileClause(b *sqlBuilder, clause domain.FilterClause) (string, error) {
	fieldKey := clause.FieldID.String()
	text := func() string { return "fields->>" + b.bind(fieldKey) }
	jsonb := func() string { return "fields->" + b.bind(fieldKey) }

	switch clause.FieldType {
	case domain.FieldTypeNumber:
		return compileNumberClause(b, clause, text)
	case domain.FieldTypeDate:
		return compileDateClause(b, clause, text)
	case domain.FieldTypeCheckbox:
		checked, _ := strconv.ParseBool(clause.Value.Scalar())
		return fmt.Sprintf("COALESCE((%s)::boolean, false) = %s", text(), b.bind(checked)), nil
	case domain.FieldTypeText, domain.FieldTypeEmail, domain.FieldTypeURL:
		return compileTextClause(b, clause, text)
	case domain.FieldTypeSelect:
		return compileSelectClause(b, clause, text)
	case domain.FieldTypeMultiSelect:
		return compileMultiSelectClause(b, clause, jsonb)
	}
	return "", newCompileError(CompileErrorInvalidExpression, -1, "unknown field type %q", clause.FieldType)
}

func compileNumberClause(b *sqlBuilder, clause domain.FilterClause, text func() string) (string, error) {
	// Validated upstream; parse errors cannot occur here.
	value, _ := strconv.ParseFloat(clause.Value.Scalar(), 64)
	column := fmt.Sprintf("(%s)::numeric", text())

	switch clause.Operator {
	case OpEqual:
		return fmt.Sprintf("%s = %s", column, b.bind(value)), nil
	case OpNotEqual:
		return fmt.Sprintf("%s <> %s", column, b.bind(value)), nil
	case OpGreaterThan:
		return fmt.Sprintf("%s > %s", column, b.bind(value)), nil
	case OpGreaterOrEqual:
		return fmt.Sprintf("%s >= %s", column, b.bind(value)), nil
	case OpLessThan:
		return fmt.Sprintf("%s < %s", column, b.bind(value)), nil
	case OpLessOrEqual:
		return fmt.Sprintf("%s <= %s", column, b.bind(value)), nil
	case OpBetween:
		upper, _ := strconv.ParseFloat(clause.SubValue, 64)
		return fmt.Sprintf("%s BETWEEN %s AND %s", column, b.bind(value), b.bind(upper)), nil
	}
	return "", unexpectedOperator(clause)
}

func compileDateClause(b *sqlBuilder, clause domain.FilterClause, text func() string) (string, error) {
	value, _ := parseDate(clause.Value.Scalar())
	column := fmt.Sprintf("(%s)::timestamptz", text())

	switch clause.Operator {
	case OpIs:
		// Day-granularity match when the user supplied a bare date.
		if dateOnly(clause.Value.Scalar()) {
			return fmt.Sprintf("%s >= %s AND %s < %s",
				column, b.bind(value), column, b.bind(value.Add(24*time.Hour))), nil
		}
		return fmt.Sprintf("%s = %s", column, b.bind(value)), nil
	case OpBefore:
		return fmt.Sprintf("%s < %s", column, b.bind(value)), nil
	case OpAfter:
		return fmt.Sprintf("%s > %s", column, b.bind(value)), nil
	case OpBetween:
		upper, _ := parseDate(clause.SubValue)
		return fmt.Sprintf("%s BETWEEN %s AND %s", column, b.bind(value), b.bind(upper)), nil
	}
	return "", unexpectedOperator(clause)
}

func compileTextClause(b *sqlBuilder, clause domain.FilterClause, text func() string) (string, error) {
	switch clause.Operator {
	case OpContains:
		return fmt.Sprintf("%s ILIKE %s", text(), b.bind(likePattern(clause.Value.Scalar()))), nil
	case OpNotContains:
		return fmt.Sprintf("COALESCE(%s, '') NOT ILIKE %s", text(), b.bind(likePattern(clause.Value.Scalar()))), nil
	case OpIs:
		return fmt.Sprintf("%s = %s", text(), b.bind(clause.Value.Scalar())), nil
	case OpIsNot:
		return fmt.Sprintf("COALESCE(%s, '') <> %s", text(), b.bind(clause.Value.Scalar())), nil
	case OpIsEmpty:
		return fmt.Sprintf("COALESCE(%s, '') = ''", text()), nil
	case OpIsNotEmpty:
		return fmt.Sprintf("COALESCE(%s, '') <> ''", text()), nil
	}
	return "", unexpectedOperator(clause)
}

func compileSelectClause(b *sqlBuilder, clause domain.FilterClause, text func() string) (string, error) {
	switch clause.Operator {
	case OpIs:
		return fmt.Sprintf("%s = %s", text(), b.bind(clause.Value.Scalar())), nil
	case OpIsNot:
		return fmt.Sprintf("COALESCE(%s, '') <> %s", text(), b.bind(clause.Value.Scalar())), nil
	case OpIsAnyOf:
		return fmt.Sprintf("%s = ANY(%s)", text(), b.bind(clause.Value.List())), nil
	case OpIsEmpty:
		return fmt.Sprintf("COALESCE(%s, '') = ''", text()), nil
	case OpIsNotEmpty:
		return fmt.Sprintf("COALESCE(%s, '') <> ''", text()), nil
	}
	return "", unexpectedOperator(clause)
}

func compileMultiSelectClause(b *sqlBuilder, clause domain.FilterClause, jsonb func() string) (string, error) {
	array := func() string { return fmt.Sprintf("COALESCE(%s, '[]'::jsonb)", jsonb()) }

	switch clause.Operator {
	case OpContains:
		return fmt.Sprintf("%s @> to_jsonb(%s::text)", array(), b.bind(clause.Value.Scalar())), nil
	case OpNotContains:
		return fmt.Sprintf("NOT (%s @> to_jsonb(%s::text))", array(), b.bind(clause.Value.Scalar())), nil
	case OpIsAnyOf:
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM jsonb_array_elements_text(%s) AS opt WHERE opt = ANY(%s))",
			array(), b.bind(clause.Value.List())), nil
	case OpIsEmpty:
		return fmt.Sprintf("jsonb_array_length(%s) = 0", array()), nil
	case OpIsNotEmpty:
		return fmt.Sprintf("jsonb_array_length(%s) > 0", array()), nil
	}
	return "", unexpectedOperator(clause)
}

func unexpectedOperator(clause domain.FilterClause) error {
	return newCompileError(CompileErrorInvalidExpression, -1,
		"operator %q has no compilation for field type %s", clause.Operator, clause.FieldType)
}

// likePattern wraps a search term for substring ILIKE matching, escaping
// the pattern metacharacters in the term itself.
func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}

// dateOnly reports whether the value is a bare date with no time component.
func dateOnly(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

// orderClause renders the effective ordering as SQL.
func orderClause(order []domain.OrderField) string {
	parts := make([]string, len(order))
	for i, entry := range order {
		direction := "ASC"
		if entry.Direction == domain.SortDirectionDesc {
			direction = "DESC"
		}
		parts[i] = sortColumns[entry.Field] + " " + direction
	}
	return strings.Join(parts, ", ")
}

// cursorBound builds the resume predicate for keyset pagination: the
// direction-aware lexicographic expansion of "row sorts strictly after the
// cursor's sort-key tuple".
func cursorBound(b *sqlBuilder, order []domain.OrderField, keys []string) (string, error) {
	terms := make([]string, 0, len(order))
	for i := range order {
		conjunction := make([]string, 0, i+1)
		for j := 0; j < i; j++ {
			arg, err := cursorKeyArg(order[j].Field, keys[j])
			if err != nil {
				return "", err
			}
			conjunction = append(conjunction, fmt.Sprintf("%s = %s", sortColumns[order[j].Field], b.bind(arg)))
		}

		comparator := ">"
		if order[i].Direction == domain.SortDirectionDesc {
			comparator = "<"
		}
		arg, err := cursorKeyArg(order[i].Field, keys[i])
		if err != nil {
			return "", err
		}
		conjunction = append(conjunction, fmt.Sprintf("%s %s %s", sortColumns[order[i].Field], comparator, b.bind(arg)))

		terms = append(terms, "("+strings.Join(conjunction, " AND ")+")")
	}
	return strings.Join(terms, " OR "), nil
}

// cursorKeyArg converts a cursor's text-encoded sort key back into the
// typed bind value the column comparison needs.
func cursorKeyArg(field domain.TaskSortField, key string) (any, error) {
	switch field {
	case domain.TaskSortFieldCreatedAt, domain.TaskSortFieldUpdatedAt:
		ts, err := time.Parse(time.RFC3339Nano, key)
		if err != nil {
			return nil, fmt.Errorf("%w: bad timestamp key: %v", ErrInvalidCursor, err)
		}
		return ts, nil
	case domain.TaskSortFieldID:
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%w: bad id key: %v", ErrInvalidCursor, err)
		}
		return id, nil
	default:
		return key, nil
	}
}
