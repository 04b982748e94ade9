package grid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskgrid/taskgrid/internal/domain"
	"github.com/taskgrid/taskgrid/internal/filter"
	"github.com/taskgrid/taskgrid/internal/repository"
)

// fakeFieldRepo keeps field definitions in memory.
type fakeFieldRepo struct {
	fields map[uuid.UUID]domain.Field
}

func newFakeFieldRepo(fields ...domain.Field) *fakeFieldRepo {
	repo := &fakeFieldRepo{fields: map[uuid.UUID]domain.Field{}}
	for _, f := range fields {
		repo.fields[f.ID] = f
	}
	return repo
}

func (r *fakeFieldRepo) Create(_ context.Context, field domain.Field) (domain.Field, error) {
	r.fields[field.ID] = field
	return field, nil
}

func (r *fakeFieldRepo) GetByID(_ context.Context, projectID, fieldID uuid.UUID) (domain.Field, error) {
	field, ok := r.fields[fieldID]
	if !ok || field.ProjectID != projectID {
		return domain.Field{}, repository.ErrNotFound
	}
	return field, nil
}

func (r *fakeFieldRepo) List(_ context.Context, projectID uuid.UUID) ([]domain.Field, error) {
	fields := []domain.Field{}
	for _, f := range r.fields {
		if f.ProjectID == projectID {
			fields = append(fields, f)
		}
	}
	return fields, nil
}

func (r *fakeFieldRepo) Update(_ context.Context, field domain.Field) (domain.Field, error) {
	if _, ok := r.fields[field.ID]; !ok {
		return domain.Field{}, repository.ErrNotFound
	}
	r.fields[field.ID] = field
	return field, nil
}

func (r *fakeFieldRepo) Delete(_ context.Context, projectID, fieldID uuid.UUID) error {
	field, ok := r.fields[fieldID]
	if !ok || field.ProjectID != projectID {
		return repository.ErrNotFound
	}
	delete(r.fields, fieldID)
	return nil
}

// fakeTaskRepo records writes and serves canned query pages.
type fakeTaskRepo struct {
	pageTasks []domain.Task
	pageMore  bool
	lastQuery filter.Query

	created    []domain.Task
	cellWrites int
}

func (r *fakeTaskRepo) Create(_ context.Context, task domain.Task) (domain.Task, error) {
	r.created = append(r.created, task)
	return task, nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, _, _ uuid.UUID) (domain.Task, error) {
	return domain.Task{}, repository.ErrNotFound
}

func (r *fakeTaskRepo) SetFieldValue(_ context.Context, projectID, taskID uuid.UUID, fieldID string, value any) (domain.Task, error) {
	r.cellWrites++
	task := domain.NewTask(projectID, "updated")
	task.ID = taskID
	if value != nil {
		task.Fields[fieldID] = value
	}
	return task, nil
}

func (r *fakeTaskRepo) SetFieldValues(_ context.Context, _ uuid.UUID, taskIDs []uuid.UUID, _ string, _ any) (int64, error) {
	r.cellWrites++
	return int64(len(taskIDs)), nil
}

func (r *fakeTaskRepo) QueryPage(_ context.Context, query filter.Query) ([]domain.Task, bool, error) {
	r.lastQuery = query
	return r.pageTasks, r.pageMore, nil
}

func taskAt(projectID uuid.UUID, title string, createdAt time.Time) domain.Task {
	task := domain.NewTask(projectID, title)
	task.CreatedAt = createdAt
	return task
}

func TestQuery_ReturnsCursorWhenMoreRowsExist(t *testing.T) {
	projectID := uuid.New()
	field := domain.NewField(projectID, "Estimate", domain.FieldTypeNumber, domain.FieldConfig{})
	tasks := &fakeTaskRepo{
		pageTasks: []domain.Task{
			taskAt(projectID, "first", time.Now().Add(-time.Hour)),
			taskAt(projectID, "second", time.Now()),
		},
		pageMore: true,
	}
	service := NewService(newFakeFieldRepo(field), tasks)

	expr := domain.FilterExpression{
		Condition: domain.FilterConditionAnd,
		Clauses: []domain.FilterClause{{
			FieldID:   field.ID,
			FieldType: domain.FieldTypeNumber,
			Operator:  filter.OpGreaterThan,
			Value:     domain.NewFilterValue("5"),
		}},
	}

	result, err := service.Query(context.Background(), projectID, expr, domain.PageRequest{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected two items, got %d", len(result.Items))
	}
	if result.NextCursor == "" {
		t.Fatalf("expected a next cursor when more rows exist")
	}

	// The cursor must decode against the ordering the query ran with.
	keys, err := filter.DecodeCursor(result.NextCursor, tasks.lastQuery.Order)
	if err != nil {
		t.Fatalf("decode issued cursor: %v", err)
	}
	if keys[len(keys)-1] != result.Items[1].ID.String() {
		t.Fatalf("cursor must point at the last returned task")
	}
}

func TestQuery_NoCursorOnFinalPage(t *testing.T) {
	projectID := uuid.New()
	tasks := &fakeTaskRepo{pageTasks: []domain.Task{taskAt(projectID, "only", time.Now())}}
	service := NewService(newFakeFieldRepo(), tasks)

	result, err := service.Query(context.Background(), projectID, domain.NewFilterExpression(), domain.PageRequest{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.NextCursor != "" {
		t.Fatalf("expected no cursor on the final page, got %q", result.NextCursor)
	}
}

func TestQuery_UnresolvedFieldSurfacesCompileError(t *testing.T) {
	projectID := uuid.New()
	service := NewService(newFakeFieldRepo(), &fakeTaskRepo{})

	expr := domain.FilterExpression{
		Condition: domain.FilterConditionAnd,
		Clauses: []domain.FilterClause{{
			FieldID:   uuid.New(),
			FieldType: domain.FieldTypeText,
			Operator:  filter.OpContains,
			Value:     domain.NewFilterValue("x"),
		}},
	}

	_, err := service.Query(context.Background(), projectID, expr, domain.PageRequest{})
	ce, ok := filter.AsCompileError(err)
	if !ok || ce.Kind != filter.CompileErrorUnresolvedField {
		t.Fatalf("expected unresolved-field compile error, got %v", err)
	}
}

func TestUpdateCell_RejectsValueOfWrongShape(t *testing.T) {
	projectID := uuid.New()
	field := domain.NewField(projectID, "Estimate", domain.FieldTypeNumber, domain.FieldConfig{})
	tasks := &fakeTaskRepo{}
	service := NewService(newFakeFieldRepo(field), tasks)

	_, err := service.UpdateCell(context.Background(), projectID, uuid.New(), field.ID, "not a number")
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if tasks.cellWrites != 0 {
		t.Fatalf("rejected value must not reach the store")
	}
}

func TestUpdateCell_UnknownFieldNotFound(t *testing.T) {
	projectID := uuid.New()
	service := NewService(newFakeFieldRepo(), &fakeTaskRepo{})

	_, err := service.UpdateCell(context.Background(), projectID, uuid.New(), uuid.New(), "x")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateCell_WritesValidValue(t *testing.T) {
	projectID := uuid.New()
	field := domain.NewField(projectID, "Status", domain.FieldTypeSelect, domain.FieldConfig{
		Options: []domain.SelectOption{{ID: "opt-done", Label: "Done"}},
	})
	tasks := &fakeTaskRepo{}
	service := NewService(newFakeFieldRepo(field), tasks)

	task, err := service.UpdateCell(context.Background(), projectID, uuid.New(), field.ID, "opt-done")
	if err != nil {
		t.Fatalf("update cell: %v", err)
	}
	if task.Fields[field.ID.String()] != "opt-done" {
		t.Fatalf("expected cell keyed by field id, got %+v", task.Fields)
	}
}

func TestUpdateCells_ReturnsUpdatedCount(t *testing.T) {
	projectID := uuid.New()
	field := domain.NewField(projectID, "Done", domain.FieldTypeCheckbox, domain.FieldConfig{})
	service := NewService(newFakeFieldRepo(field), &fakeTaskRepo{})

	updated, err := service.UpdateCells(context.Background(), projectID,
		[]uuid.UUID{uuid.New(), uuid.New(), uuid.New()}, field.ID, true)
	if err != nil {
		t.Fatalf("update cells: %v", err)
	}
	if updated != 3 {
		t.Fatalf("expected 3 updated, got %d", updated)
	}
}

func TestCreateRow_RequiresTitle(t *testing.T) {
	projectID := uuid.New()
	service := NewService(newFakeFieldRepo(), &fakeTaskRepo{})

	if _, err := service.CreateRow(context.Background(), projectID, "   ", nil); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
}

func TestCreateRow_ValidatesInitialCells(t *testing.T) {
	projectID := uuid.New()
	field := domain.NewField(projectID, "Status", domain.FieldTypeSelect, domain.FieldConfig{
		Options: []domain.SelectOption{{ID: "opt-todo"}},
	})
	tasks := &fakeTaskRepo{}
	service := NewService(newFakeFieldRepo(field), tasks)

	_, err := service.CreateRow(context.Background(), projectID, "New task",
		map[uuid.UUID]any{field.ID: "opt-unknown"})
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue for unknown option, got %v", err)
	}
	if len(tasks.created) != 0 {
		t.Fatalf("invalid row must not be created")
	}

	task, err := service.CreateRow(context.Background(), projectID, "New task",
		map[uuid.UUID]any{field.ID: "opt-todo"})
	if err != nil {
		t.Fatalf("create row: %v", err)
	}
	if task.Fields[field.ID.String()] != "opt-todo" {
		t.Fatalf("expected initial cell stored under field id, got %+v", task.Fields)
	}
}

func TestCreateField_RejectsUnknownType(t *testing.T) {
	projectID := uuid.New()
	service := NewService(newFakeFieldRepo(), &fakeTaskRepo{})

	if _, err := service.CreateField(context.Background(), projectID, "Oops", domain.FieldType("GEO"), domain.FieldConfig{}); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue for unknown field type, got %v", err)
	}
}

func TestUpdateField_RenamesAndKeepsType(t *testing.T) {
	projectID := uuid.New()
	field := domain.NewField(projectID, "Status", domain.FieldTypeSelect, domain.FieldConfig{
		Options: []domain.SelectOption{{ID: "opt-open", Label: "Open"}},
	})
	service := NewService(newFakeFieldRepo(field), &fakeTaskRepo{})

	config := domain.FieldConfig{Options: []domain.SelectOption{
		{ID: "opt-open", Label: "Open"},
		{ID: "opt-done", Label: "Done"},
	}}
	updated, err := service.UpdateField(context.Background(), projectID, field.ID, "Stage", config)
	if err != nil {
		t.Fatalf("update field: %v", err)
	}
	if updated.Name != "Stage" || updated.Type != domain.FieldTypeSelect {
		t.Fatalf("unexpected field after update: %+v", updated)
	}
	if len(updated.Config.Options) != 2 {
		t.Fatalf("expected replaced options, got %+v", updated.Config.Options)
	}
}

func TestUpdateField_UnknownFieldNotFound(t *testing.T) {
	projectID := uuid.New()
	service := NewService(newFakeFieldRepo(), &fakeTaskRepo{})

	_, err := service.UpdateField(context.Background(), projectID, uuid.New(), "Stage", domain.FieldConfig{})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
