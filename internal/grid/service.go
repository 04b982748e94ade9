package grid

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/taskgrid/taskgrid/internal/domain"
	"github.com/taskgrid/taskgrid/internal/filter"
	"github.com/taskgrid/taskgrid/internal/repository"
	"github.com/taskgrid/taskgrid/pkg/validator"
)

var (
	// ErrInvalidValue is returned when a cell value does not fit its
	// field's declared type or configured options.
	ErrInvalidValue = errors.New("invalid field value")

	// ErrTitleRequired is returned when a task is created without a title.
	ErrTitleRequired = errors.New("title is required")
)

// Service runs grid operations for a project: filtered queries over tasks,
// cell updates, row creation, and field definition management.
type Service struct {
	fields    repository.FieldRepository
	tasks     repository.TaskRepository
	compiler  *filter.Compiler
	validator *validator.FieldValidator
}

// NewService creates a new grid service.
func NewService(fields repository.FieldRepository, tasks repository.TaskRepository) *Service {
	return &Service{
		fields:    fields,
		tasks:     tasks,
		compiler:  filter.NewCompiler(fieldResolver{fields: fields}),
		validator: validator.NewFieldValidator(),
	}
}

// fieldResolver adapts the field repository to the compiler's lookup
// contract: a missing field is reported as not-found, not as an error.
type fieldResolver struct {
	fields repository.FieldRepository
}

func (r fieldResolver) ResolveField(ctx context.Context, projectID, fieldID uuid.UUID) (domain.Field, bool, error) {
	field, err := r.fields.GetByID(ctx, projectID, fieldID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Field{}, false, nil
	}
	if err != nil {
		return domain.Field{}, false, err
	}
	return field, true, nil
}

// Query compiles a filter expression and returns one page of matching
// tasks, with a cursor for the next page when more rows exist.
func (s *Service) Query(ctx context.Context, projectID uuid.UUID, expr domain.FilterExpression, page domain.PageRequest) (domain.PageResult, error) {
	query, err := s.compiler.Compile(ctx, projectID, expr, page)
	if err != nil {
		return domain.PageResult{}, err
	}

	tasks, hasMore, err := s.tasks.QueryPage(ctx, query)
	if err != nil {
		return domain.PageResult{}, err
	}

	result := domain.PageResult{Items: tasks}
	if hasMore {
		cursor, err := filter.EncodeCursor(tasks[len(tasks)-1], query.Order)
		if err != nil {
			return domain.PageResult{}, fmt.Errorf("failed to encode next cursor: %w", err)
		}
		result.NextCursor = cursor
	}
	return result, nil
}

// UpdateCell validates and writes a single cell value. A nil value clears
// the cell.
func (s *Service) UpdateCell(ctx context.Context, projectID, taskID, fieldID uuid.UUID, value any) (domain.Task, error) {
	field, err := s.fields.GetByID(ctx, projectID, fieldID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.validator.ValidateValue(field, value); err != nil {
		return domain.Task{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return s.tasks.SetFieldValue(ctx, projectID, taskID, fieldID.String(), value)
}

// UpdateCells writes the same cell value across many tasks. Returns the
// number of tasks updated; ids outside the project are skipped silently.
func (s *Service) UpdateCells(ctx context.Context, projectID uuid.UUID, taskIDs []uuid.UUID, fieldID uuid.UUID, value any) (int64, error) {
	field, err := s.fields.GetByID(ctx, projectID, fieldID)
	if err != nil {
		return 0, err
	}
	if err := s.validator.ValidateValue(field, value); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return s.tasks.SetFieldValues(ctx, projectID, taskIDs, fieldID.String(), value)
}

// CreateRow creates a task with an optional set of initial cell values,
// each validated against its field definition.
func (s *Service) CreateRow(ctx context.Context, projectID uuid.UUID, title string, cells map[uuid.UUID]any) (domain.Task, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Task{}, ErrTitleRequired
	}

	task := domain.NewTask(projectID, title)
	for fieldID, value := range cells {
		field, err := s.fields.GetByID(ctx, projectID, fieldID)
		if err != nil {
			return domain.Task{}, err
		}
		if err := s.validator.ValidateValue(field, value); err != nil {
			return domain.Task{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		if value != nil {
			task.Fields[fieldID.String()] = value
		}
	}

	return s.tasks.Create(ctx, task)
}

// CreateField defines a new custom field for a project.
func (s *Service) CreateField(ctx context.Context, projectID uuid.UUID, name string, fieldType domain.FieldType, config domain.FieldConfig) (domain.Field, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Field{}, fmt.Errorf("%w: field name is required", ErrInvalidValue)
	}
	if !fieldType.Valid() {
		return domain.Field{}, fmt.Errorf("%w: unknown field type %q", ErrInvalidValue, fieldType)
	}
	return s.fields.Create(ctx, domain.NewField(projectID, name, fieldType, config))
}

// UpdateField renames a field or replaces its config. The field's type is
// immutable: stored task values and saved filters are shaped for it.
func (s *Service) UpdateField(ctx context.Context, projectID, fieldID uuid.UUID, name string, config domain.FieldConfig) (domain.Field, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Field{}, fmt.Errorf("%w: field name is required", ErrInvalidValue)
	}

	field, err := s.fields.GetByID(ctx, projectID, fieldID)
	if err != nil {
		return domain.Field{}, err
	}
	field.Name = name
	field.Config = config
	return s.fields.Update(ctx, field)
}

// ListFields returns the project's field definitions in creation order.
func (s *Service) ListFields(ctx context.Context, projectID uuid.UUID) ([]domain.Field, error) {
	return s.fields.List(ctx, projectID)
}

// DeleteField removes a field definition. Saved filters holding clauses
// bound to the field fail compilation afterwards; stored task values under
// the field id stay untouched.
func (s *Service) DeleteField(ctx context.Context, projectID, fieldID uuid.UUID) error {
	return s.fields.Delete(ctx, projectID, fieldID)
}
