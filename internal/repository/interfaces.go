package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/taskgrid/taskgrid/internal/domain"
	"github.com/taskgrid/taskgrid/internal/filter"
)

// ErrNotFound is returned when a requested row does not exist, or exists
// under a different project than the one in scope.
var ErrNotFound = errors.New("not found")

// FieldRepository defines the interface for custom field definition operations
type FieldRepository interface {
	Create(ctx context.Context, field domain.Field) (domain.Field, error)
	GetByID(ctx context.Context, projectID, fieldID uuid.UUID) (domain.Field, error)
	List(ctx context.Context, projectID uuid.UUID) ([]domain.Field, error)
	Update(ctx context.Context, field domain.Field) (domain.Field, error)
	Delete(ctx context.Context, projectID, fieldID uuid.UUID) error
}

// TaskRepository defines the interface for task row operations
type TaskRepository interface {
	Create(ctx context.Context, task domain.Task) (domain.Task, error)
	GetByID(ctx context.Context, projectID, taskID uuid.UUID) (domain.Task, error)
	SetFieldValue(ctx context.Context, projectID, taskID uuid.UUID, fieldID string, value any) (domain.Task, error)
	SetFieldValues(ctx context.Context, projectID uuid.UUID, taskIDs []uuid.UUID, fieldID string, value any) (int64, error)

	// QueryPage executes a compiled filter query. It returns up to
	// query.Limit tasks and whether more rows exist past them.
	QueryPage(ctx context.Context, query filter.Query) ([]domain.Task, bool, error)
}
