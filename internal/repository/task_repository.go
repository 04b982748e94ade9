package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskgrid/taskgrid/internal/domain"
	"github.com/taskgrid/taskgrid/internal/filter"
)

// taskRepository implements TaskRepository interface
type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = "id, project_id, title, fields, created_at, updated_at"

// Create persists a new task row
func (r *taskRepository) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	fieldsJSON, err := task.GetFieldsAsJSONB()
	if err != nil {
		return domain.Task{}, fmt.Errorf("failed to marshal task fields: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO tasks (id, project_id, title, fields)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+taskColumns,
		task.ID, task.ProjectID, task.Title, fieldsJSON,
	)
	created, err := scanTask(row)
	if err != nil {
		return domain.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

// GetByID retrieves a task scoped to a project
func (r *taskRepository) GetByID(ctx context.Context, projectID, taskID uuid.UUID) (domain.Task, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 AND id = $2`,
		projectID, taskID,
	)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// SetFieldValue writes one cell: the value stored under fieldID in the
// task's fields document. A nil value deletes the key instead of storing
// JSON null, so cleared cells look absent to filters.
func (r *taskRepository) SetFieldValue(ctx context.Context, projectID, taskID uuid.UUID, fieldID string, value any) (domain.Task, error) {
	var row pgx.Row
	if value == nil {
		row = r.pool.QueryRow(ctx,
			`UPDATE tasks SET fields = COALESCE(fields, '{}'::jsonb) - $3, updated_at = now()
			 WHERE project_id = $1 AND id = $2
			 RETURNING `+taskColumns,
			projectID, taskID, fieldID,
		)
	} else {
		valueJSON, err := json.Marshal(value)
		if err != nil {
			return domain.Task{}, fmt.Errorf("failed to marshal field value: %w", err)
		}
		row = r.pool.QueryRow(ctx,
			`UPDATE tasks SET fields = jsonb_set(COALESCE(fields, '{}'::jsonb), ARRAY[$3], $4::jsonb, true), updated_at = now()
			 WHERE project_id = $1 AND id = $2
			 RETURNING `+taskColumns,
			projectID, taskID, fieldID, valueJSON,
		)
	}

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("failed to set field value: %w", err)
	}
	return task, nil
}

// SetFieldValues writes the same cell value across many tasks in one
// statement. Returns the number of rows updated.
func (r *taskRepository) SetFieldValues(ctx context.Context, projectID uuid.UUID, taskIDs []uuid.UUID, fieldID string, value any) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}

	if value == nil {
		tag, err := r.pool.Exec(ctx,
			`UPDATE tasks SET fields = COALESCE(fields, '{}'::jsonb) - $3, updated_at = now()
			 WHERE project_id = $1 AND id = ANY($2)`,
			projectID, taskIDs, fieldID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to clear field values: %w", err)
		}
		return tag.RowsAffected(), nil
	}

	patch, err := json.Marshal(map[string]any{fieldID: value})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal field value: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks SET fields = COALESCE(fields, '{}'::jsonb) || $3::jsonb, updated_at = now()
		 WHERE project_id = $1 AND id = ANY($2)`,
		projectID, taskIDs, patch,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to set field values: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QueryPage runs a compiled filter query and reports whether rows exist
// past the requested page. The query selects one row beyond the page
// limit for exactly that purpose.
func (r *taskRepository) QueryPage(ctx context.Context, query filter.Query) ([]domain.Task, bool, error) {
	rows, err := r.pool.Query(ctx, query.SQL, query.Args...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, false, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to query tasks: %w", err)
	}

	hasMore := len(tasks) > query.Limit
	if hasMore {
		tasks = tasks[:query.Limit]
	}
	return tasks, hasMore, nil
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var (
		task       domain.Task
		fieldsJSON []byte
		createdAt  time.Time
		updatedAt  time.Time
	)
	if err := row.Scan(&task.ID, &task.ProjectID, &task.Title, &fieldsJSON, &createdAt, &updatedAt); err != nil {
		return domain.Task{}, err
	}

	fields, err := domain.FromJSONBFields(fieldsJSON)
	if err != nil {
		return domain.Task{}, fmt.Errorf("failed to unmarshal fields for task %s: %w", task.ID, err)
	}

	task.Fields = fields
	task.CreatedAt = createdAt
	task.UpdatedAt = updatedAt
	return task, nil
}
