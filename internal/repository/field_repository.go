package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskgrid/taskgrid/internal/domain"
)

// fieldRepository implements FieldRepository interface
type fieldRepository struct {
	pool *pgxpool.Pool
}

// NewFieldRepository creates a new field repository
func NewFieldRepository(pool *pgxpool.Pool) FieldRepository {
	return &fieldRepository{pool: pool}
}

const fieldColumns = "id, project_id, name, type, config, created_at, updated_at"

// Create persists a new field definition
func (r *fieldRepository) Create(ctx context.Context, field domain.Field) (domain.Field, error) {
	configJSON, err := field.GetConfigAsJSONB()
	if err != nil {
		return domain.Field{}, fmt.Errorf("failed to marshal field config: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO fields (id, project_id, name, type, config)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+fieldColumns,
		field.ID, field.ProjectID, field.Name, string(field.Type), configJSON,
	)
	created, err := scanField(row)
	if err != nil {
		return domain.Field{}, fmt.Errorf("failed to create field: %w", err)
	}
	return created, nil
}

// GetByID retrieves a field definition scoped to a project
func (r *fieldRepository) GetByID(ctx context.Context, projectID, fieldID uuid.UUID) (domain.Field, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+fieldColumns+` FROM fields WHERE project_id = $1 AND id = $2`,
		projectID, fieldID,
	)
	field, err := scanField(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Field{}, ErrNotFound
		}
		return domain.Field{}, fmt.Errorf("failed to get field: %w", err)
	}
	return field, nil
}

// List retrieves all field definitions for a project in creation order
func (r *fieldRepository) List(ctx context.Context, projectID uuid.UUID) ([]domain.Field, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+fieldColumns+` FROM fields WHERE project_id = $1 ORDER BY created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	defer rows.Close()

	fields := []domain.Field{}
	for rows.Next() {
		field, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		fields = append(fields, field)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	return fields, nil
}

// Update rewrites a field's name and config. The type is immutable once
// tasks may hold values shaped for it.
func (r *fieldRepository) Update(ctx context.Context, field domain.Field) (domain.Field, error) {
	configJSON, err := field.GetConfigAsJSONB()
	if err != nil {
		return domain.Field{}, fmt.Errorf("failed to marshal field config: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE fields SET name = $3, config = $4, updated_at = now()
		 WHERE project_id = $1 AND id = $2
		 RETURNING `+fieldColumns,
		field.ProjectID, field.ID, field.Name, configJSON,
	)
	updated, err := scanField(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Field{}, ErrNotFound
		}
		return domain.Field{}, fmt.Errorf("failed to update field: %w", err)
	}
	return updated, nil
}

// Delete removes a field definition. Task values keyed by the field id are
// left in place; they become unreachable once no definition resolves them.
func (r *fieldRepository) Delete(ctx context.Context, projectID, fieldID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM fields WHERE project_id = $1 AND id = $2`,
		projectID, fieldID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete field: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanField(row pgx.Row) (domain.Field, error) {
	var (
		field      domain.Field
		fieldType  string
		configJSON []byte
		createdAt  time.Time
		updatedAt  time.Time
	)
	if err := row.Scan(&field.ID, &field.ProjectID, &field.Name, &fieldType, &configJSON, &createdAt, &updatedAt); err != nil {
		return domain.Field{}, err
	}

	config, err := domain.FromJSONBConfig(configJSON)
	if err != nil {
		return domain.Field{}, fmt.Errorf("failed to unmarshal config for field %s: %w", field.ID, err)
	}

	field.Type = domain.FieldType(fieldType)
	field.Config = config
	field.CreatedAt = createdAt
	field.UpdatedAt = updatedAt
	return field, nil
}
