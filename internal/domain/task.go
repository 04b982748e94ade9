package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Task is one row of a project grid. Custom-field values live in Fields,
// keyed by the field definition's id, and are persisted as a JSONB document.
type Task struct {
	ID        uuid.UUID      `json:"id"`
	ProjectID uuid.UUID      `json:"project_id"`
	Title     string         `json:"title"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewTask creates a new task with no custom-field values set.
func NewTask(projectID uuid.UUID, title string) Task {
	now := time.Now()
	return Task{
		ID:        uuid.New(),
		ProjectID: projectID,
		Title:     title,
		Fields:    map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FieldValue returns the stored value for a field id, if any.
func (t Task) FieldValue(fieldID uuid.UUID) (any, bool) {
	if t.Fields == nil {
		return nil, false
	}
	value, ok := t.Fields[fieldID.String()]
	return value, ok
}

// GetFieldsAsJSONB returns the custom-field values as JSONB for database storage.
func (t Task) GetFieldsAsJSONB() (json.RawMessage, error) {
	if t.Fields == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(t.Fields)
}

// FromJSONBFields creates a field-value map from JSONB data.
func FromJSONBFields(fieldsJSON json.RawMessage) (map[string]any, error) {
	values := map[string]any{}
	if len(fieldsJSON) == 0 {
		return values, nil
	}
	err := json.Unmarshal(fieldsJSON, &values)
	return values, err
}
