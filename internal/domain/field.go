package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FieldType represents the declared data kind of a custom field.
// It is fixed when the field is created and constrains which filter
// operators are valid for clauses bound to the field.
type FieldType string

const (
	FieldTypeText        FieldType = "TEXT"
	FieldTypeEmail       FieldType = "EMAIL"
	FieldTypeURL         FieldType = "URL"
	FieldTypeNumber      FieldType = "NUMBER"
	FieldTypeDate        FieldType = "DATE"
	FieldTypeCheckbox    FieldType = "CHECKBOX"
	FieldTypeSelect      FieldType = "SELECT"
	FieldTypeMultiSelect FieldType = "MULTISELECT"
)

// FieldTypes returns every known field type in a stable order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeEmail,
		FieldTypeURL,
		FieldTypeNumber,
		FieldTypeDate,
		FieldTypeCheckbox,
		FieldTypeSelect,
		FieldTypeMultiSelect,
	}
}

// Valid reports whether ft is a member of the closed FieldType enumeration.
func (ft FieldType) Valid() bool {
	switch ft {
	case FieldTypeText, FieldTypeEmail, FieldTypeURL, FieldTypeNumber,
		FieldTypeDate, FieldTypeCheckbox, FieldTypeSelect, FieldTypeMultiSelect:
		return true
	}
	return false
}

// SelectOption is one choosable value of a SELECT or MULTISELECT field.
type SelectOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// FieldConfig carries type-specific configuration for a field definition.
// Only SELECT and MULTISELECT fields use Options today.
type FieldConfig struct {
	Options []SelectOption `json:"options,omitempty"`
}

// HasOption reports whether the config declares an option with the given id.
func (c FieldConfig) HasOption(id string) bool {
	for _, opt := range c.Options {
		if opt.ID == id {
			return true
		}
	}
	return false
}

// OptionLabel returns the display label for an option id, falling back to
// the id itself when the option is unknown.
func (c FieldConfig) OptionLabel(id string) string {
	for _, opt := range c.Options {
		if opt.ID == id {
			return opt.Label
		}
	}
	return id
}

// Field is a custom field definition owned by a project. Task documents
// store the value for a field keyed by the field's id.
type Field struct {
	ID        uuid.UUID   `json:"id"`
	ProjectID uuid.UUID   `json:"project_id"`
	Name      string      `json:"name"`
	Type      FieldType   `json:"type"`
	Config    FieldConfig `json:"config"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewField creates a new field definition for a project.
func NewField(projectID uuid.UUID, name string, fieldType FieldType, config FieldConfig) Field {
	now := time.Now()
	return Field{
		ID:        uuid.New(),
		ProjectID: projectID,
		Name:      name,
		Type:      fieldType,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetConfigAsJSONB returns the field config as JSONB for database storage.
func (f Field) GetConfigAsJSONB() (json.RawMessage, error) {
	return json.Marshal(f.Config)
}

// FromJSONBConfig creates a FieldConfig from JSONB data.
func FromJSONBConfig(configJSON json.RawMessage) (FieldConfig, error) {
	var config FieldConfig
	if len(configJSON) == 0 {
		return config, nil
	}
	err := json.Unmarshal(configJSON, &config)
	return config, err
}
