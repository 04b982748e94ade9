package validator

import (
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/taskgrid/taskgrid/internal/domain"
)

// FieldValidator checks cell values against the field definition they are
// written under, before anything reaches the task document store.
type FieldValidator struct{}

// NewFieldValidator creates a new field validator
func NewFieldValidator() *FieldValidator {
	return &FieldValidator{}
}

var dateLayouts = []string{time.RFC3339, time.RFC3339Nano, "2006-01-02"}

// ValidateValue validates a single cell value for a field. A nil value is
// always accepted; it means the cell is being cleared.
func (fv *FieldValidator) ValidateValue(field domain.Field, value any) error {
	if value == nil {
		return nil
	}

	switch field.Type {
	case domain.FieldTypeText:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field '%s' must be a string, got %T", field.Name, value)
		}
	case domain.FieldTypeEmail:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("field '%s' must be an email string, got %T", field.Name, value)
		}
		if _, err := mail.ParseAddress(strVal); err != nil {
			return fmt.Errorf("field '%s' must be a valid email address: %v", field.Name, err)
		}
	case domain.FieldTypeURL:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("field '%s' must be a URL string, got %T", field.Name, value)
		}
		parsed, err := url.Parse(strVal)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("field '%s' must be an absolute URL", field.Name)
		}
	case domain.FieldTypeNumber:
		if !fv.isNumber(value) {
			return fmt.Errorf("field '%s' must be a number, got %T", field.Name, value)
		}
	case domain.FieldTypeDate:
		switch v := value.(type) {
		case time.Time:
			// already parsed; accept value
		case string:
			if !fv.isDate(v) {
				return fmt.Errorf("field '%s' must be an RFC3339 timestamp or a date", field.Name)
			}
		default:
			return fmt.Errorf("field '%s' must be a date string, got %T", field.Name, value)
		}
	case domain.FieldTypeCheckbox:
		switch v := value.(type) {
		case bool:
			// accepted
		case string:
			if _, err := strconv.ParseBool(v); err != nil {
				return fmt.Errorf("field '%s' must be a boolean, got %q", field.Name, v)
			}
		default:
			return fmt.Errorf("field '%s' must be a boolean, got %T", field.Name, value)
		}
	case domain.FieldTypeSelect:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("field '%s' must be an option id string, got %T", field.Name, value)
		}
		if !field.Config.HasOption(strVal) {
			return fmt.Errorf("field '%s' has no option %q", field.Name, strVal)
		}
	case domain.FieldTypeMultiSelect:
		optionIDs, err := fv.asStringSlice(value)
		if err != nil {
			return fmt.Errorf("field '%s' must be an array of option ids: %v", field.Name, err)
		}
		for _, id := range optionIDs {
			if strings.TrimSpace(id) == "" {
				return fmt.Errorf("field '%s' contains an empty option id", field.Name)
			}
			if !field.Config.HasOption(id) {
				return fmt.Errorf("field '%s' has no option %q", field.Name, id)
			}
		}
	default:
		return fmt.Errorf("unknown field type: %s", field.Type)
	}

	return nil
}

func (fv *FieldValidator) isNumber(value any) bool {
	switch v := value.(type) {
	case float32, float64:
		return true
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case string:
		_, err := strconv.ParseFloat(v, 64)
		return err == nil
	default:
		return false
	}
}

func (fv *FieldValidator) isDate(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// asStringSlice accepts both []string and the []any form JSON decoding
// produces.
func (fv *FieldValidator) asStringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d is %T, not a string", i, item)
			}
			out[i] = str
		}
		return out, nil
	default:
		return nil, fmt.Errorf("got %T, not an array", value)
	}
}
