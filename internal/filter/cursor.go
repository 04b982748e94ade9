package filter

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/taskgrid/taskgrid/internal/domain"
)

// A cursor is an opaque token carrying the sort-key tuple of the last item
// returned on the previous page, plus a fingerprint of the ordering it was
// issued under. Resuming with a different ordering would silently skip or
// repeat rows, so a fingerprint mismatch is rejected as ErrInvalidCursor.
type cursorPayload struct {
	Fingerprint string   `json:"f"`
	Keys        []string `json:"k"`
}

// orderingFingerprint derives a short stable digest of an effective
// ordering (fields, directions and priority order all contribute).
func orderingFingerprint(order []domain.OrderField) string {
	h := sha256.New()
	for _, entry := range order {
		h.Write([]byte(string(entry.Field)))
		h.Write([]byte{':'})
		h.Write([]byte(string(entry.Direction)))
		h.Write([]byte{'|'})
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// EncodeCursor builds the continuation token for the last item of a page
// under the given effective ordering.
func EncodeCursor(last domain.Task, order []domain.OrderField) (string, error) {
	keys := make([]string, len(order))
	for i, entry := range order {
		value, err := sortKeyValue(last, entry.Field)
		if err != nil {
			return "", err
		}
		keys[i] = value
	}

	data, err := json.Marshal(cursorPayload{
		Fingerprint: orderingFingerprint(order),
		Keys:        keys,
	})
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// DecodeCursor parses a continuation token and returns the sort-key tuple
// it carries. The token must have been issued under the same effective
// ordering that is being requested now.
func DecodeCursor(token string, order []domain.OrderField) ([]string, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var payload cursorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	if payload.Fingerprint != orderingFingerprint(order) {
		return nil, fmt.Errorf("%w: token was issued for a different ordering", ErrInvalidCursor)
	}
	if len(payload.Keys) != len(order) {
		return nil, fmt.Errorf("%w: expected %d sort keys, got %d", ErrInvalidCursor, len(order), len(payload.Keys))
	}

	return payload.Keys, nil
}

// sortKeyValue extracts the text encoding of a task's sort-key column.
// Timestamps use RFC3339Nano so they decode back losslessly.
func sortKeyValue(task domain.Task, field domain.TaskSortField) (string, error) {
	switch field {
	case domain.TaskSortFieldCreatedAt:
		return task.CreatedAt.UTC().Format(time.RFC3339Nano), nil
	case domain.TaskSortFieldUpdatedAt:
		return task.UpdatedAt.UTC().Format(time.RFC3339Nano), nil
	case domain.TaskSortFieldTitle:
		return task.Title, nil
	case domain.TaskSortFieldID:
		return task.ID.String(), nil
	default:
		return "", fmt.Errorf("unsupported sort field %q", field)
	}
}
