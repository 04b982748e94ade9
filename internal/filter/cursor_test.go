package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskgrid/taskgrid/internal/domain"
)

func sampleTask() domain.Task {
	return domain.Task{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		Title:     "Prepare launch checklist",
		CreatedAt: time.Date(2024, 3, 10, 9, 30, 0, 123456789, time.UTC),
		UpdatedAt: time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC),
	}
}

func TestCursor_RoundTrip(t *testing.T) {
	task := sampleTask()
	order, err := EffectiveOrder(nil)
	if err != nil {
		t.Fatalf("effective order: %v", err)
	}

	token, err := EncodeCursor(task, order)
	if err != nil {
		t.Fatalf("encode cursor: %v", err)
	}

	keys, err := DecodeCursor(token, order)
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected created_at and id keys, got %v", keys)
	}
	if keys[0] != task.CreatedAt.UTC().Format(time.RFC3339Nano) {
		t.Fatalf("created_at key mismatch: %q", keys[0])
	}
	if keys[1] != task.ID.String() {
		t.Fatalf("id key mismatch: %q", keys[1])
	}
}

func TestDecodeCursor_RejectsDifferentOrdering(t *testing.T) {
	task := sampleTask()
	issued, err := EffectiveOrder(nil)
	if err != nil {
		t.Fatalf("effective order: %v", err)
	}

	token, err := EncodeCursor(task, issued)
	if err != nil {
		t.Fatalf("encode cursor: %v", err)
	}

	requested, err := EffectiveOrder([]domain.OrderField{
		{Field: domain.TaskSortFieldTitle, Direction: domain.SortDirectionDesc},
	})
	if err != nil {
		t.Fatalf("effective order: %v", err)
	}

	if _, err := DecodeCursor(token, requested); !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor for ordering mismatch, got %v", err)
	}
}

func TestDecodeCursor_MalformedToken(t *testing.T) {
	order, err := EffectiveOrder(nil)
	if err != nil {
		t.Fatalf("effective order: %v", err)
	}

	for _, token := range []string{"not-base64!!", "aGVsbG8=", ""} {
		if _, err := DecodeCursor(token, order); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("expected ErrInvalidCursor for %q, got %v", token, err)
		}
	}
}
