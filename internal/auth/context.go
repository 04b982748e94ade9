package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type contextKey string

const projectIDKey contextKey = "projectID"

// ContextWithProjectID returns a new context that carries the authenticated project scope.
func ContextWithProjectID(ctx context.Context, id uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, projectIDKey, id)
}

// ProjectIDFromContext retrieves the authenticated project scope from the context, if any.
func ProjectIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	value := ctx.Value(projectIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	if id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// EnforceProjectScope ensures the provided project matches the authenticated scope when present.
func EnforceProjectScope(ctx context.Context, projectID uuid.UUID) error {
	if projectID == uuid.Nil {
		return fmt.Errorf("projectId is required")
	}
	scopedID, ok := ProjectIDFromContext(ctx)
	if !ok {
		return nil
	}
	if scopedID != projectID {
		return fmt.Errorf("projectId %s does not match authenticated scope", projectID)
	}
	return nil
}
