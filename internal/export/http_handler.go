package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/taskgrid/taskgrid/internal/auth"
	"github.com/taskgrid/taskgrid/internal/domain"
	"github.com/taskgrid/taskgrid/internal/filter"
	"github.com/taskgrid/taskgrid/internal/repository"
)

type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a POST download endpoint.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

type exportPayload struct {
	ProjectID uuid.UUID               `json:"projectId"`
	Filter    domain.FilterExpression `json:"filter"`
	OrderBy   []domain.OrderField     `json:"orderBy,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var payload exportPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	if payload.ProjectID == uuid.Nil {
		http.Error(w, "projectId is required", http.StatusBadRequest)
		return
	}
	if err := auth.EnforceProjectScope(r.Context(), payload.ProjectID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	if payload.Filter.Condition == "" {
		payload.Filter.Condition = domain.FilterConditionAnd
	}

	// Build the workbook fully before sending headers, so a compile or
	// query failure still produces a clean error response.
	var buf bytes.Buffer
	if _, err := h.service.ExportXLSX(r.Context(), Request{
		ProjectID: payload.ProjectID,
		Filter:    payload.Filter,
		OrderBy:   payload.OrderBy,
	}, &buf); err != nil {
		writeExportError(w, err)
		return
	}

	filename := FileName(payload.ProjectID)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func writeExportError(w http.ResponseWriter, err error) {
	switch {
	case isCompileError(err), errors.Is(err, filter.ErrInvalidCursor):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func isCompileError(err error) bool {
	_, ok := filter.AsCompileError(err)
	return ok
}
