package grid

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/taskgrid/taskgrid/internal/auth"
	"github.com/taskgrid/taskgrid/internal/domain"
	"github.com/taskgrid/taskgrid/internal/filter"
	"github.com/taskgrid/taskgrid/internal/repository"
)

// Handler exposes grid operations as HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with the grid REST routes. Mount it
// under /grid.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/grid"), "/")

	switch {
	case path == "query" && r.Method == http.MethodPost:
		h.handleQuery(w, r)
	case path == "" && r.Method == http.MethodPut:
		h.handleUpdateCell(w, r)
	case path == "update-many" && r.Method == http.MethodPut:
		h.handleUpdateCells(w, r)
	case path == "create" && r.Method == http.MethodPost:
		h.handleCreateRow(w, r)
	case path == "operators" && r.Method == http.MethodGet:
		h.handleOperators(w, r)
	case path == "fields" && r.Method == http.MethodGet:
		h.handleListFields(w, r)
	case path == "fields" && r.Method == http.MethodPost:
		h.handleCreateField(w, r)
	case path == "fields" && r.Method == http.MethodPut:
		h.handleUpdateField(w, r)
	case path == "fields" && r.Method == http.MethodDelete:
		h.handleDeleteField(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

type queryRequest struct {
	ProjectID uuid.UUID               `json:"projectId"`
	Filter    domain.FilterExpression `json:"filter"`
	Options   domain.PageRequest      `json:"options"`
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.ProjectID == uuid.Nil {
		http.Error(w, "projectId is required", http.StatusBadRequest)
		return
	}
	if err := auth.EnforceProjectScope(r.Context(), req.ProjectID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	if req.Filter.Condition == "" {
		req.Filter.Condition = domain.FilterConditionAnd
	}

	result, err := h.service.Query(r.Context(), req.ProjectID, req.Filter, req.Options)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type updateCellRequest struct {
	ProjectID uuid.UUID `json:"projectId"`
	TaskID    uuid.UUID `json:"taskId"`
	FieldID   uuid.UUID `json:"fieldId"`
	Value     any       `json:"value"`
}

func (h *Handler) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	var req updateCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.ProjectID == uuid.Nil || req.TaskID == uuid.Nil || req.FieldID == uuid.Nil {
		http.Error(w, "projectId, taskId and fieldId are required", http.StatusBadRequest)
		return
	}
	if err := auth.EnforceProjectScope(r.Context(), req.ProjectID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	task, err := h.service.UpdateCell(r.Context(), req.ProjectID, req.TaskID, req.FieldID, req.Value)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type updateCellsRequest struct {
	ProjectID uuid.UUID   `json:"projectId"`
	TaskIDs   []uuid.UUID `json:"taskIds"`
	FieldID   uuid.UUID   `json:"fieldId"`
	Value     any         `json:"value"`
}

type updateCellsResponse struct {
	Updated int64 `json:"updated"`
}

func (h *Handler) handleUpdateCells(w http.ResponseWriter, r *http.Request) {
	var req updateCellsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.ProjectID == uuid.Nil || req.FieldID == uuid.Nil {
		http.Error(w, "projectId and fieldId are required", http.StatusBadRequest)
		return
	}
	if len(req.TaskIDs) == 0 {
		http.Error(w, "taskIds is required", http.StatusBadRequest)
		return
	}
	if err := auth.EnforceProjectScope(r.Context(), req.ProjectID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	updated, err := h.service.UpdateCells(r.Context(), req.ProjectID, req.TaskIDs, req.FieldID, req.Value)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updateCellsResponse{Updated: updated})
}

type createRowRequest struct {
	ProjectID uuid.UUID         `json:"projectId"`
	Title     string            `json:"title"`
	Cells     map[uuid.UUID]any `json:"cells,omitempty"`
}

func (h *Handler) handleCreateRow(w http.ResponseWriter, r *http.Request) {
	var req createRowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.ProjectID == uuid.Nil {
		http.Error(w, "projectId is required", http.StatusBadRequest)
		return
	}
	if err := auth.EnforceProjectScope(r.Context(), req.ProjectID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	task, err := h.service.CreateRow(r.Context(), req.ProjectID, req.Title, req.Cells)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// operatorDescriptor describes one filter operator to clients building
// filter editors.
type operatorDescriptor struct {
	Name    string `json:"name"`
	Arity   int    `json:"arity"`
	List    bool   `json:"list"`
	Default bool   `json:"default"`
}

func (h *Handler) handleOperators(w http.ResponseWriter, r *http.Request) {
	typeParam := strings.TrimSpace(r.URL.Query().Get("type"))
	if typeParam != "" {
		fieldType := domain.FieldType(strings.ToUpper(typeParam))
		if !fieldType.Valid() {
			http.Error(w, fmt.Sprintf("unknown field type %q", typeParam), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, describeOperators(fieldType))
		return
	}

	all := make(map[domain.FieldType][]operatorDescriptor, len(domain.FieldTypes()))
	for _, ft := range domain.FieldTypes() {
		all[ft] = describeOperators(ft)
	}
	writeJSON(w, http.StatusOK, all)
}

func describeOperators(fieldType domain.FieldType) []operatorDescriptor {
	names := filter.OperatorsFor(fieldType)
	descriptors := make([]operatorDescriptor, len(names))
	for i, name := range names {
		arity, _ := filter.ArityOf(fieldType, name)
		descriptors[i] = operatorDescriptor{
			Name:    name,
			Arity:   arity,
			List:    filter.ExpectsList(fieldType, name),
			Default: i == 0,
		}
	}
	return descriptors
}

type createFieldRequest struct {
	ProjectID uuid.UUID          `json:"projectId"`
	Name      string             `json:"name"`
	Type      domain.FieldType   `json:"type"`
	Config    domain.FieldConfig `json:"config"`
}

func (h *Handler) handleCreateField(w http.ResponseWriter, r *http.Request) {
	var req createFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.ProjectID == uuid.Nil {
		http.Error(w, "projectId is required", http.StatusBadRequest)
		return
	}
	if err := auth.EnforceProjectScope(r.Context(), req.ProjectID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	field, err := h.service.CreateField(r.Context(), req.ProjectID, req.Name, req.Type, req.Config)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, field)
}

type updateFieldRequest struct {
	ProjectID uuid.UUID          `json:"projectId"`
	FieldID   uuid.UUID          `json:"fieldId"`
	Name      string             `json:"name"`
	Config    domain.FieldConfig `json:"config"`
}

func (h *Handler) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	var req updateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.ProjectID == uuid.Nil || req.FieldID == uuid.Nil {
		http.Error(w, "projectId and fieldId are required", http.StatusBadRequest)
		return
	}
	if err := auth.EnforceProjectScope(r.Context(), req.ProjectID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	field, err := h.service.UpdateField(r.Context(), req.ProjectID, req.FieldID, req.Name, req.Config)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, field)
}

func (h *Handler) handleListFields(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("projectId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid project id: %v", err), http.StatusBadRequest)
		return
	}

	if err := auth.EnforceProjectScope(r.Context(), projectID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	fields, err := h.service.ListFields(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

func (h *Handler) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	projectID, err := uuid.Parse(strings.TrimSpace(query.Get("projectId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid project id: %v", err), http.StatusBadRequest)
		return
	}
	fieldID, err := uuid.Parse(strings.TrimSpace(query.Get("fieldId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid field id: %v", err), http.StatusBadRequest)
		return
	}

	if err := auth.EnforceProjectScope(r.Context(), projectID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	if err := h.service.DeleteField(r.Context(), projectID, fieldID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// compileErrorResponse is the JSON body returned for filter compilation
// failures, carrying the machine-readable kind and offending clause index.
type compileErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Clause *int   `json:"clause,omitempty"`
}

func writeServiceError(w http.ResponseWriter, err error) {
	if ce, ok := filter.AsCompileError(err); ok {
		resp := compileErrorResponse{Error: ce.Error(), Kind: string(ce.Kind)}
		if ce.Clause >= 0 {
			clause := ce.Clause
			resp.Clause = &clause
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	switch {
	case errors.Is(err, filter.ErrInvalidCursor),
		errors.Is(err, ErrInvalidValue),
		errors.Is(err, ErrTitleRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
