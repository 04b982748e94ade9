package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/taskgrid/taskgrid/internal/domain"
)

// Grid is the slice of the grid service the exporter needs: filtered,
// paginated task queries plus the project's field definitions.
type Grid interface {
	Query(ctx context.Context, projectID uuid.UUID, expr domain.FilterExpression, page domain.PageRequest) (domain.PageResult, error)
	ListFields(ctx context.Context, projectID uuid.UUID) ([]domain.Field, error)
}

// Service exports filtered task grids as spreadsheet files. It pages
// through the same query pipeline the grid uses, so an export always
// matches what the filter shows on screen.
type Service struct {
	grid     Grid
	pageSize int
}

type Option func(*Service)

// WithPageSize sets how many tasks are fetched per query page while
// streaming an export.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// NewService creates a new export service.
func NewService(grid Grid, opts ...Option) *Service {
	service := &Service{
		grid:     grid,
		pageSize: 500,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Request describes one export: which project, which filter, and the
// ordering rows should appear in.
type Request struct {
	ProjectID uuid.UUID
	Filter    domain.FilterExpression
	OrderBy   []domain.OrderField
}

const sheetName = "Tasks"

// ExportXLSX writes every task matching the filter to w as an xlsx
// workbook, one row per task, in the requested order.
func (s *Service) ExportXLSX(ctx context.Context, req Request, w io.Writer) (int, error) {
	fields, err := s.grid.ListFields(ctx, req.ProjectID)
	if err != nil {
		return 0, fmt.Errorf("list fields: %w", err)
	}

	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()
	if err := file.SetSheetName(file.GetSheetName(0), sheetName); err != nil {
		return 0, fmt.Errorf("name export sheet: %w", err)
	}

	stream, err := file.NewStreamWriter(sheetName)
	if err != nil {
		return 0, fmt.Errorf("open stream writer: %w", err)
	}

	header := make([]any, 0, len(fields)+3)
	header = append(header, "Title")
	for _, field := range fields {
		header = append(header, field.Name)
	}
	header = append(header, "Created At", "Updated At")
	if err := stream.SetRow("A1", header); err != nil {
		return 0, fmt.Errorf("write header row: %w", err)
	}

	rowsExported := 0
	cursor := ""
	for {
		if ctx.Err() != nil {
			return rowsExported, ctx.Err()
		}

		page, err := s.grid.Query(ctx, req.ProjectID, req.Filter, domain.PageRequest{
			Limit:   s.pageSize,
			Cursor:  cursor,
			OrderBy: req.OrderBy,
		})
		if err != nil {
			return rowsExported, fmt.Errorf("query export page: %w", err)
		}

		for _, task := range page.Items {
			row := make([]any, 0, len(fields)+3)
			row = append(row, task.Title)
			for _, field := range fields {
				value, _ := task.FieldValue(field.ID)
				row = append(row, formatCellValue(field, value))
			}
			row = append(row,
				task.CreatedAt.UTC().Format(time.RFC3339),
				task.UpdatedAt.UTC().Format(time.RFC3339),
			)

			cell, err := excelize.CoordinatesToCellName(1, rowsExported+2)
			if err != nil {
				return rowsExported, fmt.Errorf("compute row coordinate: %w", err)
			}
			if err := stream.SetRow(cell, row); err != nil {
				return rowsExported, fmt.Errorf("write task row: %w", err)
			}
			rowsExported++
		}

		cursor = page.NextCursor
		if cursor == "" {
			break
		}
	}

	if err := stream.Flush(); err != nil {
		return rowsExported, fmt.Errorf("flush export rows: %w", err)
	}
	if err := file.Write(w); err != nil {
		return rowsExported, fmt.Errorf("write workbook: %w", err)
	}

	log.Printf("[export] project %s exported (rows=%d)", req.ProjectID, rowsExported)
	return rowsExported, nil
}

// FileName builds the attachment name for a project export.
func FileName(projectID uuid.UUID) string {
	return fmt.Sprintf("tasks-%s.xlsx", projectID.String())
}

// formatCellValue renders a stored cell value for a spreadsheet cell.
// SELECT and MULTISELECT values are stored as option ids and rendered as
// their configured labels.
func formatCellValue(field domain.Field, value any) string {
	if value == nil {
		return ""
	}

	switch field.Type {
	case domain.FieldTypeSelect:
		if id, ok := value.(string); ok {
			return field.Config.OptionLabel(id)
		}
	case domain.FieldTypeMultiSelect:
		if ids, ok := optionIDs(value); ok {
			labels := make([]string, len(ids))
			for i, id := range ids {
				labels[i] = field.Config.OptionLabel(id)
			}
			return strings.Join(labels, ", ")
		}
	}

	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case json.Number:
		return v.String()
	case float32, float64, int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%v", v)
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// optionIDs accepts both []string and the []any form JSONB scanning
// produces for stored multi-select values.
func optionIDs(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			id, ok := item.(string)
			if !ok {
				return nil, false
			}
			ids = append(ids, id)
		}
		return ids, true
	}
	return nil, false
}
