package domain

// SortDirection represents ordering direction for sortable fields.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// Valid reports whether d is a known sort direction.
func (d SortDirection) Valid() bool {
	return d == SortDirectionAsc || d == SortDirectionDesc
}

// TaskSortField enumerates task columns that can drive ordering when
// querying the grid. Custom-field values are not sortable.
type TaskSortField string

const (
	TaskSortFieldCreatedAt TaskSortField = "created_at"
	TaskSortFieldUpdatedAt TaskSortField = "updated_at"
	TaskSortFieldTitle     TaskSortField = "title"
	TaskSortFieldID        TaskSortField = "id"
)

// OrderField is one entry of an ordering specification. Slice position is
// sort priority: earlier entries sort first.
type OrderField struct {
	Field     TaskSortField `json:"field"`
	Direction SortDirection `json:"direction"`
}

// DefaultPageLimit applies when a page request does not set a limit.
const DefaultPageLimit = 50

// PageRequest carries pagination options for a filter query. Cursor is an
// opaque continuation token issued by a previous page; empty means start
// from the beginning.
type PageRequest struct {
	Limit   int          `json:"limit"`
	Cursor  string       `json:"cursor,omitempty"`
	OrderBy []OrderField `json:"orderBy,omitempty"`
}

// LimitOrDefault returns the requested limit, or DefaultPageLimit when the
// request leaves it unset.
func (p PageRequest) LimitOrDefault() int {
	if p.Limit <= 0 {
		return DefaultPageLimit
	}
	return p.Limit
}

// PageResult is one page of matching tasks. NextCursor is present iff more
// results may exist; an empty Items with no error means zero matches.
type PageResult struct {
	Items      []Task `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}
