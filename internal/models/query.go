package models

// Fields is a raw create/update payload as submitted by a client. Keys may
// use any accepted alias spelling; values are coerced during normalization.
type Fields map[string]interface{}

// SortDirection orders collection results.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// Query is the generic "fetch records with filter/sort/page" shape sent to a
// remote collection.
type Query struct {
	Fields    []string
	Where     []Condition
	SortField string
	SortDir   SortDirection
	Limit     int
	Offset    int
}

// Condition is an equality filter on a single field.
type Condition struct {
	Field string
	Value interface{}
}

// NewestFirst returns a query ordered by creation time, newest first.
func NewestFirst(where ...Condition) Query {
	return Query{Where: where, SortField: "created_at", SortDir: SortDesc}
}

// Page size bounds for paged list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListOptions selects one page of a collection. ParentID scopes the page to
// one parent; Fields projects each record to the named columns.
type ListOptions struct {
	ParentID *int64
	Fields   []string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
