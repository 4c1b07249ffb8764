package shared

// Page size bounds of list reads
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter selects one page of a list read. A PageSize of 0 reads everything.
type Filter struct {
	Page     int
	PageSize int
}

// DefaultFilter returns the first page at the default size
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize}
}

// Normalized clamps the page to at least 1 and the size to 1..MaxPageSize
func (f Filter) Normalized() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PageSize < 1:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset returns the number of rows before the page
func (f Filter) Offset() int {
	if f.Page < 1 || f.PageSize < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Paginated is one page of a list read plus the total row count
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated wraps items read at page/pageSize out of total rows
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	p := Paginated[T]{Items: items, Total: total, Page: page, PageSize: pageSize}
	if pageSize > 0 {
		p.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return p
}
