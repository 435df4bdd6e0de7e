package shared

import "context"

const (
	// DefaultPageSize is used when a list request names no page size
	DefaultPageSize = 20
	// MaxPageSize caps page_size on list requests
	MaxPageSize = 100
)

// Filter is the paging, ordering and search part of a list query.
// OrderBy is checked against a per-table whitelist by the repository.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// Normalize fills zero values with defaults and clamps the page size
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PageSize < 1:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	if f.OrderDir != "asc" {
		f.OrderDir = "desc"
	}
	return f
}

// Offset is the number of rows before the current page
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// TransactionManager runs fn inside a single storage transaction.
// Repositories called with the context passed to fn join that transaction.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
