// Package shared holds list filter types common to the masterdata packages.
package shared

const (
	DefaultPage  = 1
	DefaultLimit = 20

	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListFilters represents standard list page filters.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
}

// Offset returns the SQL offset for the current page.
func (f ListFilters) Offset() int {
	n := f.Normalized()
	return (n.Page - 1) * n.Limit
}

// Normalized returns a copy with page and limit defaults applied.
func (f ListFilters) Normalized() ListFilters {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = DefaultLimit
	}
	return f
}
