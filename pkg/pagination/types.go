package pagination

import (
	"context"
	"fmt"
)

// Filters maps a filter name to its value (e.g., {"language": "en"}).
// Values are expected to be validated by the caller.
type Filters map[string]string

// Clone returns an independent copy of f.
func (f Filters) Clone() Filters {
	if f == nil {
		return nil
	}
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// PageRequest addresses one page of a filtered list.
type PageRequest struct {
	Filters Filters
	Page    int
}

// Validate checks the page number is at least 1.
func (r PageRequest) Validate() error {
	if r.Page < 1 {
		return fmt.Errorf("%w: page %d", ErrGuardViolation, r.Page)
	}
	return nil
}

// Skip returns the number of records before this page.
func (r PageRequest) Skip(pageSize int) int {
	return (r.Page - 1) * pageSize
}

// Strategy selects how a result signals that more pages exist.
type Strategy int

const (
	// StrategyAuto uses the total count when the endpoint returned one,
	// otherwise the full-page heuristic.
	StrategyAuto Strategy = iota

	// StrategyFullPage treats a full page as "more may follow" and ignores any count.
	StrategyFullPage

	// StrategyCount trusts the total count only. Without a count there is no next page.
	StrategyCount
)

// String implements fmt.Stringer.
func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyFullPage:
		return "full_page"
	case StrategyCount:
		return "count"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// PageResult is one fetched page.
type PageResult[T any] struct {
	Page     int  `json:"page"`
	Items    []T  `json:"items"`
	PageSize int  `json:"page_size"`
	IsFull   bool `json:"is_full"`

	// Count is the total number of records when the endpoint reports it
	Count *int `json:"count,omitempty"`
}

// NewPageResult builds a result and derives IsFull.
func NewPageResult[T any](page, pageSize int, items []T, count *int) *PageResult[T] {
	return &PageResult[T]{
		Page:     page,
		Items:    items,
		PageSize: pageSize,
		IsFull:   len(items) == pageSize,
		Count:    count,
	}
}

// HasMore reports whether a page after this one is likely to exist.
func (r *PageResult[T]) HasMore(strategy Strategy) bool {
	if r == nil {
		return false
	}

	switch strategy {
	case StrategyFullPage:
		return r.IsFull
	case StrategyCount:
		if r.Count == nil {
			return false
		}
		return r.Page*r.PageSize < *r.Count
	default:
		if r.Count != nil {
			return r.Page*r.PageSize < *r.Count
		}
		return r.IsFull
	}
}

// TotalPages returns the page count implied by Count, or 0 when unknown.
func (r *PageResult[T]) TotalPages() int {
	if r == nil || r.Count == nil || r.PageSize <= 0 {
		return 0
	}
	return (*r.Count + r.PageSize - 1) / r.PageSize
}

// List is what a Source returns for one skip/limit window.
type List[T any] struct {
	Items []T
	Count *int
}

// Source reads one window of a list endpoint.
type Source[T any] func(ctx context.Context, filters Filters, skip, limit int) (List[T], error)
