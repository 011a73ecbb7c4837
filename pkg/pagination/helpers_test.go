package pagination

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type record struct {
	ID int `json:"id"`
}

// fakeSource serves IDs 1..total in skip/limit windows and lets tests fail
// or hold individual pages.
type fakeSource struct {
	mu          sync.Mutex
	total       int
	withCount   bool
	calls       map[int]int
	lastFilters Filters
	errs        map[int]error
	gates       map[int]chan struct{}
	started     chan int
}

func newFakeSource(total int, withCount bool) *fakeSource {
	return &fakeSource{
		total:     total,
		withCount: withCount,
		calls:     make(map[int]int),
		errs:      make(map[int]error),
		gates:     make(map[int]chan struct{}),
		started:   make(chan int, 64),
	}
}

func (s *fakeSource) list(ctx context.Context, filters Filters, skip, limit int) (List[record], error) {
	page := skip/limit + 1

	s.mu.Lock()
	s.calls[page]++
	s.lastFilters = filters.Clone()
	gate := s.gates[page]
	err := s.errs[page]
	s.mu.Unlock()

	select {
	case s.started <- page:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return List[record]{}, ctx.Err()
		}
	}
	if err != nil {
		return List[record]{}, err
	}

	var items []record
	for id := skip + 1; id <= min(skip+limit, s.total); id++ {
		items = append(items, record{ID: id})
	}

	list := List[record]{Items: items}
	if s.withCount {
		total := s.total
		list.Count = &total
	}
	return list, nil
}

func (s *fakeSource) failPage(page int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[page] = err
}

// hold blocks fetches of page until the returned channel is closed.
func (s *fakeSource) hold(page int) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	s.gates[page] = gate
	return gate
}

func (s *fakeSource) callsFor(page int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[page]
}

func (s *fakeSource) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *fakeSource) filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFilters
}

func (s *fakeSource) waitStarted(t *testing.T, page int) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case p := <-s.started:
			if p == page {
				return
			}
		case <-timeout:
			t.Fatalf("fetch of page %d never started", page)
		}
	}
}

// statusError mimics an API client error carrying an HTTP status.
type statusError struct {
	status int
	detail string
}

func (e *statusError) Error() string       { return e.detail }
func (e *statusError) HTTPStatus() int     { return e.status }
func (e *statusError) ErrorDetail() string { return e.detail }

var errBoom = errors.New("boom")

func ids(items []record) []int {
	out := make([]int, len(items))
	for i, r := range items {
		out[i] = r.ID
	}
	return out
}

func intPtr(v int) *int {
	return &v
}
