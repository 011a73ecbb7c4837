package pagination

// State is the pager's lifecycle state.
type State int

const (
	// StateIdle is the initial state before the first load.
	StateIdle State = iota
	// StateLoading means a visible fetch is in flight.
	StateLoading
	// StateLoaded means the displayed page is current.
	StateLoaded
	// StateError means the last visible fetch failed.
	StateError
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the pager state. A new Snapshot is
// emitted on every transition; the PageResult it points to is never mutated.
type Snapshot[T any] struct {
	State State

	// Page is the page the view shows. While loading it is the requested
	// page; after a failure it reverts to the last loaded page.
	Page int

	// RequestedPage is the page of the latest navigation
	RequestedPage int

	Filters Filters

	// Result is the last successfully loaded page, if any
	Result *PageResult[T]

	// Stale is true while Result belongs to a previous navigation
	Stale bool

	// Err is the cause of StateError
	Err error

	HasNextPage     bool
	HasPreviousPage bool
	Loading         bool
}

// Items returns the records to render, or nil before the first load.
func (s Snapshot[T]) Items() []T {
	if s.Result == nil {
		return nil
	}
	return s.Result.Items
}

// DisplayResult returns what the view should render and whether it is stale.
//
//   - Loading: the prior result, stale (nil before the first load)
//   - Loaded: the new result, not stale
//   - Error: the result from before the failed navigation, not stale
//   - Idle: nothing
func DisplayResult[T any](s Snapshot[T]) (*PageResult[T], bool) {
	switch s.State {
	case StateLoading:
		return s.Result, s.Result != nil
	case StateLoaded, StateError:
		return s.Result, false
	default:
		return nil, false
	}
}
