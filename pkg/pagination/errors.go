package pagination

import (
	"errors"
	"fmt"
)

var (
	// ErrGuardViolation is returned for navigation outside the list bounds.
	// The pager state is left unchanged.
	ErrGuardViolation = errors.New("navigation out of bounds")

	// ErrSuperseded is returned to a navigation whose result was discarded
	// because a newer navigation was issued.
	ErrSuperseded = errors.New("superseded by newer navigation")

	// ErrClosed is returned by navigation on a closed pager.
	ErrClosed = errors.New("pager closed")
)

// FetchError is a failed page fetch.
type FetchError struct {
	Entity string
	Page   int

	// StatusCode is the HTTP status when the cause carried one
	StatusCode int

	// Detail is the server's error detail when the cause carried one
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s page %d (status %d): %v", e.Entity, e.Page, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s page %d: %v", e.Entity, e.Page, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

type statusCoder interface {
	HTTPStatus() int
}

type detailer interface {
	ErrorDetail() string
}

func newFetchError(entity string, page int, err error) *FetchError {
	fe := &FetchError{
		Entity: entity,
		Page:   page,
		Err:    err,
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		fe.StatusCode = sc.HTTPStatus()
	}
	var d detailer
	if errors.As(err, &d) {
		fe.Detail = d.ErrorDetail()
	}

	return fe
}
