package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store is the keyed page store shared by all pagers of a session.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry for key, or ErrCacheMiss if it is absent or expired.
	Get(ctx context.Context, key QueryKey) (*Entry, error)

	// Set stores entry under key until entry.Expires.
	Set(ctx context.Context, key QueryKey, entry *Entry) error

	// Delete removes the entry for key.
	Delete(ctx context.Context, key QueryKey) error

	// Invalidate removes every entry of entity and returns how many were removed.
	Invalidate(ctx context.Context, entity string) (int, error)
}
