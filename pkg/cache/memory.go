package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store. It is the default backend for a
// single console session.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
	}
}

// Get retrieves an entry by key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (m *MemoryStore) Get(ctx context.Context, key QueryKey) (*Entry, error) {
	cacheKey := key.String()

	m.mu.RLock()
	entry, ok := m.entries[cacheKey]
	m.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues(LayerMemory).Inc()
		return nil, ErrCacheMiss
	}

	if entry.IsExpired() {
		m.mu.Lock()
		// Another writer may have refreshed it in between
		if current, ok := m.entries[cacheKey]; ok && current == entry {
			delete(m.entries, cacheKey)
		}
		m.mu.Unlock()
		CacheMisses.WithLabelValues(LayerMemory).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(LayerMemory).Inc()

	// Callers get their own copy of the payload
	copied := *entry
	copied.Data = append([]byte(nil), entry.Data...)
	return &copied, nil
}

// Set stores an entry. Entries that are already expired are not stored.
func (m *MemoryStore) Set(ctx context.Context, key QueryKey, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if entry.TTL() <= 0 {
		return nil
	}

	stored := *entry
	stored.Data = append([]byte(nil), entry.Data...)

	m.mu.Lock()
	m.entries[key.String()] = &stored
	m.mu.Unlock()

	return nil
}

// Delete removes an entry.
func (m *MemoryStore) Delete(ctx context.Context, key QueryKey) error {
	m.mu.Lock()
	delete(m.entries, key.String())
	m.mu.Unlock()
	return nil
}

// Invalidate removes every entry of an entity.
func (m *MemoryStore) Invalidate(ctx context.Context, entity string) (int, error) {
	prefix := EntityPrefix(entity)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for cacheKey := range m.entries {
		if strings.HasPrefix(cacheKey, prefix) {
			delete(m.entries, cacheKey)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
