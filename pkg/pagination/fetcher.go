package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/console-pager/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Fetcher turns Source calls into cached PageResults for one entity. It is
// safe for concurrent use. Pagers created from the same Fetcher share
// in-flight loads and prefetches, whatever their filters.
type Fetcher[T any] struct {
	config     Config
	entity     string
	pageSize   int
	source     Source[T]
	store      cache.Store
	ttl        time.Duration
	timeout    time.Duration
	logger     zerolog.Logger
	prefetcher *Prefetcher[T]

	// flight collapses concurrent loads of the same page, e.g. a visible
	// fetch of a page whose prefetch is still running.
	flight singleflight.Group
}

// NewFetcher creates the fetcher of the entity described by cfg. cfg.Filters
// become the initial filters of pagers created with Pager(nil). A nil store
// gets a private in-memory cache.
func NewFetcher[T any](cfg Config, source Source[T], store cache.Store) (*Fetcher[T], error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if store == nil {
		store = cache.NewMemoryStore()
	}

	logger := log.With().
		Str("component", "pager").
		Str("entity", cfg.Entity).
		Logger()

	f := &Fetcher[T]{
		config:   cfg,
		entity:   cfg.Entity,
		pageSize: cfg.PageSize,
		source:   source,
		store:    store,
		ttl:      cfg.CacheTTL,
		timeout:  cfg.FetchTimeout,
		logger:   logger,
	}
	if !cfg.DisablePrefetch {
		f.prefetcher = newPrefetcher(f, cfg.PrefetchTimeout, logger)
	}
	return f, nil
}

// Pager creates a pager over the fetcher, starting on page 1 of filters.
// Nil filters mean the filters the fetcher was configured with.
func (f *Fetcher[T]) Pager(filters Filters) *Pager[T] {
	cfg := f.config
	if filters != nil {
		cfg.Filters = filters
	}
	return newPager(cfg, f)
}

// Prefetcher returns the fetcher's prefetcher, nil when prefetch is disabled.
func (f *Fetcher[T]) Prefetcher() *Prefetcher[T] {
	return f.prefetcher
}

func (f *Fetcher[T]) key(filters Filters, page int) cache.QueryKey {
	return cache.BuildKey(f.entity, filters, page)
}

// fetchPage issues exactly one Source call. It does not touch the cache.
func (f *Fetcher[T]) fetchPage(ctx context.Context, filters Filters, page int) (*PageResult[T], error) {
	req := PageRequest{Filters: filters, Page: page}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	list, err := f.source(ctx, filters, req.Skip(f.pageSize), f.pageSize)
	fetchDuration.WithLabelValues(f.entity).Observe(time.Since(start).Seconds())
	if err != nil {
		fetchesTotal.WithLabelValues(f.entity, "error").Inc()
		return nil, newFetchError(f.entity, page, err)
	}
	fetchesTotal.WithLabelValues(f.entity, "ok").Inc()

	result := NewPageResult(page, f.pageSize, list.Items, list.Count)

	f.logger.Debug().
		Int("page", page).
		Int("items", len(result.Items)).
		Bool("is_full", result.IsFull).
		Dur("duration", time.Since(start)).
		Msg("Page fetched")

	return result, nil
}

// load fetches a page from the source and stores it in the cache. Concurrent
// loads of the same key share one Source call, which outlives the
// cancellation of the caller that started it: a cancelled caller only stops
// waiting, and the page is still cached for whoever asks next.
func (f *Fetcher[T]) load(ctx context.Context, filters Filters, page int) (*PageResult[T], error) {
	key := f.key(filters, page)

	ch := f.flight.DoChan(key.String(), func() (any, error) {
		callCtx, cancel := f.detach(ctx)
		defer cancel()

		result, err := f.fetchPage(callCtx, filters, page)
		if err != nil {
			return nil, err
		}
		f.save(callCtx, key, result)
		return result, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*PageResult[T]), nil
	case <-ctx.Done():
		return nil, newFetchError(f.entity, page, ctx.Err())
	}
}

// detach drops the cancellation of ctx but keeps its values and deadline.
// Without a deadline the call is bounded by the fetch timeout.
func (f *Fetcher[T]) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, deadline)
	}
	timeout := f.timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return context.WithTimeout(base, timeout)
}

// lookup returns the cached page, if any. Cache failures are treated as misses.
func (f *Fetcher[T]) lookup(ctx context.Context, filters Filters, page int) (*PageResult[T], bool) {
	key := f.key(filters, page)

	entry, err := f.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			f.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache get error")
		}
		return nil, false
	}

	var result PageResult[T]
	if err := json.Unmarshal(entry.Data, &result); err != nil {
		f.logger.Warn().Err(err).Str("key", key.String()).Msg("Discarding undecodable cache entry")
		_ = f.store.Delete(ctx, key)
		return nil, false
	}

	f.logger.Debug().Str("key", key.String()).Dur("ttl", entry.TTL()).Msg("Cache hit")
	return &result, true
}

// save stores a page. Failures only cost a future refetch, so they are logged.
func (f *Fetcher[T]) save(ctx context.Context, key cache.QueryKey, result *PageResult[T]) {
	data, err := json.Marshal(result)
	if err != nil {
		f.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to encode page")
		return
	}

	if err := f.store.Set(ctx, key, cache.NewEntry(data, f.ttl)); err != nil {
		f.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to cache page")
	}
}

// invalidate drops every cached page of the entity.
func (f *Fetcher[T]) invalidate(ctx context.Context) error {
	removed, err := f.store.Invalidate(ctx, f.entity)
	if err != nil {
		return fmt.Errorf("invalidate %s: %w", f.entity, err)
	}
	f.logger.Debug().Int("removed", removed).Msg("Cache invalidated")
	return nil
}
