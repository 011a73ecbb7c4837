package pagination

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Prefetcher loads the next page into the shared cache in the background.
// At most one prefetch per (entity, filters) list runs at a time; further
// requests while it runs are dropped. Failures are logged, never returned.
type Prefetcher[T any] struct {
	fetcher *Fetcher[T]
	timeout time.Duration
	logger  zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

func newPrefetcher[T any](f *Fetcher[T], timeout time.Duration, logger zerolog.Logger) *Prefetcher[T] {
	return &Prefetcher[T]{
		fetcher:  f,
		timeout:  timeout,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// Prefetch starts loading page in the background and reports whether a new
// prefetch was started. The work is detached from any view context, so a
// closed pager does not stop it.
func (pf *Prefetcher[T]) Prefetch(filters Filters, page int) bool {
	key := pf.fetcher.key(filters, page)
	listKey := key.ListKey()

	pf.mu.Lock()
	if _, busy := pf.inflight[listKey]; busy {
		pf.mu.Unlock()
		prefetchesTotal.WithLabelValues(pf.fetcher.entity, "duplicate").Inc()
		return false
	}
	pf.inflight[listKey] = struct{}{}
	pf.wg.Add(1)
	pf.mu.Unlock()

	go func() {
		defer func() {
			pf.mu.Lock()
			delete(pf.inflight, listKey)
			pf.mu.Unlock()
			pf.wg.Done()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), pf.timeout)
		defer cancel()

		if _, ok := pf.fetcher.lookup(ctx, filters, page); ok {
			prefetchesTotal.WithLabelValues(pf.fetcher.entity, "cached").Inc()
			return
		}

		if _, err := pf.fetcher.load(ctx, filters, page); err != nil {
			prefetchesTotal.WithLabelValues(pf.fetcher.entity, "error").Inc()
			pf.logger.Warn().
				Err(err).
				Int("page", page).
				Msg("Prefetch failed")
			return
		}

		prefetchesTotal.WithLabelValues(pf.fetcher.entity, "ok").Inc()
		pf.logger.Debug().Int("page", page).Msg("Prefetched page")
	}()

	return true
}

// Wait blocks until every running prefetch has finished.
func (pf *Prefetcher[T]) Wait() {
	pf.wg.Wait()
}
