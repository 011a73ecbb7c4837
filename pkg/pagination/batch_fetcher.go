package pagination

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Sternrassler/console-pager/pkg/cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// BatchConfig holds batch fetcher configuration.
type BatchConfig struct {
	// MaxConcurrency is the maximum number of parallel page requests
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
	// MaxPages stops sequential fetching of lists without a count
	MaxPages int
}

// DefaultBatchConfig returns safe default configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
		MaxPages:       1000,
	}
}

// BatchFetcher reads every page of a list, e.g. for export. Lists that
// report a count are fetched in parallel; the others are walked page by
// page until a short page.
type BatchFetcher[T any] struct {
	fetcher  *Fetcher[T]
	strategy Strategy
	config   BatchConfig
}

// NewBatchFetcher creates a batch fetcher for the list described by cfg.
// Fetched pages are written to store, warming it for pagers sharing it.
func NewBatchFetcher[T any](cfg Config, source Source[T], store cache.Store, batch BatchConfig) (*BatchFetcher[T], error) {
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
	if batch.MaxConcurrency <= 0 {
		batch.MaxConcurrency = 4
	}
	if batch.Timeout <= 0 {
		batch.Timeout = 15 * time.Second
	}
	if batch.MaxPages <= 0 {
		batch.MaxPages = 1000
	}

	return &BatchFetcher[T]{
		fetcher: &Fetcher[T]{
			entity:   cfg.Entity,
			pageSize: cfg.PageSize,
			source:   source,
			store:    store,
			ttl:      cfg.CacheTTL,
			timeout:  batch.Timeout,
			logger:   log.With().Str("component", "batch-fetcher").Str("entity", cfg.Entity).Logger(),
		},
		strategy: cfg.Strategy,
		config:   batch,
	}, nil
}

// FetchAllPages fetches every page of the filtered list.
// Returns map of pageNumber -> result. On failure the pages fetched so far
// are returned together with the error.
func (bf *BatchFetcher[T]) FetchAllPages(ctx context.Context, filters Filters) (map[int]*PageResult[T], error) {
	start := time.Now()
	logger := bf.fetcher.logger

	first, err := bf.fetchOne(ctx, filters, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}
	results := map[int]*PageResult[T]{1: first}

	totalPages := 0
	if bf.strategy != StrategyFullPage {
		totalPages = first.TotalPages()
	}

	if totalPages == 0 {
		// No count: walk until a page says there is nothing after it
		last := first
		for page := 2; last.HasMore(StrategyFullPage) && page <= bf.config.MaxPages; page++ {
			result, err := bf.fetchOne(ctx, filters, page)
			if err != nil {
				return results, fmt.Errorf("fetch page %d (partial data: %d pages): %w", page, len(results), err)
			}
			results[page] = result
			last = result
		}

		logger.Info().
			Int("pages", len(results)).
			Dur("duration", time.Since(start)).
			Msg("Sequential fetch complete")
		return results, nil
	}

	logger.Info().
		Int("total_pages", totalPages).
		Int("workers", bf.config.MaxConcurrency).
		Msg("Starting parallel page fetch")

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.config.MaxConcurrency)

	for page := 2; page <= totalPages; page++ {
		g.Go(func() error {
			result, err := bf.fetchOne(gctx, filters, page)
			if err != nil {
				logger.Warn().Err(err).Int("page", page).Msg("Page fetch failed")
				return err
			}

			mu.Lock()
			results[page] = result
			fetched := len(results)
			mu.Unlock()

			if fetched%50 == 0 {
				logger.Info().
					Int("fetched", fetched).
					Int("total", totalPages).
					Float64("progress_pct", float64(fetched)/float64(totalPages)*100).
					Msg("Fetch progress")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		mu.Lock()
		fetched := len(results)
		mu.Unlock()
		return results, fmt.Errorf("worker error (partial data: %d/%d pages): %w", fetched, totalPages, err)
	}

	logger.Info().
		Int("pages", len(results)).
		Int("total", totalPages).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results, nil
}

func (bf *BatchFetcher[T]) fetchOne(ctx context.Context, filters Filters, page int) (*PageResult[T], error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()
	return bf.fetcher.load(pageCtx, filters, page)
}

// Flatten returns the records of all pages in page order.
func Flatten[T any](pages map[int]*PageResult[T]) []T {
	numbers := make([]int, 0, len(pages))
	total := 0
	for n, page := range pages {
		numbers = append(numbers, n)
		total += len(page.Items)
	}
	sort.Ints(numbers)

	out := make([]T, 0, total)
	for _, n := range numbers {
		out = append(out, pages[n].Items...)
	}
	return out
}
