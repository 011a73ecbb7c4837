package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/console-pager/pkg/cache"
	"github.com/rs/zerolog"
)

// Config holds pager configuration.
type Config struct {
	// Entity names the list and namespaces its cache keys (e.g., "items")
	Entity string

	// PageSize is the fixed number of records per page
	PageSize int

	// Strategy decides how "more pages" is detected
	Strategy Strategy

	// Filters are the initial list filters
	Filters Filters

	// CacheTTL is how long fetched pages stay in the shared cache
	CacheTTL time.Duration

	// FetchTimeout bounds each shared page load
	FetchTimeout time.Duration

	// PrefetchTimeout bounds each background prefetch
	PrefetchTimeout time.Duration

	// DisablePrefetch turns off loading page+1 in the background
	DisablePrefetch bool

	// SubscriberBuffer is the channel size handed out by Subscribe
	SubscriberBuffer int
}

const defaultFetchTimeout = 30 * time.Second

// DefaultConfig returns a default configuration for an entity.
func DefaultConfig(entity string, pageSize int) Config {
	return Config{
		Entity:           entity,
		PageSize:         pageSize,
		Strategy:         StrategyAuto,
		CacheTTL:         5 * time.Minute,
		FetchTimeout:     defaultFetchTimeout,
		PrefetchTimeout:  15 * time.Second,
		SubscriberBuffer: 8,
	}
}

// normalize validates the config and fills unset durations and sizes.
func (c Config) normalize() (Config, error) {
	if c.Entity == "" {
		return c, fmt.Errorf("entity is required")
	}
	if c.PageSize <= 0 {
		return c, fmt.Errorf("page_size must be > 0 (got %d)", c.PageSize)
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaultFetchTimeout
	}
	if c.PrefetchTimeout <= 0 {
		c.PrefetchTimeout = 15 * time.Second
	}
	if c.SubscriberBuffer <= 0 {
		c.SubscriberBuffer = 8
	}
	return c, nil
}

// Pager is the state machine behind one paginated list view.
//
// Navigation methods block until the page is displayed or the fetch fails.
// They may be called from several goroutines: only the latest navigation is
// applied, older ones return ErrSuperseded.
type Pager[T any] struct {
	config     Config
	fetcher    *Fetcher[T]
	prefetcher *Prefetcher[T]
	logger     zerolog.Logger

	mu          sync.Mutex
	snap        Snapshot[T]
	filters     Filters
	lastResult  *PageResult[T]
	lastPage    int
	seq         uint64
	cancel      context.CancelFunc
	subscribers []chan Snapshot[T]
	closed      bool
}

// NewPager creates a pager in the Idle state on page 1 with a fetcher of
// its own. A nil store gets a private in-memory cache. Use Fetcher.Pager
// for pagers that should share loads.
func NewPager[T any](cfg Config, source Source[T], store cache.Store) (*Pager[T], error) {
	f, err := NewFetcher(cfg, source, store)
	if err != nil {
		return nil, err
	}
	return f.Pager(nil), nil
}

func newPager[T any](cfg Config, f *Fetcher[T]) *Pager[T] {
	p := &Pager[T]{
		config:     cfg,
		fetcher:    f,
		prefetcher: f.prefetcher,
		logger:     f.logger,
		filters:    cfg.Filters.Clone(),
		lastPage:   1,
	}
	p.snap = Snapshot[T]{
		State:         StateIdle,
		Page:          1,
		RequestedPage: 1,
		Filters:       p.filters,
	}
	return p
}

// Snapshot returns the current state.
func (p *Pager[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Prefetcher returns the pager's prefetcher, nil when prefetch is disabled.
func (p *Pager[T]) Prefetcher() *Prefetcher[T] {
	return p.prefetcher
}

// Subscribe returns a channel receiving every new Snapshot, starting with
// the current one. A subscriber that falls behind loses older snapshots,
// never the latest. The channel is closed by Close.
func (p *Pager[T]) Subscribe() <-chan Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan Snapshot[T], p.config.SubscriberBuffer)
	if p.closed {
		close(ch)
		return ch
	}
	ch <- p.snap
	p.subscribers = append(p.subscribers, ch)
	return ch
}

// Load displays the current page, fetching it if needed.
func (p *Pager[T]) Load(ctx context.Context) (Snapshot[T], error) {
	return p.SetPage(ctx, p.Snapshot().Page)
}

// SetPage navigates to page. Navigating to the page already loaded is a
// no-op; cached pages are shown without a network call.
func (p *Pager[T]) SetPage(ctx context.Context, page int) (Snapshot[T], error) {
	return p.navigate(ctx, page, false, nil)
}

// Next navigates to the following page. It is only allowed when HasNextPage.
func (p *Pager[T]) Next(ctx context.Context) (Snapshot[T], error) {
	p.mu.Lock()
	snap := p.snap
	p.mu.Unlock()

	if !snap.HasNextPage {
		return snap, p.guardViolation(fmt.Sprintf("no page after %d", snap.Page))
	}
	return p.navigate(ctx, snap.Page+1, false, nil)
}

// Previous navigates to the preceding page. It is only allowed past page 1.
func (p *Pager[T]) Previous(ctx context.Context) (Snapshot[T], error) {
	p.mu.Lock()
	snap := p.snap
	p.mu.Unlock()

	if snap.Page <= 1 {
		return snap, p.guardViolation("already on page 1")
	}
	return p.navigate(ctx, snap.Page-1, false, nil)
}

// SetFilters replaces the active filters and goes back to page 1. The new
// filters take effect only once their first page is loaded; on failure the
// pager stays on the previous filters and page.
func (p *Pager[T]) SetFilters(ctx context.Context, filters Filters) (Snapshot[T], error) {
	staged := filters.Clone()
	return p.navigate(ctx, 1, true, &staged)
}

// Refresh drops every cached page of the entity and reloads the displayed
// page from the API. Call it after creating, updating or deleting a record.
func (p *Pager[T]) Refresh(ctx context.Context) (Snapshot[T], error) {
	if err := p.fetcher.invalidate(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("Cache invalidation failed")
	}
	return p.navigate(ctx, p.Snapshot().Page, true, nil)
}

// Close releases the pager. The outstanding visible fetch is cancelled;
// prefetches already running are left to finish. Close is idempotent.
func (p *Pager[T]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	for _, ch := range p.subscribers {
		close(ch)
	}
	p.subscribers = nil

	p.logger.Debug().Msg("Pager closed")
	return nil
}

// navigate shows page of the committed filters, or of staged when not nil.
func (p *Pager[T]) navigate(ctx context.Context, page int, force bool, staged *Filters) (Snapshot[T], error) {
	p.mu.Lock()
	if p.closed {
		snap := p.snap
		p.mu.Unlock()
		return snap, ErrClosed
	}
	if page < 1 {
		snap := p.snap
		p.mu.Unlock()
		return snap, p.guardViolation(fmt.Sprintf("page %d", page))
	}
	if !force && p.snap.State == StateLoaded && p.snap.Page == page {
		snap := p.snap
		p.mu.Unlock()
		return snap, nil
	}

	// Last request wins: drop whatever visible fetch is outstanding
	p.seq++
	seq := p.seq
	if p.cancel != nil {
		p.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	filters := p.filters
	if staged != nil {
		filters = *staged
	}
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		if p.seq == seq {
			p.cancel = nil
		}
		p.mu.Unlock()
	}()

	if result, ok := p.fetcher.lookup(fetchCtx, filters, page); ok {
		return p.applyLoaded(seq, filters, result)
	}

	p.mu.Lock()
	if p.closed {
		snap := p.snap
		p.mu.Unlock()
		return snap, ErrClosed
	}
	if p.seq != seq {
		snap := p.snap
		p.mu.Unlock()
		supersededTotal.WithLabelValues(p.config.Entity).Inc()
		return snap, ErrSuperseded
	}
	p.setLocked(Snapshot[T]{
		State:           StateLoading,
		Page:            page,
		RequestedPage:   page,
		Filters:         filters,
		Result:          p.lastResult,
		Stale:           p.lastResult != nil,
		HasPreviousPage: page > 1,
		Loading:         true,
	})
	p.mu.Unlock()

	result, err := p.fetcher.load(fetchCtx, filters, page)
	if err != nil {
		return p.applyError(seq, filters, page, err)
	}
	return p.applyLoaded(seq, filters, result)
}

func (p *Pager[T]) applyLoaded(seq uint64, filters Filters, result *PageResult[T]) (Snapshot[T], error) {
	p.mu.Lock()
	if p.closed {
		snap := p.snap
		p.mu.Unlock()
		return snap, ErrClosed
	}
	if p.seq != seq {
		snap := p.snap
		p.mu.Unlock()
		supersededTotal.WithLabelValues(p.config.Entity).Inc()
		p.logger.Debug().Int("page", result.Page).Msg("Discarding superseded page")
		return snap, ErrSuperseded
	}

	p.filters = filters
	p.lastResult = result
	p.lastPage = result.Page
	hasNext := result.HasMore(p.config.Strategy)
	p.setLocked(Snapshot[T]{
		State:           StateLoaded,
		Page:            result.Page,
		RequestedPage:   result.Page,
		Filters:         filters,
		Result:          result,
		HasNextPage:     hasNext,
		HasPreviousPage: result.Page > 1,
	})
	snap := p.snap
	p.mu.Unlock()

	if hasNext && p.prefetcher != nil {
		p.prefetcher.Prefetch(filters, result.Page+1)
	}

	return snap, nil
}

func (p *Pager[T]) applyError(seq uint64, filters Filters, page int, err error) (Snapshot[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return p.snap, ErrClosed
	}
	if p.seq != seq {
		supersededTotal.WithLabelValues(p.config.Entity).Inc()
		return p.snap, ErrSuperseded
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		fetchErr = newFetchError(p.config.Entity, page, err)
	}

	p.logger.Error().
		Err(fetchErr).
		Int("page", page).
		Interface("filters", filters).
		Int("status", fetchErr.StatusCode).
		Int("display_page", p.lastPage).
		Msg("Page fetch failed")

	// The view stays on the last loaded page and its filters rather than an
	// empty one
	p.setLocked(Snapshot[T]{
		State:           StateError,
		Page:            p.lastPage,
		RequestedPage:   page,
		Filters:         p.filters,
		Result:          p.lastResult,
		Err:             fetchErr,
		HasNextPage:     p.lastResult.HasMore(p.config.Strategy),
		HasPreviousPage: p.lastPage > 1,
	})

	return p.snap, fetchErr
}

// setLocked installs a new snapshot and publishes it. p.mu must be held.
func (p *Pager[T]) setLocked(snap Snapshot[T]) {
	p.snap = snap

	for _, ch := range p.subscribers {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Full: drop the oldest pending snapshot to make room
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}

	p.logger.Debug().
		Str("state", snap.State.String()).
		Int("page", snap.Page).
		Int("requested_page", snap.RequestedPage).
		Bool("stale", snap.Stale).
		Bool("has_next", snap.HasNextPage).
		Msg("Pager transition")
}

func (p *Pager[T]) guardViolation(reason string) error {
	guardViolationsTotal.WithLabelValues(p.config.Entity).Inc()
	p.logger.Debug().Str("reason", reason).Msg("Navigation ignored")
	return fmt.Errorf("%w: %s", ErrGuardViolation, reason)
}
