package pagination

import (
	"context"
	"testing"

	"github.com/Sternrassler/console-pager/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchFetcher_ParallelWithCount(t *testing.T) {
	src := newFakeSource(23, true)
	store := cache.NewMemoryStore()
	bf, err := NewBatchFetcher(DefaultConfig("users", 10), src.list, store, DefaultBatchConfig())
	require.NoError(t, err)

	pages, err := bf.FetchAllPages(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	all := Flatten(pages)
	require.Len(t, all, 23)
	for i, r := range all {
		assert.Equal(t, i+1, r.ID)
	}

	assert.Equal(t, 3, store.Len(), "fetched pages should warm the cache")
	for page := 1; page <= 3; page++ {
		assert.Equal(t, 1, src.callsFor(page))
	}
}

func TestBatchFetcher_SequentialWithoutCount(t *testing.T) {
	src := newFakeSource(21, false)
	bf, err := NewBatchFetcher(DefaultConfig("items", 7), src.list, nil, DefaultBatchConfig())
	require.NoError(t, err)

	pages, err := bf.FetchAllPages(context.Background(), Filters{"language": "en"})
	require.NoError(t, err)

	// Three full pages, then an empty one ends the walk
	assert.Len(t, pages, 4)
	assert.Len(t, Flatten(pages), 21)
	assert.Equal(t, Filters{"language": "en"}, src.filters())
}

func TestBatchFetcher_FullPageStrategyIgnoresCount(t *testing.T) {
	src := newFakeSource(10, true)
	cfg := DefaultConfig("posts", 7)
	cfg.Strategy = StrategyFullPage
	bf, err := NewBatchFetcher(cfg, src.list, nil, DefaultBatchConfig())
	require.NoError(t, err)

	pages, err := bf.FetchAllPages(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestBatchFetcher_PartialResultsOnError(t *testing.T) {
	src := newFakeSource(40, true)
	src.failPage(3, &statusError{status: 500, detail: "Internal server error"})
	bf, err := NewBatchFetcher(DefaultConfig("users", 10), src.list, nil, BatchConfig{MaxConcurrency: 1})
	require.NoError(t, err)

	pages, err := bf.FetchAllPages(context.Background(), nil)
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 3, fetchErr.Page)
	assert.Contains(t, pages, 1)
	assert.NotContains(t, pages, 3)
}

func TestBatchFetcher_FirstPageError(t *testing.T) {
	src := newFakeSource(40, true)
	src.failPage(1, errBoom)
	bf, err := NewBatchFetcher(DefaultConfig("users", 10), src.list, nil, DefaultBatchConfig())
	require.NoError(t, err)

	pages, err := bf.FetchAllPages(context.Background(), nil)
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, pages)
}

func TestNewBatchFetcher_Validation(t *testing.T) {
	src := newFakeSource(0, false)

	_, err := NewBatchFetcher(DefaultConfig("", 7), src.list, nil, DefaultBatchConfig())
	assert.Error(t, err)

	_, err = NewBatchFetcher(DefaultConfig("items", -1), src.list, nil, DefaultBatchConfig())
	assert.Error(t, err)

	_, err = NewBatchFetcher[record](DefaultConfig("items", 7), nil, nil, DefaultBatchConfig())
	assert.Error(t, err)
}
