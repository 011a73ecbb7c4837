package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/console-pager/internal/console"
	"github.com/Sternrassler/console-pager/internal/testutil"
	"github.com/Sternrassler/console-pager/pkg/cache"
	"github.com/Sternrassler/console-pager/pkg/client"
	"github.com/Sternrassler/console-pager/pkg/pagination"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newClient(t *testing.T, mock *testutil.MockAPI) *client.Client {
	t.Helper()
	c, err := client.New(client.DefaultConfig(mock.URL()+"/api", "console-pager-integration/1.0"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func itemsPager(t *testing.T, c *client.Client, store cache.Store, prefetch bool) *pagination.Pager[client.Item] {
	t.Helper()
	entity, err := console.Lookup(client.EntityItems)
	if err != nil {
		t.Fatal(err)
	}
	cfg := entity.PagerConfig(pagination.Filters{client.FilterLanguage: "en"}, time.Minute, 5*time.Second)
	cfg.DisablePrefetch = !prefetch

	pager, err := pagination.NewPager(cfg, console.ItemsSource(c), store)
	if err != nil {
		t.Fatalf("Failed to create pager: %v", err)
	}
	t.Cleanup(func() { pager.Close() })
	return pager
}

// TestSharedRedisCache tests the full flow: API → Redis page cache →
// prefetch → second pager served from Redis.
func TestSharedRedisCache(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetList("/api"+client.PathItems, testutil.Records(20), testutil.ListOptions{
		DataField:  "Data",
		CountField: "Count",
	})

	c := newClient(t, mock)
	store := cache.NewRedisStore(redisClient)
	ctx := context.Background()

	first := itemsPager(t, c, store, true)
	snap, err := first.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snap.Items()) != 7 || !snap.HasNextPage {
		t.Fatalf("unexpected first page: %d items, has_next=%v", len(snap.Items()), snap.HasNextPage)
	}
	first.Prefetcher().Wait()

	if got := mock.GetPathCount("/api" + client.PathItems); got != 2 {
		t.Fatalf("Expected page 1 fetch plus page 2 prefetch, got %d requests", got)
	}

	// Another session sharing the cache gets both pages without the API
	second := itemsPager(t, c, store, false)
	if _, err := second.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	snap, err = second.Next(ctx)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if snap.Page != 2 || snap.Items()[0].Title != "record 8" {
		t.Errorf("unexpected page 2: page=%d first=%q", snap.Page, snap.Items()[0].Title)
	}
	if got := mock.GetPathCount("/api" + client.PathItems); got != 2 {
		t.Errorf("Expected pages from Redis, API saw %d requests", got)
	}

	keys, err := redisClient.Keys(ctx, cache.EntityPrefix(client.EntityItems)+"*").Result()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("Expected 2 cached pages, got %v", keys)
	}

	// A mutation elsewhere: Refresh drops the entity from Redis and refetches
	if _, err := second.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := mock.GetPathCount("/api" + client.PathItems); got != 3 {
		t.Errorf("Expected refetch after refresh, API saw %d requests", got)
	}
	keys, _ = redisClient.Keys(ctx, cache.EntityPrefix(client.EntityItems)+"*").Result()
	if len(keys) != 1 {
		t.Errorf("Expected only the refreshed page cached, got %v", keys)
	}
}

// TestLastRequestWinsOverHTTP tests that a slow page response does not
// replace a newer navigation.
func TestLastRequestWinsOverHTTP(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetList("/api"+client.PathItems, testutil.Records(30), testutil.ListOptions{
		DataField:  "Data",
		CountField: "Count",
		Delay:      100 * time.Millisecond,
	})

	pager := itemsPager(t, newClient(t, mock), cache.NewRedisStore(redisClient), false)
	ctx := context.Background()

	if _, err := pager.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	slow := make(chan error, 1)
	go func() {
		_, err := pager.SetPage(ctx, 2)
		slow <- err
	}()
	time.Sleep(20 * time.Millisecond)

	snap, err := pager.SetPage(ctx, 3)
	if err != nil {
		t.Fatalf("SetPage(3) failed: %v", err)
	}
	if snap.Page != 3 {
		t.Errorf("Expected page 3, got %d", snap.Page)
	}

	if err := <-slow; !errors.Is(err, pagination.ErrSuperseded) {
		t.Errorf("Expected ErrSuperseded for page 2, got %v", err)
	}
	if got := pager.Snapshot(); got.Page != 3 || got.State != pagination.StateLoaded {
		t.Errorf("Expected Loaded page 3, got %s page %d", got.State, got.Page)
	}
}

// TestServerErrorKeepsLastPage tests the error transition against a
// failing endpoint.
func TestServerErrorKeepsLastPage(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetList("/api"+client.PathItems, testutil.Records(30), testutil.ListOptions{DataField: "Data"})

	pager := itemsPager(t, newClient(t, mock), cache.NewRedisStore(redisClient), false)
	ctx := context.Background()

	if _, err := pager.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	mock.SetResponse("/api"+client.PathItems, testutil.NewServerErrorResponse())

	snap, err := pager.Next(ctx)
	var fetchErr *pagination.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.StatusCode != 500 {
		t.Fatalf("Expected FetchError with status 500, got %v", err)
	}
	if snap.State != pagination.StateError || snap.Page != 1 || snap.RequestedPage != 2 {
		t.Errorf("unexpected snapshot: state=%s page=%d requested=%d", snap.State, snap.Page, snap.RequestedPage)
	}
	if snap.HasPreviousPage {
		t.Error("page 1 has no previous page")
	}
	if len(snap.Items()) != 7 {
		t.Errorf("Expected page 1 items to stay visible, got %d", len(snap.Items()))
	}
}
