package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client for testing.
// Tests are skipped when no local Redis is available; the integration
// suite runs the same paths against a container.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewRedisStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisStore should panic with nil redis client")
		}
	}()
	NewRedisStore(nil)
}

func TestRedisStore_SetAndGet(t *testing.T) {
	store := NewRedisStore(setupTestRedis(t))
	ctx := context.Background()
	key := BuildKey("items", map[string]string{"language": "en"}, 1)

	entry := NewEntry([]byte(`{"items":[1,2,3]}`), 5*time.Minute)
	if err := store.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Data) != string(entry.Data) {
		t.Errorf("Data mismatch: got %s, want %s", got.Data, entry.Data)
	}
}

func TestRedisStore_Get_CacheMiss(t *testing.T) {
	store := NewRedisStore(setupTestRedis(t))

	_, err := store.Get(context.Background(), BuildKey("users", nil, 9))
	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestRedisStore_Get_InvalidEntry(t *testing.T) {
	client := setupTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()
	key := BuildKey("users", nil, 1)

	if err := client.Set(ctx, key.String(), "not json", time.Minute).Err(); err != nil {
		t.Fatalf("raw set failed: %v", err)
	}

	if _, err := store.Get(ctx, key); err == nil {
		t.Error("expected error for corrupted entry")
	}
}

func TestRedisStore_DeleteAndInvalidate(t *testing.T) {
	store := NewRedisStore(setupTestRedis(t))
	ctx := context.Background()

	for page := 1; page <= 3; page++ {
		if err := store.Set(ctx, BuildKey("posts", nil, page), NewEntry([]byte("x"), time.Minute)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	if err := store.Set(ctx, BuildKey("users", nil, 1), NewEntry([]byte("x"), time.Minute)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := store.Delete(ctx, BuildKey("posts", nil, 1)); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	removed, err := store.Invalidate(ctx, "posts")
	if err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if _, err := store.Get(ctx, BuildKey("users", nil, 1)); err != nil {
		t.Errorf("users entry should survive: %v", err)
	}
}
