// Package cache provides the shared page cache behind the list pager.
//
// Pages are addressed by a QueryKey built from the entity name, the active
// filters and the page number. The string form is deterministic, so two keys
// built from equal inputs address the same entry:
//
//	key := cache.BuildKey("items", map[string]string{"language": "en"}, 2)
//	key.String() // pager:items:language=en:page=2
//
// # Backends
//
// Store is the injectable interface. Two implementations are provided:
//
//   - MemoryStore: in-process map, the default for a single console session
//   - RedisStore: Redis backend for caches shared between processes
//
// Entries carry their own expiry and are evicted on read once expired.
// Invalidate drops every page of an entity, which is what callers do after
// creating, updating or deleting a record.
//
//	store := cache.NewRedisStore(redis.NewClient(&redis.Options{Addr: "localhost:6379"}))
//	entry, err := store.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API
//	}
//
// # Metrics
//
//   - pager_cache_hits_total{layer} - Cache hits by layer (memory, redis)
//   - pager_cache_misses_total{layer} - Cache misses by layer
//   - pager_cache_errors_total{operation} - Cache operation errors
package cache
