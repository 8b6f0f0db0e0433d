// Package cache provides the generic TTL cache used for remote template
// resources.
//
// Two implementations share the Cache interface: Memory, an in-process LRU
// with per-entry expiry, and Redis, which stores encoded values under a key
// prefix so several renderer instances can share one cache.
//
//	objects := cache.NewMemory[storage.Object](
//	    cache.WithDefaultTTL(10*time.Minute),
//	    cache.WithMaxEntries(512),
//	)
//
//	loader := cache.NewLoader(objects)
//	obj, err := loader.GetOrSet(ctx, key, func(ctx context.Context) (storage.Object, time.Duration, error) {
//	    return fetch(ctx, key)
//	})
//
// A Loader collapses concurrent misses for the same key into one call.
//
// OpenRedis connects from a redis:// URL with retries; RedisHealthcheck wraps
// the client for readiness probes.
package cache
