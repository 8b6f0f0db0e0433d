package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
)

// Cache is a key-value cache with per-entry TTL.
//
// A positive ttl expires the entry after that duration, zero uses the cache
// default, and a negative ttl keeps the entry until it is evicted or deleted.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Codec converts values to bytes for caches that store them remotely.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// JSONCodec encodes values as JSON.
type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	return data, nil
}

func (JSONCodec[V]) Decode(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrDecode, err)
	}
	return v, nil
}

type loaded[V any] struct {
	value V
	ttl   time.Duration
}

// Loader fills a cache on miss. Concurrent misses for the same key share a
// single load; each Loader keeps its own in-flight set, so two loaders never
// wait on each other.
type Loader[V any] struct {
	cache Cache[V]
	group singleflight.Group
}

// NewLoader returns a loader backed by c.
func NewLoader[V any](c Cache[V]) *Loader[V] {
	return &Loader[V]{cache: c}
}

// GetOrSet returns the cached value for key or computes it with fn.
//
// Errors from fn are returned and nothing is cached. Failing to store the
// computed value is not an error.
func (l *Loader[V]) GetOrSet(ctx context.Context, key string, fn func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := l.cache.Get(ctx, key); err == nil {
		return v, nil
	}

	res, err, _ := l.group.Do(key, func() (any, error) {
		v, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		_ = l.cache.Set(ctx, key, v, ttl)
		return loaded[V]{value: v, ttl: ttl}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(loaded[V]).value, nil
}
