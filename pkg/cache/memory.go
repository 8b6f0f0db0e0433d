package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	now        func() time.Time
	defaultTTL time.Duration
	maxEntries int
}

// WithDefaultTTL sets the TTL used when Set is called with zero. Default: 10 minutes.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.defaultTTL = d }
}

// WithMaxEntries bounds the cache; the least recently used entry is evicted
// first. Zero means unbounded. Default: 1024.
func WithMaxEntries(n int) MemoryOption {
	return func(o *memoryOptions) { o.maxEntries = n }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) { o.now = now }
}

type memoryEntry[V any] struct {
	expiresAt time.Time // zero: never
	value     V
	key       string
}

// Memory is an in-process LRU cache with lazy expiry.
type Memory[V any] struct {
	items map[string]*list.Element
	lru   *list.List // front is most recently used
	opts  memoryOptions
	mu    sync.Mutex
}

// NewMemory creates an empty in-memory cache.
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	o := memoryOptions{
		now:        time.Now,
		defaultTTL: 10 * time.Minute,
		maxEntries: 1024,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Memory[V]{
		items: make(map[string]*list.Element),
		lru:   list.New(),
		opts:  o,
	}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	elem, ok := m.items[key]
	if !ok {
		return zero, ErrNotFound
	}
	e := elem.Value.(*memoryEntry[V])
	if m.expired(e) {
		m.remove(elem)
		return zero, ErrNotFound
	}
	m.lru.MoveToFront(elem)
	return e.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl == 0 {
		ttl = m.opts.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.opts.now().Add(ttl)
	}

	if elem, ok := m.items[key]; ok {
		e := elem.Value.(*memoryEntry[V])
		e.value, e.expiresAt = value, expiresAt
		m.lru.MoveToFront(elem)
		return nil
	}

	m.items[key] = m.lru.PushFront(&memoryEntry[V]{key: key, value: value, expiresAt: expiresAt})
	for m.opts.maxEntries > 0 && m.lru.Len() > m.opts.maxEntries {
		m.remove(m.lru.Back())
	}
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		m.remove(elem)
	}
	return nil
}

func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]*list.Element)
	m.lru.Init()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

func (m *Memory[V]) expired(e *memoryEntry[V]) bool {
	return !e.expiresAt.IsZero() && !m.opts.now().Before(e.expiresAt)
}

func (m *Memory[V]) remove(elem *list.Element) {
	m.lru.Remove(elem)
	delete(m.items, elem.Value.(*memoryEntry[V]).key)
}

var _ Cache[any] = (*Memory[any])(nil)
