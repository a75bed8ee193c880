package cache

import (
	"sync"
	"sync/atomic"
)

// Cache is a generic thread-safe LRU cache bounded by total entry cost.
// When an insertion pushes the total cost over capacity, least recently
// used entries are evicted until it fits again. A capacity of 0 means
// unlimited. An entry whose cost alone exceeds capacity is not stored.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*entry[K, V]
	lru      *lruList[K]
	capacity int
	used     int
	cost     func(V) int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type entry[K comparable, V any] struct {
	value V
	cost  int
	node  *lruNode[K]
}

// Option configures a Cache.
type Option[V any] func(*config[V])

type config[V any] struct {
	cost func(V) int
}

// WithCost weighs entries by cost(v) instead of counting them.
func WithCost[V any](cost func(V) int) Option[V] {
	return func(c *config[V]) {
		c.cost = cost
	}
}

// New creates a cache with the given capacity.
func New[K comparable, V any](capacity int, opts ...Option[V]) *Cache[K, V] {
	cfg := config[V]{cost: func(V) int { return 1 }}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Cache[K, V]{
		entries:  make(map[K]*entry[K, V]),
		lru:      newLRUList[K](),
		capacity: capacity,
		cost:     cfg.cost,
	}
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.lru.MoveToFront(e.node)
	c.hits.Add(1)
	return e.value, true
}

// Set stores a value, replacing any previous value for key.
// The value is stored as-is; callers must not modify it afterwards.
func (c *Cache[K, V]) Set(key K, value V) {
	cost := c.cost(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.remove(key, old)
	}
	if c.capacity > 0 && cost > c.capacity {
		return
	}
	c.entries[key] = &entry[K, V]{value: value, cost: cost, node: c.lru.PushFront(key)}
	c.used += cost

	for c.capacity > 0 && c.used > c.capacity {
		oldest := c.lru.Back()
		c.remove(oldest.key, c.entries[oldest.key])
		c.evictions.Add(1)
	}
}

// GetOrCreate returns the cached value or stores the result of create.
// create runs without the lock held, so concurrent misses on the same key
// may each call it; the last Set wins.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := create()
	c.Set(key, v)
	return v
}

// Delete removes an entry and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok {
		c.remove(key, e)
	}
	return ok
}

// remove drops an entry. Caller must hold c.mu.
func (c *Cache[K, V]) remove(key K, e *entry[K, V]) {
	c.lru.Remove(e.node)
	c.used -= e.cost
	delete(c.entries, key)
}

// Clear removes all entries. Statistics are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[K, V])
	c.lru = newLRUList[K]()
	c.used = 0
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	n, used := len(c.entries), c.used
	c.mu.Unlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Len:       n,
		Cost:      used,
		Capacity:  c.capacity,
		Hits:      hits,
		Misses:    misses,
		HitRate:   rate,
		Evictions: c.evictions.Load(),
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Cost is the summed cost of all entries.
	Cost int
	// Capacity is the cost budget, 0 for unlimited.
	Capacity int
	// Hits is the number of successful lookups.
	Hits uint64
	// Misses is the number of failed lookups.
	Misses uint64
	// HitRate is Hits/(Hits+Misses), 0 before any lookup.
	HitRate float64
	// Evictions is the number of entries dropped to stay within capacity.
	Evictions uint64
}
