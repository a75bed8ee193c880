// Package cache provides a generic, thread-safe LRU cache.
//
// The cache is bounded by a cost budget. By default every entry costs 1,
// so the budget is an entry count; WithCost lets callers weigh entries,
// for example by byte length:
//
//	c := cache.New[source.Range, []byte](64<<20, cache.WithCost(func(b []byte) int { return len(b) }))
//	c.Set(r, data)
//	data, ok := c.Get(r)
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
