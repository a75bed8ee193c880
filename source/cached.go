package source

import (
	"context"
	"errors"

	"github.com/gogpu/pxdoc/cache"
)

var errShortData = errors.New("wrapped source returned wrong length")

// CachedSource memoizes individual ranges of another source in an LRU
// cache bounded by total byte size.
type CachedSource struct {
	src   Source
	cache *cache.Cache[Range, []byte]
}

// NewCachedSource wraps src with a cache holding up to maxBytes bytes.
func NewCachedSource(src Source, maxBytes int) *CachedSource {
	return &CachedSource{
		src:   src,
		cache: cache.New[Range, []byte](maxBytes, cache.WithCost(func(b []byte) int { return len(b) })),
	}
}

// ReadRanges implements Source. Missing ranges are fetched from the
// wrapped source in a single call.
func (c *CachedSource) ReadRanges(ctx context.Context, ranges []Range) ([]byte, error) {
	if err := validate(ranges); err != nil {
		return nil, err
	}
	parts := make([][]byte, len(ranges))
	var missing []Range
	var missingIdx []int
	for i, r := range ranges {
		if b, ok := c.cache.Get(r); ok {
			parts[i] = b
			continue
		}
		missing = append(missing, r)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		data, err := c.src.ReadRanges(ctx, missing)
		if err != nil {
			return nil, err
		}
		if int64(len(data)) != TotalLength(missing) {
			return nil, unavailable(errShortData, "read %d ranges", len(missing))
		}
		pos := int64(0)
		for j, r := range missing {
			b := data[pos : pos+r.Length : pos+r.Length]
			pos += r.Length
			parts[missingIdx[j]] = b
			c.cache.Set(r, b)
		}
	}

	out := make([]byte, 0, TotalLength(ranges))
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

// Stats returns cache statistics.
func (c *CachedSource) Stats() cache.Stats {
	return c.cache.Stats()
}
