package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](10)

	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache returned a value")
	}
	c.Set("a", 1)
	c.Set("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = %d, %v; want 2, true", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int, int](3)
	c.Set(1, 1)
	c.Set(2, 2)
	c.Set(3, 3)
	c.Get(1) // 2 is now the oldest
	c.Set(4, 4)

	if _, ok := c.Get(2); ok {
		t.Error("expected 2 to be evicted")
	}
	for _, k := range []int{1, 3, 4} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("expected %d to be present", k)
		}
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestCacheCost(t *testing.T) {
	c := New[string, []byte](10, WithCost(func(b []byte) int { return len(b) }))
	c.Set("a", make([]byte, 4))
	c.Set("b", make([]byte, 4))
	c.Set("c", make([]byte, 4)) // evicts a

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if s := c.Stats(); s.Cost != 8 || s.Len != 2 {
		t.Errorf("Stats() = %+v", s)
	}

	c.Set("huge", make([]byte, 11))
	if _, ok := c.Get("huge"); ok {
		t.Error("entry larger than capacity was stored")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCacheUnlimited(t *testing.T) {
	c := New[int, int](0)
	for i := range 1000 {
		c.Set(i, i)
	}
	if c.Len() != 1000 {
		t.Errorf("Len() = %d, want 1000", c.Len())
	}
}

func TestCacheDeleteClear(t *testing.T) {
	c := New[string, int](4)
	c.Set("a", 1)
	if !c.Delete("a") || c.Delete("a") {
		t.Error("Delete should report presence once")
	}
	c.Set("b", 2)
	c.Clear()
	if c.Len() != 0 || c.Stats().Cost != 0 {
		t.Error("Clear left entries behind")
	}
	c.Set("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Error("cache unusable after Clear")
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := New[string, int](4)
	calls := 0
	create := func() int { calls++; return 7 }
	if v := c.GetOrCreate("x", create); v != 7 {
		t.Errorf("GetOrCreate = %d", v)
	}
	if v := c.GetOrCreate("x", create); v != 7 {
		t.Errorf("GetOrCreate = %d", v)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.HitRate != 0.5 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := New[string, int](64)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				k := fmt.Sprintf("%d-%d", g, i%100)
				c.Set(k, i)
				c.Get(k)
			}
		}()
	}
	wg.Wait()
	if c.Len() > 64 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}
