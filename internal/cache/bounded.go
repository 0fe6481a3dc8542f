// Package cache provides a small bounded map shared by the scorers and the
// reverse geocoder. One instance belongs to one run.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
	Capacity  int
}

// HitRate is hits/(hits+misses), 0 when nothing was looked up.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Bounded is a thread-safe LRU holding at most capacity entries, with
// hit/miss counters. Capacity 0 disables storage.
type Bounded[K comparable, V any] struct {
	capacity int
	lru      *lru.Cache[K, V] // nil when capacity is 0

	hits, misses, evictions atomic.Uint64
}

func NewBounded[K comparable, V any](capacity int) *Bounded[K, V] {
	c := &Bounded[K, V]{capacity: max(capacity, 0)}
	if c.capacity > 0 {
		// only errors on a non-positive size
		c.lru, _ = lru.NewWithEvict[K, V](c.capacity, func(K, V) { c.evictions.Add(1) })
	}
	return c
}

// Get returns the cached value and whether it was present.
func (c *Bounded[K, V]) Get(key K) (V, bool) {
	var (
		v  V
		ok bool
	)
	if c.lru != nil {
		v, ok = c.lru.Get(key)
	}
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Peek looks a key up without touching recency or the counters.
func (c *Bounded[K, V]) Peek(key K) (V, bool) {
	if c.lru == nil {
		var zero V
		return zero, false
	}
	return c.lru.Peek(key)
}

func (c *Bounded[K, V]) Set(key K, value V) {
	if c.lru != nil {
		c.lru.Add(key, value)
	}
}

// GetOrCompute returns the cached value or computes and stores it. compute
// runs without a lock held, so two goroutines may compute the same key;
// both get a correct value.
func (c *Bounded[K, V]) GetOrCompute(key K, compute func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := compute()
	c.Set(key, v)
	return v
}

func (c *Bounded[K, V]) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

func (c *Bounded[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.Len(),
		Capacity:  c.capacity,
	}
}

// Clear drops all entries and counters.
func (c *Bounded[K, V]) Clear() {
	if c.lru != nil {
		c.lru.Purge()
	}
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}
