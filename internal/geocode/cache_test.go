package geocode

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLocator struct {
	calls atomic.Int32
	mu    sync.Mutex
	seen  [][2]float64
	fn    func(ctx context.Context, lat, lon float64) (Address, error)
}

func (l *countingLocator) Reverse(ctx context.Context, lat, lon float64) (Address, error) {
	l.calls.Add(1)
	l.mu.Lock()
	l.seen = append(l.seen, [2]float64{lat, lon})
	l.mu.Unlock()
	return l.fn(ctx, lat, lon)
}

func dallas(context.Context, float64, float64) (Address, error) {
	return Address{"city": "Dallas", "state": "Texas"}, nil
}

func fastConfig() CacheConfig {
	cfg := DefaultCacheConfig()
	cfg.MinDelay = 0
	return cfg
}

func TestCacheRoundsKeys(t *testing.T) {
	loc := &countingLocator{fn: dallas}
	c := NewCache(loc, fastConfig(), zerolog.Nop())

	city, region := c.Resolve(context.Background(), 32.77671, -96.79701)
	assert.Equal(t, "Dallas", city)
	assert.Equal(t, "Texas", region)

	city, _ = c.Resolve(context.Background(), 32.77674, -96.79699)
	assert.Equal(t, "Dallas", city)
	assert.Equal(t, int32(1), loc.calls.Load())

	require.Len(t, loc.seen, 1)
	assert.InDelta(t, 32.777, loc.seen[0][0], 1e-9)
	assert.InDelta(t, -96.797, loc.seen[0][1], 1e-9)

	st := c.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Calls)
	assert.Equal(t, 1, st.Size)
}

func TestCacheStoresFailures(t *testing.T) {
	loc := &countingLocator{fn: func(context.Context, float64, float64) (Address, error) {
		return nil, errors.New("no result")
	}}
	c := NewCache(loc, fastConfig(), zerolog.Nop())

	for range 3 {
		city, region := c.Resolve(context.Background(), 10, 10)
		assert.Empty(t, city)
		assert.Empty(t, region)
	}
	assert.Equal(t, int32(1), loc.calls.Load())
	assert.Equal(t, uint64(1), c.Stats().Failures)
}

func TestCacheTimeout(t *testing.T) {
	loc := &countingLocator{fn: func(ctx context.Context, _, _ float64) (Address, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	cfg := fastConfig()
	cfg.Timeout = 10 * time.Millisecond
	c := NewCache(loc, cfg, zerolog.Nop())

	city, _ := c.Resolve(context.Background(), 1, 1)
	assert.Empty(t, city)
	c.Resolve(context.Background(), 1, 1)
	assert.Equal(t, int32(1), loc.calls.Load(), "timeouts are cached")
}

func TestCacheCancelledNotStored(t *testing.T) {
	loc := &countingLocator{fn: dallas}
	c := NewCache(loc, fastConfig(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	city, _ := c.Resolve(ctx, 1, 1)
	assert.Empty(t, city)

	city, _ = c.Resolve(context.Background(), 1, 1)
	assert.Equal(t, "Dallas", city)
}

func TestCacheInvalidCoordinates(t *testing.T) {
	loc := &countingLocator{fn: dallas}
	c := NewCache(loc, fastConfig(), zerolog.Nop())
	city, _ := c.Resolve(context.Background(), 120, 0)
	assert.Empty(t, city)
	assert.Zero(t, loc.calls.Load())
}

func TestCacheBounded(t *testing.T) {
	loc := &countingLocator{fn: dallas}
	cfg := fastConfig()
	cfg.Size = 1
	c := NewCache(loc, cfg, zerolog.Nop())

	c.Resolve(context.Background(), 1, 1)
	c.Resolve(context.Background(), 2, 2)
	c.Resolve(context.Background(), 1, 1)
	assert.Equal(t, int32(3), loc.calls.Load())
	assert.Equal(t, 1, c.Stats().Size)
}

func TestCacheSingleCallPerKey(t *testing.T) {
	loc := &countingLocator{fn: dallas}
	c := NewCache(loc, fastConfig(), zerolog.Nop())

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Resolve(context.Background(), 40.7128, -74.006)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), loc.calls.Load())
}

func TestCacheMinDelay(t *testing.T) {
	loc := &countingLocator{fn: dallas}
	cfg := fastConfig()
	cfg.MinDelay = 30 * time.Millisecond
	c := NewCache(loc, cfg, zerolog.Nop())

	start := time.Now()
	for i := range 3 {
		c.Resolve(context.Background(), float64(i), 0)
	}
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}
