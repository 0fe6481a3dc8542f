package geocode

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"merchant-recon/internal/cache"
	"merchant-recon/internal/metrics"
	"merchant-recon/internal/reconcile/model"
)

// CacheConfig tunes a reverse-geocode Cache.
type CacheConfig struct {
	Size      int           `mapstructure:"cache_size"`
	Precision int           `mapstructure:"precision"` // decimal places of the cache key
	Timeout   time.Duration `mapstructure:"timeout"`   // per provider call
	MinDelay  time.Duration `mapstructure:"min_delay"` // between provider calls
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Size:      5000,
		Precision: 3,
		Timeout:   5 * time.Second,
		MinDelay:  50 * time.Millisecond,
	}
}

type point struct{ lat, lon int64 }

// Cache sits in front of a Locator. Coordinates are rounded before lookup so
// nearby points share an entry; failed lookups are cached as empty
// localities. Provider calls are serialized and spaced by MinDelay.
type Cache struct {
	locator Locator
	cfg     CacheConfig
	scale   float64
	entries *cache.Bounded[point, model.Locality]
	limiter *rate.Limiter
	mu      sync.Mutex
	log     zerolog.Logger

	calls    atomic.Uint64
	failures atomic.Uint64
}

func NewCache(locator Locator, cfg CacheConfig, logger zerolog.Logger) *Cache {
	limit := rate.Inf
	if cfg.MinDelay > 0 {
		limit = rate.Every(cfg.MinDelay)
	}
	if cfg.Precision < 0 {
		cfg.Precision = 0
	}
	return &Cache{
		locator: locator,
		cfg:     cfg,
		scale:   math.Pow10(cfg.Precision),
		entries: cache.NewBounded[point, model.Locality](cfg.Size),
		limiter: rate.NewLimiter(limit, 1),
		log:     logger,
	}
}

// Resolve returns city and region for the point, both empty when the
// provider could not resolve it. It never fails; a cancelled ctx yields
// empty strings that are not cached.
func (c *Cache) Resolve(ctx context.Context, lat, lon float64) (city, region string) {
	if !model.ValidCoordinates(lat, lon) {
		return "", ""
	}
	k := point{lat: int64(math.Round(lat * c.scale)), lon: int64(math.Round(lon * c.scale))}
	if loc, ok := c.entries.Get(k); ok {
		metrics.GeocodeLookups.WithLabelValues("hit").Inc()
		return loc.City, loc.Region
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// resolved by another caller while we waited
	if loc, ok := c.entries.Peek(k); ok {
		metrics.GeocodeLookups.WithLabelValues("hit").Inc()
		return loc.City, loc.Region
	}

	loc, ok := c.lookup(ctx, float64(k.lat)/c.scale, float64(k.lon)/c.scale)
	if ok {
		c.entries.Set(k, loc)
	}
	return loc.City, loc.Region
}

func (c *Cache) lookup(ctx context.Context, lat, lon float64) (model.Locality, bool) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.Locality{}, false
	}

	callCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	c.calls.Add(1)
	start := time.Now()
	addr, err := c.locator.Reverse(callCtx, lat, lon)
	metrics.GeocodeLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return model.Locality{}, false
		}
		c.failures.Add(1)
		metrics.GeocodeLookups.WithLabelValues("failure").Inc()
		c.log.Debug().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("reverse geocode failed")
		return model.Locality{}, true
	}

	metrics.GeocodeLookups.WithLabelValues("miss").Inc()
	city, region := LocalityOf(addr)
	return model.Locality{City: city, Region: region}, true
}

// CacheStats extends the entry counters with provider call counts.
type CacheStats struct {
	cache.Stats
	Calls    uint64
	Failures uint64
}

func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Stats:    c.entries.Stats(),
		Calls:    c.calls.Load(),
		Failures: c.failures.Load(),
	}
}
