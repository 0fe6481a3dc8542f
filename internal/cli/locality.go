package cli

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"merchant-recon/internal/config"
	"merchant-recon/internal/geocode"
)

// newLocator builds the shared reverse-geocode provider: Nominatim,
// optionally behind Redis. The returned func releases the Redis connection.
func newLocator(ctx context.Context, cfg config.GeocodeConfig, logger zerolog.Logger) (geocode.Locator, func(), error) {
	log := logger.With().Str("component", "geocode").Logger()

	nopts := []geocode.NominatimOption{geocode.WithLogger(log)}
	if cfg.Timeout > 0 {
		// a single attempt never outlives the per-lookup budget
		nopts = append(nopts, geocode.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	var locator geocode.Locator = geocode.NewNominatim(cfg.BaseURL, cfg.UserAgent, nopts...)

	release := func() {}
	if cfg.RedisAddr != "" {
		rdb, err := geocode.OpenRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		locator = geocode.NewRedisLocator(locator, rdb, cfg.RedisTTL, log)
		release = func() { _ = rdb.Close() }
		log.Info().Str("addr", cfg.RedisAddr).Msg("persistent geocode cache enabled")
	}
	return locator, release, nil
}

// newLocalityCache puts a run-scoped cache in front of newLocator.
func newLocalityCache(ctx context.Context, cfg config.GeocodeConfig, logger zerolog.Logger) (*geocode.Cache, func(), error) {
	locator, release, err := newLocator(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	log := logger.With().Str("component", "geocode").Logger()
	return geocode.NewCache(locator, cfg.CacheConfig(), log), release, nil
}
