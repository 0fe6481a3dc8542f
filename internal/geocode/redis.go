package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisKeyPrefix = "recon:geocode:"

// OpenRedis connects and pings a Redis server.
func OpenRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// RedisLocator persists successful provider answers in Redis so they survive
// across runs. Redis errors are logged and fall through to the provider;
// provider failures are not persisted.
type RedisLocator struct {
	next   Locator
	client redis.Cmdable
	ttl    time.Duration
	log    zerolog.Logger
}

func NewRedisLocator(next Locator, client redis.Cmdable, ttl time.Duration, logger zerolog.Logger) *RedisLocator {
	return &RedisLocator{next: next, client: client, ttl: ttl, log: logger}
}

func redisKey(lat, lon float64) string {
	return fmt.Sprintf("%s%.6f,%.6f", redisKeyPrefix, lat, lon)
}

func (r *RedisLocator) Reverse(ctx context.Context, lat, lon float64) (Address, error) {
	key := redisKey(lat, lon)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var a Address
		if jerr := json.Unmarshal(raw, &a); jerr == nil {
			return a, nil
		}
		r.log.Warn().Str("key", key).Msg("corrupt geocode entry, refetching")
	case errors.Is(err, redis.Nil):
	default:
		r.log.Warn().Err(err).Msg("redis get")
	}

	addr, err := r.next.Reverse(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(addr); err == nil {
		if err := r.client.Set(ctx, key, b, r.ttl).Err(); err != nil {
			r.log.Warn().Err(err).Msg("redis set")
		}
	}
	return addr, nil
}
