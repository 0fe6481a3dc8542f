package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLocatorPersists(t *testing.T) {
	mr, rdb := newRedis(t)
	next := &countingLocator{fn: dallas}
	loc := NewRedisLocator(next, rdb, time.Hour, zerolog.Nop())
	ctx := context.Background()

	addr, err := loc.Reverse(ctx, 32.777, -96.797)
	require.NoError(t, err)
	assert.Equal(t, "Dallas", addr["city"])

	key := redisKey(32.777, -96.797)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	addr, err = loc.Reverse(ctx, 32.777, -96.797)
	require.NoError(t, err)
	assert.Equal(t, "Texas", addr["state"])
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestRedisLocatorDoesNotPersistFailures(t *testing.T) {
	mr, rdb := newRedis(t)
	next := &countingLocator{fn: func(context.Context, float64, float64) (Address, error) {
		return nil, errors.New("boom")
	}}
	loc := NewRedisLocator(next, rdb, time.Hour, zerolog.Nop())

	_, err := loc.Reverse(context.Background(), 1, 2)
	assert.Error(t, err)
	assert.False(t, mr.Exists(redisKey(1, 2)))
}

func TestRedisLocatorCorruptEntry(t *testing.T) {
	mr, rdb := newRedis(t)
	require.NoError(t, mr.Set(redisKey(1, 2), "not json"))

	next := &countingLocator{fn: dallas}
	addr, err := NewRedisLocator(next, rdb, 0, zerolog.Nop()).Reverse(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Dallas", addr["city"])
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestRedisLocatorRedisDown(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()

	next := &countingLocator{fn: dallas}
	addr, err := NewRedisLocator(next, rdb, time.Hour, zerolog.Nop()).Reverse(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Dallas", addr["city"])
}
