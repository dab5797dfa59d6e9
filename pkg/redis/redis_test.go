package redis

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/kodi/pkg/models"
)

var silent = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

// newTestClient connects to the Redis named by KODI_TEST_REDIS_HOST / KODI_TEST_REDIS_PORT.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	host := os.Getenv("KODI_TEST_REDIS_HOST")
	if host == "" {
		t.Skip("KODI_TEST_REDIS_HOST not set")
	}
	port := 6379
	if raw := os.Getenv("KODI_TEST_REDIS_PORT"); raw != "" {
		p, err := strconv.Atoi(raw)
		require.NoError(t, err)
		port = p
	}

	client, err := NewClient(Config{Host: host, Port: port}, silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestEstimateCache_EntryKey(t *testing.T) {
	cache := NewEstimateCache(nil, "", time.Minute)
	assert.Equal(t, "kodi:estimate:3:DAK_LEK|nl|12|m2|2017|false", cache.entryKey(3, "DAK_LEK|nl|12|m2|2017|false"))
}

func TestEstimateCache_UnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	client := NewFromRedis(rdb, silent)
	t.Cleanup(func() { _ = client.Close() })

	cache := NewEstimateCache(client, "", time.Minute)
	_, slot, hit, err := cache.Get(context.Background(), "key")
	require.Error(t, err)
	assert.False(t, hit)
	assert.Empty(t, slot)
	assert.Error(t, client.Ping(context.Background()))
}

func TestEstimateCache_InvalidateOrphansEntries(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	cache := NewEstimateCache(client, "kodi-test:"+uuid.NewString()+":", time.Minute)

	_, slot, hit, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)

	estimate := &models.Estimate{DamageCode: "DAK_LEK", PriceYear: 2017, Size: decimal.NewFromInt(12)}
	require.NoError(t, cache.Set(ctx, slot, estimate))

	cached, _, hit, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "DAK_LEK", cached.DamageCode)
	assert.True(t, cached.Size.Equal(decimal.NewFromInt(12)))

	require.NoError(t, cache.Invalidate(ctx))
	_, _, hit, err = cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestEstimateCache_SetAfterInvalidateIsNotServed(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	cache := NewEstimateCache(client, "kodi-test:"+uuid.NewString()+":", time.Minute)

	_, slot, hit, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	require.False(t, hit)
	require.NotEmpty(t, slot)

	// The catalog changes while the estimate is being computed.
	require.NoError(t, cache.Invalidate(ctx))
	require.NoError(t, cache.Set(ctx, slot, &models.Estimate{DamageCode: "DAK_LEK"}))

	_, fresh, hit, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotEqual(t, slot, fresh)
}

func TestLocker_ExcludesSecondHolder(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	locker := NewLocker(client, "kodi-test:"+uuid.NewString()+":", 0)

	err := locker.WithLock(ctx, "normalizer", time.Second, func(context.Context) error {
		_, err := locker.Acquire(ctx, "normalizer", time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		return nil
	})
	require.NoError(t, err)

	lock, err := locker.Acquire(ctx, "normalizer", time.Second)
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))
	assert.ErrorIs(t, lock.Release(ctx), ErrLockNotHeld)
}

func TestLocker_LostLockCancelsWork(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	prefix := "kodi-test:" + uuid.NewString() + ":"
	locker := NewLocker(client, prefix, 0)

	err := locker.WithLock(ctx, "normalizer", 200*time.Millisecond, func(ctx context.Context) error {
		require.NoError(t, client.Redis().Del(context.Background(), prefix+"normalizer").Err())
		select {
		case <-ctx.Done():
			assert.ErrorIs(t, context.Cause(ctx), ErrLockNotHeld)
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return errors.New("work was not cancelled")
		}
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockNotHeld)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeepAlive(t *testing.T) {
	t.Run("lost lock cancels with cause", func(t *testing.T) {
		ctx, cancel := context.WithCancelCause(context.Background())
		defer cancel(nil)

		var reported []error
		keepAlive(ctx, time.Millisecond, func(context.Context) error {
			return ErrLockNotHeld
		}, cancel, func(err error) { reported = append(reported, err) })

		assert.ErrorIs(t, context.Cause(ctx), ErrLockNotHeld)
		require.Len(t, reported, 1)
	})

	t.Run("transient failures keep extending", func(t *testing.T) {
		ctx, cancel := context.WithCancelCause(context.Background())
		defer cancel(nil)

		calls := 0
		keepAlive(ctx, time.Millisecond, func(ctx context.Context) error {
			if ctx.Err() != nil {
				return nil
			}
			calls++
			if calls == 3 {
				cancel(nil)
				return nil
			}
			return errors.New("connection reset")
		}, cancel, func(error) {})

		assert.Equal(t, 3, calls)
		assert.ErrorIs(t, context.Cause(ctx), context.Canceled)
	})
}
