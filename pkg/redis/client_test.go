package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/nexus-commerce/pkg/config"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestKeysAreNamespaced(t *testing.T) {
	client, _ := setupTestRedis(t)
	assert.Equal(t, "nx:idempotency:checkout:abc", client.IdempotencyKey("checkout", "abc"))
	assert.Equal(t, "nx:lock:cron", client.LockKey(" cron "))
}

func TestSetNXAndTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, err := client.SetNX(ctx, "nx:test", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, "nx:test", "2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	_, err = client.Get(ctx, "nx:test")
	assert.True(t, errors.Is(err, ErrNil))
}

func TestReleaseIfOwner(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "nx:lock:cron", "owner-a", time.Minute))

	removed, err := client.ReleaseIfOwner(ctx, "nx:lock:cron", "owner-b")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.True(t, mr.Exists("nx:lock:cron"))

	removed, err = client.ReleaseIfOwner(ctx, "nx:lock:cron", "owner-a")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, mr.Exists("nx:lock:cron"))
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:pw@cache:6380/2", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
}
