package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/precog/precog-cli/internal/cache"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := cache.NewRedisStore(rdb, ttl)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore_PutAndGet(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, cache.DefaultTTL)
	key := cache.Key("accounts", "https://api.precog.io", "a@b.c")

	s.Put(ctx, key, []account{{AccountID: "1", Email: "a@b.c"}})
	assert.True(t, mr.Exists("precog-cli:"+key))
	assert.Equal(t, cache.DefaultTTL, mr.TTL("precog-cli:"+key))

	var got []account
	require.True(t, s.Get(ctx, key, &got))
	assert.Equal(t, []account{{AccountID: "1", Email: "a@b.c"}}, got)
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, time.Minute)
	key := cache.Key("accounts", "h", "x")

	s.Put(ctx, key, []string{"a"})
	mr.FastForward(2 * time.Minute)

	var got []string
	assert.False(t, s.Get(ctx, key, &got))
}

func TestRedisStore_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, cache.DefaultTTL)
	require.NoError(t, mr.Set("unrelated", "x"))

	k1 := cache.Key("accounts", "h", "a")
	k2 := cache.Key("accounts", "h", "b")
	s.Put(ctx, k1, []string{"a"})
	s.Put(ctx, k2, []string{"b"})

	s.Delete(ctx, k1)
	var got []string
	assert.False(t, s.Get(ctx, k1, &got))
	assert.True(t, s.Get(ctx, k2, &got))

	require.NoError(t, s.Clear(ctx))
	assert.False(t, mr.Exists("precog-cli:"+k2))
	assert.True(t, mr.Exists("unrelated"))

	// Clearing an empty store is a no-op.
	require.NoError(t, s.Clear(ctx))
}

func TestRedisStore_ServerDown(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	s := cache.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), cache.DefaultTTL)
	t.Cleanup(func() { _ = s.Close() })
	mr.Close()

	key := cache.Key("accounts", "h", "x")
	s.Put(ctx, key, []string{"a"})
	var got []string
	assert.False(t, s.Get(ctx, key, &got))
	assert.Error(t, s.Clear(ctx))
}

func TestRedisStore_Disabled(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, cache.DefaultTTL)
	t.Setenv(cache.EnvDisable, "1")

	key := cache.Key("accounts", "h", "x")
	s.Put(ctx, key, []string{"a"})
	assert.False(t, mr.Exists("precog-cli:"+key))
}
