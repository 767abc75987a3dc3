package redis

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"campus-ledger/config"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return s, client
}

func TestRedisAddr(t *testing.T) {
	cfg := config.RedisConfig{Host: "redis.example.com", Port: 6380}
	assert.Equal(t, "redis.example.com:6380", cfg.Addr())
}

func TestNewClient(t *testing.T) {
	s := miniredis.RunT(t)
	cfg := config.RedisConfig{Host: s.Host(), Port: mustPort(t, s)}

	client, err := NewClient(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	h := NewHealthCheck(client)
	assert.Equal(t, "redis", h.Name())
	assert.NoError(t, h.Ping(context.Background()))
}

func TestNewClient_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	cfg := config.RedisConfig{Host: s.Host(), Port: mustPort(t, s)}
	s.Close()

	client, err := NewClient(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
	require.NotNil(t, client, "caller keeps a client and runs degraded")
	client.Close()
}

func mustPort(t *testing.T, s *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)
	return port
}

func TestCache_GetSetDelete(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	got, err := cache.Get(ctx, "wallet:balance:abc")
	require.NoError(t, err)
	assert.Nil(t, got, "miss is nil, nil")

	require.NoError(t, cache.Set(ctx, "wallet:balance:abc", []byte("42"), time.Minute))
	got, err = cache.Get(ctx, "wallet:balance:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("42"), got)

	require.NoError(t, cache.Delete(ctx, "wallet:balance:abc"))
	got, err = cache.Get(ctx, "wallet:balance:abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_TTLExpiry(t *testing.T) {
	s, client := newTestClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "rewards:events", []byte("[]"), time.Second))
	s.FastForward(2 * time.Second)

	got, err := cache.Get(ctx, "rewards:events")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_DeletePattern(t *testing.T) {
	s, client := newTestClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("products:feed:%d", i), "x"))
	}
	require.NoError(t, s.Set("orders:u1:buyer", "x"))

	require.NoError(t, cache.DeletePattern(ctx, "products:feed:*"))

	assert.Equal(t, []string{"orders:u1:buyer"}, s.Keys())
}

func TestCache_ErrorsWhenDown(t *testing.T) {
	s, client := newTestClient(t)
	cache := NewCache(client)
	s.Close()

	_, err := cache.Get(context.Background(), "k")
	assert.Error(t, err)
}
