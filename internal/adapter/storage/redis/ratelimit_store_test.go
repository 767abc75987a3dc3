package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitStore_Allow(t *testing.T) {
	_, client := newTestClient(t)
	store := NewRateLimitStore(client)
	fixed := time.Unix(1_800_000_000, 0)
	store.now = func() time.Time { return fixed }
	ctx := context.Background()

	t.Run("allows requests within limit", func(t *testing.T) {
		for i := int64(1); i <= 3; i++ {
			result, err := store.Allow(ctx, "user1", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, result.Allowed, "request %d should be allowed", i)
			assert.Equal(t, int64(3), result.Limit)
			assert.Equal(t, 3-i, result.Remaining)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		result, err := store.Allow(ctx, "user1", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, int64(0), result.Remaining)
	})

	t.Run("different keys are independent", func(t *testing.T) {
		result, err := store.Allow(ctx, "ip:10.0.0.9", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, int64(4), result.Remaining)
	})

	t.Run("next window starts fresh", func(t *testing.T) {
		store.now = func() time.Time { return fixed.Add(time.Minute) }
		result, err := store.Allow(ctx, "user1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("reset is the end of the window", func(t *testing.T) {
		store.now = func() time.Time { return fixed }
		result, err := store.Allow(ctx, "user2", 10, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, (fixed.Unix()/60+1)*60, result.ResetAt)
	})
}

func TestRateLimitStore_SetsExpiry(t *testing.T) {
	s, client := newTestClient(t)
	store := NewRateLimitStore(client)

	_, err := store.Allow(context.Background(), "user1", 10, time.Minute)
	require.NoError(t, err)

	keys := s.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, 61*time.Second, s.TTL(keys[0]))
}
