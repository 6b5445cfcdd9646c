package user

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/pet-shop-storefront/internal/cache"
)

func TestSessions_ActivityKeepsUserLoggedIn(t *testing.T) {
	mr := miniredis.RunT(t)
	sessions := NewSessions(cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()})), 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, sessions.Remember(ctx, "v1", User{ID: 7, Email: "nok@example.com"}))

	// requests every 90 minutes, well past the original two hours
	for i := 0; i < 3; i++ {
		mr.FastForward(90 * time.Minute)
		assert.True(t, sessions.HasUser(ctx, "v1"), "request %d", i)
	}

	u, ok, err := sessions.Current(ctx, "v1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, u.ID)

	mr.FastForward(2*time.Hour + time.Second)
	assert.False(t, sessions.HasUser(ctx, "v1"), "idle past the timeout")
}

func TestSessions_Forget(t *testing.T) {
	sessions := NewSessions(cache.NewMemoryCache(), time.Hour)
	ctx := context.Background()

	require.NoError(t, sessions.Remember(ctx, "v1", User{ID: 7}))
	require.NoError(t, sessions.Forget(ctx, "v1"))
	_, ok, err := sessions.Current(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, ok)
}
