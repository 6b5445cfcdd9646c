package blog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/pet-shop-storefront/internal/apiclient/apiclienttest"
	"github.com/wichananm65/pet-shop-storefront/internal/cache"
)

func TestList_CachedInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	store := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	fake := apiclienttest.New().On("GET", "/blog/posts", apiclienttest.Reply(Page{
		Data:        []Post{{ID: 1, Slug: "first-week-with-a-kitten", Title: "Your first week with a kitten"}},
		CurrentPage: 2,
		LastPage:    3,
	}))
	svc := NewService(fake, store, time.Minute)
	ctx := context.Background()

	page, err := svc.List(ctx, "v1", 2)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	again, err := svc.List(ctx, "v2", 2)
	require.NoError(t, err)
	assert.Equal(t, page, again)
	assert.Equal(t, 1, fake.Count("GET", "/blog/posts"))

	call, _ := fake.Last("GET", "/blog/posts")
	assert.Equal(t, "2", call.Request.Query.Get("page"))

	mr.FastForward(2 * time.Minute)
	_, err = svc.List(ctx, "v1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Count("GET", "/blog/posts"))
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(apiclienttest.New(), cache.NewMemoryCache(), time.Minute)
	_, err := svc.Get(context.Background(), "v1", "missing")
	assert.Error(t, err)
}
