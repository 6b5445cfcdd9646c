package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, c.Set(ctx, "b", "2", 0))

	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)

	v, err = c.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	require.NoError(t, c.Delete(ctx, "b"))
	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRemember(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	loads := 0
	load := func(out *[]string) func(context.Context) error {
		return func(context.Context) error {
			loads++
			*out = []string{"dog", "cat"}
			return nil
		}
	}

	var first, second []string
	require.NoError(t, Remember(ctx, c, "categories", time.Minute, &first, load(&first)))
	require.NoError(t, Remember(ctx, c, "categories", time.Minute, &second, load(&second)))
	assert.Equal(t, []string{"dog", "cat"}, second)
	assert.Equal(t, 1, loads)

	var uncached []string
	require.NoError(t, Remember(ctx, c, "other", 0, &uncached, load(&uncached)))
	require.NoError(t, Remember(ctx, c, "other", 0, &uncached, load(&uncached)))
	assert.Equal(t, 3, loads)
}

func TestMemoryCache_SetIfAbsentAndTouch(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	wrote, err := c.SetIfAbsent(ctx, "tok", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, wrote)
	wrote, err = c.SetIfAbsent(ctx, "tok", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, wrote)
	v, _ := c.Get(ctx, "tok")
	assert.Equal(t, "first", v)

	now = now.Add(50 * time.Second)
	require.NoError(t, c.Touch(ctx, "tok", time.Minute))
	now = now.Add(50 * time.Second)
	v, err = c.Get(ctx, "tok")
	require.NoError(t, err, "touch pushed the expiry out")
	assert.Equal(t, "first", v)

	now = now.Add(time.Minute)
	assert.ErrorIs(t, c.Touch(ctx, "tok", time.Minute), ErrCacheMiss)
	wrote, err = c.SetIfAbsent(ctx, "tok", "third", time.Minute)
	require.NoError(t, err)
	assert.True(t, wrote, "an expired entry counts as absent")
}
