package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
	"github.com/wichananm65/pet-shop-storefront/internal/cache"
)

func newProvider(t *testing.T) *Provider {
	log, _ := test.NewNullLogger()
	client, err := apiclient.New(apiclient.Config{BaseURL: "http://backend.invalid", Timeout: time.Second}, cache.NewMemoryCache(), log)
	require.NoError(t, err)
	return NewProvider(client)
}

func TestCartToken_Idempotent(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	first, err := p.CartToken(ctx, "v1")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := p.CartToken(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := p.CartToken(ctx, "v2")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestCartToken_ConcurrentFirstUse(t *testing.T) {
	p := newProvider(t)

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], _ = p.CartToken(context.Background(), "v1")
		}(i)
	}
	wg.Wait()

	for _, tok := range tokens {
		assert.Equal(t, tokens[0], tok)
	}
}

func TestClearCartToken_NotifiesAndRotates(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	var changed []string
	p.OnCartChanged(func(_ context.Context, visitorID string) { changed = append(changed, visitorID) })

	before, err := p.CartToken(ctx, "v1")
	require.NoError(t, err)
	require.NoError(t, p.ClearCartToken(ctx, "v1"))
	after, err := p.CartToken(ctx, "v1")
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
	assert.Equal(t, []string{"v1"}, changed)
}
