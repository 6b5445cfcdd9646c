package category

import (
	"context"
	"time"

	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
	"github.com/wichananm65/pet-shop-storefront/internal/cache"
)

const cacheKey = "categories"

type Service struct {
	client apiclient.Doer
	cache  cache.Cache
	ttl    time.Duration
}

func NewService(client apiclient.Doer, store cache.Cache, ttl time.Duration) *Service {
	return &Service{client: client, cache: store, ttl: ttl}
}

// List returns up to limit top-level categories; limit <= 0 returns all.
func (s *Service) List(ctx context.Context, visitorID string, limit int) ([]Category, error) {
	var items []Category
	err := cache.Remember(ctx, s.cache, cacheKey, s.ttl, &items, func(ctx context.Context) error {
		return s.client.Do(ctx, visitorID, apiclient.Request{Endpoint: "/categories"}, &items)
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
