package product

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
	"github.com/wichananm65/pet-shop-storefront/internal/cache"
)

var ErrInvalidSort = errors.New("invalid sort")

type Service struct {
	client apiclient.Doer
	cache  cache.Cache
	ttl    time.Duration
}

// NewService reads the catalog through client. Listings and details are
// shared between visitors and kept in store for ttl.
func NewService(client apiclient.Doer, store cache.Cache, ttl time.Duration) *Service {
	return &Service{client: client, cache: store, ttl: ttl}
}

func (s *Service) List(ctx context.Context, visitorID string, q Query) (Page, error) {
	if q.Sort != "" && !slices.Contains(AllowedSorts, q.Sort) {
		return Page{}, ErrInvalidSort
	}
	values := q.values()

	var page Page
	err := cache.Remember(ctx, s.cache, "products:"+values.Encode(), s.ttl, &page, func(ctx context.Context) error {
		return s.client.Do(ctx, visitorID, apiclient.Request{Endpoint: "/products", Query: values}, &page)
	})
	return page, err
}

func (s *Service) GetBySlug(ctx context.Context, visitorID, slug string) (Product, error) {
	var p Product
	err := cache.Remember(ctx, s.cache, "product:"+slug, s.ttl, &p, func(ctx context.Context) error {
		return s.client.Do(ctx, visitorID, apiclient.Request{Endpoint: "/products/" + url.PathEscape(slug)}, &p)
	})
	return p, err
}

// Recommended returns a slice of the backend's recommendation feed, paged by
// limit and offset.
func (s *Service) Recommended(ctx context.Context, visitorID string, limit, offset int) ([]Product, error) {
	if limit <= 0 {
		limit = 12
	}
	if offset < 0 {
		offset = 0
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}, "offset": {strconv.Itoa(offset)}}

	var items []Product
	err := cache.Remember(ctx, s.cache, "products:recommended:"+q.Encode(), s.ttl, &items, func(ctx context.Context) error {
		return s.client.Do(ctx, visitorID, apiclient.Request{Endpoint: "/products/recommended", Query: q}, &items)
	})
	return items, err
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}
