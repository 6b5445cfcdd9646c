package blog

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
	"github.com/wichananm65/pet-shop-storefront/internal/cache"
)

type Service struct {
	client apiclient.Doer
	cache  cache.Cache
	ttl    time.Duration
}

func NewService(client apiclient.Doer, store cache.Cache, ttl time.Duration) *Service {
	return &Service{client: client, cache: store, ttl: ttl}
}

// List returns one page of posts, newest first.
func (s *Service) List(ctx context.Context, visitorID string, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{"page": {strconv.Itoa(page)}}

	var out Page
	err := cache.Remember(ctx, s.cache, "blog:page:"+strconv.Itoa(page), s.ttl, &out, func(ctx context.Context) error {
		return s.client.Do(ctx, visitorID, apiclient.Request{Endpoint: "/blog/posts", Query: q}, &out)
	})
	return out, err
}

func (s *Service) Get(ctx context.Context, visitorID, slug string) (Post, error) {
	var out Post
	err := cache.Remember(ctx, s.cache, "blog:post:"+slug, s.ttl, &out, func(ctx context.Context) error {
		return s.client.Do(ctx, visitorID, apiclient.Request{Endpoint: "/blog/posts/" + url.PathEscape(slug)}, &out)
	})
	return out, err
}
