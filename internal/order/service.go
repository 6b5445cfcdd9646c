package order

import (
	"context"
	"strconv"

	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
)

type Service struct {
	client apiclient.Doer
}

func NewService(client apiclient.Doer) *Service {
	return &Service{client: client}
}

// List returns the logged-in user's orders.
func (s *Service) List(ctx context.Context, visitorID string) ([]Order, error) {
	var out []Order
	err := s.client.Do(ctx, visitorID, apiclient.Request{Endpoint: "/orders"}, &out)
	return out, err
}

// Get fetches one order. The guest token lets a visitor who checked out
// without an account see their confirmation.
func (s *Service) Get(ctx context.Context, visitorID string, id int64) (Order, error) {
	var out Order
	err := s.client.Do(ctx, visitorID, apiclient.Request{
		Endpoint: "/orders/" + strconv.FormatInt(id, 10),
		Scopes:   []apiclient.Scope{apiclient.ScopeGuest},
	}, &out)
	return out, err
}
