package cart

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
)

var ErrInvalidQuantity = errors.New("quantity must be positive")

// Service proxies the backend cart. Every successful change is announced
// through the provider.
type Service struct {
	client   apiclient.Doer
	provider *Provider
}

func NewService(client apiclient.Doer, provider *Provider) *Service {
	return &Service{client: client, provider: provider}
}

var cartScope = []apiclient.Scope{apiclient.ScopeCart}

func (s *Service) Get(ctx context.Context, visitorID string) (Cart, error) {
	var out Cart
	err := s.client.Do(ctx, visitorID, apiclient.Request{Endpoint: "/cart", Scopes: cartScope}, &out)
	return out, err
}

func (s *Service) AddItem(ctx context.Context, visitorID string, productID, qty int) (Cart, error) {
	if qty <= 0 {
		return Cart{}, ErrInvalidQuantity
	}
	return s.mutate(ctx, visitorID, apiclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/cart/items",
		Body:     map[string]int{"product_id": productID, "quantity": qty},
	})
}

func (s *Service) UpdateItem(ctx context.Context, visitorID string, itemID, qty int) (Cart, error) {
	if qty <= 0 {
		return Cart{}, ErrInvalidQuantity
	}
	return s.mutate(ctx, visitorID, apiclient.Request{
		Method:   http.MethodPatch,
		Endpoint: "/cart/items/" + strconv.Itoa(itemID),
		Body:     map[string]int{"quantity": qty},
	})
}

func (s *Service) RemoveItem(ctx context.Context, visitorID string, itemID int) (Cart, error) {
	return s.mutate(ctx, visitorID, apiclient.Request{
		Method:   http.MethodDelete,
		Endpoint: "/cart/items/" + strconv.Itoa(itemID),
	})
}

func (s *Service) Clear(ctx context.Context, visitorID string) error {
	_, err := s.mutate(ctx, visitorID, apiclient.Request{Method: http.MethodDelete, Endpoint: "/cart"})
	return err
}

func (s *Service) mutate(ctx context.Context, visitorID string, req apiclient.Request) (Cart, error) {
	req.Scopes = cartScope
	var out Cart
	if err := s.client.Do(ctx, visitorID, req, &out); err != nil {
		return Cart{}, err
	}
	s.provider.NotifyChanged(ctx, visitorID)
	return out, nil
}
