package comparison

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
)

var (
	ErrFull           = errors.New("comparison list is full")
	ErrAlreadyListed  = errors.New("product already in comparison")
	ErrInvalidProduct = errors.New("invalid product id")
)

// TokenForgetter is implemented by *apiclient.Client.
type TokenForgetter interface {
	ForgetScopedToken(ctx context.Context, visitorID string, scope apiclient.Scope) error
}

type Service struct {
	client apiclient.Doer
	tokens TokenForgetter
}

func NewService(client apiclient.Doer, tokens TokenForgetter) *Service {
	return &Service{client: client, tokens: tokens}
}

var comparisonScope = []apiclient.Scope{apiclient.ScopeComparison}

func (s *Service) Get(ctx context.Context, visitorID string) (List, error) {
	var out List
	err := s.client.Do(ctx, visitorID, apiclient.Request{Endpoint: "/comparison", Scopes: comparisonScope}, &out)
	return out, err
}

// Add puts productID on the list. The size limit is checked against the
// current list before the backend is asked.
func (s *Service) Add(ctx context.Context, visitorID string, productID int) (List, error) {
	if productID <= 0 {
		return List{}, ErrInvalidProduct
	}
	cur, err := s.Get(ctx, visitorID)
	if err != nil {
		return List{}, err
	}
	for _, it := range cur.Items {
		if it.ProductID == productID {
			return cur, ErrAlreadyListed
		}
	}
	if len(cur.Items) >= MaxItems {
		return cur, ErrFull
	}

	var out List
	err = s.client.Do(ctx, visitorID, apiclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/comparison/items",
		Body:     map[string]int{"product_id": productID},
		Scopes:   comparisonScope,
	}, &out)
	return out, err
}

func (s *Service) Remove(ctx context.Context, visitorID string, itemID int) (List, error) {
	var out List
	err := s.client.Do(ctx, visitorID, apiclient.Request{
		Method:   http.MethodDelete,
		Endpoint: "/comparison/items/" + strconv.Itoa(itemID),
		Scopes:   comparisonScope,
	}, &out)
	return out, err
}

// Clear empties the list and drops the comparison token, so the next Add
// starts a fresh one.
func (s *Service) Clear(ctx context.Context, visitorID string) error {
	err := s.client.Do(ctx, visitorID, apiclient.Request{
		Method:   http.MethodDelete,
		Endpoint: "/comparison",
		Scopes:   comparisonScope,
	}, nil)
	if err != nil {
		return err
	}
	if s.tokens == nil {
		return nil
	}
	return s.tokens.ForgetScopedToken(ctx, visitorID, apiclient.ScopeComparison)
}
