package favorite

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
)

var (
	ErrAlreadyFavorite = errors.New("product already in favorites")
	ErrNotFavorite     = errors.New("product not in favorites")
)

// Service keeps the wishlist on the backend. Guests are identified by the
// guest scoped token, so favorites work before login.
type Service struct {
	client apiclient.Doer
}

func NewService(client apiclient.Doer) *Service {
	return &Service{client: client}
}

var guestScope = []apiclient.Scope{apiclient.ScopeGuest}

func (s *Service) GetFavorites(ctx context.Context, visitorID string) ([]Favorite, error) {
	var favs []Favorite
	err := s.client.Do(ctx, visitorID, apiclient.Request{Endpoint: "/favorites", Scopes: guestScope}, &favs)
	return favs, err
}

func (s *Service) AddFavorite(ctx context.Context, visitorID string, productID int) ([]Favorite, error) {
	var favs []Favorite
	err := s.client.Do(ctx, visitorID, apiclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/favorites",
		Body:     map[string]int{"product_id": productID},
		Scopes:   guestScope,
	}, &favs)
	if status(err) == http.StatusConflict {
		return nil, ErrAlreadyFavorite
	}
	return favs, err
}

func (s *Service) RemoveFavorite(ctx context.Context, visitorID string, productID int) ([]Favorite, error) {
	var favs []Favorite
	err := s.client.Do(ctx, visitorID, apiclient.Request{
		Method:   http.MethodDelete,
		Endpoint: "/favorites/" + strconv.Itoa(productID),
		Scopes:   guestScope,
	}, &favs)
	if errors.Is(err, apiclient.ErrNotFound) {
		return nil, ErrNotFavorite
	}
	return favs, err
}

func status(err error) int {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
