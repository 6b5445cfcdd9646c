package address

import (
	"context"
	"net/http"
	"strconv"

	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
)

// Service manages the logged-in user's address book on the backend.
type Service struct {
	client apiclient.Doer
}

func NewService(client apiclient.Doer) *Service {
	return &Service{client: client}
}

func (s *Service) List(ctx context.Context, visitorID string) ([]SavedAddress, error) {
	var out []SavedAddress
	err := s.client.Do(ctx, visitorID, apiclient.Request{Endpoint: "/account/addresses"}, &out)
	return out, err
}

// Add validates a locally before sending it.
func (s *Service) Add(ctx context.Context, visitorID, label string, a Address, isDefault bool) (SavedAddress, error) {
	if errs := ValidateAs("address", a); len(errs) > 0 {
		return SavedAddress{}, apiclient.NewValidationError("invalid address", errs)
	}
	var out SavedAddress
	err := s.client.Do(ctx, visitorID, apiclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/account/addresses",
		Body:     SavedAddress{Label: label, IsDefault: isDefault, Address: a},
	}, &out)
	return out, err
}

func (s *Service) Delete(ctx context.Context, visitorID string, id int) error {
	return s.client.Do(ctx, visitorID, apiclient.Request{
		Method:   http.MethodDelete,
		Endpoint: "/account/addresses/" + strconv.Itoa(id),
	}, nil)
}
