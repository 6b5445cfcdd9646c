package checkout

import "github.com/wichananm65/pet-shop-storefront/internal/address"

// LineItem is a cart line frozen into the session when it starts.
type LineItem struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Total     int64  `json:"total"`
}

// Pricing is recomputed by the backend after every step. Amounts are in
// minor currency units.
type Pricing struct {
	Items     int64 `json:"items"`
	Shipping  int64 `json:"shipping"`
	Discounts int64 `json:"discounts"`
	Total     int64 `json:"total"`
}

type ShippingMethod struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Carrier       string `json:"carrier,omitempty"`
	Price         int64  `json:"price"`
	EstimatedDays int    `json:"estimated_days,omitempty"`
}

type ProviderType string

const (
	ProviderOnline  ProviderType = "online"
	ProviderOffline ProviderType = "offline"
)

type PaymentProvider struct {
	Code         string       `json:"code"`
	Name         string       `json:"name"`
	Type         ProviderType `json:"type"`
	Fee          int64        `json:"fee"`
	Instructions *string      `json:"instructions,omitempty"`
}

// Addresses is what the address step submits. Billing is nil when it
// matches the shipping address.
type Addresses struct {
	Shipping              address.Address  `json:"shipping_address"`
	Billing               *address.Address `json:"billing_address"`
	BillingSameAsShipping bool             `json:"billing_same_as_shipping"`
}

// BillingAddress resolves the address to bill.
func (a Addresses) BillingAddress() address.Address {
	if a.BillingSameAsShipping || a.Billing == nil {
		return a.Shipping
	}
	return *a.Billing
}

type OrderRef struct {
	ID int64 `json:"order_id"`
}

// sessionPayload is the backend's view of a checkout session.
type sessionPayload struct {
	ID                      string           `json:"id"`
	Items                   []LineItem       `json:"items"`
	Pricing                 Pricing          `json:"pricing"`
	Addresses               *Addresses       `json:"addresses"`
	SelectedShippingMethod  *ShippingMethod  `json:"selected_shipping_method"`
	SelectedPaymentProvider *PaymentProvider `json:"selected_payment_provider"`
}
