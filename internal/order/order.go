package order

type Line struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Total     int64  `json:"total"`
}

// Order is a placed order. Amounts are in minor currency units.
type Order struct {
	ID             int64  `json:"id"`
	Number         string `json:"number"`
	Status         string `json:"status"`
	Lines          []Line `json:"lines"`
	ItemsTotal     int64  `json:"items_total"`
	ShippingTotal  int64  `json:"shipping_total"`
	GrandTotal     int64  `json:"grand_total"`
	Currency       string `json:"currency"`
	PaymentMethod  string `json:"payment_method,omitempty"`
	ShippingMethod string `json:"shipping_method,omitempty"`
	CreatedAt      string `json:"created_at"`
}
