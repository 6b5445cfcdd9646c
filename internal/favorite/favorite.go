package favorite

// Favorite is a product on the visitor's wishlist.
type Favorite struct {
	ProductID int     `json:"product_id"`
	Slug      string  `json:"slug"`
	Name      string  `json:"name"`
	Price     int64   `json:"price"`
	Image     *string `json:"image,omitempty"`
	AddedAt   string  `json:"added_at,omitempty"`
}
