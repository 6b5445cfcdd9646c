package product

// Product is the backend's catalog entry. Prices are in minor currency units.
type Product struct {
	ID            int      `json:"id"`
	Slug          string   `json:"slug"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         int64    `json:"price"`
	SalePrice     *int64   `json:"sale_price,omitempty"`
	Score         float64  `json:"score"`
	Category      *string  `json:"category,omitempty"`
	Images        []string `json:"images,omitempty"`
	InStock       bool     `json:"in_stock"`
	StockQuantity *int     `json:"stock_quantity,omitempty"`
}

// Page is one page of a product listing.
type Page struct {
	Data        []Product `json:"data"`
	CurrentPage int       `json:"current_page"`
	LastPage    int       `json:"last_page"`
	Total       int       `json:"total"`
}

// Query filters a listing. Zero values are omitted.
type Query struct {
	Category string
	Search   string
	Sort     string
	Page     int
}

// AllowedSorts lists the orderings the backend accepts.
var AllowedSorts = []string{"newest", "price_asc", "price_desc", "popular"}
