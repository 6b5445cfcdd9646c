package comparison

// MaxItems is the most products a comparison can hold.
const MaxItems = 4

type Item struct {
	ID        int               `json:"id"`
	ProductID int               `json:"product_id"`
	Slug      string            `json:"slug"`
	Name      string            `json:"name"`
	Price     int64             `json:"price"`
	Image     *string           `json:"image,omitempty"`
	Specs     map[string]string `json:"specs,omitempty"`
}

// List is the visitor's comparison with the attribute names shown as rows.
type List struct {
	Items      []Item   `json:"items"`
	Attributes []string `json:"attributes"`
}
