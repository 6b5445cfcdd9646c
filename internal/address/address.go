package address

// Address is a postal address as the backend and checkout exchange it.
// Values are replaced wholesale, never edited in place.
type Address struct {
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"required,min=6,max=32"`
	Country    string `json:"country" validate:"required,iso3166_1_alpha2"`
	Region     string `json:"region" validate:"max=100"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Line1      string `json:"address_line_1" validate:"required,max=255"`
	Line2      string `json:"address_line_2,omitempty" validate:"max=255"`
}

// SavedAddress is an entry of a logged-in user's address book.
type SavedAddress struct {
	ID        int     `json:"id"`
	Label     string  `json:"label"`
	IsDefault bool    `json:"is_default"`
	Address   Address `json:"address"`
}
