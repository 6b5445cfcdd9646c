package category

// Category is a catalog section as the backend lists it.
type Category struct {
	ID       int        `json:"id"`
	Slug     string     `json:"slug"`
	Name     string     `json:"name"`
	Image    *string    `json:"image,omitempty"`
	Children []Category `json:"children,omitempty"`
}
