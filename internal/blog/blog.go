package blog

type Post struct {
	ID          int     `json:"id"`
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Excerpt     string  `json:"excerpt,omitempty"`
	Body        string  `json:"body,omitempty"`
	Cover       *string `json:"cover,omitempty"`
	Author      string  `json:"author,omitempty"`
	PublishedAt string  `json:"published_at"`
}

type Page struct {
	Data        []Post `json:"data"`
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
}
