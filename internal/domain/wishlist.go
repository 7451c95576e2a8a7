package domain

// Priority ranks a wishlist item. Empty means none.
type Priority string

// Wishlist priorities.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities high to low, with no priority last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// WishlistItem is a book the user wants but does not own yet.
type WishlistItem struct {
	Document
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	ISBN          string   `json:"isbn,omitempty"`
	CoverImageURL string   `json:"cover_image_url,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	PageCount     *int     `json:"page_count,omitempty"`
	Priority      Priority `json:"priority,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}
