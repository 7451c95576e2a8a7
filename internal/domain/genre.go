package domain

// Genre is a user-defined label with a display color. Books reference genres by id.
type Genre struct {
	Document
	Name  string `json:"name"`
	Color string `json:"color"` // "#RRGGBB"
}

// Series groups books in reading order.
type Series struct {
	Document
	Name       string `json:"name"`
	TotalBooks *int   `json:"total_books,omitempty"` // expected number of books, if known
}
