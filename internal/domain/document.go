// Package domain contains the entities of a personal book library.
package domain

import "time"

// Collection names in the document store.
const (
	CollectionBooks    = "books"
	CollectionGenres   = "genres"
	CollectionSeries   = "series"
	CollectionWishlist = "wishlist"
)

// Document carries the identity and timestamps every stored entity shares.
type Document struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (d *Document) InitTimestamps() {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
}
