// Package library holds the in-memory operations run over a snapshot of a
// user's books: status derivation, filtering, facet counts and sorting.
// Nothing here performs I/O.
package library

import "github.com/bookshelfapp/bookshelf-server/internal/domain"

// DeriveStatus computes a book's status from the last element of Reads.
// Reads are taken in stored order; the last entry is the current attempt even
// if its dates are earlier than a previous one.
func DeriveStatus(b *domain.Book) domain.Status {
	if b == nil || len(b.Reads) == 0 {
		return domain.StatusWantToRead
	}
	last := b.Reads[len(b.Reads)-1]
	switch {
	case last.FinishedAt != nil:
		return domain.StatusFinished
	case last.StartedAt != nil:
		return domain.StatusReading
	default:
		return domain.StatusWantToRead
	}
}

// Active returns the books that are not in the bin, in input order.
func Active(books []*domain.Book) []*domain.Book {
	out := make([]*domain.Book, 0, len(books))
	for _, b := range books {
		if !b.InBin() {
			out = append(out, b)
		}
	}
	return out
}

// Binned returns only the soft-deleted books, in input order.
func Binned(books []*domain.Book) []*domain.Book {
	var out []*domain.Book
	for _, b := range books {
		if b.InBin() {
			out = append(out, b)
		}
	}
	return out
}
