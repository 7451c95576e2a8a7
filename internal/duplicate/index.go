package duplicate

import (
	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/normalize"
)

// MatchType says which rule found a duplicate.
type MatchType string

// Match types. MatchNone is the empty string.
const (
	MatchNone        MatchType = ""
	MatchISBN        MatchType = "isbn"
	MatchTitleAuthor MatchType = "title-author"
)

// TitleAuthorKey is the normalized identity of a title and author pair.
// It is empty when the title is blank, since a blank title identifies nothing.
func TitleAuthorKey(title, author string) string {
	t := normalize.Key(title)
	if t == "" {
		return ""
	}
	return t + "\x00" + normalize.Key(author)
}

// Index is an in-memory set of owned ISBNs and title/author keys, used where
// many candidates are checked against one snapshot (import, wishlist moves).
type Index struct {
	isbns  map[string]struct{}
	titles map[string]struct{}
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		isbns:  make(map[string]struct{}),
		titles: make(map[string]struct{}),
	}
}

// IndexBooks builds an index over books, bin included.
func IndexBooks(books []*domain.Book) *Index {
	ix := NewIndex()
	for _, b := range books {
		ix.Add(b.ISBN, b.Title, b.Author)
	}
	return ix
}

// IndexWishlist builds an index over wishlist items.
func IndexWishlist(items []*domain.WishlistItem) *Index {
	ix := NewIndex()
	for _, w := range items {
		ix.Add(w.ISBN, w.Title, w.Author)
	}
	return ix
}

// Add records an entry's keys.
func (ix *Index) Add(isbn, title, author string) {
	if clean := CleanISBN(isbn); clean != "" {
		ix.isbns[clean] = struct{}{}
	}
	if key := TitleAuthorKey(title, author); key != "" {
		ix.titles[key] = struct{}{}
	}
}

// Merge adds every key of other to ix.
func (ix *Index) Merge(other *Index) {
	for k := range other.isbns {
		ix.isbns[k] = struct{}{}
	}
	for k := range other.titles {
		ix.titles[k] = struct{}{}
	}
}

// Match returns how an entry matches the index, ISBN first.
func (ix *Index) Match(isbn, title, author string) MatchType {
	if clean := CleanISBN(isbn); clean != "" {
		if _, ok := ix.isbns[clean]; ok {
			return MatchISBN
		}
	}
	if key := TitleAuthorKey(title, author); key != "" {
		if _, ok := ix.titles[key]; ok {
			return MatchTitleAuthor
		}
	}
	return MatchNone
}

// Contains reports whether the entry matches by either rule.
func (ix *Index) Contains(isbn, title, author string) bool {
	return ix.Match(isbn, title, author) != MatchNone
}
