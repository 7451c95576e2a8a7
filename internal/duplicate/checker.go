package duplicate

import (
	"context"
	"fmt"
	"strings"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// CandidateLimit caps how many books the title/author check compares against.
const CandidateLimit = 200

// Result is the outcome of a duplicate check.
type Result struct {
	IsDuplicate bool         `json:"is_duplicate"`
	MatchType   MatchType    `json:"match_type,omitempty"`
	Existing    *domain.Book `json:"existing_book,omitempty"`
}

// Checker looks for an owned book matching a candidate.
type Checker struct {
	store store.DocumentStore
	limit int
}

// NewChecker creates a checker over s.
func NewChecker(s store.DocumentStore) *Checker {
	return &Checker{store: s, limit: CandidateLimit}
}

// Check runs the ISBN query when an ISBN is given and returns on a hit. Only
// if that finds nothing does it compare normalized title and author against
// the most recently added books. The check is best effort: books beyond the
// candidate window are not considered.
func (c *Checker) Check(ctx context.Context, userID, isbn, title, author string) (Result, error) {
	if strings.TrimSpace(isbn) != "" {
		books, err := store.ListAs[domain.Book](ctx, c.store, userID, domain.CollectionBooks, store.Query{
			Where: []store.Filter{store.Eq("isbn", CleanISBN(isbn))},
			Limit: 1,
		})
		if err != nil {
			return Result{}, fmt.Errorf("isbn duplicate query: %w", err)
		}
		if len(books) > 0 {
			return Result{IsDuplicate: true, MatchType: MatchISBN, Existing: books[0]}, nil
		}
	}

	key := TitleAuthorKey(title, author)
	if key == "" {
		return Result{}, nil
	}

	candidates, err := store.ListAs[domain.Book](ctx, c.store, userID, domain.CollectionBooks, store.Query{
		OrderBy: "created_at",
		Desc:    true,
		Limit:   c.limit,
	})
	if err != nil {
		return Result{}, fmt.Errorf("title duplicate query: %w", err)
	}
	for _, b := range candidates {
		if TitleAuthorKey(b.Title, b.Author) == key {
			return Result{IsDuplicate: true, MatchType: MatchTitleAuthor, Existing: b}, nil
		}
	}
	return Result{}, nil
}
