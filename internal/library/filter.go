package library

import (
	"slices"
	"strings"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/normalize"
)

// Criteria narrows a book list. Every non-empty criterion must hold; within a
// multi-valued criterion any value may match. The zero value matches everything.
type Criteria struct {
	Statuses  []domain.Status
	GenreIDs  []string
	SeriesIDs []string
	// MinRating of 0 means unconstrained. Unrated books never meet a threshold.
	MinRating int
	// Author is compared case-insensitively against the whole author field.
	Author string
	// Search is a case-insensitive substring of title or author.
	Search string
}

// IsZero reports whether c imposes no constraint.
func (c Criteria) IsZero() bool {
	return len(c.Statuses) == 0 && len(c.GenreIDs) == 0 && len(c.SeriesIDs) == 0 &&
		c.MinRating <= 0 && strings.TrimSpace(c.Author) == "" && strings.TrimSpace(c.Search) == ""
}

// Filter returns the books matching c in input order. The input slice is not modified.
func Filter(books []*domain.Book, c Criteria) []*domain.Book {
	if c.IsZero() {
		return slices.Clone(books)
	}
	out := make([]*domain.Book, 0, len(books))
	for _, b := range books {
		if Matches(b, c) {
			out = append(out, b)
		}
	}
	return out
}

// Matches reports whether a single book satisfies c.
func Matches(b *domain.Book, c Criteria) bool {
	return matchStatus(b, c.Statuses) &&
		matchGenres(b, c.GenreIDs) &&
		matchSeries(b, c.SeriesIDs) &&
		matchRating(b, c.MinRating) &&
		matchAuthor(b, c.Author) &&
		matchSearch(b, c.Search)
}

func matchStatus(b *domain.Book, statuses []domain.Status) bool {
	return len(statuses) == 0 || slices.Contains(statuses, DeriveStatus(b))
}

func matchGenres(b *domain.Book, genreIDs []string) bool {
	if len(genreIDs) == 0 {
		return true
	}
	return slices.ContainsFunc(b.GenreIDs, func(gid string) bool {
		return slices.Contains(genreIDs, gid)
	})
}

func matchSeries(b *domain.Book, seriesIDs []string) bool {
	if len(seriesIDs) == 0 {
		return true
	}
	return b.SeriesID != "" && slices.Contains(seriesIDs, b.SeriesID)
}

func matchRating(b *domain.Book, minRating int) bool {
	if minRating <= 0 {
		return true
	}
	return b.Rating != nil && *b.Rating >= minRating
}

func matchAuthor(b *domain.Book, author string) bool {
	author = strings.TrimSpace(author)
	return author == "" || strings.EqualFold(strings.TrimSpace(b.Author), author)
}

func matchSearch(b *domain.Book, q string) bool {
	q = strings.TrimSpace(q)
	if q == "" {
		return true
	}
	return normalize.ContainsFold(b.Title, q) || normalize.ContainsFold(b.Author, q)
}
