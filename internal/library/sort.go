package library

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
)

// SortKey names a sortable field.
type SortKey string

// Sort keys.
const (
	SortTitle          SortKey = "title"
	SortAuthor         SortKey = "author"
	SortRating         SortKey = "rating"
	SortSeriesPosition SortKey = "seriesPosition"
	SortCreatedAt      SortKey = "createdAt"
)

// Direction is ascending or descending.
type Direction string

// Directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseSortKey validates a sort key; empty means title.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case "":
		return SortTitle, nil
	case SortTitle, SortAuthor, SortRating, SortSeriesPosition, SortCreatedAt:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// ParseDirection validates a direction; empty means ascending.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case "":
		return Asc, nil
	case Asc, Desc:
		return d, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// SortOptions configures Sort. A zero Locale collates as English.
type SortOptions struct {
	Key       SortKey
	Direction Direction
	Locale    language.Tag
}

// Sort returns a new slice ordered by opts; books is left untouched.
// Books missing a rating or series position go last in both directions.
// Equal keys fall back to id so the order is deterministic.
func Sort(books []*domain.Book, opts SortOptions) []*domain.Book {
	out := slices.Clone(books)
	if out == nil {
		out = []*domain.Book{}
	}

	sign := 1
	if opts.Direction == Desc {
		sign = -1
	}

	var primary func(a, b *domain.Book) int
	switch opts.Key {
	case SortTitle, SortAuthor, "":
		locale := opts.Locale
		if locale == language.Und {
			locale = language.English
		}
		// Collators are stateful, so each Sort gets its own.
		col := collate.New(locale, collate.IgnoreCase)
		field := func(b *domain.Book) string { return b.Title }
		if opts.Key == SortAuthor {
			field = func(b *domain.Book) string { return b.Author }
		}
		primary = func(a, b *domain.Book) int {
			return sign * col.CompareString(field(a), field(b))
		}
	case SortRating:
		primary = func(a, b *domain.Book) int { return compareOptional(a.Rating, b.Rating, sign) }
	case SortSeriesPosition:
		primary = func(a, b *domain.Book) int { return compareOptional(a.SeriesPosition, b.SeriesPosition, sign) }
	case SortCreatedAt:
		primary = func(a, b *domain.Book) int { return sign * a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return out
	}

	slices.SortStableFunc(out, func(a, b *domain.Book) int {
		if c := primary(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// compareOptional orders present values by sign and puts missing values last.
func compareOptional(a, b *int, sign int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return sign * cmp.Compare(*a, *b)
	}
}
