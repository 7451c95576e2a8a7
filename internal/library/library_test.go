package library

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func at(day int) *time.Time {
	t := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
	return &t
}

type bookOpt func(*domain.Book)

func rated(r int) bookOpt             { return func(b *domain.Book) { b.Rating = ptr(r) } }
func genres(ids ...string) bookOpt    { return func(b *domain.Book) { b.GenreIDs = ids } }
func inSeries(id string, pos int) bookOpt {
	return func(b *domain.Book) { b.SeriesID = id; b.SeriesPosition = ptr(pos) }
}
func reading() bookOpt  { return func(b *domain.Book) { b.Reads = []domain.ReadAttempt{{StartedAt: at(1)}} } }
func finished() bookOpt { return func(b *domain.Book) { b.Reads = []domain.ReadAttempt{{StartedAt: at(1), FinishedAt: at(9)}} } }
func created(day int) bookOpt { return func(b *domain.Book) { b.CreatedAt = *at(day) } }

func book(id, title, author string, opts ...bookOpt) *domain.Book {
	b := &domain.Book{Title: title, Author: author}
	b.ID = id
	for _, o := range opts {
		o(b)
	}
	return b
}

func shelf() []*domain.Book {
	return []*domain.Book{
		book("b1", "The Hobbit", "John Tolkien", rated(5), genres("fantasy", "classic"), finished(), created(3)),
		book("b2", "Mort", "Terry Pratchett", rated(4), genres("fantasy", "humour"), inSeries("discworld", 4), reading(), created(1)),
		book("b3", "Guards! Guards!", "Terry Pratchett", genres("fantasy"), inSeries("discworld", 8), created(2)),
		book("b4", "Dune", "Frank Herbert", rated(3), genres("scifi"), finished(), created(5)),
		book("b5", "emma", "Jane Austen", rated(2), genres("classic"), created(4)),
	}
}

func ids(books []*domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name  string
		reads []domain.ReadAttempt
		want  domain.Status
	}{
		{"no attempts", nil, domain.StatusWantToRead},
		{"started only", []domain.ReadAttempt{{StartedAt: at(1)}}, domain.StatusReading},
		{"finished", []domain.ReadAttempt{{StartedAt: at(1), FinishedAt: at(2)}}, domain.StatusFinished},
		{"finish without start", []domain.ReadAttempt{{FinishedAt: at(2)}}, domain.StatusFinished},
		{"empty attempt", []domain.ReadAttempt{{}}, domain.StatusWantToRead},
		{"reread in progress", []domain.ReadAttempt{{StartedAt: at(1), FinishedAt: at(2)}, {StartedAt: at(10)}}, domain.StatusReading},
		// The last element wins even when an earlier attempt is more recent.
		{"out of order history", []domain.ReadAttempt{{StartedAt: at(20)}, {StartedAt: at(1), FinishedAt: at(2)}}, domain.StatusFinished},
		{"out of order reverse", []domain.ReadAttempt{{StartedAt: at(1), FinishedAt: at(25)}, {StartedAt: at(3)}}, domain.StatusReading},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(&domain.Book{Reads: tt.reads}))
		})
	}
	assert.Equal(t, domain.StatusWantToRead, DeriveStatus(nil))
}

func TestActiveAndBinned(t *testing.T) {
	books := shelf()
	books[1].DeletedAt = at(7)

	assert.Equal(t, []string{"b1", "b3", "b4", "b5"}, ids(Active(books)))
	assert.Equal(t, []string{"b2"}, ids(Binned(books)))
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"empty criteria", Criteria{}, []string{"b1", "b2", "b3", "b4", "b5"}},
		{"status", Criteria{Statuses: []domain.Status{domain.StatusFinished}}, []string{"b1", "b4"}},
		{"statuses are ored", Criteria{Statuses: []domain.Status{domain.StatusReading, domain.StatusWantToRead}}, []string{"b2", "b3", "b5"}},
		{"genre intersects", Criteria{GenreIDs: []string{"humour", "scifi"}}, []string{"b2", "b4"}},
		{"series", Criteria{SeriesIDs: []string{"discworld"}}, []string{"b2", "b3"}},
		{"series never matches books without one", Criteria{SeriesIDs: []string{""}}, []string{}},
		{"min rating excludes unrated", Criteria{MinRating: 3}, []string{"b1", "b2", "b4"}},
		{"author exact case-insensitive", Criteria{Author: "terry PRATCHETT"}, []string{"b2", "b3"}},
		{"author is not substring", Criteria{Author: "Terry"}, []string{}},
		{"search title", Criteria{Search: "GUARD"}, []string{"b3"}},
		{"search author", Criteria{Search: "austen"}, []string{"b5"}},
		{"criteria are anded", Criteria{GenreIDs: []string{"fantasy"}, MinRating: 4, Statuses: []domain.Status{domain.StatusReading}}, []string{"b2"}},
		{"blank strings ignored", Criteria{Author: "  ", Search: " "}, []string{"b1", "b2", "b3", "b4", "b5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(shelf(), tt.c)))
		})
	}
}

func TestFilter_Idempotent(t *testing.T) {
	criteria := []Criteria{
		{},
		{GenreIDs: []string{"fantasy"}},
		{MinRating: 2, Search: "e"},
		{Statuses: []domain.Status{domain.StatusFinished}, Author: "Frank Herbert"},
	}
	for i, c := range criteria {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			once := Filter(shelf(), c)
			assert.Equal(t, ids(once), ids(Filter(once, c)))
		})
	}
}

func TestFilter_EmptyCriteriaKeepsInput(t *testing.T) {
	books := shelf()
	got := Filter(books, Criteria{})
	require.Len(t, got, len(books))
	for i := range books {
		assert.Same(t, books[i], got[i])
	}

	// The result is a copy; reordering it leaves the input alone.
	first := books[0]
	slices.Reverse(got)
	assert.Same(t, first, books[0])

	assert.True(t, Criteria{}.IsZero())
	assert.True(t, Criteria{Author: "  ", Search: " "}.IsZero())
	assert.False(t, Criteria{MinRating: 1}.IsZero())
}

func TestComputeFacets(t *testing.T) {
	books := shelf()

	f := ComputeFacets(books, Criteria{})
	assert.Equal(t, map[domain.Status]int{
		domain.StatusFinished:   2,
		domain.StatusReading:    1,
		domain.StatusWantToRead: 2,
	}, f.Statuses)
	assert.Equal(t, map[string]int{"fantasy": 3, "classic": 2, "humour": 1, "scifi": 1}, f.Genres)
	assert.Equal(t, map[string]int{"discworld": 2}, f.Series)
	assert.Equal(t, map[int]int{1: 4, 2: 4, 3: 3, 4: 2, 5: 1}, f.Ratings)
	assert.Equal(t, 2, f.Authors["Terry Pratchett"])
}

func TestComputeFacets_ExcludesOwnDimension(t *testing.T) {
	books := shelf()
	c := Criteria{GenreIDs: []string{"fantasy"}, MinRating: 4}

	f := ComputeFacets(books, c)

	// Genre counts ignore the genre filter but respect the rating filter.
	assert.Equal(t, map[string]int{"fantasy": 2, "classic": 1, "humour": 1}, f.Genres)
	// Rating counts ignore the rating filter but respect the genre filter.
	assert.Equal(t, map[int]int{1: 2, 2: 2, 3: 2, 4: 2, 5: 1}, f.Ratings)
	// Status counts respect both.
	assert.Equal(t, map[domain.Status]int{domain.StatusFinished: 1, domain.StatusReading: 1}, f.Statuses)
}

func TestComputeFacets_AuthorsFoldCase(t *testing.T) {
	books := []*domain.Book{
		book("a", "Mort", "Terry Pratchett"),
		book("b", "Small Gods", "terry pratchett "),
		book("c", "Dune", "Frank Herbert"),
	}

	f := ComputeFacets(books, Criteria{})
	assert.Equal(t, map[string]int{"Terry Pratchett": 2, "Frank Herbert": 1}, f.Authors)

	// The tallied option filters to exactly the books it counted.
	assert.Len(t, Filter(books, Criteria{Author: "Terry Pratchett"}), f.Authors["Terry Pratchett"])
}

func TestComputeFacets_DuplicateGenreCountedOnce(t *testing.T) {
	books := []*domain.Book{book("x", "X", "Y", genres("g", "g"))}
	assert.Equal(t, 1, ComputeFacets(books, Criteria{}).Genres["g"])
}

func TestSort(t *testing.T) {
	tests := []struct {
		key  SortKey
		dir  Direction
		want []string
	}{
		{SortTitle, Asc, []string{"b4", "b5", "b3", "b2", "b1"}},
		{SortTitle, Desc, []string{"b1", "b2", "b3", "b5", "b4"}},
		{SortAuthor, Asc, []string{"b4", "b5", "b1", "b2", "b3"}},
		{SortRating, Asc, []string{"b5", "b4", "b2", "b1", "b3"}},
		{SortRating, Desc, []string{"b1", "b2", "b4", "b5", "b3"}},
		{SortSeriesPosition, Asc, []string{"b2", "b3", "b1", "b4", "b5"}},
		{SortSeriesPosition, Desc, []string{"b3", "b2", "b1", "b4", "b5"}},
		{SortCreatedAt, Asc, []string{"b2", "b3", "b1", "b5", "b4"}},
		{SortCreatedAt, Desc, []string{"b4", "b5", "b1", "b3", "b2"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key)+"/"+string(tt.dir), func(t *testing.T) {
			got := Sort(shelf(), SortOptions{Key: tt.key, Direction: tt.dir})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSort_Properties(t *testing.T) {
	keys := []SortKey{SortTitle, SortAuthor, SortRating, SortSeriesPosition, SortCreatedAt}
	for _, key := range keys {
		for _, dir := range []Direction{Asc, Desc} {
			t.Run(string(key)+"/"+string(dir), func(t *testing.T) {
				books := shelf()
				before := ids(books)

				got := Sort(books, SortOptions{Key: key, Direction: dir})

				assert.Equal(t, before, ids(books), "input not mutated")
				require.Len(t, got, len(books))
				gotIDs := ids(got)
				slices.Sort(gotIDs)
				slices.Sort(before)
				assert.Equal(t, before, gotIDs, "output is a permutation")

				if key == SortRating || key == SortSeriesPosition {
					assertMissingLast(t, got, key)
				}
			})
		}
	}
}

func assertMissingLast(t *testing.T, books []*domain.Book, key SortKey) {
	t.Helper()
	seenMissing := false
	for _, b := range books {
		missing := b.Rating == nil
		if key == SortSeriesPosition {
			missing = b.SeriesPosition == nil
		}
		if missing {
			seenMissing = true
			continue
		}
		assert.False(t, seenMissing, "book %s with a value sorted after a book without one", b.ID)
	}
}

func TestSort_TiesBrokenByID(t *testing.T) {
	books := []*domain.Book{
		book("c", "Same", "A", rated(3)),
		book("a", "Same", "A", rated(3)),
		book("b", "Same", "A", rated(3)),
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids(Sort(books, SortOptions{Key: SortRating, Direction: Desc})))
	assert.Equal(t, []string{"a", "b", "c"}, ids(Sort(books, SortOptions{Key: SortTitle})))
}

func TestSort_LocaleAwareCaseInsensitive(t *testing.T) {
	books := []*domain.Book{
		book("1", "zebra", "x"),
		book("2", "Äpfel", "x"),
		book("3", "apple", "x"),
		book("4", "Banana", "x"),
	}
	got := Sort(books, SortOptions{Key: SortTitle, Locale: language.German})
	assert.Equal(t, []string{"2", "3", "4", "1"}, ids(got))
}

func TestSort_EmptyAndUnknown(t *testing.T) {
	assert.Empty(t, Sort(nil, SortOptions{Key: SortTitle}))

	books := shelf()
	assert.Equal(t, ids(books), ids(Sort(books, SortOptions{Key: "pages"})))
}

func TestParseSortKeyAndDirection(t *testing.T) {
	k, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortTitle, k)
	_, err = ParseSortKey("pages")
	assert.Error(t, err)

	d, err := ParseDirection("DESC")
	require.NoError(t, err)
	assert.Equal(t, Desc, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
