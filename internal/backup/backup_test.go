package backup_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/backup"
	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/store/storetest"
)

func intPtr(v int) *int { return &v }

// seed fills u1's library and returns the ids it created.
func seed(t *testing.T, s store.DocumentStore) (fantasyID, discworldID string) {
	t.Helper()
	ctx := context.Background()

	var err error
	fantasyID, err = s.Create(ctx, "u1", domain.CollectionGenres, domain.Genre{Name: "Fantasy", Color: "#336699"})
	require.NoError(t, err)
	humourID, err := s.Create(ctx, "u1", domain.CollectionGenres, domain.Genre{Name: "Humour", Color: "#aa0000"})
	require.NoError(t, err)
	discworldID, err = s.Create(ctx, "u1", domain.CollectionSeries, domain.Series{Name: "Discworld", TotalBooks: intPtr(41)})
	require.NoError(t, err)

	finished := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	books := []domain.Book{
		{Title: "Mort", Author: "Terry Pratchett", ISBN: "9780552131063", GenreIDs: []string{fantasyID, humourID},
			SeriesID: discworldID, SeriesPosition: intPtr(4), Rating: intPtr(5),
			Reads: []domain.ReadAttempt{{FinishedAt: &finished}}},
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", GenreIDs: []string{fantasyID}},
		{Title: "Dune", Author: "Frank Herbert"},
	}
	for _, b := range books {
		_, err := s.Create(ctx, "u1", domain.CollectionBooks, b)
		require.NoError(t, err)
	}
	deleted := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err = s.Create(ctx, "u1", domain.CollectionBooks, domain.Book{Title: "Bad Book", Author: "Someone", DeletedAt: &deleted})
	require.NoError(t, err)

	_, err = s.Create(ctx, "u1", domain.CollectionWishlist, domain.WishlistItem{Title: "Guards! Guards!", Author: "Terry Pratchett", Priority: domain.PriorityHigh})
	require.NoError(t, err)
	return fantasyID, discworldID
}

func exportDoc(t *testing.T, s store.DocumentStore, userID string) *backup.Document {
	t.Helper()
	doc, err := backup.NewExporter(s).Export(context.Background(), userID)
	require.NoError(t, err)

	// Go through the wire format so the test covers Encode and Decode too.
	var buf bytes.Buffer
	require.NoError(t, backup.Encode(&buf, doc))
	decoded, err := backup.Decode(&buf)
	require.NoError(t, err)
	return decoded
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "bookshelf-backup-2024-03-09.json", backup.FileName(time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)))
}

func TestExport(t *testing.T) {
	s := storetest.NewBadger(t)
	fantasyID, discworldID := seed(t, s)

	doc, err := backup.NewExporter(s).Export(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, backup.CurrentVersion, doc.Version)
	assert.Len(t, doc.Genres, 2)
	assert.Len(t, doc.Series, 1)
	assert.Len(t, doc.Books, 3)
	assert.Len(t, doc.Bin, 1)
	assert.Len(t, doc.Wishlist, 1)

	exportIDs := []string{doc.Genres[0].ExportID, doc.Genres[1].ExportID}
	assert.Contains(t, exportIDs, fantasyID)
	assert.Equal(t, discworldID, doc.Series[0].ExportID)
	assert.NotNil(t, doc.Bin[0].DeletedAt)

	var buf bytes.Buffer
	require.NoError(t, backup.Encode(&buf, doc))
	assert.NotContains(t, buf.String(), `"id"`)
	assert.Contains(t, buf.String(), `"_exportId"`)
	assert.Contains(t, buf.String(), `"genreIds"`)
}

func TestExport_NothingToExport(t *testing.T) {
	s := storetest.NewBadger(t)
	_, err := backup.NewExporter(s).Export(context.Background(), "nobody")
	assert.ErrorIs(t, err, backup.ErrNothingToExport)
}

func TestDecode_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"not json", `{"version": 2,`, backup.ErrMalformed},
		{"not an object", `[1,2,3]`, backup.ErrMalformed},
		{"null", `null`, backup.ErrMalformed},
		{"wrong shape", `{"version": 2, "books": "many"}`, backup.ErrMalformed},
		{"missing version", `{"books": [{"title": "Dune"}]}`, backup.ErrUnsupportedVersion},
		{"version three", `{"version": 3, "books": [{"title": "Dune"}]}`, backup.ErrUnsupportedVersion},
		{"version as string", `{"version": "2", "books": [{"title": "Dune"}]}`, backup.ErrUnsupportedVersion},
		{"empty", `{"version": 2, "genres": [], "series": [], "books": [], "wishlist": [], "bin": []}`, backup.ErrEmptyBackup},
		{"empty v1", `{"version": 1, "books": []}`, backup.ErrEmptyBackup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := backup.Decode(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecode_UpgradesV1(t *testing.T) {
	doc, err := backup.Decode(strings.NewReader(`{
		"version": 1,
		"exportedAt": 1700000000000,
		"genres": [{"_exportId": "g1", "name": "Fantasy"}],
		"books": [{"title": "Mort", "author": "Terry Pratchett", "genreIds": ["g1"],
		           "createdAt": {"seconds": 1600000000, "nanoseconds": 0}}],
		"wishlist": []
	}`))
	require.NoError(t, err)

	assert.Equal(t, backup.CurrentVersion, doc.Version)
	assert.NotNil(t, doc.Series)
	assert.Empty(t, doc.Series)
	assert.NotNil(t, doc.Bin)
	assert.Empty(t, doc.Bin)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), doc.ExportedAt.UTC())
	require.Len(t, doc.Books, 1)
	require.NotNil(t, doc.Books[0].CreatedAt)
	assert.Equal(t, int64(1600000000), doc.Books[0].CreatedAt.Unix())
}

func TestRoundTrip_IntoEmptyAccount(t *testing.T) {
	ctx := context.Background()
	s := storetest.NewBadger(t)
	seed(t, s)
	doc := exportDoc(t, s, "u1")

	sum, err := backup.NewImporter(s, nil).Import(ctx, "u2", doc, backup.ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, backup.Tally{Created: 2}, sum.Genres)
	assert.Equal(t, backup.Tally{Created: 1}, sum.Series)
	assert.Equal(t, backup.Tally{Created: 3}, sum.Books)
	assert.Equal(t, backup.Tally{Created: 1}, sum.Bin)
	assert.Equal(t, backup.Tally{Created: 1}, sum.Wishlist)
	assert.False(t, sum.NothingNew())
	assert.Contains(t, sum.Message(), "Import complete")
	assert.NotEmpty(t, sum.RunID)

	books, err := store.ListAs[domain.Book](ctx, s, "u2", domain.CollectionBooks, store.Query{})
	require.NoError(t, err)
	require.Len(t, books, 4)
	genres, err := store.ListAs[domain.Genre](ctx, s, "u2", domain.CollectionGenres, store.Query{})
	require.NoError(t, err)
	series, err := store.ListAs[domain.Series](ctx, s, "u2", domain.CollectionSeries, store.Query{})
	require.NoError(t, err)
	require.Len(t, series, 1)

	genreNames := map[string]string{}
	for _, g := range genres {
		genreNames[g.ID] = g.Name
	}

	var mort, bad *domain.Book
	for _, b := range books {
		switch b.Title {
		case "Mort":
			mort = b
		case "Bad Book":
			bad = b
		}
	}
	require.NotNil(t, mort)
	require.Len(t, mort.GenreIDs, 2)
	assert.Equal(t, "Fantasy", genreNames[mort.GenreIDs[0]])
	assert.Equal(t, "Humour", genreNames[mort.GenreIDs[1]])
	assert.Equal(t, series[0].ID, mort.SeriesID)
	require.NotNil(t, mort.SeriesPosition)
	assert.Equal(t, 4, *mort.SeriesPosition)
	require.Len(t, mort.Reads, 1)
	assert.NotNil(t, mort.Reads[0].FinishedAt)

	require.NotNil(t, bad)
	assert.True(t, bad.InBin())

	again := exportDoc(t, s, "u2")
	assert.Equal(t, len(doc.Books), len(again.Books))
	assert.Equal(t, len(doc.Bin), len(again.Bin))
	assert.Equal(t, len(doc.Genres), len(again.Genres))
	assert.Equal(t, len(doc.Series), len(again.Series))
	assert.Equal(t, len(doc.Wishlist), len(again.Wishlist))
}

func TestImport_AllDuplicates(t *testing.T) {
	ctx := context.Background()
	s := storetest.NewBadger(t)
	seed(t, s)
	doc := exportDoc(t, s, "u1")

	counting := storetest.NewCounting(s)
	sum, err := backup.NewImporter(counting, nil).Import(ctx, "u1", doc, backup.ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Created())
	assert.Equal(t, backup.Tally{Skipped: 3}, sum.Books)
	assert.Equal(t, backup.Tally{Skipped: 1}, sum.Bin)
	assert.Equal(t, backup.Tally{Skipped: 2}, sum.Genres)
	assert.Equal(t, backup.Tally{Skipped: 1}, sum.Wishlist)
	assert.True(t, sum.NothingNew())
	assert.Contains(t, sum.Message(), "Nothing new")
	assert.Equal(t, int64(0), counting.Commits.Load())
	assert.Equal(t, int64(0), counting.Writes.Load())
}

func TestImport_ReusesGenresByName(t *testing.T) {
	ctx := context.Background()
	s := storetest.NewBadger(t)
	existingID, err := s.Create(ctx, "u1", domain.CollectionGenres, domain.Genre{Name: "fantasy", Color: "#000000"})
	require.NoError(t, err)

	doc := &backup.Document{
		Version: backup.CurrentVersion,
		Genres:  []backup.Genre{{ExportID: "old-g", Name: "  FANTASY "}},
		Books: []backup.Book{
			{Title: "Mort", Author: "Terry Pratchett", GenreIDs: []string{"old-g", "missing-g"}, SeriesID: "missing-s", SeriesPosition: intPtr(3)},
		},
	}

	sum, err := backup.NewImporter(s, nil).Import(ctx, "u1", doc, backup.ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, backup.Tally{Skipped: 1}, sum.Genres)
	assert.Equal(t, backup.Tally{Created: 1}, sum.Books)

	books, err := store.ListAs[domain.Book](ctx, s, "u1", domain.CollectionBooks, store.Query{})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, []string{existingID}, books[0].GenreIDs)
	assert.Empty(t, books[0].SeriesID)
	assert.Nil(t, books[0].SeriesPosition)

	genres, err := store.ListAs[domain.Genre](ctx, s, "u1", domain.CollectionGenres, store.Query{})
	require.NoError(t, err)
	assert.Len(t, genres, 1)
}

func TestImport_WishlistRules(t *testing.T) {
	ctx := context.Background()
	s := storetest.NewBadger(t)
	_, err := s.Create(ctx, "u1", domain.CollectionBooks, domain.Book{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "u1", domain.CollectionWishlist, domain.WishlistItem{Title: "Emma", Author: "Jane Austen"})
	require.NoError(t, err)

	doc := &backup.Document{
		Version: backup.CurrentVersion,
		Books:   []backup.Book{{Title: "Mort", Author: "Terry Pratchett", ISBN: "978-0-552-13106-3"}},
		Wishlist: []backup.WishlistItem{
			{Title: "EMMA", Author: "jane austen"},                       // already wished for
			{Title: "Dune", Author: "Frank Herbert"},                     // owned before import
			{Title: "Mort (paperback)", Author: "T.P.", ISBN: "9780552131063"}, // owned by this import
			{Title: "Small Gods", Author: "Terry Pratchett", Priority: "urgent"},
		},
	}

	sum, err := backup.NewImporter(s, nil).Import(ctx, "u1", doc, backup.ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, backup.Tally{Created: 1, Skipped: 3}, sum.Wishlist)

	items, err := store.ListAs[domain.WishlistItem](ctx, s, "u1", domain.CollectionWishlist, store.Query{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		if it.Title == "Small Gods" {
			assert.Empty(t, it.Priority)
		}
	}
}

func TestImport_DedupesAgainstExistingLibraryOnly(t *testing.T) {
	ctx := context.Background()
	s := storetest.NewBadger(t)
	doc := &backup.Document{
		Version: backup.CurrentVersion,
		Books: []backup.Book{
			{Title: "Dune", Author: "Frank Herbert"},
			{Title: "Dune", Author: "Frank Herbert"},
		},
	}

	sum, err := backup.NewImporter(s, nil).Import(ctx, "u1", doc, backup.ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, backup.Tally{Created: 2}, sum.Books)

	books, err := store.ListAs[domain.Book](ctx, s, "u1", domain.CollectionBooks, store.Query{})
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestImport_DryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := storetest.NewCounting(storetest.NewBadger(t))
	doc := &backup.Document{Version: backup.CurrentVersion, Books: []backup.Book{{Title: "Dune", Author: "Frank Herbert"}}}

	sum, err := backup.NewImporter(s, nil).Import(ctx, "u1", doc, backup.ImportOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, sum.DryRun)
	assert.Equal(t, 1, sum.Books.Created)
	assert.Equal(t, int64(0), s.Writes.Load())
	assert.Equal(t, int64(0), s.Commits.Load())
}

func TestImport_CommitFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	base := storetest.NewBadger(t)
	_, err := base.Create(ctx, "u1", domain.CollectionBooks, domain.Book{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	s := storetest.NewCounting(base)
	s.FailCommits.Store(true)

	doc := &backup.Document{
		Version: backup.CurrentVersion,
		Books: []backup.Book{
			{Title: "Dune", Author: "Frank Herbert"},
			{Title: "Mort", Author: "Terry Pratchett"},
		},
	}
	sum, err := backup.NewImporter(s, nil).Import(ctx, "u1", doc, backup.ImportOptions{})
	require.ErrorIs(t, err, backup.ErrCommitFailed)
	require.NotNil(t, sum)
	assert.Equal(t, backup.Tally{Skipped: 1}, sum.Books)

	books, err := store.ListAs[domain.Book](ctx, base, "u1", domain.CollectionBooks, store.Query{})
	require.NoError(t, err)
	assert.Len(t, books, 1)
}
