package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/store/storetest"
)

const testUser = "user-1"

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func ptr[T any](v T) *T { return &v }

// newCountingStore returns a fresh store wrapped so writes can be counted.
func newCountingStore(t *testing.T) *storetest.Counting {
	t.Helper()
	return storetest.NewCounting(storetest.NewBadger(t))
}

// putBook stores b directly, bypassing the service, and returns its id.
func putBook(t *testing.T, s store.DocumentStore, b domain.Book) string {
	t.Helper()
	if b.CreatedAt.IsZero() {
		b.InitTimestamps()
	}
	bookID, err := s.Create(context.Background(), testUser, domain.CollectionBooks, b)
	require.NoError(t, err)
	return bookID
}

func putGenre(t *testing.T, s store.DocumentStore, name string) string {
	t.Helper()
	g := domain.Genre{Name: name, Color: "#336699"}
	g.InitTimestamps()
	genreID, err := s.Create(context.Background(), testUser, domain.CollectionGenres, g)
	require.NoError(t, err)
	return genreID
}

func putSeries(t *testing.T, s store.DocumentStore, name string) string {
	t.Helper()
	sr := domain.Series{Name: name}
	sr.InitTimestamps()
	seriesID, err := s.Create(context.Background(), testUser, domain.CollectionSeries, sr)
	require.NoError(t, err)
	return seriesID
}

func getBook(t *testing.T, s store.DocumentStore, bookID string) *domain.Book {
	t.Helper()
	b, err := store.GetAs[domain.Book](context.Background(), s, testUser, domain.CollectionBooks, bookID)
	require.NoError(t, err)
	return b
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 12, 0, 0, 0, time.UTC)
}
