// Package storetest is a behavioural suite every DocumentStore backend must pass.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

type doc struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Rating   *int     `json:"rating,omitempty"`
	GenreIDs []string `json:"genre_ids,omitempty"`
	SeriesID string   `json:"series_id,omitempty"`
}

func intPtr(v int) *int { return &v }

// Run exercises open's store. open must return an empty store.
func Run(t *testing.T, open func(t *testing.T) store.DocumentStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := open(t)
		docID, err := s.Create(ctx, "u1", domain.CollectionBooks, doc{Title: "Dune"})
		require.NoError(t, err)
		assert.Contains(t, docID, "book-")

		got, err := store.GetAs[doc](ctx, s, "u1", domain.CollectionBooks, docID)
		require.NoError(t, err)
		assert.Equal(t, docID, got.ID)
		assert.Equal(t, "Dune", got.Title)
	})

	t.Run("users are isolated", func(t *testing.T) {
		s := open(t)
		docID, err := s.Create(ctx, "u1", domain.CollectionBooks, doc{Title: "Dune"})
		require.NoError(t, err)

		_, err = s.Get(ctx, "u2", domain.CollectionBooks, docID)
		assert.ErrorIs(t, err, store.ErrNotFound)

		recs, err := s.List(ctx, "u2", domain.CollectionBooks, store.Query{})
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("get missing", func(t *testing.T) {
		s := open(t)
		_, err := s.Get(ctx, "u1", domain.CollectionGenres, "genre-nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list filters orders and limits", func(t *testing.T) {
		s := open(t)
		seed := []doc{
			{Title: "C", Rating: intPtr(3), GenreIDs: []string{"g1", "g2"}},
			{Title: "A", Rating: intPtr(5), GenreIDs: []string{"g2"}},
			{Title: "B", GenreIDs: []string{"g1"}, SeriesID: "s1"},
		}
		for _, d := range seed {
			_, err := s.Create(ctx, "u1", domain.CollectionBooks, d)
			require.NoError(t, err)
		}

		byTitle, err := store.ListAs[doc](ctx, s, "u1", domain.CollectionBooks, store.Query{OrderBy: "title"})
		require.NoError(t, err)
		require.Len(t, byTitle, 3)
		assert.Equal(t, []string{"A", "B", "C"}, titles(byTitle))

		inG1, err := store.ListAs[doc](ctx, s, "u1", domain.CollectionBooks, store.Query{
			Where:   []store.Filter{store.Contains("genre_ids", "g1")},
			OrderBy: "title",
			Desc:    true,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"C", "B"}, titles(inG1))

		rated5, err := store.ListAs[doc](ctx, s, "u1", domain.CollectionBooks, store.Query{
			Where: []store.Filter{store.Eq("rating", 5)},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, titles(rated5))

		inSeries, err := store.ListAs[doc](ctx, s, "u1", domain.CollectionBooks, store.Query{
			Where: []store.Filter{store.Eq("series_id", "s1"), store.Contains("genre_ids", "g1")},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, titles(inSeries))

		limited, err := s.List(ctx, "u1", domain.CollectionBooks, store.Query{OrderBy: "title", Limit: 2})
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})

	t.Run("rejects unsafe field names", func(t *testing.T) {
		s := open(t)
		_, err := s.List(ctx, "u1", domain.CollectionBooks, store.Query{
			Where: []store.Filter{store.Eq("title') OR 1=1 --", "x")},
		})
		assert.ErrorIs(t, err, store.ErrInvalidInput)
	})

	t.Run("update is partial and nil clears", func(t *testing.T) {
		s := open(t)
		docID, err := s.Create(ctx, "u1", domain.CollectionBooks, doc{Title: "Dune", Rating: intPtr(4), SeriesID: "s1"})
		require.NoError(t, err)

		require.NoError(t, s.Update(ctx, "u1", domain.CollectionBooks, docID, store.Patch{
			"series_id": nil,
			"genre_ids": []string{"g9"},
		}))

		got, err := store.GetAs[doc](ctx, s, "u1", domain.CollectionBooks, docID)
		require.NoError(t, err)
		assert.Equal(t, "Dune", got.Title)
		assert.Equal(t, 4, *got.Rating)
		assert.Empty(t, got.SeriesID)
		assert.Equal(t, []string{"g9"}, got.GenreIDs)
	})

	t.Run("update missing", func(t *testing.T) {
		s := open(t)
		err := s.Update(ctx, "u1", domain.CollectionBooks, "book-nope", store.Patch{"title": "x"})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := open(t)
		docID, err := s.Create(ctx, "u1", domain.CollectionGenres, map[string]any{"name": "Fantasy"})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "u1", domain.CollectionGenres, docID))
		require.NoError(t, s.Delete(ctx, "u1", domain.CollectionGenres, docID))

		_, err = s.Get(ctx, "u1", domain.CollectionGenres, docID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("batch commits atomically", func(t *testing.T) {
		s := open(t)
		keep, err := s.Create(ctx, "u1", domain.CollectionBooks, doc{Title: "Keep"})
		require.NoError(t, err)
		gone, err := s.Create(ctx, "u1", domain.CollectionGenres, map[string]any{"name": "Old"})
		require.NoError(t, err)

		b := s.Batch("u1")
		newID, err := b.Create(domain.CollectionGenres, map[string]any{"name": "New"})
		require.NoError(t, err)
		b.Update(domain.CollectionBooks, keep, store.Patch{"genre_ids": []string{newID}})
		b.Delete(domain.CollectionGenres, gone)
		assert.Equal(t, 3, b.Len())
		require.NoError(t, b.Commit(ctx))

		got, err := store.GetAs[doc](ctx, s, "u1", domain.CollectionBooks, keep)
		require.NoError(t, err)
		assert.Equal(t, []string{newID}, got.GenreIDs)

		_, err = s.Get(ctx, "u1", domain.CollectionGenres, gone)
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.Get(ctx, "u1", domain.CollectionGenres, newID)
		assert.NoError(t, err)
	})

	t.Run("failed batch applies nothing", func(t *testing.T) {
		s := open(t)
		keep, err := s.Create(ctx, "u1", domain.CollectionBooks, doc{Title: "Keep"})
		require.NoError(t, err)

		b := s.Batch("u1")
		b.Update(domain.CollectionBooks, keep, store.Patch{"title": "Changed"})
		b.Update(domain.CollectionBooks, "book-missing", store.Patch{"title": "x"})
		require.Error(t, b.Commit(ctx))

		got, err := store.GetAs[doc](ctx, s, "u1", domain.CollectionBooks, keep)
		require.NoError(t, err)
		assert.Equal(t, "Keep", got.Title)
	})

	t.Run("empty batch commit is a no-op", func(t *testing.T) {
		s := open(t)
		assert.NoError(t, s.Batch("u1").Commit(ctx))
	})
}

func titles(docs []*doc) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Title
	}
	return out
}
