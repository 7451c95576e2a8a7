package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

// seedLibrary adds a genre, a series and three books, one of them being read.
func (ts *testServer) seedLibrary(t *testing.T, auth string) (genreID, seriesID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/genres", auth, map[string]any{"name": "Fantasy"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	genreID = decodeEnvelope[domain.Genre](t, resp.Body.Bytes()).Data.ID

	resp = ts.api.Post("/api/v1/series", auth, map[string]any{"name": "Discworld", "total_books": 41})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	seriesID = decodeEnvelope[domain.Series](t, resp.Body.Bytes()).Data.ID

	ts.createBook(t, auth, map[string]any{
		"title": "Mort", "author": "Terry Pratchett", "rating": 5,
		"genre_ids": []string{genreID}, "series_id": seriesID, "series_position": 4,
	})
	ts.createBook(t, auth, map[string]any{
		"title": "Guards! Guards!", "author": "Terry Pratchett", "rating": 4,
		"genre_ids": []string{genreID}, "series_id": seriesID, "series_position": 8,
		"reads": []map[string]any{{"started_at": "2024-03-01T00:00:00Z"}},
	})
	ts.createBook(t, auth, map[string]any{"title": "Dune", "author": "Frank Herbert"})
	return genreID, seriesID
}

func TestQueryLibrary(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "user-1")
	genreID, seriesID := ts.seedLibrary(t, auth)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"default sorts by title", "", []string{"Dune", "Guards! Guards!", "Mort"}},
		{"status filter", "?status=reading", []string{"Guards! Guards!"}},
		{"genre filter", "?genre=" + genreID, []string{"Guards! Guards!", "Mort"}},
		{"min rating", "?min_rating=5", []string{"Mort"}},
		{"author ignores case", "?author=terry%20pratchett&sort=seriesPosition&dir=desc", []string{"Guards! Guards!", "Mort"}},
		{"free text", "?q=herb", []string{"Dune"}},
		{"rating sort keeps unrated last", "?sort=rating&dir=asc", []string{"Guards! Guards!", "Mort", "Dune"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/library"+tt.query, auth)
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

			view := decodeEnvelope[LibraryResponse](t, resp.Body.Bytes()).Data
			titles := make([]string, len(view.Books))
			for i, b := range view.Books {
				titles[i] = b.Title
			}
			assert.Equal(t, tt.want, titles)
			assert.Equal(t, 3, view.Total)
			assert.Equal(t, len(tt.want), view.Matched)
		})
	}

	t.Run("facets ignore their own dimension", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/library?series="+seriesID, auth)
		view := decodeEnvelope[LibraryResponse](t, resp.Body.Bytes()).Data
		assert.Equal(t, 2, view.Facets.Series[seriesID])
		assert.Equal(t, 2, view.Facets.Genres[genreID])
		assert.Equal(t, 1, view.Facets.Statuses[domain.StatusReading])
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/library?status=abandoned", auth)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

func TestLibraryStats(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "user-1")
	ts.seedLibrary(t, auth)

	resp := ts.api.Get("/api/v1/stats", auth)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	stats := decodeEnvelope[service.LibraryStats](t, resp.Body.Bytes()).Data
	assert.Equal(t, 3, stats.Books)
	assert.Equal(t, 1, stats.Genres)
	assert.Equal(t, 1, stats.Series)
	assert.Equal(t, 1, stats.ByStatus[domain.StatusReading])
	assert.Equal(t, 2, stats.Rated)
}

func TestGenreMerge(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "user-1")
	genreID, _ := ts.seedLibrary(t, auth)

	resp := ts.api.Post("/api/v1/genres", auth, map[string]any{"name": "fantasy "})
	assert.Equal(t, http.StatusConflict, resp.Code, "names are unique ignoring case and spacing")

	resp = ts.api.Post("/api/v1/genres", auth, map[string]any{"name": "Comic Fantasy", "color": "#ff00aa"})
	require.Equal(t, http.StatusCreated, resp.Code)
	target := decodeEnvelope[domain.Genre](t, resp.Body.Bytes()).Data
	assert.Equal(t, "#FF00AA", target.Color)

	resp = ts.api.Post("/api/v1/genres/merge", auth, map[string]any{"source_id": genreID, "target_id": target.ID})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 2, decodeEnvelope[MergeResponse](t, resp.Body.Bytes()).Data.Moved)

	resp = ts.api.Get("/api/v1/genres/"+genreID, auth)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/library?genre="+target.ID, auth)
	assert.Equal(t, 2, decodeEnvelope[LibraryResponse](t, resp.Body.Bytes()).Data.Matched)

	resp = ts.api.Post("/api/v1/genres/merge", auth, map[string]any{"source_id": target.ID, "target_id": target.ID})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSeriesDeleteDetachesBooks(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "user-1")
	_, seriesID := ts.seedLibrary(t, auth)

	resp := ts.api.Delete("/api/v1/series/"+seriesID, auth)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 2, decodeEnvelope[DeleteSeriesResponse](t, resp.Body.Bytes()).Data.Detached)

	resp = ts.api.Get("/api/v1/library?sort=seriesPosition", auth)
	for _, b := range decodeEnvelope[LibraryResponse](t, resp.Body.Bytes()).Data.Books {
		assert.Empty(t, b.SeriesID)
		assert.Nil(t, b.SeriesPosition)
	}
}

func TestWishlistMove(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "user-1")
	ts.seedLibrary(t, auth)

	resp := ts.api.Post("/api/v1/wishlist", auth, map[string]any{"title": "Dune", "author": "Frank Herbert", "priority": "high"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	owned := decodeEnvelope[domain.WishlistItem](t, resp.Body.Bytes()).Data

	resp = ts.api.Post("/api/v1/wishlist", auth, map[string]any{"title": "Small Gods", "author": "Terry Pratchett"})
	require.Equal(t, http.StatusCreated, resp.Code)
	wanted := decodeEnvelope[domain.WishlistItem](t, resp.Body.Bytes()).Data

	resp = ts.api.Get("/api/v1/wishlist", auth)
	items := decodeEnvelope[ListWishlistResponse](t, resp.Body.Bytes()).Data.Items
	require.Len(t, items, 2)
	assert.Equal(t, owned.ID, items[0].ID, "high priority first")

	resp = ts.api.Post("/api/v1/wishlist/"+owned.ID+"/move", auth, map[string]any{})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = ts.api.Post("/api/v1/wishlist/"+wanted.ID+"/move", auth, map[string]any{})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, "Small Gods", decodeEnvelope[BookResponse](t, resp.Body.Bytes()).Data.Title)

	resp = ts.api.Get("/api/v1/wishlist/"+wanted.ID, auth)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Patch("/api/v1/wishlist/"+owned.ID, auth, map[string]any{"priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSearch(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "user-1")
	ts.seedLibrary(t, auth)

	resp := ts.api.Get("/api/v1/search?q=m", auth)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decodeEnvelope[service.SearchResult](t, resp.Body.Bytes()).Data.Hits)

	resp = ts.api.Get("/api/v1/search?q=discworld", auth)
	res := decodeEnvelope[service.SearchResult](t, resp.Body.Bytes()).Data
	assert.Equal(t, 2, res.Total)

	resp = ts.api.Get("/api/v1/search?q=MORT", auth)
	res = decodeEnvelope[service.SearchResult](t, resp.Body.Bytes()).Data
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "Mort", res.Hits[0].Highlights["title"].Match)

	resp = ts.api.Get("/api/v1/search/recent", auth)
	assert.Equal(t, []string{"MORT", "discworld"}, decodeEnvelope[RecentSearchesResponse](t, resp.Body.Bytes()).Data.Queries)

	resp = ts.api.Delete("/api/v1/search/recent", auth)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/search/recent", auth)
	assert.Empty(t, decodeEnvelope[RecentSearchesResponse](t, resp.Body.Bytes()).Data.Queries)
}
