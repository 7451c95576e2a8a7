package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/duplicate"
)

func (ts *testServer) createBook(t *testing.T, auth string, body map[string]any) BookResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/books", auth, body)
	require.Equal(t, http.StatusCreated, resp.Code, "create failed: %s", resp.Body.String())
	return decodeEnvelope[BookResponse](t, resp.Body.Bytes()).Data
}

func TestCreateBook(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "user-1")

	book := ts.createBook(t, auth, map[string]any{
		"title":  "  Dune ",
		"author": "Frank Herbert",
		"isbn":   "ISBN: 978-0-441-17271-9",
		"rating": 5,
	})

	assert.NotEmpty(t, book.ID)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "9780441172719", book.ISBN)
	assert.Equal(t, domain.StatusWantToRead, book.Status)

	resp := ts.api.Get("/api/v1/books/"+book.ID, auth)
	assert.Equal(t, http.StatusOK, resp.Code)
	got := decodeEnvelope[BookResponse](t, resp.Body.Bytes())
	assert.True(t, got.Success)
	assert.Equal(t, book.ID, got.Data.ID)
}

func TestCreateBook_Validation(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "user-1")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"rating too high", map[string]any{"title": "Dune", "rating": 9}},
		{"bad isbn", map[string]any{"title": "Dune", "isbn": "12345"}},
		{"blank title", map[string]any{"title": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/books", auth, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)

			env := decodeEnvelope[any](t, resp.Body.Bytes())
			assert.Equal(t, "VALIDATION", env.Code)
		})
	}
}

func TestCreateBook_DuplicateNeedsForce(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "user-1")

	first := ts.createBook(t, auth, map[string]any{"title": "The Great Gatsby", "author": "F. Scott Fitzgerald"})

	body := map[string]any{"title": "the   great gatsby", "author": "f.  scott fitzgerald"}
	resp := ts.api.Post("/api/v1/books", auth, body)
	assert.Equal(t, http.StatusConflict, resp.Code)
	env := decodeEnvelope[any](t, resp.Body.Bytes())
	assert.Equal(t, "CONFLICT", env.Code)
	assert.Contains(t, string(env.Details), first.ID)

	check := ts.api.Post("/api/v1/books/duplicate-check", auth, body)
	require.Equal(t, http.StatusOK, check.Code)
	res := decodeEnvelope[duplicate.Result](t, check.Body.Bytes()).Data
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, duplicate.MatchTitleAuthor, res.MatchType)

	body["force"] = true
	ts.createBook(t, auth, body)
}

func TestUpdateBook(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "user-1")
	book := ts.createBook(t, auth, map[string]any{"title": "Dune", "rating": 3, "notes": "reread"})

	resp := ts.api.Patch("/api/v1/books/"+book.ID, auth, map[string]any{"rating": 0, "notes": "", "title": "Dune Messiah"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	got := decodeEnvelope[BookResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "Dune Messiah", got.Title)
	assert.Nil(t, got.Rating)
	assert.Empty(t, got.Notes)
}

func TestGetBook_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/books/book-missing", ts.bearer(t, "user-1"))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope[any](t, resp.Body.Bytes()).Code)
}

func TestBookBinLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "user-1")
	book := ts.createBook(t, auth, map[string]any{"title": "Dune"})

	resp := ts.api.Delete("/api/v1/books/"+book.ID+"/forever", auth)
	assert.Equal(t, http.StatusConflict, resp.Code, "only binned books can be deleted forever")

	resp = ts.api.Delete("/api/v1/books/"+book.ID, auth)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/books/bin", auth)
	bin := decodeEnvelope[ListBinResponse](t, resp.Body.Bytes()).Data
	require.Len(t, bin.Books, 1)
	assert.NotNil(t, bin.Books[0].DeletedAt)

	resp = ts.api.Post("/api/v1/books/"+book.ID+"/restore", auth)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Nil(t, decodeEnvelope[BookResponse](t, resp.Body.Bytes()).Data.DeletedAt)

	ts.api.Delete("/api/v1/books/"+book.ID, auth)
	resp = ts.api.Delete("/api/v1/books/"+book.ID+"/forever", auth)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/books/"+book.ID, auth)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestReadAttempts(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "user-1")
	book := ts.createBook(t, auth, map[string]any{"title": "Dune"})

	resp := ts.api.Post("/api/v1/books/"+book.ID+"/reads", auth, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, domain.StatusReading, decodeEnvelope[BookResponse](t, resp.Body.Bytes()).Data.Status)

	resp = ts.api.Post("/api/v1/books/"+book.ID+"/reads/finish", auth, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	got := decodeEnvelope[BookResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, domain.StatusFinished, got.Status)
	require.Len(t, got.Reads, 1)

	resp = ts.api.Post("/api/v1/books/"+book.ID+"/reads", auth, map[string]any{
		"started_at":  "2024-03-10T00:00:00Z",
		"finished_at": "2024-03-01T00:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
