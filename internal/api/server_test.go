package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/auth"
	"github.com/bookshelfapp/bookshelf-server/internal/lookup"
	"github.com/bookshelfapp/bookshelf-server/internal/search"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
	"github.com/bookshelfapp/bookshelf-server/internal/settings"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/store/storetest"
)

// testEnvelope mirrors APIEnvelope and APIErrorEnvelope for decoding.
type testEnvelope[T any] struct {
	Version int             `json:"v"`
	Success bool            `json:"success"`
	Data    T               `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

// fakeLooker returns a fixed candidate for any query.
type fakeLooker struct {
	calls int
}

func (f *fakeLooker) Lookup(_ context.Context, raw string) (*lookup.Result, error) {
	f.calls++
	q := lookup.ParseQuery(raw)
	return &lookup.Result{
		Query:      q,
		Candidates: []lookup.Candidate{{Source: "fake", Title: "Dune", Author: "Frank Herbert"}},
	}, nil
}

type testServer struct {
	*Server
	api    humatest.TestAPI
	tokens *auth.TokenService
	looker *fakeLooker
}

// setupTestServer creates a test server backed by an in-memory store.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWithStore(t, storetest.NewBadger(t))
}

func setupTestServerWithStore(t *testing.T, st store.DocumentStore) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	tokens, err := auth.NewTokenService(make([]byte, 32), time.Hour)
	require.NoError(t, err)

	looker := &fakeLooker{}
	lib := service.NewLibraryService(st, logger, "en")
	services := &Services{
		Book:     service.NewBookService(st, logger),
		Genre:    service.NewGenreService(st, logger),
		Series:   service.NewSeriesService(st, logger),
		Wishlist: service.NewWishlistService(st, logger),
		Library:  lib,
		Stats:    service.NewStatsService(lib, st, logger),
		Search:   service.NewSearchService(lib, search.NewRecent(settings.NewMemory()), logger),
		Lookup:   service.NewLookupService(looker, true, logger),
		Backup:   service.NewBackupService(st, logger),
	}

	s := NewServer(st, services, tokens, Options{}, logger)
	t.Cleanup(s.Close)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
		tokens: tokens,
		looker: looker,
	}
}

// bearer issues a session for userID and returns the header argument.
func (ts *testServer) bearer(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := ts.tokens.Issue(userID)
	require.NoError(t, err)
	return "Authorization: Bearer " + token
}

func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	return env
}
