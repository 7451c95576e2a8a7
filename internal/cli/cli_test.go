package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/auth"
	"github.com/bookshelfapp/bookshelf-server/internal/backup"
	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

// run executes one bookshelf invocation against dataPath and returns stdout.
func run(t *testing.T, dataPath string, args ...string) (string, error) {
	t.Helper()
	root, a := newRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{
		"--data-path", dataPath,
		"--env-file", filepath.Join(dataPath, "missing.env"),
	}, args...))
	err := root.ExecuteContext(context.Background())
	a.shutdown()
	return out.String(), err
}

func mustRun(t *testing.T, dataPath string, args ...string) string {
	t.Helper()
	out, err := run(t, dataPath, args...)
	require.NoError(t, err, "bookshelf %s", strings.Join(args, " "))
	return out
}

// stats reads a user's statistics. extra carries global flags such as --store.
func stats(t *testing.T, dataPath, user string, extra ...string) service.LibraryStats {
	t.Helper()
	var s service.LibraryStats
	args := append(append([]string{}, extra...), "stats", "--user", user, "--json")
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, dataPath, args...)), &s))
	return s
}

func TestSeedExportImport(t *testing.T) {
	for _, backend := range []string{"badger", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			dataPath := t.TempDir()
			store := []string{"--store", backend}

			out := mustRun(t, dataPath, append(store, "seed", "--user", "u1", "--seed", "1")...)
			assert.Contains(t, out, "Seeded 10 books, 4 genres, 3 series, 3 wishlist entries (0 skipped)")

			out = mustRun(t, dataPath, append(store, "seed", "--user", "u1", "--seed", "1")...)
			assert.Contains(t, out, "Seeded 0 books, 0 genres, 0 series, 0 wishlist entries (13 skipped)")

			s := stats(t, dataPath, "u1", store...)
			assert.Equal(t, 10, s.Books)
			assert.Equal(t, 4, s.Genres)
			assert.Equal(t, 3, s.Series)
			assert.Equal(t, 3, s.Wishlist)

			file := filepath.Join(dataPath, "u1.json")
			out = mustRun(t, dataPath, append(store, "export", "--user", "u1", "--out", file)...)
			assert.Contains(t, out, "to "+file)

			out = mustRun(t, dataPath, append(store, "import", "--user", "u2", "--dry-run", file)...)
			assert.Contains(t, out, "Dry run")
			assert.Zero(t, stats(t, dataPath, "u2", store...).Books)

			out = mustRun(t, dataPath, append(store, "import", "--user", "u2", file)...)
			assert.Contains(t, out, "Import complete")
			assert.Contains(t, out, "books:    10 new, 0 skipped")
			assert.Equal(t, 10, stats(t, dataPath, "u2", store...).Books)

			out = mustRun(t, dataPath, append(store, "import", "--user", "u2", file)...)
			assert.Contains(t, out, "Nothing new to import")
		})
	}
}

func TestGenreMergeAndInspect(t *testing.T) {
	dataPath := t.TempDir()
	mustRun(t, dataPath, "seed", "--user", "u1", "--seed", "7")

	ids := map[string]string{}
	for _, line := range strings.Split(mustRun(t, dataPath, "genre", "list", "--user", "u1"), "\n")[1:] {
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			ids[fields[1]] = fields[0]
		}
	}
	require.Contains(t, ids, "Mystery")
	require.Contains(t, ids, "Fantasy")

	out := mustRun(t, dataPath, "genre", "merge", "--user", "u1", ids["Mystery"], ids["Fantasy"])
	assert.Contains(t, out, "1 books moved")
	assert.Equal(t, 3, stats(t, dataPath, "u1").Genres)

	out = mustRun(t, dataPath, "inspect", "--user", "u1")
	assert.Contains(t, out, "Books:        10 (0 in bin)")
	assert.Contains(t, out, "No dangling references")

	_, err := run(t, dataPath, "genre", "merge", "--user", "u1", ids["Fantasy"], ids["Fantasy"])
	assert.Error(t, err)
}

func TestInspect_DanglingReferences(t *testing.T) {
	genre := &domain.Genre{Document: domain.Document{ID: "genre-1"}, Name: "Fantasy"}
	snap := &service.Snapshot{
		Genres: []*domain.Genre{genre},
		Books: []*domain.Book{
			{Document: domain.Document{ID: "book-1"}, Title: "Mort", ISBN: "9780062225719", GenreIDs: []string{"genre-1"}},
			{Document: domain.Document{ID: "book-2"}, Title: "Dune", GenreIDs: []string{"genre-1", "genre-gone"}, SeriesID: "series-gone"},
		},
	}

	r := inspect(snap)
	assert.Equal(t, 2, r.Books)
	assert.Equal(t, 1, r.WithoutISBN)
	assert.Equal(t, 1, r.DanglingGenres)
	assert.Equal(t, 1, r.DanglingSeries)

	var buf bytes.Buffer
	printInspect(&buf, r)
	assert.Contains(t, buf.String(), "Dune (book-2)")
	assert.NotContains(t, buf.String(), "No dangling references")
}

func TestReportImport(t *testing.T) {
	sum := &backup.Summary{
		Books:  backup.Tally{Skipped: 3},
		Genres: backup.Tally{Skipped: 1},
	}
	commitErr := errors.New("commit failed")

	var buf bytes.Buffer
	err := reportImport(&buf, sum, commitErr, false)
	require.ErrorIs(t, err, commitErr)
	assert.Contains(t, buf.String(), "books:    0 new, 3 skipped")
	assert.Contains(t, buf.String(), "genres:   0 new, 1 skipped")
	assert.NotContains(t, buf.String(), "Import complete")

	buf.Reset()
	err = reportImport(&buf, nil, commitErr, false)
	require.ErrorIs(t, err, commitErr)
	assert.Empty(t, buf.String())

	buf.Reset()
	require.NoError(t, reportImport(&buf, &backup.Summary{Books: backup.Tally{Created: 2}}, nil, true))
	assert.Contains(t, buf.String(), "Dry run")
	assert.Contains(t, buf.String(), "books:    2 new, 0 skipped")
}

func TestToken(t *testing.T) {
	dataPath := t.TempDir()

	token := strings.TrimSpace(mustRun(t, dataPath, "token", "--user", "u1", "--quiet"))
	require.NotEmpty(t, token)

	key, err := auth.LoadOrGenerateKey(dataPath)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestRequiresUser(t *testing.T) {
	dataPath := t.TempDir()
	for _, args := range [][]string{
		{"export"},
		{"stats"},
		{"token"},
		{"seed"},
	} {
		_, err := run(t, dataPath, args...)
		assert.ErrorContains(t, err, "--user is required", args[0])
	}
}
