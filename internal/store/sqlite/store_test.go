package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	for _, table := range []string{"documents", "settings"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpen_PragmasOnEveryConnection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Hold several connections at once so the pool has to open new ones.
	var conns []*sql.Conn
	for range 3 {
		conn, err := s.db.Conn(ctx)
		if err != nil {
			t.Fatalf("conn: %v", err)
		}
		conns = append(conns, conn)
	}
	t.Cleanup(func() {
		for _, c := range conns {
			c.Close()
		}
	})

	for i, conn := range conns {
		var timeout, synchronous int
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("query busy_timeout: %v", err)
		}
		if err := conn.QueryRowContext(ctx, "PRAGMA synchronous").Scan(&synchronous); err != nil {
			t.Fatalf("query synchronous: %v", err)
		}
		if timeout != busyTimeout {
			t.Errorf("connection %d: expected busy_timeout %d, got %d", i, busyTimeout, timeout)
		}
		if synchronous != 1 {
			t.Errorf("connection %d: expected synchronous NORMAL (1), got %d", i, synchronous)
		}
	}
}

func TestStore_Suite(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.DocumentStore {
		return newTestStore(t)
	})
}

func TestStore_Settings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetSetting(ctx, "u1", "k"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.PutSetting(ctx, "u1", "k", []byte("one")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutSetting(ctx, "u1", "k", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.GetSetting(ctx, "u1", "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("got %q, want two", got)
	}
}

func TestStore_PatchKeepsUntouchedFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	docID, err := s.Create(ctx, "u1", domain.CollectionBooks, map[string]any{
		"title": "Mort", "series_id": "series-1", "series_position": 4,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Update(ctx, "u1", domain.CollectionBooks, docID, store.Patch{"series_id": "series-2"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	book, err := store.GetAs[domain.Book](ctx, s, "u1", domain.CollectionBooks, docID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if book.SeriesID != "series-2" {
		t.Errorf("series id = %q", book.SeriesID)
	}
	if book.SeriesPosition == nil || *book.SeriesPosition != 4 {
		t.Errorf("series position lost: %v", book.SeriesPosition)
	}
	if book.ID != docID {
		t.Errorf("id = %q, want %q", book.ID, docID)
	}
}
