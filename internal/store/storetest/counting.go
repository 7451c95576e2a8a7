package storetest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// NewBadger opens an empty in-memory badger store closed at test cleanup.
func NewBadger(t *testing.T) *store.Badger {
	t.Helper()
	s, err := store.OpenBadgerInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// ErrCommitFailed is returned by a Counting store's batches when FailCommits is set.
var ErrCommitFailed = errors.New("storetest: commit failed")

// Counting wraps a store and counts calls, so tests can assert how many
// queries an operation issued and whether it wrote at all.
type Counting struct {
	store.DocumentStore

	Lists   atomic.Int64
	Writes  atomic.Int64
	Commits atomic.Int64

	// FailCommits makes every batch commit fail without applying anything.
	FailCommits atomic.Bool
}

// NewCounting wraps s.
func NewCounting(s store.DocumentStore) *Counting {
	return &Counting{DocumentStore: s}
}

func (c *Counting) List(ctx context.Context, userID, collection string, q store.Query) ([]store.Record, error) {
	c.Lists.Add(1)
	return c.DocumentStore.List(ctx, userID, collection, q)
}

func (c *Counting) Create(ctx context.Context, userID, collection string, data any) (string, error) {
	c.Writes.Add(1)
	return c.DocumentStore.Create(ctx, userID, collection, data)
}

func (c *Counting) Update(ctx context.Context, userID, collection, docID string, patch store.Patch) error {
	c.Writes.Add(1)
	return c.DocumentStore.Update(ctx, userID, collection, docID, patch)
}

func (c *Counting) Delete(ctx context.Context, userID, collection, docID string) error {
	c.Writes.Add(1)
	return c.DocumentStore.Delete(ctx, userID, collection, docID)
}

func (c *Counting) Batch(userID string) store.Batch {
	return &countingBatch{Batch: c.DocumentStore.Batch(userID), parent: c}
}

type countingBatch struct {
	store.Batch
	parent *Counting
}

func (b *countingBatch) Commit(ctx context.Context) error {
	b.parent.Commits.Add(1)
	if b.parent.FailCommits.Load() {
		return ErrCommitFailed
	}
	b.parent.Writes.Add(int64(b.Len()))
	return b.Batch.Commit(ctx)
}
