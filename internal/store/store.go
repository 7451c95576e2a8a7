// Package store defines the per-user document store the library is built on
// and its badger implementation. Documents are JSON objects grouped into
// named collections (books, genres, series, wishlist) under an owning user.
package store

import (
	"context"
	"encoding/json"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/id"
)

// Record is a stored document. Data is a JSON object that includes "id".
type Record struct {
	ID   string
	Data json.RawMessage
}

// Patch is a partial update keyed by top-level JSON field name. Keys that are
// absent are left untouched; a nil value removes the field.
type Patch map[string]any

// DocumentStore is the read/write port over a user's collections.
type DocumentStore interface {
	// List returns the collection's documents matching q.
	List(ctx context.Context, userID, collection string, q Query) ([]Record, error)
	// Get returns one document or ErrNotFound.
	Get(ctx context.Context, userID, collection, docID string) (Record, error)
	// Create stores data under a freshly generated id and returns it.
	Create(ctx context.Context, userID, collection string, data any) (string, error)
	// Update applies patch to an existing document or returns ErrNotFound.
	Update(ctx context.Context, userID, collection, docID string, patch Patch) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, userID, collection, docID string) error
	// Batch starts a set of writes that apply atomically on Commit.
	Batch(userID string) Batch
}

// Batch queues writes for one user. Nothing is visible until Commit; a failed
// Commit applies nothing.
type Batch interface {
	// Create queues a new document and returns the id it will have.
	Create(collection string, data any) (string, error)
	Update(collection, docID string, patch Patch)
	Delete(collection, docID string)
	// Len is the number of queued writes.
	Len() int
	Commit(ctx context.Context) error
}

// SettingsStore is implemented by backends that can also hold small per-user values.
type SettingsStore interface {
	GetSetting(ctx context.Context, userID, key string) ([]byte, error)
	PutSetting(ctx context.Context, userID, key string, value []byte) error
}

// NewID generates an id for a document in collection.
func NewID(collection string) (string, error) {
	return id.Generate(idPrefix(collection))
}

func idPrefix(collection string) string {
	switch collection {
	case domain.CollectionBooks:
		return id.PrefixBook
	case domain.CollectionGenres:
		return id.PrefixGenre
	case domain.CollectionSeries:
		return id.PrefixSeries
	case domain.CollectionWishlist:
		return id.PrefixWishlist
	default:
		return "doc"
	}
}

// EncodeDocument marshals data to a JSON object and stamps docID into it.
func EncodeDocument(docID string, data any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := unmarshalDoc(raw, &doc); err != nil {
		return nil, err
	}
	doc["id"] = docID
	return doc, nil
}

// ApplyPatch merges patch into doc in place.
func ApplyPatch(doc map[string]any, patch Patch) error {
	for k, v := range patch {
		if k == "id" {
			continue
		}
		if v == nil {
			delete(doc, k)
			continue
		}
		// Round-trip through JSON so doc only ever holds decoded JSON values.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var decoded any
		if err := unmarshalDoc(raw, &decoded); err != nil {
			return err
		}
		doc[k] = decoded
	}
	return nil
}
