package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookshelfapp/bookshelf-server/internal/normalize"
)

// Decode converts a record into T. Timestamp fields are normalized first, so
// documents written by older clients as epoch numbers or {seconds,nanoseconds}
// objects decode into time.Time like everything else.
func Decode[T any](rec Record) (*T, error) {
	doc := map[string]any{}
	if err := unmarshalDoc(rec.Data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", rec.ID, err)
	}
	normalize.TimestampFields(doc)
	doc["id"] = rec.ID

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("re-encode %s: %w", rec.ID, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", rec.ID, err)
	}
	return &out, nil
}

// ListAs lists and decodes a collection.
func ListAs[T any](ctx context.Context, s DocumentStore, userID, collection string, q Query) ([]*T, error) {
	recs, err := s.List(ctx, userID, collection, q)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(recs))
	for _, rec := range recs {
		v, err := Decode[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// GetAs fetches and decodes one document.
func GetAs[T any](ctx context.Context, s DocumentStore, userID, collection, docID string) (*T, error) {
	rec, err := s.Get(ctx, userID, collection, docID)
	if err != nil {
		return nil, err
	}
	return Decode[T](rec)
}
