package search

import (
	"context"
	"strings"

	"github.com/bookshelfapp/bookshelf-server/internal/settings"
)

// Recent search list settings.
const (
	RecentKey   = "recent-searches"
	RecentLimit = 5
)

// Recent keeps each user's most recent queries, newest first, through the
// settings port.
type Recent struct {
	kv settings.KV
}

// NewRecent creates a recency list over kv.
func NewRecent(kv settings.KV) *Recent {
	return &Recent{kv: kv}
}

// List returns the stored queries, newest first.
func (r *Recent) List(ctx context.Context, userID string) ([]string, error) {
	list, err := settings.Get(ctx, r.kv, userID, RecentKey, []string{})
	if err != nil {
		return nil, err
	}
	if len(list) > RecentLimit {
		list = list[:RecentLimit]
	}
	return list, nil
}

// Record moves query to the front, dropping any earlier entry that differs
// only in case, and returns the updated list. Blank queries are ignored.
func (r *Recent) Record(ctx context.Context, userID, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	list, err := r.List(ctx, userID)
	if err != nil || query == "" {
		return list, err
	}

	next := make([]string, 0, RecentLimit)
	next = append(next, query)
	for _, q := range list {
		if len(next) == RecentLimit {
			break
		}
		if !strings.EqualFold(q, query) {
			next = append(next, q)
		}
	}

	if err := settings.Set(ctx, r.kv, userID, RecentKey, next); err != nil {
		return list, err
	}
	return next, nil
}

// Clear empties the list.
func (r *Recent) Clear(ctx context.Context, userID string) error {
	return settings.Set(ctx, r.kv, userID, RecentKey, []string{})
}
