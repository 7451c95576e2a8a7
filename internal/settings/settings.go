// Package settings is the per-user key-value port for small client state such
// as recent searches and picker preferences. Core logic reads and writes
// through KV only, so tests substitute the in-memory backend.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// ErrNotFound is returned by backends for a key that was never set.
var ErrNotFound = errors.New("setting not found")

// KV stores opaque JSON values per user.
type KV interface {
	Load(ctx context.Context, userID, key string) ([]byte, error)
	Save(ctx context.Context, userID, key string, value []byte) error
}

// Get decodes key into T, returning def when the key is unset.
func Get[T any](ctx context.Context, kv KV, userID, key string, def T) (T, error) {
	raw, err := kv.Load(ctx, userID, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("load setting %s: %w", key, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		// Unreadable state is dropped rather than blocking the feature.
		return def, nil //nolint:nilerr
	}
	return out, nil
}

// Set encodes value as JSON under key.
func Set(ctx context.Context, kv KV, userID, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	if err := kv.Save(ctx, userID, key, raw); err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

// Memory is a process-local KV.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory creates an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, userID, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[userID+"\x00"+key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Save(_ context.Context, userID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[userID+"\x00"+key] = append([]byte(nil), value...)
	return nil
}

// StoreBacked keeps settings next to the documents in the badger or sqlite store.
type StoreBacked struct {
	backend store.SettingsStore
}

// NewStoreBacked wraps a document store that can also hold settings.
func NewStoreBacked(backend store.SettingsStore) *StoreBacked {
	return &StoreBacked{backend: backend}
}

func (s *StoreBacked) Load(ctx context.Context, userID, key string) ([]byte, error) {
	v, err := s.backend.GetSetting(ctx, userID, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *StoreBacked) Save(ctx context.Context, userID, key string, value []byte) error {
	return s.backend.PutSetting(ctx, userID, key, value)
}
