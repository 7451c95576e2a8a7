package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Badger is a DocumentStore on an embedded badger database. Each document is
// one key, doc:{user}:{collection}:{id}, holding the JSON object.
type Badger struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadger opens (or creates) the database at path.
func OpenBadger(path string, logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	return openBadger(opts, logger, path)
}

// OpenBadgerInMemory opens a throwaway in-memory database. Used by tests and dry runs.
func OpenBadgerInMemory(logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts, logger, ":memory:")
}

func openBadger(opts badger.Options, logger *slog.Logger, path string) (*Badger, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	logger.Info("document store opened", "backend", "badger", "path", path)
	return &Badger{db: db, logger: logger}, nil
}

// Close flushes and closes the database.
func (s *Badger) Close() error {
	s.logger.Info("closing document store")
	return s.db.Close()
}

// List scans the collection prefix and filters in memory. Collections are
// personal-library sized, so a scan per query is fine.
func (s *Badger) List(ctx context.Context, userID, collection string, q Query) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkScope(userID, collection); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	prefix := collectionPrefix(userID, collection)
	var entries []docEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %s: %w", item.Key(), err)
			}
			doc := map[string]any{}
			if err := unmarshalDoc(raw, &doc); err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			entries = append(entries, docEntry{
				id:  string(item.Key()[len(prefix):]),
				doc: doc,
				raw: raw,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return evaluate(entries, q), nil
}

// Get returns one document.
func (s *Badger) Get(ctx context.Context, userID, collection, docID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := checkScope(userID, collection); err != nil {
		return Record{}, err
	}

	key := docKey(userID, collection, docID)
	defer releaseKey(key)

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return notFound(collection, docID)
		}
		if err != nil {
			return fmt.Errorf("failed to get key: %w", err)
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	return Record{ID: docID, Data: raw}, nil
}

// Create writes a new document with a generated id.
func (s *Badger) Create(ctx context.Context, userID, collection string, data any) (string, error) {
	b := s.Batch(userID)
	docID, err := b.Create(collection, data)
	if err != nil {
		return "", err
	}
	if err := b.Commit(ctx); err != nil {
		return "", err
	}
	return docID, nil
}

// Update applies a partial update.
func (s *Badger) Update(ctx context.Context, userID, collection, docID string, patch Patch) error {
	b := s.Batch(userID)
	b.Update(collection, docID, patch)
	return b.Commit(ctx)
}

// Delete removes a document if present.
func (s *Badger) Delete(ctx context.Context, userID, collection, docID string) error {
	b := s.Batch(userID)
	b.Delete(collection, docID)
	return b.Commit(ctx)
}

// Batch starts an atomic write set backed by one badger transaction.
func (s *Badger) Batch(userID string) Batch {
	return &badgerBatch{store: s, userID: userID}
}

// GetSetting returns a stored per-user value or ErrNotFound.
func (s *Badger) GetSetting(ctx context.Context, userID, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(settingKey(userID, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

// PutSetting stores a per-user value.
func (s *Badger) PutSetting(ctx context.Context, userID, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(settingKey(userID, key), value)
	})
}

type opKind int

const (
	opCreate opKind = iota
	opUpdate
	opDelete
)

type batchOp struct {
	kind       opKind
	collection string
	docID      string
	doc        map[string]any
	patch      Patch
}

type badgerBatch struct {
	store  *Badger
	userID string
	ops    []batchOp
	err    error
}

func (b *badgerBatch) Create(collection string, data any) (string, error) {
	docID, err := NewID(collection)
	if err != nil {
		return "", err
	}
	doc, err := EncodeDocument(docID, data)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", collection, err)
	}
	b.ops = append(b.ops, batchOp{kind: opCreate, collection: collection, docID: docID, doc: doc})
	return docID, nil
}

func (b *badgerBatch) Update(collection, docID string, patch Patch) {
	b.ops = append(b.ops, batchOp{kind: opUpdate, collection: collection, docID: docID, patch: patch})
}

func (b *badgerBatch) Delete(collection, docID string) {
	b.ops = append(b.ops, batchOp{kind: opDelete, collection: collection, docID: docID})
}

func (b *badgerBatch) Len() int {
	return len(b.ops)
}

// Commit applies every queued op in order inside one transaction.
func (b *badgerBatch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(b.ops) == 0 {
		return nil
	}
	for _, op := range b.ops {
		if err := checkScope(b.userID, op.collection); err != nil {
			return err
		}
	}

	start := time.Now()
	err := b.store.db.Update(func(txn *badger.Txn) error {
		for _, op := range b.ops {
			if err := applyOp(txn, b.userID, op); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.store.logger.Debug("batch committed",
		"user_id", b.userID,
		"ops", len(b.ops),
		"duration", time.Since(start),
	)
	b.ops = nil
	return nil
}

func applyOp(txn *badger.Txn, userID string, op batchOp) error {
	key := []byte(docPrefix + userID + ":" + op.collection + ":" + op.docID)

	switch op.kind {
	case opCreate:
		if _, err := txn.Get(key); err == nil {
			return ErrAlreadyExists.WithCause(fmt.Errorf("%s/%s", op.collection, op.docID))
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}
		raw, err := json.Marshal(op.doc)
		if err != nil {
			return err
		}
		return txn.Set(key, raw)

	case opUpdate:
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return notFound(op.collection, op.docID)
		}
		if err != nil {
			return fmt.Errorf("failed to get key: %w", err)
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		doc := map[string]any{}
		if err := unmarshalDoc(raw, &doc); err != nil {
			return fmt.Errorf("decode %s/%s: %w", op.collection, op.docID, err)
		}
		if err := ApplyPatch(doc, op.patch); err != nil {
			return fmt.Errorf("patch %s/%s: %w", op.collection, op.docID, err)
		}
		updated, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		return txn.Set(key, updated)

	case opDelete:
		return txn.Delete(key)
	}
	return fmt.Errorf("unknown batch op %d", op.kind)
}
