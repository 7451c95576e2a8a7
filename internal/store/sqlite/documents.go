package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// List translates q into json_extract / json_each predicates.
func (s *Store) List(ctx context.Context, userID, collection string, q store.Query) ([]store.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, data FROM documents WHERE user_id = ? AND collection = ?`)
	args := []any{userID, collection}

	for _, f := range q.Where {
		switch f.Op {
		case store.OpEq:
			sb.WriteString(` AND json_extract(data, ?) = ?`)
		case store.OpContains:
			sb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(data, ?) WHERE json_each.value = ?)`)
		}
		args = append(args, "$."+f.Field, sqlValue(f.Value))
	}

	if q.OrderBy != "" {
		sb.WriteString(` ORDER BY json_extract(data, ?)`)
		if q.Desc {
			sb.WriteString(` DESC`)
		}
		sb.WriteString(`, id`)
		args = append(args, "$."+q.OrderBy)
	} else {
		sb.WriteString(` ORDER BY id`)
	}

	if q.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		var (
			docID string
			data  string
		)
		if err := rows.Scan(&docID, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		out = append(out, store.Record{ID: docID, Data: json.RawMessage(data)})
	}
	return out, rows.Err()
}

// Get returns one document.
func (s *Store) Get(ctx context.Context, userID, collection, docID string) (store.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE user_id = ? AND collection = ? AND id = ?`,
		userID, collection, docID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, store.ErrNotFound.WithCause(fmt.Errorf("%s/%s", collection, docID))
	}
	if err != nil {
		return store.Record{}, fmt.Errorf("get %s/%s: %w", collection, docID, err)
	}
	return store.Record{ID: docID, Data: json.RawMessage(data)}, nil
}

// Create inserts a new document with a generated id.
func (s *Store) Create(ctx context.Context, userID, collection string, data any) (string, error) {
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

// Update merges patch into the stored document.
func (s *Store) Update(ctx context.Context, userID, collection, docID string, patch store.Patch) error {
	b := s.Batch(userID)
	b.Update(collection, docID, patch)
	return b.Commit(ctx)
}

// Delete removes a document if present.
func (s *Store) Delete(ctx context.Context, userID, collection, docID string) error {
	b := s.Batch(userID)
	b.Delete(collection, docID)
	return b.Commit(ctx)
}

// Batch starts an atomic write set backed by one SQL transaction.
func (s *Store) Batch(userID string) store.Batch {
	return &batch{store: s, userID: userID}
}

type op struct {
	stmt  string
	args  []any
	check func(sql.Result) error
}

type batch struct {
	store  *Store
	userID string
	ops    []op
	err    error
}

func (b *batch) Create(collection string, data any) (string, error) {
	docID, err := store.NewID(collection)
	if err != nil {
		return "", err
	}
	doc, err := store.EncodeDocument(docID, data)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", collection, err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	b.ops = append(b.ops, op{
		stmt: `INSERT INTO documents (user_id, collection, id, data, updated_at) VALUES (?, ?, ?, ?, ?)`,
		args: []any{b.userID, collection, docID, string(raw), formatTime(time.Now())},
	})
	return docID, nil
}

// Update uses json_patch, whose RFC 7396 merge semantics match store.Patch:
// absent keys are kept and null removes the key.
func (b *batch) Update(collection, docID string, patch store.Patch) {
	clean := make(map[string]any, len(patch))
	for k, v := range patch {
		if k != "id" {
			clean[k] = v
		}
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("encode patch %s/%s: %w", collection, docID, err))
		return
	}
	b.ops = append(b.ops, op{
		stmt: `UPDATE documents SET data = json_patch(data, ?), updated_at = ?
		       WHERE user_id = ? AND collection = ? AND id = ?`,
		args: []any{string(raw), formatTime(time.Now()), b.userID, collection, docID},
		check: func(res sql.Result) error {
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return store.ErrNotFound.WithCause(fmt.Errorf("%s/%s", collection, docID))
			}
			return nil
		},
	})
}

func (b *batch) Delete(collection, docID string) {
	b.ops = append(b.ops, op{
		stmt: `DELETE FROM documents WHERE user_id = ? AND collection = ? AND id = ?`,
		args: []any{b.userID, collection, docID},
	})
}

func (b *batch) Len() int {
	return len(b.ops)
}

func (b *batch) Commit(ctx context.Context) (err error) {
	if b.err != nil {
		return b.err
	}
	if len(b.ops) == 0 {
		return nil
	}

	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, o := range b.ops {
		res, execErr := tx.ExecContext(ctx, o.stmt, o.args...)
		if execErr != nil {
			if strings.Contains(execErr.Error(), "UNIQUE constraint failed") {
				return store.ErrAlreadyExists.WithCause(execErr)
			}
			return fmt.Errorf("exec batch op: %w", execErr)
		}
		if o.check != nil {
			if err := o.check(res); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	b.store.logger.Debug("batch committed", "user_id", b.userID, "ops", len(b.ops))
	b.ops = nil
	return nil
}

// sqlValue maps filter values onto what json_extract returns.
func sqlValue(v any) any {
	if bv, ok := v.(bool); ok {
		if bv {
			return 1
		}
		return 0
	}
	return v
}
