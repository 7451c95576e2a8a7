// Package service wraps the pure library logic with store I/O, validation
// and logging. Each service is scoped per call by a user id.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/normalize"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// notFound turns a store miss on the direct target of an operation into a
// user-facing not-found error.
func notFound(err error, kind, docID string) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("%s %s not found", kind, docID)
	}
	return err
}

// storeFailure logs a transient store error and wraps it for the caller.
func storeFailure(logger *slog.Logger, err error, op string, args ...any) error {
	logger.Error(op+" failed", append(args, "error", err)...)
	return fmt.Errorf("%s: %w", op, err)
}

// now is the timestamp written on every mutation.
func now() time.Time {
	return time.Now().UTC()
}

// optionalString maps "" to a field removal in a patch.
func optionalString(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}

// optionalInt maps 0 to a field removal in a patch.
func optionalInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

// requireUniqueName fails when another entity, other than skipID, already
// uses name ignoring case and spacing.
func requireUniqueName[T any](items []*T, nameOf func(*T) string, idOf func(*T) string, name, skipID, kind string) error {
	key := normalize.Key(name)
	if slices.ContainsFunc(items, func(it *T) bool {
		return idOf(it) != skipID && normalize.Key(nameOf(it)) == key
	}) {
		return domainerrors.Conflictf("a %s named %q already exists", kind, normalize.Spaces(name))
	}
	return nil
}
