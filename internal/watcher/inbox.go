package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bookshelfapp/bookshelf-server/internal/backup"
)

// Subdirectories of the inbox that handled files are moved into.
const (
	ImportedDir = "imported"
	FailedDir   = "failed"
)

// Importer restores a backup file into a user's library.
type Importer interface {
	ImportFile(ctx context.Context, userID string, r io.Reader, opts backup.ImportOptions) (*backup.Summary, error)
}

// Inbox imports backup files dropped into a directory on behalf of one user.
// Each file is moved to imported/ or failed/ once handled, so it is only
// ever imported once.
type Inbox struct {
	dir      string
	userID   string
	importer Importer
	watcher  *Watcher
	logger   *slog.Logger
}

// NewInbox creates an inbox over dir. The directory and its subdirectories
// are created if missing.
func NewInbox(dir, userID string, importer Importer, logger *slog.Logger) (*Inbox, error) {
	if userID == "" {
		return nil, errors.New("import inbox needs a user")
	}
	for _, sub := range []string{"", ImportedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o750); err != nil {
			return nil, fmt.Errorf("create import inbox: %w", err)
		}
	}

	w, err := New(logger, Options{IncludePatterns: []string{"*.json"}})
	if err != nil {
		return nil, err
	}
	if err := w.Watch(dir); err != nil {
		_ = w.Stop()
		return nil, err
	}

	return &Inbox{
		dir:      filepath.Clean(dir),
		userID:   userID,
		importer: importer,
		watcher:  w,
		logger:   logger.With("component", "import_inbox", "dir", dir),
	}, nil
}

// Run imports files already waiting, then every file that settles in the
// directory, until ctx is cancelled.
func (in *Inbox) Run(ctx context.Context) error {
	in.logger.Info("import inbox watching", "user_id", in.userID)
	in.drain(ctx)

	go func() {
		_ = in.watcher.Start(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return in.watcher.Stop()
		case ev := <-in.watcher.Events():
			if ev.Type == EventAdded && filepath.Dir(ev.Path) == in.dir {
				in.Process(ctx, ev.Path)
			}
		case err := <-in.watcher.Errors():
			in.logger.Warn("import inbox watch error", "error", err)
		}
	}
}

// Stop releases the watch.
func (in *Inbox) Stop() error {
	return in.watcher.Stop()
}

// drain processes files that were dropped while nothing was watching.
func (in *Inbox) drain(ctx context.Context) {
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		in.logger.Warn("failed to list import inbox", "error", err)
		return
	}
	for _, e := range entries {
		path := filepath.Join(in.dir, e.Name())
		if e.IsDir() || in.watcher.opts.shouldIgnore(path) {
			continue
		}
		in.Process(ctx, path)
	}
}

// Process imports one file and files it under imported/ or failed/.
func (in *Inbox) Process(ctx context.Context, path string) {
	start := time.Now()
	sum, err := in.importFile(ctx, path)

	dest := ImportedDir
	if err != nil {
		dest = FailedDir
		in.logger.Warn("backup import failed", "file", filepath.Base(path), "error", err)
	} else {
		in.logger.Info("backup imported",
			"file", filepath.Base(path),
			"run_id", sum.RunID,
			"created", sum.Created(),
			"skipped", sum.Skipped(),
			"duration", time.Since(start),
		)
	}

	if err := in.move(path, dest); err != nil {
		in.logger.Error("failed to file processed backup", "file", path, "error", err)
	}
}

func (in *Inbox) importFile(ctx context.Context, path string) (*backup.Summary, error) {
	//#nosec G304 -- Path comes from the configured inbox directory
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return in.importer.ImportFile(ctx, in.userID, f, backup.ImportOptions{})
}

// move renames path into sub, adding a timestamp when the name is taken.
func (in *Inbox) move(path, sub string) error {
	name := filepath.Base(path)
	target := filepath.Join(in.dir, sub, name)
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(name)
		target = filepath.Join(in.dir, sub,
			fmt.Sprintf("%s-%s%s", strings.TrimSuffix(name, ext), time.Now().UTC().Format("20060102T150405.000"), ext))
	}
	return os.Rename(path, target)
}
