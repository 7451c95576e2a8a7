package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/config"
	"github.com/bookshelfapp/bookshelf-server/internal/logger"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
	"github.com/bookshelfapp/bookshelf-server/internal/watcher"
)

// ImportInboxHandle wraps the import watch folder with shutdown capability.
// Inbox is nil when no watch folder is configured.
type ImportInboxHandle struct {
	*watcher.Inbox
	cancel context.CancelFunc
	done   chan error
}

// Shutdown implements do.Shutdownable.
func (h *ImportInboxHandle) Shutdown() error {
	if h.Inbox == nil {
		return nil
	}
	h.cancel()
	return <-h.done
}

// ProvideImportInbox provides the watch folder that imports dropped backup files.
func ProvideImportInbox(i do.Injector) (*ImportInboxHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Import.WatchDir == "" {
		log.Info("Import watch folder disabled")
		return &ImportInboxHandle{}, nil
	}

	backupService := do.MustInvoke[*service.BackupService](i)

	inbox, err := watcher.NewInbox(cfg.Import.WatchDir, cfg.Import.WatchUser, backupService, log.Logger)
	if err != nil {
		return nil, err
	}

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- inbox.Run(ctx)
	}()

	log.Info("Import watch folder started",
		"dir", cfg.Import.WatchDir,
		"user_id", cfg.Import.WatchUser,
	)

	return &ImportInboxHandle{Inbox: inbox, cancel: cancel, done: done}, nil
}
