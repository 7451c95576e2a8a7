package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/config"
	"github.com/bookshelfapp/bookshelf-server/internal/logger"
	"github.com/bookshelfapp/bookshelf-server/internal/settings"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/store/sqlite"
)

// backend is what every document store implementation offers.
type backend interface {
	store.DocumentStore
	store.SettingsStore
	Close() error
}

// StoreHandle wraps the document store with shutdown capability.
type StoreHandle struct {
	store.DocumentStore
	settings store.SettingsStore
	close    func() error
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.close()
}

// ProvideStore opens the configured document store under the data path.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o750); err != nil {
		return nil, fmt.Errorf("create data path: %w", err)
	}

	var (
		db     backend
		dbPath string
		err    error
	)
	switch cfg.Storage.Backend {
	case config.StoreSQLite:
		dbPath = filepath.Join(cfg.Storage.DataPath, "bookshelf.db")
		db, err = sqlite.Open(dbPath, log.Logger)
	default:
		dbPath = filepath.Join(cfg.Storage.DataPath, "db")
		db, err = store.OpenBadger(dbPath, log.Logger)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.Storage.Backend, "path", dbPath)

	return &StoreHandle{DocumentStore: db, settings: db, close: db.Close}, nil
}

// SettingsHandle wraps the per-user settings store.
type SettingsHandle struct {
	settings.KV
	close func() error
}

// Shutdown implements do.Shutdownable.
func (h *SettingsHandle) Shutdown() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// ProvideSettings provides the settings store. The store backend reuses the
// document store; redis shares settings between server instances.
func ProvideSettings(i do.Injector) (*SettingsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Settings.Backend {
	case config.SettingsMemory:
		log.Info("Settings kept in memory")
		return &SettingsHandle{KV: settings.NewMemory()}, nil

	case config.SettingsRedis:
		client, err := settings.NewRedisClient(context.Background(), cfg.Settings.RedisURL, log.Logger)
		if err != nil {
			return nil, err
		}
		kv := settings.NewRedis(client, 0)
		return &SettingsHandle{KV: kv, close: kv.Close}, nil

	default:
		storeHandle := do.MustInvoke[*StoreHandle](i)
		return &SettingsHandle{KV: settings.NewStoreBacked(storeHandle.settings)}, nil
	}
}
