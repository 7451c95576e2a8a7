// Package di provides dependency injection configuration for the Bookshelf server.
package di

import (
	"io"

	"github.com/samber/do/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/auth"
	"github.com/bookshelfapp/bookshelf-server/internal/config"
	"github.com/bookshelfapp/bookshelf-server/internal/di/providers"
	"github.com/bookshelfapp/bookshelf-server/internal/logger"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// args are the command-line flags handed to config.Load.
func NewContainer(args []string) *do.RootScope {
	return newContainer(args, providers.ProvideLogger)
}

// NewToolContainer is NewContainer for command-line tools: logs go to logOut
// so command output stays clean.
func NewToolContainer(args []string, logOut io.Writer) *do.RootScope {
	return newContainer(args, providers.ProvideLoggerTo(logOut))
}

func newContainer(args []string, provideLogger func(do.Injector) (*logger.Logger, error)) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig(args))
	do.Provide(injector, provideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSettings)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideGenreService)
	do.Provide(injector, providers.ProvideSeriesService)
	do.Provide(injector, providers.ProvideWishlistService)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideStatsService)
	do.Provide(injector, providers.ProvideSearchService)
	do.Provide(injector, providers.ProvideLookupService)
	do.Provide(injector, providers.ProvideBackupService)
	do.Provide(injector, providers.ProvideServices)

	// Workers
	do.Provide(injector, providers.ProvideImportInbox)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes everything the server runs with: the store, the
// services, the import watch folder and the HTTP listener.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SettingsHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}

	// Business services
	_ = do.MustInvoke[*service.BookService](injector)
	_ = do.MustInvoke[*service.LibraryService](injector)
	_ = do.MustInvoke[*service.LookupService](injector)
	_ = do.MustInvoke[*service.BackupService](injector)

	// Workers
	if _, err := do.Invoke[*providers.ImportInboxHandle](injector); err != nil {
		return err
	}

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
