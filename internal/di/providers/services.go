package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/config"
	"github.com/bookshelfapp/bookshelf-server/internal/logger"
	"github.com/bookshelfapp/bookshelf-server/internal/lookup"
	"github.com/bookshelfapp/bookshelf-server/internal/search"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle, log.Logger), nil
}

// ProvideGenreService provides the genre service.
func ProvideGenreService(i do.Injector) (*service.GenreService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewGenreService(storeHandle, log.Logger), nil
}

// ProvideSeriesService provides the series service.
func ProvideSeriesService(i do.Injector) (*service.SeriesService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSeriesService(storeHandle, log.Logger), nil
}

// ProvideWishlistService provides the wishlist service.
func ProvideWishlistService(i do.Injector) (*service.WishlistService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewWishlistService(storeHandle, log.Logger), nil
}

// ProvideLibraryService provides the library view service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(storeHandle, log.Logger, cfg.App.Locale), nil
}

// ProvideStatsService provides the library statistics service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	libraryService := do.MustInvoke[*service.LibraryService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStatsService(libraryService, storeHandle, log.Logger), nil
}

// ProvideSearchService provides the search service with recent-search history.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	settingsHandle := do.MustInvoke[*SettingsHandle](i)
	libraryService := do.MustInvoke[*service.LibraryService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(libraryService, search.NewRecent(settingsHandle), log.Logger), nil
}

// ProvideLookupService provides bibliographic lookup against Open Library and
// Google Books.
func ProvideLookupService(i do.Injector) (*service.LookupService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Lookup.Enabled {
		log.Info("Book lookup disabled by configuration")
		return service.NewLookupService(nil, false, log.Logger), nil
	}

	looker := lookup.NewService(log.Logger, cfg.Lookup.Timeout,
		lookup.NewOpenLibrary(""),
		lookup.NewGoogleBooks("", cfg.Lookup.GoogleBooksAPIKey),
	)

	log.Info("Book lookup enabled",
		"timeout", cfg.Lookup.Timeout,
		"google_books_key", cfg.Lookup.GoogleBooksAPIKey != "",
	)

	return service.NewLookupService(looker, true, log.Logger), nil
}

// ProvideBackupService provides backup export and import.
func ProvideBackupService(i do.Injector) (*service.BackupService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBackupService(storeHandle, log.Logger), nil
}
