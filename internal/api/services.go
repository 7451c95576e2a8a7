package api

import "github.com/bookshelfapp/bookshelf-server/internal/service"

// Services groups the business services used by the API server.
type Services struct {
	Book     *service.BookService
	Genre    *service.GenreService
	Series   *service.SeriesService
	Wishlist *service.WishlistService
	Library  *service.LibraryService
	Stats    *service.StatsService
	Search   *service.SearchService
	Lookup   *service.LookupService // nil when lookups are not wired
	Backup   *service.BackupService
}
