package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/library"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// LibraryService answers read-only questions about a user's whole library.
type LibraryService struct {
	store  store.DocumentStore
	logger *slog.Logger
	locale language.Tag
}

// NewLibraryService creates a library service. locale is a BCP 47 tag used
// to collate titles and authors; an unparseable tag falls back to English.
func NewLibraryService(s store.DocumentStore, logger *slog.Logger, locale string) *LibraryService {
	tag, err := language.Parse(locale)
	if err != nil {
		logger.Warn("unknown locale, collating as English", "locale", locale, "error", err)
		tag = language.English
	}
	return &LibraryService{store: s, logger: logger, locale: tag}
}

// Snapshot is everything the library views work from, loaded together.
type Snapshot struct {
	Books  []*domain.Book
	Genres []*domain.Genre
	Series []*domain.Series
}

// Snapshot loads books, genres and series concurrently. Books include the bin.
func (s *LibraryService) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Books, err = store.ListAs[domain.Book](gctx, s.store, userID, domain.CollectionBooks, store.Query{})
		return err
	})
	g.Go(func() error {
		var err error
		snap.Genres, err = store.ListAs[domain.Genre](gctx, s.store, userID, domain.CollectionGenres, store.Query{})
		return err
	})
	g.Go(func() error {
		var err error
		snap.Series, err = store.ListAs[domain.Series](gctx, s.store, userID, domain.CollectionSeries, store.Query{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeFailure(s.logger, err, "load library", "user_id", userID)
	}
	return &snap, nil
}

// LibraryQuery selects and orders the visible library.
type LibraryQuery struct {
	Criteria  library.Criteria
	Sort      string
	Direction string
}

// LibraryView is one page of the library with facet counts.
type LibraryView struct {
	Books  []*domain.Book `json:"books"`
	Facets library.Facets `json:"facets"`
	// Total counts the books outside the bin; Matched counts those passing the filter.
	Total   int `json:"total"`
	Matched int `json:"matched"`
}

// Query filters, counts and sorts the books outside the bin.
func (s *LibraryService) Query(ctx context.Context, userID string, q LibraryQuery) (*LibraryView, error) {
	key, err := library.ParseSortKey(q.Sort)
	if err != nil {
		return nil, domainerrors.ValidationWithDetails("invalid sort", map[string]string{"sort": err.Error()})
	}
	dir, err := library.ParseDirection(q.Direction)
	if err != nil {
		return nil, domainerrors.ValidationWithDetails("invalid sort", map[string]string{"dir": err.Error()})
	}

	books, err := store.ListAs[domain.Book](ctx, s.store, userID, domain.CollectionBooks, store.Query{})
	if err != nil {
		return nil, storeFailure(s.logger, err, "list books", "user_id", userID)
	}

	active := library.Active(books)
	matched := library.Filter(active, q.Criteria)
	view := &LibraryView{
		Books:   library.Sort(matched, library.SortOptions{Key: key, Direction: dir, Locale: s.locale}),
		Facets:  library.ComputeFacets(active, q.Criteria),
		Total:   len(active),
		Matched: len(matched),
	}

	s.logger.Debug("library queried", "user_id", userID, "total", view.Total, "matched", view.Matched, "sort", key, "dir", dir)
	return view, nil
}
