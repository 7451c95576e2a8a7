package backup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bookshelfapp/bookshelf-server/internal/color"
	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/duplicate"
	"github.com/bookshelfapp/bookshelf-server/internal/normalize"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// Tally counts outcomes for one category.
type Tally struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// Summary reports an import.
type Summary struct {
	RunID    string `json:"run_id"`
	Genres   Tally  `json:"genres"`
	Series   Tally  `json:"series"`
	Books    Tally  `json:"books"`
	Bin      Tally  `json:"bin"`
	Wishlist Tally  `json:"wishlist"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

// Created is the number of records created across categories.
func (s *Summary) Created() int {
	return s.Genres.Created + s.Series.Created + s.Books.Created + s.Bin.Created + s.Wishlist.Created
}

// Skipped is the number of records skipped across categories.
func (s *Summary) Skipped() int {
	return s.Genres.Skipped + s.Series.Skipped + s.Books.Skipped + s.Bin.Skipped + s.Wishlist.Skipped
}

// NothingNew reports whether the import created nothing.
func (s *Summary) NothingNew() bool {
	return s.Created() == 0
}

// Message is a one-line description for the user.
func (s *Summary) Message() string {
	if s.NothingNew() {
		return fmt.Sprintf("Nothing new to import: %d items were already in your library", s.Skipped())
	}
	return fmt.Sprintf("Import complete: %d books, %d genres, %d series, %d wishlist items added (%d skipped)",
		s.Books.Created+s.Bin.Created, s.Genres.Created, s.Series.Created, s.Wishlist.Created, s.Skipped())
}

func (s *Summary) resetCreated() {
	s.Genres.Created, s.Series.Created, s.Books.Created, s.Bin.Created, s.Wishlist.Created = 0, 0, 0, 0, 0
}

// ImportOptions tunes an import.
type ImportOptions struct {
	// DryRun computes the summary without writing.
	DryRun bool
}

// Importer writes a Document into a user's collections.
type Importer struct {
	store  store.DocumentStore
	logger *slog.Logger
	now    func() time.Time
}

// NewImporter creates an importer over s.
func NewImporter(s store.DocumentStore, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Importer{store: s, logger: logger, now: time.Now}
}

// existing is the user's library as it was before the import.
type existing struct {
	books    []*domain.Book
	genres   []*domain.Genre
	series   []*domain.Series
	wishlist []*domain.WishlistItem
}

func (im *Importer) load(ctx context.Context, userID string) (*existing, error) {
	var ex existing
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ex.books, err = store.ListAs[domain.Book](gctx, im.store, userID, domain.CollectionBooks, store.Query{})
		return err
	})
	g.Go(func() (err error) {
		ex.genres, err = store.ListAs[domain.Genre](gctx, im.store, userID, domain.CollectionGenres, store.Query{})
		return err
	})
	g.Go(func() (err error) {
		ex.series, err = store.ListAs[domain.Series](gctx, im.store, userID, domain.CollectionSeries, store.Query{})
		return err
	})
	g.Go(func() (err error) {
		ex.wishlist, err = store.ListAs[domain.WishlistItem](gctx, im.store, userID, domain.CollectionWishlist, store.Query{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ex, nil
}

// Import adds doc's records to the user's library. Genres and series are
// matched to existing ones by name and reused; books already owned (by ISBN
// or by title and author) are skipped; wishlist items already wished for or
// owned are skipped. Every write goes into one batch, so on failure nothing
// is written; the returned summary then keeps its skip counts with zero created.
func (im *Importer) Import(ctx context.Context, userID string, doc *Document, opts ImportOptions) (*Summary, error) {
	sum := &Summary{RunID: uuid.NewString(), DryRun: opts.DryRun}
	logger := im.logger.With("run_id", sum.RunID, "user_id", userID)

	ex, err := im.load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read library for import: %w", err)
	}

	batch := im.store.Batch(userID)
	now := im.now().UTC()

	genreIDs := im.importGenres(batch, ex.genres, doc.Genres, &sum.Genres, now)
	seriesIDs := im.importSeries(batch, ex.series, doc.Series, &sum.Series, now)

	owned := duplicate.IndexBooks(ex.books)
	newlyOwned := duplicate.NewIndex()
	refs := remap{genres: genreIDs, series: seriesIDs}
	im.importBooks(batch, owned, newlyOwned, refs, doc.Books, &sum.Books, now, false)
	im.importBooks(batch, owned, newlyOwned, refs, doc.Bin, &sum.Bin, now, true)

	owned.Merge(newlyOwned)
	im.importWishlist(batch, duplicate.IndexWishlist(ex.wishlist), owned, doc.Wishlist, &sum.Wishlist, now)

	if opts.DryRun || batch.Len() == 0 {
		logger.Info("import finished without writes",
			"dry_run", opts.DryRun,
			"created", sum.Created(),
			"skipped", sum.Skipped(),
		)
		return sum, nil
	}

	if err := batch.Commit(ctx); err != nil {
		logger.Error("import commit failed", "writes", batch.Len(), "error", err)
		sum.resetCreated()
		return sum, fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}

	logger.Info("import committed",
		"created", sum.Created(),
		"skipped", sum.Skipped(),
		"books", sum.Books.Created,
		"bin", sum.Bin.Created,
	)
	return sum, nil
}

// remap translates export ids to storage ids.
type remap struct {
	genres map[string]string
	series map[string]string
}

func (im *Importer) importGenres(batch store.Batch, current []*domain.Genre, in []Genre, t *Tally, now time.Time) map[string]string {
	byName := make(map[string]string, len(current))
	for _, g := range current {
		byName[normalize.Key(g.Name)] = g.ID
	}

	ids := make(map[string]string, len(in))
	for _, g := range in {
		key := normalize.Key(g.Name)
		if key == "" {
			t.Skipped++
			continue
		}
		if existingID, ok := byName[key]; ok {
			if g.ExportID != "" {
				ids[g.ExportID] = existingID
			}
			t.Skipped++
			continue
		}

		c, ok := color.Normalize(g.Color)
		if !ok {
			c = color.ForName(g.Name)
		}
		gen := domain.Genre{Name: normalize.Spaces(g.Name), Color: c}
		gen.CreatedAt = timeOr(g.CreatedAt, now)
		gen.UpdatedAt = timeOr(g.UpdatedAt, now)

		newID, err := batch.Create(domain.CollectionGenres, gen)
		if err != nil {
			im.logger.Warn("skipping genre that could not be encoded", "name", g.Name, "error", err)
			t.Skipped++
			continue
		}
		byName[key] = newID
		if g.ExportID != "" {
			ids[g.ExportID] = newID
		}
		t.Created++
	}
	return ids
}

func (im *Importer) importSeries(batch store.Batch, current []*domain.Series, in []Series, t *Tally, now time.Time) map[string]string {
	byName := make(map[string]string, len(current))
	for _, s := range current {
		byName[normalize.Key(s.Name)] = s.ID
	}

	ids := make(map[string]string, len(in))
	for _, s := range in {
		key := normalize.Key(s.Name)
		if key == "" {
			t.Skipped++
			continue
		}
		if existingID, ok := byName[key]; ok {
			if s.ExportID != "" {
				ids[s.ExportID] = existingID
			}
			t.Skipped++
			continue
		}

		series := domain.Series{Name: normalize.Spaces(s.Name), TotalBooks: positiveOrNil(s.TotalBooks)}
		series.CreatedAt = timeOr(s.CreatedAt, now)
		series.UpdatedAt = timeOr(s.UpdatedAt, now)

		newID, err := batch.Create(domain.CollectionSeries, series)
		if err != nil {
			im.logger.Warn("skipping series that could not be encoded", "name", s.Name, "error", err)
			t.Skipped++
			continue
		}
		byName[key] = newID
		if s.ExportID != "" {
			ids[s.ExportID] = newID
		}
		t.Created++
	}
	return ids
}

// importBooks checks each book against the pre-import library only. Books
// created here are recorded in newlyOwned for the wishlist step.
func (im *Importer) importBooks(
	batch store.Batch,
	owned, newlyOwned *duplicate.Index,
	refs remap,
	in []Book,
	t *Tally,
	now time.Time,
	binned bool,
) {
	for _, b := range in {
		if normalize.Spaces(b.Title) == "" || owned.Contains(b.ISBN, b.Title, b.Author) {
			t.Skipped++
			continue
		}

		book := im.toDomainBook(b, refs, now)
		if binned && book.DeletedAt == nil {
			book.DeletedAt = &now
		}
		if !binned {
			book.DeletedAt = nil
		}

		if _, err := batch.Create(domain.CollectionBooks, book); err != nil {
			im.logger.Warn("skipping book that could not be encoded", "title", b.Title, "error", err)
			t.Skipped++
			continue
		}
		newlyOwned.Add(book.ISBN, book.Title, book.Author)
		t.Created++
	}
}

func (im *Importer) toDomainBook(b Book, refs remap, now time.Time) domain.Book {
	book := domain.Book{
		Title:          normalize.Spaces(b.Title),
		Author:         normalize.Spaces(b.Author),
		ISBN:           duplicate.CleanISBN(b.ISBN),
		Publisher:      b.Publisher,
		PublishedDate:  normalize.PublishedDate(b.PublishedDate),
		PageCount:      positiveOrNil(b.PageCount),
		PhysicalFormat: b.PhysicalFormat,
		CoverImageURL:  b.CoverImageURL,
		Notes:          b.Notes,
		DeletedAt:      b.DeletedAt,
	}
	if b.Rating != nil && *b.Rating >= 1 && *b.Rating <= 5 {
		book.Rating = b.Rating
	}
	for _, r := range b.Reads {
		book.Reads = append(book.Reads, domain.ReadAttempt(r))
	}

	var genres []string
	for _, old := range b.GenreIDs {
		if id, ok := refs.genres[old]; ok {
			genres = append(genres, id)
		}
	}
	book.GenreIDs = domain.UniqueGenreIDs(genres)

	if id, ok := refs.series[b.SeriesID]; ok && b.SeriesID != "" {
		book.SeriesID = id
		book.SeriesPosition = positiveOrNil(b.SeriesPosition)
	}

	book.CreatedAt = timeOr(b.CreatedAt, now)
	book.UpdatedAt = timeOr(b.UpdatedAt, now)
	return book
}

// importWishlist skips items already on the wishlist, then items owned
// before or during this import.
func (im *Importer) importWishlist(batch store.Batch, wished, owned *duplicate.Index, in []WishlistItem, t *Tally, now time.Time) {
	for _, w := range in {
		if normalize.Spaces(w.Title) == "" ||
			wished.Contains(w.ISBN, w.Title, w.Author) ||
			owned.Contains(w.ISBN, w.Title, w.Author) {
			t.Skipped++
			continue
		}

		item := domain.WishlistItem{
			Title:         normalize.Spaces(w.Title),
			Author:        normalize.Spaces(w.Author),
			ISBN:          duplicate.CleanISBN(w.ISBN),
			CoverImageURL: w.CoverImageURL,
			Publisher:     w.Publisher,
			PublishedDate: normalize.PublishedDate(w.PublishedDate),
			PageCount:     positiveOrNil(w.PageCount),
			Notes:         w.Notes,
		}
		if w.Priority.Rank() < domain.Priority("").Rank() {
			item.Priority = w.Priority
		}
		item.CreatedAt = timeOr(w.CreatedAt, now)
		item.UpdatedAt = now

		if _, err := batch.Create(domain.CollectionWishlist, item); err != nil {
			im.logger.Warn("skipping wishlist item that could not be encoded", "title", w.Title, "error", err)
			t.Skipped++
			continue
		}
		t.Created++
	}
}

func positiveOrNil(n *int) *int {
	if n == nil || *n <= 0 {
		return nil
	}
	return n
}
