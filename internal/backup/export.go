package backup

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// Exporter reads a user's collections into a Document.
type Exporter struct {
	store store.DocumentStore
	now   func() time.Time
}

// NewExporter creates an exporter over s.
func NewExporter(s store.DocumentStore) *Exporter {
	return &Exporter{store: s, now: time.Now}
}

// Export builds the user's backup. It returns ErrNothingToExport when the
// user has no records at all.
func (e *Exporter) Export(ctx context.Context, userID string) (*Document, error) {
	var (
		books    []*domain.Book
		genres   []*domain.Genre
		series   []*domain.Series
		wishlist []*domain.WishlistItem
	)

	g, gctx := errgroup.WithContext(ctx)
	byCreated := store.Query{OrderBy: "created_at"}
	g.Go(func() (err error) {
		books, err = store.ListAs[domain.Book](gctx, e.store, userID, domain.CollectionBooks, byCreated)
		return err
	})
	g.Go(func() (err error) {
		genres, err = store.ListAs[domain.Genre](gctx, e.store, userID, domain.CollectionGenres, byCreated)
		return err
	})
	g.Go(func() (err error) {
		series, err = store.ListAs[domain.Series](gctx, e.store, userID, domain.CollectionSeries, byCreated)
		return err
	})
	g.Go(func() (err error) {
		wishlist, err = store.ListAs[domain.WishlistItem](gctx, e.store, userID, domain.CollectionWishlist, byCreated)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("read library for export: %w", err)
	}

	if len(books)+len(genres)+len(series)+len(wishlist) == 0 {
		return nil, ErrNothingToExport
	}

	doc := &Document{
		Version:    CurrentVersion,
		ExportedAt: e.now().UTC(),
		Genres:     make([]Genre, 0, len(genres)),
		Series:     make([]Series, 0, len(series)),
		Books:      []Book{},
		Wishlist:   make([]WishlistItem, 0, len(wishlist)),
		Bin:        []Book{},
	}
	for _, gen := range genres {
		doc.Genres = append(doc.Genres, Genre{
			ExportID:  gen.ID,
			Name:      gen.Name,
			Color:     gen.Color,
			CreatedAt: timePtr(gen.CreatedAt),
			UpdatedAt: timePtr(gen.UpdatedAt),
		})
	}
	for _, s := range series {
		doc.Series = append(doc.Series, Series{
			ExportID:   s.ID,
			Name:       s.Name,
			TotalBooks: s.TotalBooks,
			CreatedAt:  timePtr(s.CreatedAt),
			UpdatedAt:  timePtr(s.UpdatedAt),
		})
	}
	for _, b := range books {
		if b.InBin() {
			doc.Bin = append(doc.Bin, exportBook(b))
		} else {
			doc.Books = append(doc.Books, exportBook(b))
		}
	}
	for _, w := range wishlist {
		doc.Wishlist = append(doc.Wishlist, WishlistItem{
			Title:         w.Title,
			Author:        w.Author,
			ISBN:          w.ISBN,
			CoverImageURL: w.CoverImageURL,
			Publisher:     w.Publisher,
			PublishedDate: w.PublishedDate,
			PageCount:     w.PageCount,
			Priority:      w.Priority,
			Notes:         w.Notes,
			CreatedAt:     timePtr(w.CreatedAt),
		})
	}
	return doc, nil
}

func exportBook(b *domain.Book) Book {
	out := Book{
		Title:          b.Title,
		Author:         b.Author,
		ISBN:           b.ISBN,
		Publisher:      b.Publisher,
		PublishedDate:  b.PublishedDate,
		PageCount:      b.PageCount,
		PhysicalFormat: b.PhysicalFormat,
		Rating:         b.Rating,
		GenreIDs:       b.GenreIDs,
		SeriesID:       b.SeriesID,
		SeriesPosition: b.SeriesPosition,
		CoverImageURL:  b.CoverImageURL,
		Notes:          b.Notes,
		CreatedAt:      timePtr(b.CreatedAt),
		UpdatedAt:      timePtr(b.UpdatedAt),
		DeletedAt:      b.DeletedAt,
	}
	for _, r := range b.Reads {
		out.Reads = append(out.Reads, ReadAttempt(r))
	}
	return out
}
