package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/duplicate"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/library"
	"github.com/bookshelfapp/bookshelf-server/internal/normalize"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

// BookService orchestrates book operations.
type BookService struct {
	store     store.DocumentStore
	checker   *duplicate.Checker
	logger    *slog.Logger
	validator *validation.Validator
}

// NewBookService creates a new book service.
func NewBookService(s store.DocumentStore, logger *slog.Logger) *BookService {
	return &BookService{
		store:     s,
		checker:   duplicate.NewChecker(s),
		logger:    logger,
		validator: validation.New(),
	}
}

// CreateBookRequest contains fields for adding a book.
type CreateBookRequest struct {
	Title          string               `json:"title" validate:"required,max=500"`
	Author         string               `json:"author" validate:"max=300"`
	ISBN           string               `json:"isbn,omitempty" validate:"omitempty,isbn"`
	Publisher      string               `json:"publisher,omitempty" validate:"max=300"`
	PublishedDate  string               `json:"published_date,omitempty" validate:"max=50"`
	PageCount      *int                 `json:"page_count,omitempty" validate:"omitempty,min=1"`
	PhysicalFormat string               `json:"physical_format,omitempty" validate:"max=50"`
	Rating         *int                 `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Reads          []domain.ReadAttempt `json:"reads,omitempty"`
	GenreIDs       []string             `json:"genre_ids,omitempty"`
	SeriesID       string               `json:"series_id,omitempty"`
	SeriesPosition *int                 `json:"series_position,omitempty" validate:"omitempty,min=1"`
	CoverImageURL  string               `json:"cover_image_url,omitempty" validate:"omitempty,url"`
	Notes          string               `json:"notes,omitempty" validate:"max=10000"`
	// Force adds the book even if it looks like one already owned.
	Force bool `json:"force,omitempty"`
}

func (r CreateBookRequest) toBook() domain.Book {
	b := domain.Book{
		Title:          normalize.Spaces(r.Title),
		Author:         normalize.Spaces(r.Author),
		ISBN:           duplicate.CleanISBN(r.ISBN),
		Publisher:      normalize.Spaces(r.Publisher),
		PublishedDate:  normalize.PublishedDate(r.PublishedDate),
		PageCount:      r.PageCount,
		PhysicalFormat: r.PhysicalFormat,
		Rating:         r.Rating,
		Reads:          r.Reads,
		GenreIDs:       domain.UniqueGenreIDs(r.GenreIDs),
		CoverImageURL:  r.CoverImageURL,
		Notes:          r.Notes,
	}
	if r.SeriesID != "" {
		b.SeriesID = r.SeriesID
		b.SeriesPosition = r.SeriesPosition
	}
	return b
}

// Create adds a book. Unless Force is set, a book that matches one already
// owned is refused with a conflict whose details carry the match.
func (s *BookService) Create(ctx context.Context, userID string, req CreateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if !req.Force {
		res, err := s.checker.Check(ctx, userID, req.ISBN, req.Title, req.Author)
		if err != nil {
			return nil, storeFailure(s.logger, err, "duplicate check", "user_id", userID)
		}
		if res.IsDuplicate {
			return nil, domainerrors.Conflictf("%q is already in your library", res.Existing.Title).WithDetails(res)
		}
	}

	b := req.toBook()
	b.InitTimestamps()

	bookID, err := s.store.Create(ctx, userID, domain.CollectionBooks, b)
	if err != nil {
		return nil, storeFailure(s.logger, err, "create book", "user_id", userID)
	}
	b.ID = bookID

	s.logger.Info("book created", "user_id", userID, "book_id", bookID, "title", b.Title, "forced", req.Force)
	return &b, nil
}

// CheckDuplicate reports whether a candidate book is already owned.
func (s *BookService) CheckDuplicate(ctx context.Context, userID, isbn, title, author string) (duplicate.Result, error) {
	return s.checker.Check(ctx, userID, isbn, title, author)
}

// Get returns one book, bin included.
func (s *BookService) Get(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	b, err := store.GetAs[domain.Book](ctx, s.store, userID, domain.CollectionBooks, bookID)
	if err != nil {
		return nil, notFound(err, "book", bookID)
	}
	return b, nil
}

// UpdateBookRequest holds a partial edit. Nil fields are left alone; an empty
// string or zero number clears an optional field.
type UpdateBookRequest struct {
	Title          *string               `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Author         *string               `json:"author,omitempty" validate:"omitempty,max=300"`
	ISBN           *string               `json:"isbn,omitempty" validate:"omitempty"`
	Publisher      *string               `json:"publisher,omitempty" validate:"omitempty,max=300"`
	PublishedDate  *string               `json:"published_date,omitempty" validate:"omitempty,max=50"`
	PageCount      *int                  `json:"page_count,omitempty" validate:"omitempty,min=0"`
	PhysicalFormat *string               `json:"physical_format,omitempty" validate:"omitempty,max=50"`
	Rating         *int                  `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	Reads          *[]domain.ReadAttempt `json:"reads,omitempty"`
	GenreIDs       *[]string             `json:"genre_ids,omitempty"`
	SeriesID       *string               `json:"series_id,omitempty"`
	SeriesPosition *int                  `json:"series_position,omitempty" validate:"omitempty,min=0"`
	CoverImageURL  *string               `json:"cover_image_url,omitempty" validate:"omitempty,max=2000"`
	Notes          *string               `json:"notes,omitempty" validate:"omitempty,max=10000"`
}

func (r UpdateBookRequest) patch() (store.Patch, error) {
	p := store.Patch{"updated_at": now()}
	if r.Title != nil {
		p["title"] = normalize.Spaces(*r.Title)
	}
	if r.Author != nil {
		p["author"] = normalize.Spaces(*r.Author)
	}
	if r.ISBN != nil {
		if *r.ISBN != "" && !duplicate.IsISBN(*r.ISBN) {
			return nil, domainerrors.ValidationWithDetails("validation failed",
				map[string]string{"isbn": "must be a 10 or 13 digit ISBN"})
		}
		p["isbn"] = optionalString(duplicate.CleanISBN(*r.ISBN))
	}
	if r.Publisher != nil {
		p["publisher"] = optionalString(normalize.Spaces(*r.Publisher))
	}
	if r.PublishedDate != nil {
		p["published_date"] = optionalString(normalize.PublishedDate(*r.PublishedDate))
	}
	if r.PageCount != nil {
		p["page_count"] = optionalInt(*r.PageCount)
	}
	if r.PhysicalFormat != nil {
		p["physical_format"] = optionalString(*r.PhysicalFormat)
	}
	if r.Rating != nil {
		p["rating"] = optionalInt(*r.Rating)
	}
	if r.Reads != nil {
		if len(*r.Reads) == 0 {
			p["reads"] = nil
		} else {
			p["reads"] = *r.Reads
		}
	}
	if r.GenreIDs != nil {
		if ids := domain.UniqueGenreIDs(*r.GenreIDs); len(ids) > 0 {
			p["genre_ids"] = ids
		} else {
			p["genre_ids"] = nil
		}
	}
	if r.SeriesID != nil {
		p["series_id"] = optionalString(*r.SeriesID)
		if *r.SeriesID == "" {
			p["series_position"] = nil
		}
	}
	if r.SeriesPosition != nil {
		p["series_position"] = optionalInt(*r.SeriesPosition)
	}
	if r.CoverImageURL != nil {
		p["cover_image_url"] = optionalString(*r.CoverImageURL)
	}
	if r.Notes != nil {
		p["notes"] = optionalString(*r.Notes)
	}
	return p, nil
}

// Update applies a partial edit and returns the stored result.
func (s *BookService) Update(ctx context.Context, userID, bookID string, req UpdateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	p, err := req.patch()
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, userID, domain.CollectionBooks, bookID, p); err != nil {
		return nil, notFound(err, "book", bookID)
	}
	s.logger.Debug("book updated", "user_id", userID, "book_id", bookID, "fields", len(p)-1)
	return s.Get(ctx, userID, bookID)
}

// MoveToBin soft-deletes a book.
func (s *BookService) MoveToBin(ctx context.Context, userID, bookID string) error {
	t := now()
	if err := s.store.Update(ctx, userID, domain.CollectionBooks, bookID, store.Patch{
		"deleted_at": t,
		"updated_at": t,
	}); err != nil {
		return notFound(err, "book", bookID)
	}
	s.logger.Info("book moved to bin", "user_id", userID, "book_id", bookID)
	return nil
}

// Restore takes a book out of the bin.
func (s *BookService) Restore(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	if err := s.store.Update(ctx, userID, domain.CollectionBooks, bookID, store.Patch{
		"deleted_at": nil,
		"updated_at": now(),
	}); err != nil {
		return nil, notFound(err, "book", bookID)
	}
	s.logger.Info("book restored", "user_id", userID, "book_id", bookID)
	return s.Get(ctx, userID, bookID)
}

// DeleteForever removes a book that is already in the bin.
func (s *BookService) DeleteForever(ctx context.Context, userID, bookID string) error {
	b, err := s.Get(ctx, userID, bookID)
	if err != nil {
		return err
	}
	if !b.InBin() {
		return domainerrors.Conflictf("book %s must be moved to the bin before it is deleted", bookID)
	}
	if err := s.store.Delete(ctx, userID, domain.CollectionBooks, bookID); err != nil {
		return storeFailure(s.logger, err, "delete book", "user_id", userID, "book_id", bookID)
	}
	s.logger.Info("book deleted", "user_id", userID, "book_id", bookID)
	return nil
}

// ListBin returns the soft-deleted books, most recently binned first.
func (s *BookService) ListBin(ctx context.Context, userID string) ([]*domain.Book, error) {
	books, err := store.ListAs[domain.Book](ctx, s.store, userID, domain.CollectionBooks, store.Query{})
	if err != nil {
		return nil, storeFailure(s.logger, err, "list bin", "user_id", userID)
	}
	bin := library.Binned(books)
	slices.SortStableFunc(bin, func(a, b *domain.Book) int {
		if c := b.DeletedAt.Compare(*a.DeletedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if bin == nil {
		bin = []*domain.Book{}
	}
	return bin, nil
}

// AddReadAttempt appends an attempt. An attempt with neither date starts now.
func (s *BookService) AddReadAttempt(ctx context.Context, userID, bookID string, attempt domain.ReadAttempt) (*domain.Book, error) {
	if attempt.StartedAt == nil && attempt.FinishedAt == nil {
		start := now()
		attempt.StartedAt = &start
	}
	if attempt.StartedAt != nil && attempt.FinishedAt != nil && attempt.FinishedAt.Before(*attempt.StartedAt) {
		return nil, domainerrors.Validation("finish date is before the start date")
	}
	b, err := s.Get(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	return s.writeReads(ctx, userID, bookID, append(slices.Clone(b.Reads), attempt))
}

// FinishReading closes the current attempt at finishedAt, or now when nil.
// With no open attempt, a finished attempt with an unknown start is appended.
func (s *BookService) FinishReading(ctx context.Context, userID, bookID string, finishedAt *time.Time) (*domain.Book, error) {
	b, err := s.Get(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	finish := now()
	if finishedAt != nil {
		finish = finishedAt.UTC()
	}

	reads := slices.Clone(b.Reads)
	if n := len(reads); n > 0 && reads[n-1].FinishedAt == nil && reads[n-1].StartedAt != nil {
		if finish.Before(*reads[n-1].StartedAt) {
			return nil, domainerrors.Validation("finish date is before the start date")
		}
		reads[n-1].FinishedAt = &finish
	} else {
		reads = append(reads, domain.ReadAttempt{FinishedAt: &finish})
	}
	return s.writeReads(ctx, userID, bookID, reads)
}

func (s *BookService) writeReads(ctx context.Context, userID, bookID string, reads []domain.ReadAttempt) (*domain.Book, error) {
	if err := s.store.Update(ctx, userID, domain.CollectionBooks, bookID, store.Patch{
		"reads":      reads,
		"updated_at": now(),
	}); err != nil {
		return nil, notFound(err, "book", bookID)
	}
	b, err := s.Get(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("reading status changed", "user_id", userID, "book_id", bookID, "status", library.DeriveStatus(b))
	return b, nil
}
