package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/normalize"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

// SeriesService orchestrates series operations.
type SeriesService struct {
	store     store.DocumentStore
	logger    *slog.Logger
	validator *validation.Validator
}

// NewSeriesService creates a new series service.
func NewSeriesService(s store.DocumentStore, logger *slog.Logger) *SeriesService {
	return &SeriesService{
		store:     s,
		logger:    logger,
		validator: validation.New(),
	}
}

// List returns every series ordered by name.
func (s *SeriesService) List(ctx context.Context, userID string) ([]*domain.Series, error) {
	series, err := store.ListAs[domain.Series](ctx, s.store, userID, domain.CollectionSeries, store.Query{})
	if err != nil {
		return nil, storeFailure(s.logger, err, "list series", "user_id", userID)
	}
	slices.SortFunc(series, func(a, b *domain.Series) int {
		if c := cmp.Compare(normalize.Key(a.Name), normalize.Key(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return series, nil
}

// Get returns a single series.
func (s *SeriesService) Get(ctx context.Context, userID, seriesID string) (*domain.Series, error) {
	sr, err := store.GetAs[domain.Series](ctx, s.store, userID, domain.CollectionSeries, seriesID)
	if err != nil {
		return nil, notFound(err, "series", seriesID)
	}
	return sr, nil
}

// CreateSeriesRequest contains fields for creating a series.
type CreateSeriesRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=200"`
	TotalBooks *int   `json:"total_books,omitempty" validate:"omitempty,min=1"`
}

// Create adds a series. Names are unique per user ignoring case and spacing.
func (s *SeriesService) Create(ctx context.Context, userID string, req CreateSeriesRequest) (*domain.Series, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	existing, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := requireUniqueName(existing, seriesName, seriesIDOf, req.Name, "", "series"); err != nil {
		return nil, err
	}

	sr := domain.Series{Name: normalize.Spaces(req.Name), TotalBooks: req.TotalBooks}
	sr.InitTimestamps()

	newID, err := s.store.Create(ctx, userID, domain.CollectionSeries, sr)
	if err != nil {
		return nil, storeFailure(s.logger, err, "create series", "user_id", userID)
	}
	sr.ID = newID

	s.logger.Info("series created", "user_id", userID, "series_id", sr.ID, "name", sr.Name)
	return &sr, nil
}

// UpdateSeriesRequest edits a series. A TotalBooks of 0 clears it.
type UpdateSeriesRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	TotalBooks *int    `json:"total_books,omitempty" validate:"omitempty,min=0"`
}

// Update edits a series.
func (s *SeriesService) Update(ctx context.Context, userID, seriesID string, req UpdateSeriesRequest) (*domain.Series, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	patch := store.Patch{"updated_at": now()}
	if req.Name != nil {
		existing, err := s.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := requireUniqueName(existing, seriesName, seriesIDOf, *req.Name, seriesID, "series"); err != nil {
			return nil, err
		}
		patch["name"] = normalize.Spaces(*req.Name)
	}
	if req.TotalBooks != nil {
		patch["total_books"] = optionalInt(*req.TotalBooks)
	}

	if err := s.store.Update(ctx, userID, domain.CollectionSeries, seriesID, patch); err != nil {
		return nil, notFound(err, "series", seriesID)
	}
	return s.Get(ctx, userID, seriesID)
}

// Delete removes a series after detaching every book from it. The detaches
// and the delete commit together, so no book is left pointing at a missing
// series. It returns the number of books detached.
func (s *SeriesService) Delete(ctx context.Context, userID, seriesID string) (int, error) {
	if _, err := s.Get(ctx, userID, seriesID); err != nil {
		return 0, err
	}
	books, err := s.booksIn(ctx, userID, seriesID)
	if err != nil {
		return 0, err
	}

	t := now()
	batch := s.store.Batch(userID)
	for _, b := range books {
		batch.Update(domain.CollectionBooks, b.ID, store.Patch{
			"series_id":       nil,
			"series_position": nil,
			"updated_at":      t,
		})
	}
	batch.Delete(domain.CollectionSeries, seriesID)

	if err := batch.Commit(ctx); err != nil {
		return 0, storeFailure(s.logger, err, "delete series", "user_id", userID, "series_id", seriesID)
	}
	s.logger.Info("series deleted", "user_id", userID, "series_id", seriesID, "books_detached", len(books))
	return len(books), nil
}

// Merge repoints every book in sourceID at targetID and deletes the source
// series in one batch. Positions are kept as they were in the source series.
// With no books to move nothing is written.
func (s *SeriesService) Merge(ctx context.Context, userID, sourceID, targetID string) (int, error) {
	if sourceID == "" || targetID == "" {
		return 0, domainerrors.Validation("source and target series are required")
	}
	if sourceID == targetID {
		return 0, domainerrors.Validation("cannot merge a series into itself")
	}
	if _, err := s.Get(ctx, userID, targetID); err != nil {
		return 0, err
	}

	books, err := s.booksIn(ctx, userID, sourceID)
	if err != nil {
		return 0, err
	}
	if len(books) == 0 {
		return 0, nil
	}

	t := now()
	batch := s.store.Batch(userID)
	for _, b := range books {
		batch.Update(domain.CollectionBooks, b.ID, store.Patch{
			"series_id":  targetID,
			"updated_at": t,
		})
	}
	batch.Delete(domain.CollectionSeries, sourceID)

	if err := batch.Commit(ctx); err != nil {
		return 0, storeFailure(s.logger, err, "merge series", "user_id", userID, "source", sourceID, "target", targetID)
	}

	s.logger.Info("series merged", "user_id", userID, "source", sourceID, "target", targetID, "books", len(books))
	return len(books), nil
}

func (s *SeriesService) booksIn(ctx context.Context, userID, seriesID string) ([]*domain.Book, error) {
	books, err := store.ListAs[domain.Book](ctx, s.store, userID, domain.CollectionBooks, store.Query{
		Where: []store.Filter{store.Eq("series_id", seriesID)},
	})
	if err != nil {
		return nil, storeFailure(s.logger, err, "list series books", "user_id", userID, "series_id", seriesID)
	}
	return books, nil
}

func seriesName(s *domain.Series) string { return s.Name }

func seriesIDOf(s *domain.Series) string { return s.ID }
