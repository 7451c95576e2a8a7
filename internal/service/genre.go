package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/bookshelfapp/bookshelf-server/internal/color"
	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/normalize"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

// GenreService orchestrates genre operations.
type GenreService struct {
	store     store.DocumentStore
	logger    *slog.Logger
	validator *validation.Validator
}

// NewGenreService creates a new genre service.
func NewGenreService(s store.DocumentStore, logger *slog.Logger) *GenreService {
	return &GenreService{
		store:     s,
		logger:    logger,
		validator: validation.New(),
	}
}

// List returns every genre ordered by name.
func (s *GenreService) List(ctx context.Context, userID string) ([]*domain.Genre, error) {
	genres, err := store.ListAs[domain.Genre](ctx, s.store, userID, domain.CollectionGenres, store.Query{})
	if err != nil {
		return nil, storeFailure(s.logger, err, "list genres", "user_id", userID)
	}
	slices.SortFunc(genres, func(a, b *domain.Genre) int {
		if c := cmp.Compare(normalize.Key(a.Name), normalize.Key(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return genres, nil
}

// Get returns a single genre.
func (s *GenreService) Get(ctx context.Context, userID, genreID string) (*domain.Genre, error) {
	g, err := store.GetAs[domain.Genre](ctx, s.store, userID, domain.CollectionGenres, genreID)
	if err != nil {
		return nil, notFound(err, "genre", genreID)
	}
	return g, nil
}

// CreateGenreRequest contains fields for creating a genre.
type CreateGenreRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
	// Color is optional; a color is derived from the name when empty.
	Color string `json:"color,omitempty" validate:"omitempty,color"`
}

// Create adds a genre. Names are unique per user ignoring case and spacing.
func (s *GenreService) Create(ctx context.Context, userID string, req CreateGenreRequest) (*domain.Genre, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	existing, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := requireUniqueName(existing, genreName, genreIDOf, req.Name, "", "genre"); err != nil {
		return nil, err
	}

	name := normalize.Spaces(req.Name)
	g := domain.Genre{Name: name, Color: color.ForName(name)}
	if req.Color != "" {
		g.Color, _ = color.Normalize(req.Color)
	}
	g.InitTimestamps()

	newID, err := s.store.Create(ctx, userID, domain.CollectionGenres, g)
	if err != nil {
		return nil, storeFailure(s.logger, err, "create genre", "user_id", userID)
	}
	g.ID = newID

	s.logger.Info("genre created", "user_id", userID, "genre_id", g.ID, "name", g.Name)
	return &g, nil
}

// UpdateGenreRequest contains fields for renaming or recoloring a genre.
type UpdateGenreRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Color *string `json:"color,omitempty" validate:"omitempty,color"`
}

// Update edits a genre.
func (s *GenreService) Update(ctx context.Context, userID, genreID string, req UpdateGenreRequest) (*domain.Genre, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	patch := store.Patch{"updated_at": now()}
	if req.Name != nil {
		existing, err := s.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := requireUniqueName(existing, genreName, genreIDOf, *req.Name, genreID, "genre"); err != nil {
			return nil, err
		}
		patch["name"] = normalize.Spaces(*req.Name)
	}
	if req.Color != nil {
		c, _ := color.Normalize(*req.Color)
		patch["color"] = c
	}

	if err := s.store.Update(ctx, userID, domain.CollectionGenres, genreID, patch); err != nil {
		return nil, notFound(err, "genre", genreID)
	}
	return s.Get(ctx, userID, genreID)
}

// Delete removes a genre. Books that still reference it keep the dangling id
// and render it as unknown.
func (s *GenreService) Delete(ctx context.Context, userID, genreID string) error {
	if _, err := s.Get(ctx, userID, genreID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, userID, domain.CollectionGenres, genreID); err != nil {
		return storeFailure(s.logger, err, "delete genre", "user_id", userID, "genre_id", genreID)
	}
	s.logger.Info("genre deleted", "user_id", userID, "genre_id", genreID)
	return nil
}

// Merge moves every book tagged with sourceID onto targetID and deletes the
// source genre, all in one batch. A book already tagged with the target ends
// up with it once. Books in the bin are rewritten too. It returns the number
// of books changed; with none to change nothing is written, not even the
// source delete.
func (s *GenreService) Merge(ctx context.Context, userID, sourceID, targetID string) (int, error) {
	if sourceID == "" || targetID == "" {
		return 0, domainerrors.Validation("source and target genres are required")
	}
	if sourceID == targetID {
		return 0, domainerrors.Validation("cannot merge a genre into itself")
	}
	if _, err := s.Get(ctx, userID, targetID); err != nil {
		return 0, err
	}

	books, err := store.ListAs[domain.Book](ctx, s.store, userID, domain.CollectionBooks, store.Query{
		Where: []store.Filter{store.Contains("genre_ids", sourceID)},
	})
	if err != nil {
		return 0, storeFailure(s.logger, err, "list genre books", "user_id", userID, "genre_id", sourceID)
	}
	if len(books) == 0 {
		return 0, nil
	}

	t := now()
	batch := s.store.Batch(userID)
	for _, b := range books {
		ids := slices.DeleteFunc(slices.Clone(b.GenreIDs), func(gid string) bool { return gid == sourceID })
		batch.Update(domain.CollectionBooks, b.ID, store.Patch{
			"genre_ids":  domain.UniqueGenreIDs(append(ids, targetID)),
			"updated_at": t,
		})
	}
	batch.Delete(domain.CollectionGenres, sourceID)

	if err := batch.Commit(ctx); err != nil {
		return 0, storeFailure(s.logger, err, "merge genres", "user_id", userID, "source", sourceID, "target", targetID)
	}

	s.logger.Info("genres merged", "user_id", userID, "source", sourceID, "target", targetID, "books", len(books))
	return len(books), nil
}

func genreName(g *domain.Genre) string { return g.Name }

func genreIDOf(g *domain.Genre) string { return g.ID }
