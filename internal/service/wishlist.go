package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/duplicate"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/normalize"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

// WishlistService orchestrates wishlist operations.
type WishlistService struct {
	store     store.DocumentStore
	checker   *duplicate.Checker
	logger    *slog.Logger
	validator *validation.Validator
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(s store.DocumentStore, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		store:     s,
		checker:   duplicate.NewChecker(s),
		logger:    logger,
		validator: validation.New(),
	}
}

// List returns the wishlist, highest priority first and oldest first within a priority.
func (s *WishlistService) List(ctx context.Context, userID string) ([]*domain.WishlistItem, error) {
	items, err := store.ListAs[domain.WishlistItem](ctx, s.store, userID, domain.CollectionWishlist, store.Query{})
	if err != nil {
		return nil, storeFailure(s.logger, err, "list wishlist", "user_id", userID)
	}
	slices.SortStableFunc(items, func(a, b *domain.WishlistItem) int {
		if c := cmp.Compare(a.Priority.Rank(), b.Priority.Rank()); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return items, nil
}

// Get returns a single wishlist item.
func (s *WishlistService) Get(ctx context.Context, userID, itemID string) (*domain.WishlistItem, error) {
	it, err := store.GetAs[domain.WishlistItem](ctx, s.store, userID, domain.CollectionWishlist, itemID)
	if err != nil {
		return nil, notFound(err, "wishlist item", itemID)
	}
	return it, nil
}

// CreateWishlistRequest contains fields for wishing for a book.
type CreateWishlistRequest struct {
	Title         string `json:"title" validate:"required,max=500"`
	Author        string `json:"author" validate:"max=300"`
	ISBN          string `json:"isbn,omitempty" validate:"omitempty,isbn"`
	CoverImageURL string `json:"cover_image_url,omitempty" validate:"omitempty,url"`
	Publisher     string `json:"publisher,omitempty" validate:"max=300"`
	PublishedDate string `json:"published_date,omitempty" validate:"max=50"`
	PageCount     *int   `json:"page_count,omitempty" validate:"omitempty,min=1"`
	Priority      string `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	Notes         string `json:"notes,omitempty" validate:"max=10000"`
}

// Create adds a wishlist item.
func (s *WishlistService) Create(ctx context.Context, userID string, req CreateWishlistRequest) (*domain.WishlistItem, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	it := domain.WishlistItem{
		Title:         normalize.Spaces(req.Title),
		Author:        normalize.Spaces(req.Author),
		ISBN:          duplicate.CleanISBN(req.ISBN),
		CoverImageURL: req.CoverImageURL,
		Publisher:     normalize.Spaces(req.Publisher),
		PublishedDate: normalize.PublishedDate(req.PublishedDate),
		PageCount:     req.PageCount,
		Priority:      domain.Priority(req.Priority),
		Notes:         req.Notes,
	}
	it.InitTimestamps()

	newID, err := s.store.Create(ctx, userID, domain.CollectionWishlist, it)
	if err != nil {
		return nil, storeFailure(s.logger, err, "create wishlist item", "user_id", userID)
	}
	it.ID = newID

	s.logger.Info("wishlist item created", "user_id", userID, "item_id", it.ID, "title", it.Title)
	return &it, nil
}

// UpdateWishlistRequest is a partial edit; an empty string clears an optional field.
type UpdateWishlistRequest struct {
	Title         *string `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Author        *string `json:"author,omitempty" validate:"omitempty,max=300"`
	ISBN          *string `json:"isbn,omitempty"`
	CoverImageURL *string `json:"cover_image_url,omitempty" validate:"omitempty,max=2000"`
	Publisher     *string `json:"publisher,omitempty" validate:"omitempty,max=300"`
	PublishedDate *string `json:"published_date,omitempty" validate:"omitempty,max=50"`
	PageCount     *int    `json:"page_count,omitempty" validate:"omitempty,min=0"`
	Priority      *string `json:"priority,omitempty" validate:"omitempty,oneof=high medium low none"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=10000"`
}

// Update edits a wishlist item. A priority of "none" clears it.
func (s *WishlistService) Update(ctx context.Context, userID, itemID string, req UpdateWishlistRequest) (*domain.WishlistItem, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.ISBN != nil && *req.ISBN != "" {
		if err := s.validator.Var("isbn", *req.ISBN, "isbn"); err != nil {
			return nil, err
		}
	}

	patch := store.Patch{"updated_at": now()}
	if req.Title != nil {
		patch["title"] = normalize.Spaces(*req.Title)
	}
	if req.Author != nil {
		patch["author"] = normalize.Spaces(*req.Author)
	}
	if req.ISBN != nil {
		patch["isbn"] = optionalString(duplicate.CleanISBN(*req.ISBN))
	}
	if req.CoverImageURL != nil {
		patch["cover_image_url"] = optionalString(*req.CoverImageURL)
	}
	if req.Publisher != nil {
		patch["publisher"] = optionalString(normalize.Spaces(*req.Publisher))
	}
	if req.PublishedDate != nil {
		patch["published_date"] = optionalString(normalize.PublishedDate(*req.PublishedDate))
	}
	if req.PageCount != nil {
		patch["page_count"] = optionalInt(*req.PageCount)
	}
	if req.Priority != nil {
		if *req.Priority == "none" {
			patch["priority"] = nil
		} else {
			patch["priority"] = optionalString(*req.Priority)
		}
	}
	if req.Notes != nil {
		patch["notes"] = optionalString(*req.Notes)
	}

	if err := s.store.Update(ctx, userID, domain.CollectionWishlist, itemID, patch); err != nil {
		return nil, notFound(err, "wishlist item", itemID)
	}
	return s.Get(ctx, userID, itemID)
}

// Delete removes a wishlist item.
func (s *WishlistService) Delete(ctx context.Context, userID, itemID string) error {
	if _, err := s.Get(ctx, userID, itemID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, userID, domain.CollectionWishlist, itemID); err != nil {
		return storeFailure(s.logger, err, "delete wishlist item", "user_id", userID, "item_id", itemID)
	}
	s.logger.Info("wishlist item deleted", "user_id", userID, "item_id", itemID)
	return nil
}

// MoveToLibrary turns a wishlist item into an owned book. The book is created
// and the item deleted in one batch. Unless force is set, an item matching a
// book already owned is refused with a conflict.
func (s *WishlistService) MoveToLibrary(ctx context.Context, userID, itemID string, force bool) (*domain.Book, error) {
	it, err := s.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if !force {
		res, err := s.checker.Check(ctx, userID, it.ISBN, it.Title, it.Author)
		if err != nil {
			return nil, storeFailure(s.logger, err, "duplicate check", "user_id", userID)
		}
		if res.IsDuplicate {
			return nil, domainerrors.Conflictf("%q is already in your library", res.Existing.Title).WithDetails(res)
		}
	}

	b := domain.Book{
		Title:         it.Title,
		Author:        it.Author,
		ISBN:          it.ISBN,
		Publisher:     it.Publisher,
		PublishedDate: it.PublishedDate,
		PageCount:     it.PageCount,
		CoverImageURL: it.CoverImageURL,
		Notes:         it.Notes,
	}
	b.InitTimestamps()

	batch := s.store.Batch(userID)
	bookID, err := batch.Create(domain.CollectionBooks, b)
	if err != nil {
		return nil, storeFailure(s.logger, err, "queue book", "user_id", userID)
	}
	batch.Delete(domain.CollectionWishlist, itemID)
	if err := batch.Commit(ctx); err != nil {
		return nil, storeFailure(s.logger, err, "move wishlist item", "user_id", userID, "item_id", itemID)
	}
	b.ID = bookID

	s.logger.Info("wishlist item moved to library", "user_id", userID, "item_id", itemID, "book_id", bookID)
	return &b, nil
}
