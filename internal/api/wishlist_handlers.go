package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

func (s *Server) registerWishlistRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listWishlist",
		Method:      http.MethodGet,
		Path:        "/api/v1/wishlist",
		Summary:     "List wishlist",
		Description: "Returns wishlist items, highest priority first",
		Tags:        []string{"Wishlist"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListWishlist)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createWishlistItem",
		Method:        http.MethodPost,
		Path:          "/api/v1/wishlist",
		Summary:       "Add to wishlist",
		Description:   "Adds a book the user wants",
		Tags:          []string{"Wishlist"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateWishlistItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "getWishlistItem",
		Method:      http.MethodGet,
		Path:        "/api/v1/wishlist/{id}",
		Summary:     "Get wishlist item",
		Description: "Returns a wishlist item by ID",
		Tags:        []string{"Wishlist"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetWishlistItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateWishlistItem",
		Method:      http.MethodPatch,
		Path:        "/api/v1/wishlist/{id}",
		Summary:     "Update wishlist item",
		Description: "Updates the supplied fields. A priority of none clears it.",
		Tags:        []string{"Wishlist"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateWishlistItem)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteWishlistItem",
		Method:        http.MethodDelete,
		Path:          "/api/v1/wishlist/{id}",
		Summary:       "Delete wishlist item",
		Description:   "Removes a wishlist item",
		Tags:          []string{"Wishlist"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteWishlistItem)

	huma.Register(s.api, huma.Operation{
		OperationID:   "moveWishlistItem",
		Method:        http.MethodPost,
		Path:          "/api/v1/wishlist/{id}/move",
		Summary:       "Move to library",
		Description:   "Adds the item to the library as a book and removes it from the wishlist, atomically",
		Tags:          []string{"Wishlist"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleMoveWishlistItem)
}

// === DTOs ===

type ListWishlistResponse struct {
	Items []*domain.WishlistItem `json:"items" doc:"Wishlist items"`
}

type ListWishlistOutput struct {
	Body ListWishlistResponse
}

type WishlistItemOutput struct {
	Body *domain.WishlistItem
}

type WishlistIDInput struct {
	ID string `path:"id" doc:"Wishlist item ID"`
}

type CreateWishlistRequest struct {
	Title         string `json:"title" doc:"Title"`
	Author        string `json:"author,omitempty" doc:"Author"`
	ISBN          string `json:"isbn,omitempty" doc:"ISBN"`
	CoverImageURL string `json:"cover_image_url,omitempty" doc:"Cover image URL"`
	Publisher     string `json:"publisher,omitempty" doc:"Publisher"`
	PublishedDate string `json:"published_date,omitempty" doc:"Publication date"`
	PageCount     *int   `json:"page_count,omitempty" doc:"Number of pages"`
	Priority      string `json:"priority,omitempty" doc:"high, medium or low"`
	Notes         string `json:"notes,omitempty" doc:"Free-text notes"`
}

type CreateWishlistInput struct {
	Body CreateWishlistRequest
}

type UpdateWishlistRequest struct {
	Title         *string `json:"title,omitempty" doc:"Title"`
	Author        *string `json:"author,omitempty" doc:"Author"`
	ISBN          *string `json:"isbn,omitempty" doc:"ISBN; empty clears"`
	CoverImageURL *string `json:"cover_image_url,omitempty" doc:"Cover image URL; empty clears"`
	Publisher     *string `json:"publisher,omitempty" doc:"Publisher; empty clears"`
	PublishedDate *string `json:"published_date,omitempty" doc:"Publication date; empty clears"`
	PageCount     *int    `json:"page_count,omitempty" doc:"Number of pages; 0 clears"`
	Priority      *string `json:"priority,omitempty" doc:"high, medium, low or none"`
	Notes         *string `json:"notes,omitempty" doc:"Notes; empty clears"`
}

type UpdateWishlistInput struct {
	ID   string `path:"id" doc:"Wishlist item ID"`
	Body UpdateWishlistRequest
}

type MoveWishlistRequest struct {
	Force bool `json:"force,omitempty" doc:"Move even if the book looks already owned"`
}

type MoveWishlistInput struct {
	ID   string              `path:"id" doc:"Wishlist item ID"`
	Body MoveWishlistRequest `required:"false"`
}

// === Handlers ===

func (s *Server) handleListWishlist(ctx context.Context, _ *struct{}) (*ListWishlistOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.services.Wishlist.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListWishlistOutput{Body: ListWishlistResponse{Items: items}}, nil
}

func (s *Server) handleCreateWishlistItem(ctx context.Context, input *CreateWishlistInput) (*WishlistItemOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	b := input.Body
	item, err := s.services.Wishlist.Create(ctx, userID, service.CreateWishlistRequest{
		Title:         b.Title,
		Author:        b.Author,
		ISBN:          b.ISBN,
		CoverImageURL: b.CoverImageURL,
		Publisher:     b.Publisher,
		PublishedDate: b.PublishedDate,
		PageCount:     b.PageCount,
		Priority:      b.Priority,
		Notes:         b.Notes,
	})
	if err != nil {
		return nil, err
	}

	return &WishlistItemOutput{Body: item}, nil
}

func (s *Server) handleGetWishlistItem(ctx context.Context, input *WishlistIDInput) (*WishlistItemOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Wishlist.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &WishlistItemOutput{Body: item}, nil
}

func (s *Server) handleUpdateWishlistItem(ctx context.Context, input *UpdateWishlistInput) (*WishlistItemOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	b := input.Body
	item, err := s.services.Wishlist.Update(ctx, userID, input.ID, service.UpdateWishlistRequest{
		Title:         b.Title,
		Author:        b.Author,
		ISBN:          b.ISBN,
		CoverImageURL: b.CoverImageURL,
		Publisher:     b.Publisher,
		PublishedDate: b.PublishedDate,
		PageCount:     b.PageCount,
		Priority:      b.Priority,
		Notes:         b.Notes,
	})
	if err != nil {
		return nil, err
	}

	return &WishlistItemOutput{Body: item}, nil
}

func (s *Server) handleDeleteWishlistItem(ctx context.Context, input *WishlistIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Wishlist.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleMoveWishlistItem(ctx context.Context, input *MoveWishlistInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Wishlist.MoveToLibrary(ctx, userID, input.ID, input.Body.Force)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: newBookResponse(book)}, nil
}
