package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

func (s *Server) registerGenreRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres",
		Summary:     "List genres",
		Description: "Returns all genres sorted by name",
		Tags:        []string{"Genres"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListGenres)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createGenre",
		Method:        http.MethodPost,
		Path:          "/api/v1/genres",
		Summary:       "Create genre",
		Description:   "Creates a genre. Without a color one is picked from the name.",
		Tags:          []string{"Genres"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGenre",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres/{id}",
		Summary:     "Get genre",
		Description: "Returns a genre by ID",
		Tags:        []string{"Genres"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateGenre",
		Method:      http.MethodPatch,
		Path:        "/api/v1/genres/{id}",
		Summary:     "Update genre",
		Description: "Renames or recolors a genre",
		Tags:        []string{"Genres"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateGenre)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteGenre",
		Method:        http.MethodDelete,
		Path:          "/api/v1/genres/{id}",
		Summary:       "Delete genre",
		Description:   "Deletes a genre. Books keep the reference until they are next edited.",
		Tags:          []string{"Genres"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "mergeGenres",
		Method:      http.MethodPost,
		Path:        "/api/v1/genres/merge",
		Summary:     "Merge genres",
		Description: "Moves every book from the source genre to the target and deletes the source, atomically",
		Tags:        []string{"Genres"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMergeGenres)
}

// === DTOs ===

type ListGenresResponse struct {
	Genres []*domain.Genre `json:"genres" doc:"Genres sorted by name"`
}

type ListGenresOutput struct {
	Body ListGenresResponse
}

type GenreOutput struct {
	Body *domain.Genre
}

type GenreIDInput struct {
	ID string `path:"id" doc:"Genre ID"`
}

type CreateGenreRequest struct {
	Name  string `json:"name" doc:"Genre name"`
	Color string `json:"color,omitempty" doc:"Display color as #RRGGBB"`
}

type CreateGenreInput struct {
	Body CreateGenreRequest
}

type UpdateGenreRequest struct {
	Name  *string `json:"name,omitempty" doc:"Genre name"`
	Color *string `json:"color,omitempty" doc:"Display color as #RRGGBB"`
}

type UpdateGenreInput struct {
	ID   string `path:"id" doc:"Genre ID"`
	Body UpdateGenreRequest
}

// MergeRequest names the record to fold into another. Shared by genres and series.
type MergeRequest struct {
	SourceID string `json:"source_id" doc:"Record to merge from; deleted afterwards"`
	TargetID string `json:"target_id" doc:"Record to merge into"`
}

type MergeInput struct {
	Body MergeRequest
}

type MergeResponse struct {
	Moved int `json:"moved" doc:"Books moved to the target"`
}

type MergeOutput struct {
	Body MergeResponse
}

// === Handlers ===

func (s *Server) handleListGenres(ctx context.Context, _ *struct{}) (*ListGenresOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	genres, err := s.services.Genre.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListGenresOutput{Body: ListGenresResponse{Genres: genres}}, nil
}

func (s *Server) handleCreateGenre(ctx context.Context, input *CreateGenreInput) (*GenreOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	g, err := s.services.Genre.Create(ctx, userID, service.CreateGenreRequest{
		Name:  input.Body.Name,
		Color: input.Body.Color,
	})
	if err != nil {
		return nil, err
	}

	return &GenreOutput{Body: g}, nil
}

func (s *Server) handleGetGenre(ctx context.Context, input *GenreIDInput) (*GenreOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	g, err := s.services.Genre.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &GenreOutput{Body: g}, nil
}

func (s *Server) handleUpdateGenre(ctx context.Context, input *UpdateGenreInput) (*GenreOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	g, err := s.services.Genre.Update(ctx, userID, input.ID, service.UpdateGenreRequest{
		Name:  input.Body.Name,
		Color: input.Body.Color,
	})
	if err != nil {
		return nil, err
	}

	return &GenreOutput{Body: g}, nil
}

func (s *Server) handleDeleteGenre(ctx context.Context, input *GenreIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Genre.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleMergeGenres(ctx context.Context, input *MergeInput) (*MergeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	moved, err := s.services.Genre.Merge(ctx, userID, input.Body.SourceID, input.Body.TargetID)
	if err != nil {
		return nil, err
	}

	return &MergeOutput{Body: MergeResponse{Moved: moved}}, nil
}
