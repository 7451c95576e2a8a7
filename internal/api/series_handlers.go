package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

func (s *Server) registerSeriesRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSeries",
		Method:      http.MethodGet,
		Path:        "/api/v1/series",
		Summary:     "List series",
		Description: "Returns all series sorted by name",
		Tags:        []string{"Series"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSeries)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createSeries",
		Method:        http.MethodPost,
		Path:          "/api/v1/series",
		Summary:       "Create series",
		Description:   "Creates a series",
		Tags:          []string{"Series"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSeries",
		Method:      http.MethodGet,
		Path:        "/api/v1/series/{id}",
		Summary:     "Get series",
		Description: "Returns a series by ID",
		Tags:        []string{"Series"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSeries",
		Method:      http.MethodPatch,
		Path:        "/api/v1/series/{id}",
		Summary:     "Update series",
		Description: "Renames a series or changes its expected length",
		Tags:        []string{"Series"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSeries",
		Method:      http.MethodDelete,
		Path:        "/api/v1/series/{id}",
		Summary:     "Delete series",
		Description: "Deletes a series and detaches its books, atomically",
		Tags:        []string{"Series"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "mergeSeries",
		Method:      http.MethodPost,
		Path:        "/api/v1/series/merge",
		Summary:     "Merge series",
		Description: "Moves every book from the source series to the target, keeping positions, and deletes the source",
		Tags:        []string{"Series"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMergeSeries)
}

// === DTOs ===

type ListSeriesResponse struct {
	Series []*domain.Series `json:"series" doc:"Series sorted by name"`
}

type ListSeriesOutput struct {
	Body ListSeriesResponse
}

type SeriesOutput struct {
	Body *domain.Series
}

type SeriesIDInput struct {
	ID string `path:"id" doc:"Series ID"`
}

type CreateSeriesRequest struct {
	Name       string `json:"name" doc:"Series name"`
	TotalBooks *int   `json:"total_books,omitempty" doc:"Expected number of books"`
}

type CreateSeriesInput struct {
	Body CreateSeriesRequest
}

type UpdateSeriesRequest struct {
	Name       *string `json:"name,omitempty" doc:"Series name"`
	TotalBooks *int    `json:"total_books,omitempty" doc:"Expected number of books; 0 clears"`
}

type UpdateSeriesInput struct {
	ID   string `path:"id" doc:"Series ID"`
	Body UpdateSeriesRequest
}

type DeleteSeriesResponse struct {
	Detached int `json:"detached" doc:"Books that no longer belong to a series"`
}

type DeleteSeriesOutput struct {
	Body DeleteSeriesResponse
}

// === Handlers ===

func (s *Server) handleListSeries(ctx context.Context, _ *struct{}) (*ListSeriesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	series, err := s.services.Series.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListSeriesOutput{Body: ListSeriesResponse{Series: series}}, nil
}

func (s *Server) handleCreateSeries(ctx context.Context, input *CreateSeriesInput) (*SeriesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sr, err := s.services.Series.Create(ctx, userID, service.CreateSeriesRequest{
		Name:       input.Body.Name,
		TotalBooks: input.Body.TotalBooks,
	})
	if err != nil {
		return nil, err
	}

	return &SeriesOutput{Body: sr}, nil
}

func (s *Server) handleGetSeries(ctx context.Context, input *SeriesIDInput) (*SeriesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sr, err := s.services.Series.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &SeriesOutput{Body: sr}, nil
}

func (s *Server) handleUpdateSeries(ctx context.Context, input *UpdateSeriesInput) (*SeriesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sr, err := s.services.Series.Update(ctx, userID, input.ID, service.UpdateSeriesRequest{
		Name:       input.Body.Name,
		TotalBooks: input.Body.TotalBooks,
	})
	if err != nil {
		return nil, err
	}

	return &SeriesOutput{Body: sr}, nil
}

func (s *Server) handleDeleteSeries(ctx context.Context, input *SeriesIDInput) (*DeleteSeriesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	detached, err := s.services.Series.Delete(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &DeleteSeriesOutput{Body: DeleteSeriesResponse{Detached: detached}}, nil
}

func (s *Server) handleMergeSeries(ctx context.Context, input *MergeInput) (*MergeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	moved, err := s.services.Series.Merge(ctx, userID, input.Body.SourceID, input.Body.TargetID)
	if err != nil {
		return nil, err
	}

	return &MergeOutput{Body: MergeResponse{Moved: moved}}, nil
}
