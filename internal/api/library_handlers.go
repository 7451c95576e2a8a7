package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/library"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "queryLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library",
		Summary:     "Query library",
		Description: "Filters and sorts the books outside the bin and returns facet counts for every filter",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleQueryLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "libraryStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Library statistics",
		Description: "Returns counts by status, ratings, pages read and top genres",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLibraryStats)
}

// === DTOs ===

type QueryLibraryInput struct {
	Status    []string `query:"status" doc:"Reading statuses: want-to-read, reading, finished"`
	Genre     []string `query:"genre" doc:"Genre IDs; a book matches if it has any of them"`
	Series    []string `query:"series" doc:"Series IDs"`
	MinRating int      `query:"min_rating" minimum:"0" maximum:"5" doc:"Minimum rating; unrated books never match"`
	Author    string   `query:"author" doc:"Exact author, ignoring case"`
	Q         string   `query:"q" doc:"Substring of title or author"`
	Sort      string   `query:"sort" enum:"title,author,rating,seriesPosition,createdAt" doc:"Sort key (default title)"`
	Dir       string   `query:"dir" enum:"asc,desc" doc:"Sort direction (default asc)"`
}

type LibraryResponse struct {
	Books   []BookResponse `json:"books" doc:"Matching books in order"`
	Facets  library.Facets `json:"facets" doc:"Per-filter option counts with the other filters applied"`
	Total   int            `json:"total" doc:"Books outside the bin"`
	Matched int            `json:"matched" doc:"Books passing the filter"`
}

type LibraryOutput struct {
	Body LibraryResponse
}

type StatsOutput struct {
	Body service.LibraryStats
}

// === Handlers ===

func (s *Server) handleQueryLibrary(ctx context.Context, input *QueryLibraryInput) (*LibraryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]domain.Status, 0, len(input.Status))
	for _, st := range input.Status {
		status := domain.Status(st)
		if !status.Valid() {
			return nil, huma.Error422UnprocessableEntity("unknown status " + st)
		}
		statuses = append(statuses, status)
	}

	view, err := s.services.Library.Query(ctx, userID, service.LibraryQuery{
		Criteria: library.Criteria{
			Statuses:  statuses,
			GenreIDs:  input.Genre,
			SeriesIDs: input.Series,
			MinRating: input.MinRating,
			Author:    input.Author,
			Search:    input.Q,
		},
		Sort:      input.Sort,
		Direction: input.Dir,
	})
	if err != nil {
		return nil, err
	}

	return &LibraryOutput{Body: LibraryResponse{
		Books:   newBookResponses(view.Books),
		Facets:  view.Facets,
		Total:   view.Total,
		Matched: view.Matched,
	}}, nil
}

func (s *Server) handleLibraryStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Stats.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &StatsOutput{Body: *stats}, nil
}
