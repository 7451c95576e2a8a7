package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search books",
		Description: "Matches title, author, publisher, notes, ISBN and series name. Queries under two characters return nothing.",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "recentSearches",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/recent",
		Summary:     "Recent searches",
		Description: "Returns the last few queries, newest first",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRecentSearches)

	huma.Register(s.api, huma.Operation{
		OperationID:   "clearRecentSearches",
		Method:        http.MethodDelete,
		Path:          "/api/v1/search/recent",
		Summary:       "Clear recent searches",
		Description:   "Forgets the recent queries",
		Tags:          []string{"Search"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleClearRecentSearches)
}

// === DTOs ===

type SearchInput struct {
	Q string `query:"q" maxLength:"200" doc:"Search text"`
}

type SearchOutput struct {
	Body *service.SearchResult
}

type RecentSearchesResponse struct {
	Queries []string `json:"queries" doc:"Recent queries, newest first"`
}

type RecentSearchesOutput struct {
	Body RecentSearchesResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Search.Search(ctx, userID, input.Q)
	if err != nil {
		return nil, err
	}

	return &SearchOutput{Body: res}, nil
}

func (s *Server) handleRecentSearches(ctx context.Context, _ *struct{}) (*RecentSearchesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	queries, err := s.services.Search.Recent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if queries == nil {
		queries = []string{}
	}

	return &RecentSearchesOutput{Body: RecentSearchesResponse{Queries: queries}}, nil
}

func (s *Server) handleClearRecentSearches(ctx context.Context, _ *struct{}) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Search.ClearRecent(ctx, userID); err != nil {
		return nil, err
	}
	return nil, nil
}
