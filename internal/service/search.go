package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/search"
)

// SearchService runs free-text searches over a user's library and keeps
// their recent queries.
type SearchService struct {
	library *LibraryService
	recent  *search.Recent
	logger  *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(lib *LibraryService, recent *search.Recent, logger *slog.Logger) *SearchService {
	return &SearchService{
		library: lib,
		recent:  recent,
		logger:  logger,
	}
}

// SearchHit is a matched book with highlight spans for each field that matched.
type SearchHit struct {
	Book       *domain.Book                  `json:"book"`
	SeriesName string                        `json:"series_name,omitempty"`
	Highlights map[search.Field]search.Spans `json:"highlights"`
}

// SearchResult holds the hits for one query.
type SearchResult struct {
	Query string      `json:"query"`
	Hits  []SearchHit `json:"hits"`
	Total int         `json:"total"`
}

// Search matches query against the books outside the bin. Queries long
// enough to run are recorded in the recent list; failing to record is logged
// and does not fail the search.
func (s *SearchService) Search(ctx context.Context, userID, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	res := &SearchResult{Query: query, Hits: []SearchHit{}}
	if utf8.RuneCountInString(query) < search.MinQueryLength {
		return res, nil
	}

	snap, err := s.library.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, m := range search.Books(snap.Books, snap.Series, query) {
		hit := SearchHit{
			Book:       m.Book,
			SeriesName: m.SeriesName,
			Highlights: make(map[search.Field]search.Spans, len(m.Fields)),
		}
		for _, f := range m.Fields {
			hit.Highlights[f] = search.Highlight(fieldValue(m, f), query)
		}
		res.Hits = append(res.Hits, hit)
	}
	res.Total = len(res.Hits)

	if _, err := s.recent.Record(ctx, userID, query); err != nil {
		s.logger.Warn("failed to record recent search", "user_id", userID, "error", err)
	}
	return res, nil
}

// Recent returns the user's recent queries, newest first.
func (s *SearchService) Recent(ctx context.Context, userID string) ([]string, error) {
	return s.recent.List(ctx, userID)
}

// ClearRecent forgets the user's recent queries.
func (s *SearchService) ClearRecent(ctx context.Context, userID string) error {
	return s.recent.Clear(ctx, userID)
}

func fieldValue(m search.Match, f search.Field) string {
	switch f {
	case search.FieldTitle:
		return m.Book.Title
	case search.FieldAuthor:
		return m.Book.Author
	case search.FieldPublisher:
		return m.Book.Publisher
	case search.FieldNotes:
		return m.Book.Notes
	case search.FieldISBN:
		return m.Book.ISBN
	case search.FieldSeries:
		return m.SeriesName
	default:
		return ""
	}
}
