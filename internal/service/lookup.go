package service

import (
	"context"
	"log/slog"

	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/lookup"
)

// Looker is the bibliographic lookup used by LookupService.
type Looker interface {
	Lookup(ctx context.Context, raw string) (*lookup.Result, error)
}

// LookupService fetches suggested records for a new book.
type LookupService struct {
	looker  Looker
	enabled bool
	logger  *slog.Logger
}

// NewLookupService creates a new lookup service. When disabled every call
// reports the feature as unavailable.
func NewLookupService(looker Looker, enabled bool, logger *slog.Logger) *LookupService {
	return &LookupService{looker: looker, enabled: enabled && looker != nil, logger: logger}
}

// Enabled reports whether lookups are served.
func (s *LookupService) Enabled() bool { return s.enabled }

// Lookup searches by ISBN or free text.
func (s *LookupService) Lookup(ctx context.Context, userID, query string) (*lookup.Result, error) {
	if !s.enabled {
		return nil, domainerrors.ErrUnavailable.WithDetails("book lookup is disabled")
	}
	res, err := s.looker.Lookup(ctx, query)
	if err != nil {
		return res, err
	}
	s.logger.Debug("lookup served", "user_id", userID, "candidates", len(res.Candidates), "failed_sources", len(res.Failed))
	return res, nil
}
