package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/lookup"
)

func (s *Server) registerLookupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "lookupBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/lookup",
		Summary:     "Look up a book",
		Description: "Searches public catalogues by ISBN or free text and returns suggested records. Sources that fail are listed and skipped.",
		Tags:        []string{"Lookup"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLookup)
}

type LookupInput struct {
	Q string `query:"q" required:"true" minLength:"1" maxLength:"200" doc:"ISBN or title and author"`
}

type LookupOutput struct {
	Body *lookup.Result
}

func (s *Server) handleLookup(ctx context.Context, input *LookupInput) (*LookupOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if s.services.Lookup == nil {
		return nil, domainerrors.ErrUnavailable.WithDetails("book lookup is disabled")
	}

	if !s.lookupLimiter.Allow(userID) {
		s.logger.Warn("Rate limit exceeded", "user_id", userID, "path", "/api/v1/lookup")
		return nil, huma.Error429TooManyRequests("Too many lookups. Please try again later.")
	}

	res, err := s.services.Lookup.Lookup(ctx, userID, input.Q)
	if err != nil {
		return nil, err
	}

	return &LookupOutput{Body: res}, nil
}
