// Package lookup fetches candidate bibliographic records for an ISBN or a
// free-text query from public catalogues. Results are suggestions only: the
// user reviews and edits them before anything is saved.
package lookup

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bookshelfapp/bookshelf-server/internal/duplicate"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
)

// Sentinel errors returned by sources.
var (
	ErrRateLimited = errors.New("lookup: rate limited by upstream")
	ErrUpstream    = errors.New("lookup: upstream error")
)

// DefaultTimeout bounds a whole lookup across every source.
const DefaultTimeout = 10 * time.Second

// Query is a parsed lookup request. Exactly one of ISBN or Text is set.
type Query struct {
	ISBN string `json:"isbn,omitempty"`
	Text string `json:"text,omitempty"`
}

// ParseQuery treats input that cleans to an ISBN as one; anything else is text.
func ParseQuery(raw string) Query {
	raw = strings.TrimSpace(raw)
	if duplicate.IsISBN(raw) {
		return Query{ISBN: duplicate.CleanISBN(raw)}
	}
	return Query{Text: raw}
}

// IsZero reports whether q has nothing to look up.
func (q Query) IsZero() bool {
	return q.ISBN == "" && q.Text == ""
}

// Candidate is one suggested record.
type Candidate struct {
	Source         string   `json:"source"`
	Title          string   `json:"title"`
	Author         string   `json:"author,omitempty"`
	ISBN           string   `json:"isbn,omitempty"`
	Publisher      string   `json:"publisher,omitempty"`
	PublishedDate  string   `json:"published_date,omitempty"`
	PageCount      *int     `json:"page_count,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	CoverURL       string   `json:"cover_url,omitempty"`
	SeriesHint     string   `json:"series_hint,omitempty"`
	SeriesPosition *int     `json:"series_position,omitempty"`
	// Description is markdown.
	Description string `json:"description,omitempty"`
}

// Source is one catalogue.
type Source interface {
	Name() string
	Lookup(ctx context.Context, q Query) ([]Candidate, error)
}

// Result collects what every source returned. Failed names sources that
// errored and were skipped.
type Result struct {
	Query      Query       `json:"query"`
	Candidates []Candidate `json:"candidates"`
	Failed     []string    `json:"failed,omitempty"`
}

// Service queries all sources concurrently.
type Service struct {
	sources []Source
	timeout time.Duration
	logger  *slog.Logger
}

// NewService creates a lookup service. A zero timeout uses DefaultTimeout.
func NewService(logger *slog.Logger, timeout time.Duration, sources ...Source) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{sources: sources, timeout: timeout, logger: logger}
}

// Lookup runs raw against every source. A source that fails is logged and
// skipped; the call only fails when every source did.
func (s *Service) Lookup(ctx context.Context, raw string) (*Result, error) {
	q := ParseQuery(raw)
	if q.IsZero() {
		return nil, domainerrors.Validation("lookup query is empty")
	}
	if len(s.sources) == 0 {
		return nil, domainerrors.ErrUnavailable.WithDetails("no lookup sources configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	found := make([][]Candidate, len(s.sources))
	errs := make([]error, len(s.sources))

	var g errgroup.Group
	for i, src := range s.sources {
		g.Go(func() error {
			found[i], errs[i] = src.Lookup(ctx, q)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{Query: q, Candidates: []Candidate{}}
	for i, src := range s.sources {
		if errs[i] != nil {
			s.logger.Warn("lookup source failed",
				"source", src.Name(),
				"error", errs[i],
			)
			res.Failed = append(res.Failed, src.Name())
			continue
		}
		res.Candidates = append(res.Candidates, found[i]...)
	}

	if len(res.Failed) == len(s.sources) {
		return res, domainerrors.Wrap(errors.Join(errs...), domainerrors.CodeUnavailable,
			"book lookup is unavailable, please try again")
	}

	s.logger.Debug("lookup complete",
		"isbn", q.ISBN,
		"text", q.Text,
		"candidates", len(res.Candidates),
		"failed", len(res.Failed),
	)
	return res, nil
}
