package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/library"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// StatsService summarizes a library.
type StatsService struct {
	library *LibraryService
	store   store.DocumentStore
	logger  *slog.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(lib *LibraryService, s store.DocumentStore, logger *slog.Logger) *StatsService {
	return &StatsService{library: lib, store: s, logger: logger}
}

// GenreCount is a genre with the number of owned books carrying it.
type GenreCount struct {
	GenreID string `json:"genre_id"`
	Name    string `json:"name"`
	Books   int    `json:"books"`
}

// LibraryStats is a headline summary of one user's library.
type LibraryStats struct {
	Books          int                   `json:"books"`
	InBin          int                   `json:"in_bin"`
	ByStatus       map[domain.Status]int `json:"by_status"`
	Rated          int                   `json:"rated"`
	AverageRating  float64               `json:"average_rating"`
	PagesRead      int                   `json:"pages_read"`
	FinishedByYear map[int]int           `json:"finished_by_year"`
	Genres         int                   `json:"genres"`
	Series         int                   `json:"series"`
	Wishlist       int                   `json:"wishlist"`
	TopGenres      []GenreCount          `json:"top_genres"`
}

// topGenreLimit caps LibraryStats.TopGenres.
const topGenreLimit = 5

// Summary computes LibraryStats. Binned books only count towards InBin.
func (s *StatsService) Summary(ctx context.Context, userID string) (*LibraryStats, error) {
	snap, err := s.library.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	wishlist, err := s.store.List(ctx, userID, domain.CollectionWishlist, store.Query{})
	if err != nil {
		return nil, storeFailure(s.logger, err, "list wishlist", "user_id", userID)
	}

	active := library.Active(snap.Books)
	st := &LibraryStats{
		Books:          len(active),
		InBin:          len(snap.Books) - len(active),
		ByStatus:       map[domain.Status]int{},
		FinishedByYear: map[int]int{},
		Genres:         len(snap.Genres),
		Series:         len(snap.Series),
		Wishlist:       len(wishlist),
	}

	ratingSum := 0
	perGenre := map[string]int{}
	for _, b := range active {
		status := library.DeriveStatus(b)
		st.ByStatus[status]++
		if b.Rating != nil {
			st.Rated++
			ratingSum += *b.Rating
		}
		for _, r := range b.Reads {
			if r.FinishedAt == nil {
				continue
			}
			st.FinishedByYear[r.FinishedAt.Year()]++
			if b.PageCount != nil {
				st.PagesRead += *b.PageCount
			}
		}
		for _, gid := range domain.UniqueGenreIDs(b.GenreIDs) {
			perGenre[gid]++
		}
	}
	if st.Rated > 0 {
		st.AverageRating = float64(ratingSum) / float64(st.Rated)
	}

	for _, g := range snap.Genres {
		if n := perGenre[g.ID]; n > 0 {
			st.TopGenres = append(st.TopGenres, GenreCount{GenreID: g.ID, Name: g.Name, Books: n})
		}
	}
	slices.SortFunc(st.TopGenres, func(a, b GenreCount) int {
		if c := cmp.Compare(b.Books, a.Books); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(st.TopGenres) > topGenreLimit {
		st.TopGenres = st.TopGenres[:topGenreLimit]
	}

	return st, nil
}
