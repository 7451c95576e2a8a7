package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

type seedBook struct {
	title, author, isbn, genre, series string
	position, pages                    int
}

// seedCatalog is the demo library. Genres and series are created on first use.
var seedCatalog = []seedBook{
	{"Dune", "Frank Herbert", "9780441172719", "Science Fiction", "Dune", 1, 688},
	{"Dune Messiah", "Frank Herbert", "9780593098233", "Science Fiction", "Dune", 2, 336},
	{"Mort", "Terry Pratchett", "9780062225719", "Fantasy", "Discworld", 4, 384},
	{"Guards! Guards!", "Terry Pratchett", "9780062225757", "Fantasy", "Discworld", 8, 416},
	{"Small Gods", "Terry Pratchett", "9780062237378", "Fantasy", "Discworld", 13, 400},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "9780441478125", "Science Fiction", "", 0, 304},
	{"A Wizard of Earthsea", "Ursula K. Le Guin", "9780547773742", "Fantasy", "Earthsea", 1, 208},
	{"The Name of the Rose", "Umberto Eco", "9780544176560", "Mystery", "", 0, 592},
	{"Middlemarch", "George Eliot", "9780141439549", "Classics", "", 0, 880},
	{"The Remains of the Day", "Kazuo Ishiguro", "9780679731726", "", "", 0, 258},
}

var seedWishlist = []service.CreateWishlistRequest{
	{Title: "Children of Time", Author: "Adrian Tchaikovsky", Priority: "high"},
	{Title: "The Dispossessed", Author: "Ursula K. Le Guin", Priority: "medium"},
	{Title: "Piranesi", Author: "Susanna Clarke"},
}

type seedCounts struct {
	genres, series, books, wishlist, skipped int
}

func newSeedCmd(a *app) *cobra.Command {
	var seed uint64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill a user's library with demo books",
		Long: `Create a small demo library: genres, series, books with ratings and
reading history spread over the past two years, and a few wishlist entries.
Books the user already owns are skipped, so seeding twice is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			counts, err := runSeed(cmd.Context(), a, rand.New(rand.NewPCG(seed, seed)))
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "Seeded %d books, %d genres, %d series, %d wishlist entries (%d skipped)",
				counts.books, counts.genres, counts.series, counts.wishlist, counts.skipped)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", uint64(time.Now().UnixNano()), "Random seed for ratings and reading history")
	return cmd
}

func runSeed(ctx context.Context, a *app, rng *rand.Rand) (seedCounts, error) {
	var counts seedCounts

	genresSvc, err := do.Invoke[*service.GenreService](a.injector)
	if err != nil {
		return counts, err
	}
	seriesSvc, err := do.Invoke[*service.SeriesService](a.injector)
	if err != nil {
		return counts, err
	}
	books, err := do.Invoke[*service.BookService](a.injector)
	if err != nil {
		return counts, err
	}
	wishlist, err := do.Invoke[*service.WishlistService](a.injector)
	if err != nil {
		return counts, err
	}

	user := a.flagUser
	genreIDs := map[string]string{}
	seriesIDs := map[string]string{}

	existingGenres, err := genresSvc.List(ctx, user)
	if err != nil {
		return counts, err
	}
	for _, g := range existingGenres {
		genreIDs[g.Name] = g.ID
	}
	existingSeries, err := seriesSvc.List(ctx, user)
	if err != nil {
		return counts, err
	}
	for _, s := range existingSeries {
		seriesIDs[s.Name] = s.ID
	}

	now := time.Now().UTC()
	for _, sb := range seedCatalog {
		req := service.CreateBookRequest{
			Title:     sb.title,
			Author:    sb.author,
			ISBN:      sb.isbn,
			PageCount: &sb.pages,
		}

		if sb.genre != "" {
			gid, ok := genreIDs[sb.genre]
			if !ok {
				g, err := genresSvc.Create(ctx, user, service.CreateGenreRequest{Name: sb.genre})
				if err != nil {
					return counts, fmt.Errorf("create genre %q: %w", sb.genre, err)
				}
				gid = g.ID
				genreIDs[sb.genre] = gid
				counts.genres++
			}
			req.GenreIDs = []string{gid}
		}

		if sb.series != "" {
			sid, ok := seriesIDs[sb.series]
			if !ok {
				s, err := seriesSvc.Create(ctx, user, service.CreateSeriesRequest{Name: sb.series})
				if err != nil {
					return counts, fmt.Errorf("create series %q: %w", sb.series, err)
				}
				sid = s.ID
				seriesIDs[sb.series] = sid
				counts.series++
			}
			pos := sb.position
			req.SeriesID, req.SeriesPosition = sid, &pos
		}

		req.Reads, req.Rating = seedHistory(rng, now)

		if _, err := books.Create(ctx, user, req); err != nil {
			if errors.Is(err, domainerrors.ErrConflict) {
				counts.skipped++
				continue
			}
			return counts, fmt.Errorf("create book %q: %w", sb.title, err)
		}
		counts.books++
	}

	wished, err := wishlist.List(ctx, user)
	if err != nil {
		return counts, err
	}
	for _, item := range seedWishlist {
		if slices.ContainsFunc(wished, func(w *domain.WishlistItem) bool {
			return strings.EqualFold(w.Title, item.Title)
		}) {
			counts.skipped++
			continue
		}
		if _, err := wishlist.Create(ctx, user, item); err != nil {
			return counts, fmt.Errorf("create wishlist entry %q: %w", item.Title, err)
		}
		counts.wishlist++
	}

	return counts, nil
}

// seedHistory picks one of: unread, being read, or finished with a rating.
func seedHistory(rng *rand.Rand, now time.Time) ([]domain.ReadAttempt, *int) {
	switch rng.IntN(3) {
	case 0:
		return nil, nil
	case 1:
		started := now.AddDate(0, 0, -rng.IntN(30)-1)
		return []domain.ReadAttempt{{StartedAt: &started}}, nil
	default:
		started := now.AddDate(0, 0, -rng.IntN(700)-30)
		finished := started.AddDate(0, 0, rng.IntN(28)+1)
		rating := rng.IntN(5) + 1
		return []domain.ReadAttempt{{StartedAt: &started, FinishedAt: &finished}}, &rating
	}
}
