package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

func newStatsCmd(a *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show a user's library statistics",
		Long: `Show counts by reading status, ratings, pages read and books finished per year.

Examples:
  bookshelf stats --user u1
  bookshelf stats --user u1 --json    Machine-readable JSON output`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			svc, err := do.Invoke[*service.StatsService](a.injector)
			if err != nil {
				return err
			}
			stats, err := svc.Summary(cmd.Context(), a.flagUser)
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func printStats(w io.Writer, s *service.LibraryStats) {
	fmt.Fprintf(w, "Books:     %d (%d in bin)\n", s.Books, s.InBin)
	for _, status := range []domain.Status{domain.StatusWantToRead, domain.StatusReading, domain.StatusFinished} {
		fmt.Fprintf(w, "  %-13s %d\n", status, s.ByStatus[status])
	}
	if s.Rated > 0 {
		fmt.Fprintf(w, "Rated:     %d (average %.1f)\n", s.Rated, s.AverageRating)
	}
	fmt.Fprintf(w, "Pages read: %d\n", s.PagesRead)
	fmt.Fprintf(w, "Genres:    %d\n", s.Genres)
	fmt.Fprintf(w, "Series:    %d\n", s.Series)
	fmt.Fprintf(w, "Wishlist:  %d\n", s.Wishlist)

	if len(s.FinishedByYear) > 0 {
		fmt.Fprintln(w, "Finished per year:")
		years := make([]int, 0, len(s.FinishedByYear))
		for y := range s.FinishedByYear {
			years = append(years, y)
		}
		slices.Sort(years)
		for _, y := range years {
			fmt.Fprintf(w, "  %d  %d\n", y, s.FinishedByYear[y])
		}
	}

	if len(s.TopGenres) > 0 {
		fmt.Fprintln(w, "Top genres:")
		for _, g := range s.TopGenres {
			fmt.Fprintf(w, "  %-20s %d\n", g.Name, g.Books)
		}
	}
}
