package cli

import (
	"fmt"
	"io"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

// inspectReport summarizes the health of one user's library.
type inspectReport struct {
	Books, InBin, Genres, Series int
	WithoutISBN                  int
	// DanglingGenres counts genre references whose genre no longer exists.
	DanglingGenres int
	// DanglingSeries counts books pointing at a deleted series.
	DanglingSeries int
	samples        []string
}

const inspectSamples = 5

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Check a user's library for dangling references",
		Long: `Count documents and report books that point at genres or series
which no longer exist. Deleting a genre leaves its id on books until they
are next edited; this shows how many are affected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			lib, err := do.Invoke[*service.LibraryService](a.injector)
			if err != nil {
				return err
			}
			snap, err := lib.Snapshot(cmd.Context(), a.flagUser)
			if err != nil {
				return err
			}
			printInspect(cmd.OutOrStdout(), inspect(snap))
			return nil
		},
	}
}

func inspect(snap *service.Snapshot) inspectReport {
	r := inspectReport{Genres: len(snap.Genres), Series: len(snap.Series)}

	genres := make(map[string]struct{}, len(snap.Genres))
	for _, g := range snap.Genres {
		genres[g.ID] = struct{}{}
	}
	series := make(map[string]struct{}, len(snap.Series))
	for _, s := range snap.Series {
		series[s.ID] = struct{}{}
	}

	for _, b := range snap.Books {
		if b.InBin() {
			r.InBin++
		} else {
			r.Books++
		}
		if b.ISBN == "" {
			r.WithoutISBN++
		}

		dangling := false
		for _, gid := range b.GenreIDs {
			if _, ok := genres[gid]; !ok {
				r.DanglingGenres++
				dangling = true
			}
		}
		if b.SeriesID != "" {
			if _, ok := series[b.SeriesID]; !ok {
				r.DanglingSeries++
				dangling = true
			}
		}
		if dangling && len(r.samples) < inspectSamples {
			r.samples = append(r.samples, fmt.Sprintf("%s (%s)", b.Title, b.ID))
		}
	}
	return r
}

func printInspect(w io.Writer, r inspectReport) {
	fmt.Fprintln(w, "=== Library Inspection ===")
	fmt.Fprintf(w, "Books:        %d (%d in bin)\n", r.Books, r.InBin)
	fmt.Fprintf(w, "Genres:       %d\n", r.Genres)
	fmt.Fprintf(w, "Series:       %d\n", r.Series)
	fmt.Fprintf(w, "Without ISBN: %d\n", r.WithoutISBN)
	fmt.Fprintln(w)

	if r.DanglingGenres == 0 && r.DanglingSeries == 0 {
		ok(w, "No dangling references")
		return
	}
	fmt.Fprintf(w, "Dangling genre references:  %d\n", r.DanglingGenres)
	fmt.Fprintf(w, "Dangling series references: %d\n", r.DanglingSeries)
	for _, s := range r.samples {
		fmt.Fprintf(w, "  %s\n", s)
	}
}
