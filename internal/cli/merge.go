package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

func newGenreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genre",
		Short: "List and merge genres",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List a user's genres",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.requireUser(); err != nil {
					return err
				}
				svc, err := do.Invoke[*service.GenreService](a.injector)
				if err != nil {
					return err
				}
				genres, err := svc.List(cmd.Context(), a.flagUser)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tCOLOR")
				for _, g := range genres {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", g.ID, g.Name, g.Color)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "merge SOURCE_ID TARGET_ID",
			Short: "Move every book from one genre to another and delete the source",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.requireUser(); err != nil {
					return err
				}
				svc, err := do.Invoke[*service.GenreService](a.injector)
				if err != nil {
					return err
				}
				moved, err := svc.Merge(cmd.Context(), a.flagUser, args[0], args[1])
				if err != nil {
					return err
				}
				ok(cmd.OutOrStdout(), "Merged genre %s into %s, %d books moved", args[0], args[1], moved)
				return nil
			},
		},
	)
	return cmd
}

func newSeriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series",
		Short: "List and merge series",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List a user's series",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.requireUser(); err != nil {
					return err
				}
				svc, err := do.Invoke[*service.SeriesService](a.injector)
				if err != nil {
					return err
				}
				series, err := svc.List(cmd.Context(), a.flagUser)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tBOOKS")
				for _, s := range series {
					total := "?"
					if s.TotalBooks != nil {
						total = strconv.Itoa(*s.TotalBooks)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Name, total)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "merge SOURCE_ID TARGET_ID",
			Short: "Move every book from one series to another and delete the source",
			Long: `Move every book from one series to another and delete the source.
Books keep their position in the series.`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.requireUser(); err != nil {
					return err
				}
				svc, err := do.Invoke[*service.SeriesService](a.injector)
				if err != nil {
					return err
				}
				moved, err := svc.Merge(cmd.Context(), a.flagUser, args[0], args[1])
				if err != nil {
					return err
				}
				ok(cmd.OutOrStdout(), "Merged series %s into %s, %d books moved", args[0], args[1], moved)
				return nil
			},
		},
	)
	return cmd
}
