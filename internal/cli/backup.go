package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookshelfapp/bookshelf-server/internal/backup"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

func newExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's library to a backup file",
		Long: `Export every book, genre, series and wishlist entry of a user, binned
books included, as a versioned JSON backup.

Examples:
  bookshelf export --user u1                      Writes bookshelf-backup-<date>.json
  bookshelf export --user u1 --out lib.json       Writes lib.json
  bookshelf export --user u1 --out -              Writes to stdout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			svc, err := do.Invoke[*service.BackupService](a.injector)
			if err != nil {
				return err
			}

			doc, err := svc.Export(cmd.Context(), a.flagUser)
			if err != nil {
				return err
			}

			if out == "-" {
				return backup.Encode(cmd.OutOrStdout(), doc)
			}
			if out == "" {
				out = backup.FileName(doc.ExportedAt)
			}
			if err := writeFile(out, doc); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "Exported %d records to %s", doc.Total(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, - for stdout")
	return cmd
}

// writeFile writes doc next to path first so a failed export never leaves a truncated file.
func writeFile(path string, doc *backup.Document) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bookshelf-export-*")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = backup.Encode(tmp, doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func newImportCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Restore a backup file into a user's library",
		Long: `Import a backup, skipping anything the user already has: books by ISBN or
title and author, genres and series by name.

Examples:
  bookshelf import --user u1 backup.json
  bookshelf import --user u1 --dry-run backup.json   Report without writing
  bookshelf import --user u1 -                       Read from stdin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			svc, err := do.Invoke[*service.BackupService](a.injector)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0]) //#nosec G304 -- operator-supplied path
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			sum, err := svc.ImportFile(cmd.Context(), a.flagUser, r, backup.ImportOptions{DryRun: dryRun})
			return reportImport(cmd.OutOrStdout(), sum, err, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be imported without writing")
	return cmd
}

// reportImport prints the outcome of an import. A failed commit still
// reports what was skipped before the error is returned.
func reportImport(w io.Writer, sum *backup.Summary, err error, dryRun bool) error {
	if err != nil {
		if sum != nil {
			printTallies(w, sum)
		}
		return err
	}
	if dryRun {
		fmt.Fprintln(w, "Dry run, nothing was written.")
	}
	fmt.Fprintln(w, sum.Message())
	printTallies(w, sum)
	return nil
}

func printTallies(w io.Writer, sum *backup.Summary) {
	fmt.Fprintf(w, "  books:    %d new, %d skipped\n", sum.Books.Created, sum.Books.Skipped)
	fmt.Fprintf(w, "  genres:   %d new, %d skipped\n", sum.Genres.Created, sum.Genres.Skipped)
	fmt.Fprintf(w, "  series:   %d new, %d skipped\n", sum.Series.Created, sum.Series.Skipped)
	fmt.Fprintf(w, "  wishlist: %d new, %d skipped\n", sum.Wishlist.Created, sum.Wishlist.Skipped)
	fmt.Fprintf(w, "  bin:      %d new, %d skipped\n", sum.Bin.Created, sum.Bin.Skipped)
}
