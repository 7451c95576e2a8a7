// Package cli implements the bookshelf maintenance command: backups, merges,
// statistics and session tokens against the same data the server uses.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookshelfapp/bookshelf-server/internal/di"
)

// app carries the state shared by all subcommands.
type app struct {
	injector *do.RootScope

	flagDataPath string
	flagStore    string
	flagEnvFile  string
	flagLogLevel string
	flagUser     string
}

// configArgs translates the persistent flags into config.Load flags. Unset
// flags fall through to the environment and .env file.
func (a *app) configArgs() []string {
	args := []string{"-env-file", a.flagEnvFile, "-log-level", a.flagLogLevel}
	if a.flagDataPath != "" {
		args = append(args, "-data-path", a.flagDataPath)
	}
	if a.flagStore != "" {
		args = append(args, "-store", a.flagStore)
	}
	// Maintenance commands never call out to lookup sources.
	return append(args, "-lookup", "false")
}

func (a *app) requireUser() error {
	if a.flagUser == "" {
		return fmt.Errorf("--user is required")
	}
	return nil
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "bookshelf",
		Short: "Maintain a Bookshelf library from the command line",
		Long: `bookshelf works directly on the server's data directory.

Stop the server first when using the badger store: it allows one process at a time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.injector = di.NewToolContainer(a.configArgs(), cmd.ErrOrStderr())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.shutdown()
		},
	}

	root.PersistentFlags().StringVar(&a.flagDataPath, "data-path", "", "Library data directory (default: $DATA_PATH or ~/Bookshelf/data)")
	root.PersistentFlags().StringVar(&a.flagStore, "store", "", "Document store backend: badger or sqlite")
	root.PersistentFlags().StringVar(&a.flagEnvFile, "env-file", ".env", "Path to .env file")
	root.PersistentFlags().StringVar(&a.flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&a.flagUser, "user", "u", "", "User the command acts for")

	root.AddCommand(
		newExportCmd(a),
		newImportCmd(a),
		newGenreCmd(a),
		newSeriesCmd(a),
		newStatsCmd(a),
		newTokenCmd(a),
		newInspectCmd(a),
		newSeedCmd(a),
	)
	return root, a
}

// shutdown closes the store. Safe to call more than once.
func (a *app) shutdown() {
	if a.injector == nil {
		return
	}
	_ = a.injector.Shutdown()
	a.injector = nil
}

// Execute is the entry point called from main.
func Execute() {
	root, a := newRoot()
	err := root.Execute()
	// PersistentPostRun is skipped when a command fails.
	a.shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// ok prints a success line.
func ok(w io.Writer, format string, a ...any) {
	fmt.Fprintln(w, "✓", fmt.Sprintf(format, a...))
}
