package cli

import (
	"fmt"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookshelfapp/bookshelf-server/internal/auth"
)

func newTokenCmd(a *app) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for a user",
		Long: `Issue a session token signed with the server's key. Send it as
"Authorization: Bearer <token>" or in the session cookie.

Examples:
  bookshelf token --user u1
  export TOKEN=$(bookshelf token --user u1 --quiet)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			tokens, err := do.Invoke[*auth.TokenService](a.injector)
			if err != nil {
				return err
			}
			token, expires, err := tokens.Issue(a.flagUser)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if quiet {
				fmt.Fprintln(w, token)
				return nil
			}
			fmt.Fprintf(w, "User:    %s\n", a.flagUser)
			fmt.Fprintf(w, "Expires: %s\n", expires.Format(time.RFC3339))
			fmt.Fprintf(w, "Token:   %s\n", token)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the token")
	return cmd
}
