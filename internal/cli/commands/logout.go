package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mansap-dev/mansap/internal/session"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(opts ...Option) *cobra.Command {
	e := newEnv(opts)

	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, store, err := e.open(cmd, session.WithLogoutHook(func() {
				fmt.Fprintln(e.out, "✓ Logged out")
			}))
			if err != nil {
				return err
			}

			if !store.HasToken() {
				fmt.Fprintf(e.out, "Not logged in to %s\n", api.BaseURL())
				return nil
			}

			store.Logout()
			return nil
		},
	}
}
