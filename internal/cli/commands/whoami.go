package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type whoamiOutput struct {
	APIURL string `json:"api_url" yaml:"api_url"`
	ID     int    `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Email  string `json:"email" yaml:"email"`
	Role   string `json:"role" yaml:"role"`
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(opts ...Option) *cobra.Command {
	var output string
	e := newEnv(opts)

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, store, err := e.open(cmd)
			if err != nil {
				return err
			}
			if err := requireLogin(store); err != nil {
				return err
			}

			if err := store.FetchProfile(cmd.Context()); err != nil {
				return describeError("loading profile", err)
			}

			snap := store.Snapshot()
			result := whoamiOutput{
				APIURL: api.BaseURL(),
				ID:     snap.UserID,
				Name:   snap.Name,
				Email:  snap.Email,
				Role:   snap.Role.String(),
			}

			return render(e.out, output, result, func(w io.Writer) error {
				fmt.Fprintf(w, "%s (%s)\n", result.Name, result.Email)
				fmt.Fprintf(w, "  ID:   %d\n", result.ID)
				fmt.Fprintf(w, "  Role: %s\n", result.Role)
				fmt.Fprintf(w, "  API:  %s\n", result.APIURL)
				return nil
			})
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}
