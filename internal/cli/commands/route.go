package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mansap-dev/mansap/internal/access"
	"github.com/mansap-dev/mansap/internal/auth"
)

type routeOutput struct {
	Path     string `json:"path" yaml:"path"`
	HasToken bool   `json:"has_token" yaml:"has_token"`
	Role     string `json:"role" yaml:"role"`
	Allow    bool   `json:"allow" yaml:"allow"`
	Redirect string `json:"redirect,omitempty" yaml:"redirect,omitempty"`
	Abort    bool   `json:"abort,omitempty" yaml:"abort,omitempty"`
}

// NewRouteCmd creates the route command
func NewRouteCmd(opts ...Option) *cobra.Command {
	var output string
	e := newEnv(opts)

	cmd := &cobra.Command{
		Use:   "route <path>",
		Short: "Show whether the current session may open a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			policy := access.Default()

			_, store, err := e.open(cmd)
			if err != nil {
				return err
			}

			role := auth.RoleNone
			if store.HasToken() && policy.RequiresRole(path) {
				if err := store.FetchProfile(cmd.Context()); err != nil {
					log := e.log()
					log.Debug().Err(err).Msg("Could not resolve role")
				}
				role = store.Role()
			}

			decision := policy.Decide(store.HasToken(), role, path)
			result := routeOutput{
				Path:     path,
				HasToken: store.HasToken(),
				Role:     role.String(),
				Allow:    decision.Allow,
				Redirect: decision.Redirect,
				Abort:    decision.Abort,
			}

			return render(e.out, output, result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s: %s\n", path, decision)
				return err
			})
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}
