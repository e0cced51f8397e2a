package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mansap-dev/mansap/internal/cli/userconfig"
	"github.com/mansap-dev/mansap/internal/forms"
)

// NewLoginCmd creates the login command
func NewLoginCmd(opts ...Option) *cobra.Command {
	var email, password string
	e := newEnv(opts)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the marketplace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, e, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set MANSAP_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set MANSAP_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, e *env, email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("MANSAP_EMAIL")
	}
	if password == "" {
		password = os.Getenv("MANSAP_PASSWORD")
	}

	if email == "" {
		cfg, err := userconfig.Load()
		if err != nil {
			return fmt.Errorf("failed to load user config: %w", err)
		}
		email, err = e.promptText("Email", cfg.LastEmail, false)
		if err != nil {
			return fmt.Errorf("email is required (use --email flag or MANSAP_EMAIL env var): %w", err)
		}
	}

	if password == "" {
		var err error
		password, err = e.readPassword()
		if err != nil {
			return err
		}
	}

	api, store, err := e.open(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "Logging in to %s...\n", api.BaseURL())

	form := forms.NewLoginForm(store, nil, e.log())
	form.SetValues(forms.LoginValues{Email: email, Password: password})
	if err := form.Submit(cmd.Context()); err != nil {
		return describeError("login", err)
	}

	if err := userconfig.SetLastEmail(email); err != nil {
		log := e.log()
		log.Warn().Err(err).Msg("Failed to remember email")
	}

	snap := store.Snapshot()
	fmt.Fprintln(e.out, "✓ Login successful!")
	fmt.Fprintf(e.out, "  User: %s (%s)\n", snap.Name, snap.Email)
	if snap.Role.IsAdmin() {
		fmt.Fprintln(e.out, "  Role: Admin")
	}

	return nil
}
