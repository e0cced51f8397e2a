package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mansap-dev/mansap/internal/forms"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd(opts ...Option) *cobra.Command {
	var name, email, password string
	e := newEnv(opts)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a marketplace account",
		Long: `Create a marketplace account.

Registering does not log you in. Run 'mansap login' afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, e, name, email, password)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address (or set MANSAP_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set MANSAP_PASSWORD, will prompt if not provided)")

	return cmd
}

func runRegister(cmd *cobra.Command, e *env, name, email, password string) error {
	if email == "" {
		email = os.Getenv("MANSAP_EMAIL")
	}
	if password == "" {
		password = os.Getenv("MANSAP_PASSWORD")
	}

	var err error
	if name == "" {
		if name, err = e.promptText("Name", "", false); err != nil {
			return err
		}
	}
	if email == "" {
		if email, err = e.promptText("Email", "", false); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = e.readPassword(); err != nil {
			return err
		}
	}

	_, store, err := e.open(cmd)
	if err != nil {
		return err
	}

	form := forms.NewRegisterForm(store, nil, e.log())
	form.SetValues(forms.RegisterValues{Name: name, Email: email, Password: password})
	if err := form.Submit(cmd.Context()); err != nil {
		return describeError("registration", err)
	}

	fmt.Fprintln(e.out, "✓ Account created!")
	fmt.Fprintln(e.out, "\nLog in with: mansap login --email "+email)
	return nil
}
