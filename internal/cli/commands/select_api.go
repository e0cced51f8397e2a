package commands

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/mansap-dev/mansap/internal/cli/userconfig"
	"github.com/mansap-dev/mansap/internal/config"
)

// LocalAPIURL is the address of a marketplace API started locally
const LocalAPIURL = "http://localhost:3001"

type apiOption struct {
	Label string
	URL   string
}

// NewSelectAPICmd creates the select-api command
func NewSelectAPICmd(opts ...Option) *cobra.Command {
	e := newEnv(opts)

	cmd := &cobra.Command{
		Use:   "select-api [url]",
		Short: "Select the marketplace API to use for commands",
		Long: `Select the marketplace API to use for commands.

If no param is provided, an interactive prompt will be shown.
The --api-url flag and MANSAP_API_URL env var still take precedence.

Examples:
  $ mansap select-api                        # Interactive selection
  $ mansap select-api http://localhost:3001  # Select by URL`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var apiURL string
			if len(args) > 0 {
				apiURL = args[0]
			}
			return runSelectAPI(e, apiURL)
		},
	}

	return cmd
}

func runSelectAPI(e *env, apiURL string) error {
	if apiURL == "" {
		selected, err := e.promptAPISelection()
		if err != nil {
			return err
		}
		apiURL = selected
	}

	u, err := url.Parse(apiURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API URL %q (expected http(s)://host)", apiURL)
	}
	apiURL = strings.TrimRight(apiURL, "/")

	if err := userconfig.SetAPIURL(apiURL); err != nil {
		return fmt.Errorf("failed to save selected API: %w", err)
	}

	fmt.Fprintf(e.out, "Selected API: %s\n", apiURL)
	return nil
}

func (e *env) promptAPISelection() (string, error) {
	if !e.interactive() {
		return "", fmt.Errorf("an API URL is required in non-interactive mode")
	}

	options := []apiOption{
		{Label: fmt.Sprintf("Production (%s)", config.DefaultAPIURL), URL: config.DefaultAPIURL},
		{Label: fmt.Sprintf("Local (%s)", LocalAPIURL), URL: LocalAPIURL},
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select an API",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("API selection cancelled: %w", err)
	}

	return options[index].URL, nil
}
