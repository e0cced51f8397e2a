package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/mansap-dev/mansap/internal/auth"
	"github.com/mansap-dev/mansap/internal/cli/userconfig"
	"github.com/mansap-dev/mansap/internal/client"
	"github.com/mansap-dev/mansap/internal/config"
	"github.com/mansap-dev/mansap/internal/forms"
	"github.com/mansap-dev/mansap/internal/logger"
	"github.com/mansap-dev/mansap/internal/session"
	"github.com/mansap-dev/mansap/internal/tokenstore"
)

// env holds what commands need from the outside world. Tests replace the
// parts that would touch the keychain, the terminal or the real API.
type env struct {
	apiURL      string
	httpClient  *http.Client
	tokens      func(apiURL string) tokenstore.Store
	out         io.Writer
	interactive func() bool
	logger      *zerolog.Logger
}

// Option configures the environment of a command
type Option func(*env)

// WithAPIURL pins the API root, bypassing flags, env vars and user config
func WithAPIURL(apiURL string) Option {
	return func(e *env) { e.apiURL = apiURL }
}

// WithHTTPClient sets the HTTP client used for API calls
func WithHTTPClient(httpClient *http.Client) Option {
	return func(e *env) { e.httpClient = httpClient }
}

// WithTokenStore replaces the OS keychain with store
func WithTokenStore(store tokenstore.Store) Option {
	return func(e *env) {
		e.tokens = func(string) tokenstore.Store { return store }
	}
}

// WithOutput redirects command output
func WithOutput(w io.Writer) Option {
	return func(e *env) { e.out = w }
}

// WithInteractive overrides terminal detection for prompts
func WithInteractive(interactive bool) Option {
	return func(e *env) { e.interactive = func() bool { return interactive } }
}

// WithLogger sets the logger handed to the session store and forms
func WithLogger(l zerolog.Logger) Option {
	return func(e *env) { e.logger = &l }
}

func newEnv(opts []Option) *env {
	e := &env{
		tokens: func(apiURL string) tokenstore.Store { return tokenstore.NewKeyring(apiURL) },
		out:    os.Stdout,
		interactive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *env) log() zerolog.Logger {
	if e.logger != nil {
		return *e.logger
	}
	// read at run time, after the root command configured the level
	return logger.GetLogger()
}

// resolveAPIURL picks the API root: --api-url, MANSAP_API_URL, the user
// config, then the public marketplace API.
func (e *env) resolveAPIURL(cmd *cobra.Command) (string, error) {
	if e.apiURL != "" {
		return e.apiURL, nil
	}

	// the flag is only present when run under the root command
	if apiURL, _ := cmd.Flags().GetString("api-url"); apiURL != "" {
		return strings.TrimRight(apiURL, "/"), nil
	}

	if apiURL := os.Getenv("MANSAP_API_URL"); apiURL != "" {
		return strings.TrimRight(apiURL, "/"), nil
	}

	cfg, err := userconfig.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load user config: %w", err)
	}
	if cfg.APIURL != "" {
		return strings.TrimRight(cfg.APIURL, "/"), nil
	}

	return config.DefaultAPIURL, nil
}

// open builds the API client and the session store for the resolved API root.
// The store rehydrates the token saved by a previous login.
func (e *env) open(cmd *cobra.Command, opts ...session.Option) (*client.Client, *session.Store, error) {
	apiURL, err := e.resolveAPIURL(cmd)
	if err != nil {
		return nil, nil, err
	}

	api := client.New(apiURL)
	if e.httpClient != nil {
		api.SetHTTPClient(e.httpClient)
	}

	opts = append([]session.Option{session.WithLogger(e.log())}, opts...)
	store, err := session.New(api, e.tokens(apiURL), opts...)
	if err != nil {
		return nil, nil, err
	}

	return api, store, nil
}

// requireLogin fails with a hint when no token is stored
func requireLogin(store *session.Store) error {
	if !store.HasToken() {
		return fmt.Errorf("not logged in. Please run 'mansap login' first")
	}
	return nil
}

func (e *env) promptText(label, def string, mask bool) (string, error) {
	if !e.interactive() {
		return "", fmt.Errorf("%s is required in non-interactive mode", strings.ToLower(label))
	}

	prompt := promptui.Prompt{
		Label:   label,
		Default: def,
	}
	if mask {
		prompt.Mask = '*'
	}

	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt cancelled: %w", err)
	}
	return strings.TrimSpace(value), nil
}

func (e *env) readPassword() (string, error) {
	if !e.interactive() {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or MANSAP_PASSWORD env var)")
	}

	fmt.Fprint(e.out, "Password: ")
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(e.out) // New line after password input
	return string(bytePassword), nil
}

// describeError turns a form or session error into a message for the terminal
func describeError(action string, err error) error {
	if fields := forms.FieldErrors(err); len(fields) > 0 {
		messages := forms.Messages(fields)
		keys := make([]string, 0, len(messages))
		for k := range messages {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var b strings.Builder
		fmt.Fprintf(&b, "%s failed: invalid input", action)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  %s", messages[k])
		}
		return errors.New(b.String())
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fmt.Errorf("%s failed: invalid email or password", action)
	case errors.Is(err, auth.ErrUnauthorized):
		return fmt.Errorf("%s failed: session is not valid. Please run 'mansap login' again", action)
	case errors.Is(err, forms.ErrInFlight):
		return fmt.Errorf("%s failed: already in progress", action)
	}
	return fmt.Errorf("%s failed: %w", action, err)
}

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", outputText, "Output format: text, json or yaml")
}

// render writes v as JSON or YAML, or calls text for the default format
func render(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case outputText, "":
		return text(w)
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (use text, json or yaml)", format)
	}
}
