// Package session holds the client-side authentication session: the bearer
// token and the identity derived from it.
//
// Store is the single owner of the persisted token. Every mutation runs under
// one lock and bumps a generation counter whenever the token changes, so a
// login or profile response that arrives for an older session is discarded
// instead of being applied to the current one.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mansap-dev/mansap/internal/auth"
	"github.com/mansap-dev/mansap/internal/client"
	"github.com/mansap-dev/mansap/internal/tokenstore"
)

// API is the remote authority the store talks to.
type API interface {
	Login(ctx context.Context, email, password string) (*client.LoginResponse, error)
	Register(ctx context.Context, req client.RegisterRequest) (*client.RegisterResponse, error)
	Profile(ctx context.Context, token string) (*client.Profile, error)
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Token           string    `json:"-"`
	UserID          int       `json:"userId,omitempty"`
	Role            auth.Role `json:"role,omitempty"`
	Email           string    `json:"email,omitempty"`
	Name            string    `json:"name,omitempty"`
	IsLoading       bool      `json:"isLoading"`
	IsAuthenticated bool      `json:"isAuthenticated"`
}

// HasToken reports whether the snapshot carries a bearer token.
func (s Snapshot) HasToken() bool {
	return s.Token != ""
}

type identity struct {
	userID int
	role   auth.Role
	email  string
	name   string
}

// Store is the single source of truth for authentication state.
type Store struct {
	api    API
	tokens tokenstore.Store
	logger zerolog.Logger
	now    func() time.Time

	onLogout func()

	mu            sync.RWMutex
	token         string
	identity      identity
	authenticated bool
	loading       int
	generation    uint64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for session events.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithLogoutHook registers fn to run after every Logout, once state is
// cleared. Callers use it to navigate away from restricted paths.
func WithLogoutHook(fn func()) Option {
	return func(s *Store) { s.onLogout = fn }
}

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store and rehydrates the token persisted in tokens. A
// persisted JWT that has already expired is deleted instead of rehydrated.
func New(api API, tokens tokenstore.Store, opts ...Option) (*Store, error) {
	s := &Store{
		api:    api,
		tokens: tokens,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	token, err := tokens.Load()
	switch {
	case errors.Is(err, tokenstore.ErrNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to rehydrate session: %w", err)
	}

	if auth.TokenExpired(token, s.now()) {
		s.logger.Debug().Msg("Discarding expired persisted token")
		if err := tokens.Delete(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to delete expired token")
		}
		return s, nil
	}

	s.token = token
	return s, nil
}

// Login authenticates with the API, persists the returned token and then
// fetches the profile for it. The token is assigned before the profile fetch
// starts.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.beginLoading()
	defer s.endLoading()

	s.mu.RLock()
	generation := s.generation
	s.mu.RUnlock()

	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.logger.Debug().Err(err).Str("email", email).Msg("Login request failed")
		return classifyLogin(err)
	}

	if resp.AccessToken == "" {
		s.logger.Debug().Str("email", email).Msg("Login returned no token")
		return auth.InvalidCredentials("no access token returned")
	}

	if !s.setToken(resp.AccessToken, generation) {
		s.logger.Debug().Str("email", email).Msg("Discarding login for a replaced session")
		return auth.Unauthorized("session changed while logging in")
	}
	s.logger.Info().Str("email", email).Msg("Logged in")

	return s.FetchProfile(ctx)
}

// Register creates an account and reports whether the API accepted it.
// The session is left untouched: registering does not log the user in.
func (s *Store) Register(ctx context.Context, name, email, password string) (bool, error) {
	s.beginLoading()
	defer s.endLoading()

	resp, err := s.api.Register(ctx, client.RegisterRequest{
		Email:    email,
		Name:     name,
		Password: password,
	})
	if err != nil {
		s.logger.Debug().Err(err).Str("email", email).Msg("Register request failed")
		return false, auth.Transport(err)
	}

	ok := resp.StatusCode == http.StatusOK
	s.logger.Debug().Str("email", email).Int("status_code", resp.StatusCode).Bool("ok", ok).Msg("Registered")
	return ok, nil
}

// FetchProfile loads the identity bound to the current token. On failure the
// session is left unauthenticated but the token is kept. A result that
// arrives after the token changed (logout, new login) is discarded.
func (s *Store) FetchProfile(ctx context.Context) error {
	s.mu.RLock()
	token, generation := s.token, s.generation
	s.mu.RUnlock()

	if token == "" {
		return auth.Unauthorized("no token")
	}

	s.beginLoading()
	defer s.endLoading()

	profile, err := s.api.Profile(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation {
		s.logger.Debug().Msg("Discarding profile for a replaced session")
		return auth.Unauthorized("session changed while fetching profile")
	}

	if err != nil {
		s.authenticated = false
		s.identity = identity{}
		return classifyProfile(err)
	}

	if profile.ID == 0 {
		s.authenticated = false
		s.identity = identity{}
		return auth.Transport(errors.New("profile response has no id"))
	}

	s.identity = identity{
		userID: profile.ID,
		role:   auth.ParseRole(profile.Role),
		email:  profile.Email,
		name:   profile.Name,
	}
	s.authenticated = true

	s.logger.Debug().Int("user_id", profile.ID).Str("role", s.identity.role.String()).Msg("Profile loaded")
	return nil
}

// Logout clears the token and every identity field in one step. It always
// succeeds; a failure to delete the persisted token is only logged.
func (s *Store) Logout() {
	s.mu.Lock()
	s.generation++
	s.token = ""
	s.identity = identity{}
	s.authenticated = false
	if err := s.tokens.Delete(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to delete persisted token")
	}
	s.mu.Unlock()

	s.logger.Info().Msg("Logged out")

	if s.onLogout != nil {
		s.onLogout()
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Token:           s.token,
		UserID:          s.identity.userID,
		Role:            s.identity.role,
		Email:           s.identity.email,
		Name:            s.identity.name,
		IsLoading:       s.loading > 0,
		IsAuthenticated: s.authenticated,
	}
}

// HasToken reports whether a bearer token is held.
func (s *Store) HasToken() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Role returns the role of the loaded profile, or RoleNone.
func (s *Store) Role() auth.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.role
}

// BearerToken returns the token for authorized calls made by collaborators.
func (s *Store) BearerToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// setToken installs token unless the session changed since generation was
// read. It reports whether the token was installed.
func (s *Store) setToken(token string, generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation {
		return false
	}

	s.generation++
	s.token = token
	s.identity = identity{}
	s.authenticated = false
	if err := s.tokens.Save(token); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist token")
	}
	return true
}

func (s *Store) beginLoading() {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()
}

func (s *Store) endLoading() {
	s.mu.Lock()
	s.loading--
	s.mu.Unlock()
}

func classifyLogin(err error) error {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return &auth.AuthError{Kind: auth.ErrInvalidCredentials, Err: err}
		}
	}
	return auth.Transport(err)
}

func classifyProfile(err error) error {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &auth.AuthError{Kind: auth.ErrUnauthorized, Err: err}
		}
	}
	return auth.Transport(err)
}
