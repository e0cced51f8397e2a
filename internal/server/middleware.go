package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mansap-dev/mansap/internal/auth"
	"github.com/mansap-dev/mansap/internal/session"
	"github.com/mansap-dev/mansap/internal/tokenstore"
)

const (
	bearerPrefix = "Bearer "
	sessionKey   = "session"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
)

// cookieStore persists the session token in the request/response cookie
type cookieStore struct {
	c      *gin.Context
	name   string
	secure bool
}

func (cs *cookieStore) Save(token string) error {
	cs.c.SetSameSite(http.SameSiteLaxMode)
	cs.c.SetCookie(cs.name, token, 0, "/", "", cs.secure, true)
	return nil
}

func (cs *cookieStore) Load() (string, error) {
	token, err := cs.c.Cookie(cs.name)
	if err != nil || token == "" {
		return "", tokenstore.ErrNotFound
	}
	return token, nil
}

func (cs *cookieStore) Delete() error {
	cs.c.SetSameSite(http.SameSiteLaxMode)
	cs.c.SetCookie(cs.name, "", -1, "/", "", cs.secure, true)
	return nil
}

// requestSession returns the session of this request, building it from the
// cookie the first time it is needed.
func (s *Server) requestSession(c *gin.Context) (*session.Store, error) {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(*session.Store); ok {
			return sess, nil
		}
	}

	sess, err := session.New(s.api, &cookieStore{
		c:      c,
		name:   s.config.HTTP.CookieName,
		secure: s.config.HTTP.CookieSecure,
	}, session.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	c.Set(sessionKey, sess)
	return sess, nil
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// routeGuard applies the route access policy to page navigations. The role is
// only resolved, through a profile fetch, for paths that require one.
func (s *Server) routeGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		sess, err := s.requestSession(c)
		if err != nil {
			respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load session")
			return
		}

		hasToken := sess.HasToken()
		role := auth.RoleNone
		if hasToken && s.policy.RequiresRole(path) {
			if err := sess.FetchProfile(c.Request.Context()); err != nil {
				s.logger.Debug().Err(err).Str("path", path).Msg("Could not resolve role")
			}
			role = sess.Role()
		}

		decision := s.policy.Decide(hasToken, role, path)
		if decision.Allow {
			c.Next()
			return
		}

		s.logger.Debug().
			Str("path", path).
			Bool("has_token", hasToken).
			Str("role", role.String()).
			Str("decision", decision.String()).
			Msg("Navigation redirected")

		c.Redirect(http.StatusFound, decision.Redirect)
		c.Abort()
	}
}
