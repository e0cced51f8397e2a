package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mansap-dev/mansap/internal/access"
	"github.com/mansap-dev/mansap/internal/auth"
	"github.com/mansap-dev/mansap/internal/forms"
	"github.com/mansap-dev/mansap/internal/session"
)

// SessionResponse is the session as the browser sees it. The token itself
// stays in the HttpOnly cookie.
type SessionResponse struct {
	Session  session.Snapshot `json:"session"`
	Redirect string           `json:"redirect,omitempty"`
}

// @Summary Login
// @Description Authenticates against the marketplace API and stores the token in the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body forms.LoginValues true "Login request"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) {
	var values forms.LoginValues
	if err := c.ShouldBindJSON(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.requestSession(c)
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load session")
		return
	}

	form := forms.NewLoginForm(sess, nil, s.logger)
	form.SetValues(values)
	if err := form.Submit(c.Request.Context()); err != nil {
		s.respondWithFormError(c, err)
		return
	}

	s.logger.Info().Str("email", values.Email).Msg("User logged in")
	c.JSON(http.StatusOK, SessionResponse{
		Session:  sess.Snapshot(),
		Redirect: access.HomePath,
	})
}

// @Summary Register
// @Description Creates a marketplace account. Does not log the user in.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body forms.RegisterValues true "Register request"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /auth/register [post]
func (s *Server) register(c *gin.Context) {
	var values forms.RegisterValues
	if err := c.ShouldBindJSON(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.requestSession(c)
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load session")
		return
	}

	form := forms.NewRegisterForm(sess, nil, s.logger)
	form.SetValues(values)
	if err := form.Submit(c.Request.Context()); err != nil {
		s.respondWithFormError(c, err)
		return
	}

	s.logger.Info().Str("email", values.Email).Msg("User registered")
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Registration successful",
		"redirect": access.AuthPath,
	})
}

// @Summary Logout
// @Description Clears the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	sess, err := s.requestSession(c)
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load session")
		return
	}

	sess.Logout()
	c.JSON(http.StatusOK, SessionResponse{
		Session:  sess.Snapshot(),
		Redirect: access.AuthPath,
	})
}

// @Summary Current session
// @Description Returns the session snapshot, loading the profile when a token is present
// @Tags auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /auth/session [get]
func (s *Server) getSession(c *gin.Context) {
	sess, err := s.requestSession(c)
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load session")
		return
	}

	if sess.HasToken() {
		if err := sess.FetchProfile(c.Request.Context()); err != nil {
			s.logger.Debug().Err(err).Msg("Profile not loaded")
		}
	}

	c.JSON(http.StatusOK, SessionResponse{Session: sess.Snapshot()})
}

func (s *Server) respondWithFormError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, forms.ErrInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "Submission already in progress"})
	case errors.Is(err, auth.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"fields": forms.Messages(forms.FieldErrors(err)),
		})
	case errors.Is(err, forms.ErrRegistrationRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Registration was not accepted"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.logger.Warn().Err(err).Msg("Login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, auth.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, auth.ErrPreconditionFailed):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	default:
		s.logger.Error().Err(err).Msg("Upstream API request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream API unavailable"})
	}
}
