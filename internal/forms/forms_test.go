package forms

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansap-dev/mansap/internal/auth"
	"github.com/mansap-dev/mansap/internal/client"
)

// mockSession records the calls made by the auth forms
type mockSession struct {
	loginErr    error
	registerOK  bool
	registerErr error

	logins    []LoginValues
	registers []RegisterValues

	block chan struct{}
}

func (m *mockSession) Login(_ context.Context, email, password string) error {
	if m.block != nil {
		<-m.block
	}
	m.logins = append(m.logins, LoginValues{Email: email, Password: password})
	return m.loginErr
}

func (m *mockSession) Register(_ context.Context, name, email, password string) (bool, error) {
	m.registers = append(m.registers, RegisterValues{Name: name, Email: email, Password: password})
	return m.registerOK, m.registerErr
}

func TestLoginForm_ValidationShortCircuits(t *testing.T) {
	session := &mockSession{}
	called := false
	form := NewLoginForm(session, func() { called = true }, zerolog.Nop())
	form.SetValues(LoginValues{Email: "not-an-email", Password: "short"})

	err := form.Submit(context.Background())
	require.ErrorIs(t, err, auth.ErrValidationFailed)
	assert.Equal(t, []auth.FieldError{
		{Field: "email", Tag: "email"},
		{Field: "password", Tag: "min", Param: "8"},
	}, FieldErrors(err))

	assert.Empty(t, session.logins, "no network call on validation failure")
	assert.False(t, called)
	assert.Equal(t, LoginValues{Email: "not-an-email", Password: "short"}, form.Values())
}

func TestLoginForm_Success(t *testing.T) {
	session := &mockSession{}
	called := 0
	form := NewLoginForm(session, func() { called++ }, zerolog.Nop())
	form.SetValues(LoginValues{Email: "ann@example.com", Password: "password123"})

	require.NoError(t, form.Submit(context.Background()))
	assert.Equal(t, []LoginValues{{Email: "ann@example.com", Password: "password123"}}, session.logins)
	assert.Equal(t, 1, called)
	assert.False(t, form.Submitting())
}

func TestLoginForm_FailureKeepsValues(t *testing.T) {
	session := &mockSession{loginErr: auth.InvalidCredentials("no access token returned")}
	called := false
	form := NewLoginForm(session, func() { called = true }, zerolog.Nop())
	values := LoginValues{Email: "ann@example.com", Password: "password123"}
	form.SetValues(values)

	err := form.Submit(context.Background())
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Equal(t, values, form.Values())
	assert.False(t, called)
}

func TestForm_ExactlyOnceInFlight(t *testing.T) {
	session := &mockSession{block: make(chan struct{})}
	form := NewLoginForm(session, nil, zerolog.Nop())
	form.SetValues(LoginValues{Email: "ann@example.com", Password: "password123"})

	done := make(chan error, 1)
	go func() {
		done <- form.Submit(context.Background())
	}()

	require.Eventually(t, form.Submitting, time.Second, time.Millisecond)
	assert.ErrorIs(t, form.Submit(context.Background()), ErrInFlight)

	close(session.block)
	require.NoError(t, <-done)
	assert.Len(t, session.logins, 1)

	// a new submission is accepted once the first has finished
	require.NoError(t, form.Submit(context.Background()))
	assert.Len(t, session.logins, 2)
}

func TestRegisterForm_SuccessResets(t *testing.T) {
	session := &mockSession{registerOK: true}
	called := false
	form := NewRegisterForm(session, func() { called = true }, zerolog.Nop())
	form.SetValues(RegisterValues{Name: "Ann", Email: "ann@example.com", Password: "password123"})

	require.NoError(t, form.Submit(context.Background()))
	assert.True(t, called)
	assert.Equal(t, RegisterValues{}, form.Values())
	assert.Len(t, session.registers, 1)
}

func TestRegisterForm_RejectedKeepsValues(t *testing.T) {
	session := &mockSession{registerOK: false}
	called := false
	form := NewRegisterForm(session, func() { called = true }, zerolog.Nop())
	values := RegisterValues{Name: "Ann", Email: "ann@example.com", Password: "password123"}
	form.SetValues(values)

	require.ErrorIs(t, form.Submit(context.Background()), ErrRegistrationRejected)
	assert.False(t, called)
	assert.Equal(t, values, form.Values())
}

func TestRegisterForm_Validation(t *testing.T) {
	session := &mockSession{registerOK: true}
	form := NewRegisterForm(session, nil, zerolog.Nop())
	form.SetValues(RegisterValues{Name: "A", Email: "", Password: string(make([]byte, 129))})

	err := form.Submit(context.Background())
	require.ErrorIs(t, err, auth.ErrValidationFailed)
	assert.Equal(t, map[string]string{
		"name":     "Name must be at least 2 characters.",
		"email":    "Email is required.",
		"password": "Password cannot be longer than 128 characters.",
	}, Messages(FieldErrors(err)))
	assert.Empty(t, session.registers)
}

// mockJobsAPI records resume checks, applications and cache invalidations
type mockJobsAPI struct {
	resumeMessage string
	resumeErr     error
	applyErr      error

	resumeChecks int
	applications []client.ApplicationRequest
	invalidated  []string
}

func (m *mockJobsAPI) ResumeStatus(_ context.Context, token string) (*client.ResumeStatus, error) {
	m.resumeChecks++
	if m.resumeErr != nil {
		return nil, m.resumeErr
	}
	return &client.ResumeStatus{Message: m.resumeMessage}, nil
}

func (m *mockJobsAPI) ApplyToJob(_ context.Context, token string, req client.ApplicationRequest) error {
	m.applications = append(m.applications, req)
	return m.applyErr
}

func (m *mockJobsAPI) Invalidate(keys ...string) {
	m.invalidated = append(m.invalidated, keys...)
}

type staticToken string

func (s staticToken) BearerToken() (string, bool) {
	return string(s), s != ""
}

func TestApplyForm_NoResume(t *testing.T) {
	for _, message := range []string{"no resume", "No Resume", "NO RESUME"} {
		api := &mockJobsAPI{resumeMessage: message}
		called := false
		form := NewApplyForm(api, staticToken("token-abc"), 3, func() { called = true }, zerolog.Nop())
		form.SetValues(ApplyValues{CoverLetter: "I would love to work on this"})

		err := form.Submit(context.Background())
		require.ErrorIs(t, err, auth.ErrPreconditionFailed)
		assert.Equal(t, "precondition failed: no resume", err.Error())
		assert.Empty(t, api.applications, "no application is posted")
		assert.Empty(t, api.invalidated)
		assert.False(t, called)
		assert.Equal(t, "I would love to work on this", form.Values().CoverLetter)
	}
}

func TestApplyForm_Success(t *testing.T) {
	api := &mockJobsAPI{resumeMessage: "ok"}
	var invalidatedAtHook []string
	form := NewApplyForm(api, staticToken("token-abc"), 3, func() {
		invalidatedAtHook = append([]string(nil), api.invalidated...)
	}, zerolog.Nop())
	form.SetValues(ApplyValues{CoverLetter: "I would love to work on this"})

	require.NoError(t, form.Submit(context.Background()))
	assert.Equal(t, []client.ApplicationRequest{{CoverLetter: "I would love to work on this", JobID: 3}}, api.applications)
	assert.Equal(t, []string{"/api/jobs", "/api/jobs/3"}, invalidatedAtHook, "cache is refreshed before the hook")
	assert.Equal(t, ApplyValues{}, form.Values())
}

func TestApplyForm_ValidationBeforeResumeCheck(t *testing.T) {
	api := &mockJobsAPI{resumeMessage: "ok"}
	form := NewApplyForm(api, staticToken("token-abc"), 3, nil, zerolog.Nop())
	form.SetValues(ApplyValues{CoverLetter: "too short"})

	require.ErrorIs(t, form.Submit(context.Background()), auth.ErrValidationFailed)
	assert.Zero(t, api.resumeChecks)
}

func TestApplyForm_NoToken(t *testing.T) {
	api := &mockJobsAPI{resumeMessage: "ok"}
	form := NewApplyForm(api, staticToken(""), 3, nil, zerolog.Nop())
	form.SetValues(ApplyValues{CoverLetter: "I would love to work on this"})

	require.ErrorIs(t, form.Submit(context.Background()), auth.ErrUnauthorized)
	assert.Zero(t, api.resumeChecks)
}

func TestApplyForm_RemoteErrors(t *testing.T) {
	api := &mockJobsAPI{resumeErr: &client.StatusError{StatusCode: http.StatusUnauthorized}}
	form := NewApplyForm(api, staticToken("token-abc"), 3, nil, zerolog.Nop())
	form.SetValues(ApplyValues{CoverLetter: "I would love to work on this"})
	require.ErrorIs(t, form.Submit(context.Background()), auth.ErrUnauthorized)

	api = &mockJobsAPI{resumeMessage: "ok", applyErr: errors.New("connection reset")}
	form = NewApplyForm(api, staticToken("token-abc"), 3, nil, zerolog.Nop())
	form.SetValues(ApplyValues{CoverLetter: "I would love to work on this"})
	require.ErrorIs(t, form.Submit(context.Background()), auth.ErrTransport)
	assert.Empty(t, api.invalidated)
	assert.Equal(t, "I would love to work on this", form.Values().CoverLetter)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Cover letter must be at least 10 characters.", Message(auth.FieldError{Field: "coverLetter", Tag: "min", Param: "10"}))
	assert.Equal(t, "Please enter a valid email address.", Message(auth.FieldError{Field: "email", Tag: "email"}))
	assert.Equal(t, "Role must be one of: USER, ADMIN.", Message(auth.FieldError{Field: "role", Tag: "oneof", Param: "USER ADMIN"}))
	assert.Equal(t, "Name is invalid.", Message(auth.FieldError{Field: "name", Tag: "alphanum"}))
}
