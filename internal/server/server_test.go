package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansap-dev/mansap/internal/config"
)

// fakeUpstream mimics the marketplace API. token-user belongs to a USER,
// token-admin to an ADMIN.
func fakeUpstream(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var profileCalls atomic.Int32

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			switch body["password"] {
			case "password123":
				w.Write([]byte(`{"accessToken":"token-user"}`))
			case "adminpass123":
				w.Write([]byte(`{"accessToken":"token-admin"}`))
			default:
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message":"Unauthorized"}`))
			}
		case "/api/auth/register":
			w.Write([]byte(`{"statusCode":200}`))
		case "/api/auth/profile":
			profileCalls.Add(1)
			switch r.Header.Get("Authorization") {
			case "Bearer token-user":
				w.Write([]byte(`{"id":7,"name":"Ann","email":"ann@example.com","role":"USER"}`))
			case "Bearer token-admin":
				w.Write([]byte(`{"id":1,"name":"Root","email":"root@example.com","role":"ADMIN"}`))
			default:
				w.WriteHeader(http.StatusUnauthorized)
			}
		default:
			json.NewEncoder(w).Encode(map[string]string{
				"path":          r.URL.Path,
				"query":         r.URL.RawQuery,
				"authorization": r.Header.Get("Authorization"),
				"cookie":        r.Header.Get("Cookie"),
			})
		}
	}))
	t.Cleanup(upstream.Close)

	return upstream, &profileCalls
}

func newTestServer(t *testing.T, upstreamURL string) *Server {
	t.Helper()
	cfg := &config.Config{
		API: config.APIConfig{URL: upstreamURL, Timeout: 5 * time.Second},
		HTTP: config.HTTPConfig{
			ListenAddr:  ":0",
			CookieName:  "token",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Logging: config.LoggingConfig{Level: "disabled", Format: "json"},
	}

	srv, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	return srv
}

func do(srv *Server, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	return nil
}

func TestNew_InvalidUpstream(t *testing.T) {
	_, err := New(&config.Config{API: config.APIConfig{URL: "not a url"}}, zerolog.Nop(), "test")
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	upstream, _ := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)

	rec := do(srv, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestRequestIDIsPropagated(t *testing.T) {
	upstream, _ := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))
}

func TestRouteGuard(t *testing.T) {
	upstream, profileCalls := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)

	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
		wantLoc  string
	}{
		{name: "public page", path: "/", wantCode: http.StatusOK},
		{name: "auth page without token", path: "/auth", wantCode: http.StatusOK},
		{name: "auth page with token", path: "/auth", token: "token-user", wantCode: http.StatusFound, wantLoc: "/"},
		{name: "protected without token", path: "/profile", wantCode: http.StatusFound, wantLoc: "/auth"},
		{name: "protected with token", path: "/job-postings", token: "token-user", wantCode: http.StatusOK},
		{name: "admin without token", path: "/admin", wantCode: http.StatusFound, wantLoc: "/"},
		{name: "admin as user", path: "/admin", token: "token-user", wantCode: http.StatusFound, wantLoc: "/"},
		{name: "admin as admin", path: "/admin", token: "token-admin", wantCode: http.StatusOK},
		{name: "admin with rejected token", path: "/admin", token: "token-revoked", wantCode: http.StatusFound, wantLoc: "/"},
		{name: "nested path is not protected", path: "/profile/edit", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(srv, http.MethodGet, tt.path, "", tt.token)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantLoc, rec.Header().Get("Location"))
		})
	}

	// only the admin checks with a token resolved the role
	assert.Equal(t, int32(3), profileCalls.Load())
}

func TestServePage_JSON(t *testing.T) {
	upstream, _ := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)

	rec := do(srv, http.MethodGet, "/find-work", "", "token-user")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Path    string `json:"path"`
		Session struct {
			IsAuthenticated bool `json:"isAuthenticated"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/find-work", body.Path)
	assert.False(t, body.Session.IsAuthenticated, "navigation does not load the profile")
	assert.NotContains(t, rec.Body.String(), "token-user")
}

func TestServePage_Static(t *testing.T) {
	upstream, _ := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	srv.config.HTTP.StaticDir = dir

	rec := do(srv, http.MethodGet, "/app.js", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = do(srv, http.MethodGet, "/find-work", "", "token-user")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>app</html>", rec.Body.String())

	rec = do(srv, http.MethodGet, "/missing.css", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(srv, http.MethodGet, "/profile", "", "")
	assert.Equal(t, http.StatusFound, rec.Code, "guard runs before static files")
}

func TestLogin(t *testing.T) {
	upstream, _ := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)

	rec := do(srv, http.MethodPost, "/auth/login", `{"email":"ann@example.com","password":"password123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, "token-user", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)

	var resp struct {
		Redirect string `json:"redirect"`
		Session  struct {
			UserID          int    `json:"userId"`
			Role            string `json:"role"`
			Email           string `json:"email"`
			IsAuthenticated bool   `json:"isAuthenticated"`
			IsLoading       bool   `json:"isLoading"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/", resp.Redirect)
	assert.Equal(t, 7, resp.Session.UserID)
	assert.Equal(t, "USER", resp.Session.Role)
	assert.Equal(t, "ann@example.com", resp.Session.Email)
	assert.True(t, resp.Session.IsAuthenticated)
	assert.False(t, resp.Session.IsLoading)
	assert.NotContains(t, rec.Body.String(), "token-user")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	upstream, _ := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)

	rec := do(srv, http.MethodPost, "/auth/login", `{"email":"ann@example.com","password":"wrongpassword"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, sessionCookie(rec))
}

func TestLogin_Validation(t *testing.T) {
	upstream, _ := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)

	rec := do(srv, http.MethodPost, "/auth/login", `{"email":"nope","password":"short"}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, map[string]string{
		"email":    "Please enter a valid email address.",
		"password": "Password must be at least 8 characters.",
	}, resp.Fields)

	rec = do(srv, http.MethodPost, "/auth/login", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_UpstreamDown(t *testing.T) {
	upstream, _ := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)
	upstream.Close()

	rec := do(srv, http.MethodPost, "/auth/login", `{"email":"ann@example.com","password":"password123"}`, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRegister(t *testing.T) {
	upstream, _ := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)

	rec := do(srv, http.MethodPost, "/auth/register", `{"name":"Ann","email":"ann@example.com","password":"password123"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Nil(t, sessionCookie(rec), "registration does not log in")
	assert.Contains(t, rec.Body.String(), `"redirect":"/auth"`)

	rec = do(srv, http.MethodPost, "/auth/register", `{"name":"A","email":"ann@example.com","password":"password123"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Name must be at least 2 characters.")
}

func TestLogout(t *testing.T) {
	upstream, _ := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)

	rec := do(srv, http.MethodPost, "/auth/logout", "", "token-user")
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
	assert.Contains(t, rec.Body.String(), `"isAuthenticated":false`)

	// logging out without a session is harmless
	rec = do(srv, http.MethodPost, "/auth/logout", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetSession(t *testing.T) {
	upstream, _ := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)

	rec := do(srv, http.MethodGet, "/auth/session", "", "token-admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"ADMIN"`)
	assert.Contains(t, rec.Body.String(), `"isAuthenticated":true`)

	// a rejected token keeps the cookie but is not authenticated
	rec = do(srv, http.MethodGet, "/auth/session", "", "token-revoked")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isAuthenticated":false`)
	assert.Nil(t, sessionCookie(rec))

	rec = do(srv, http.MethodGet, "/auth/session", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isAuthenticated":false`)
}

func TestProxyAPI(t *testing.T) {
	upstream, _ := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)

	var echoed map[string]string

	rec := do(srv, http.MethodGet, "/api/jobs?page=2", "", "token-user")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &echoed))
	assert.Equal(t, "/api/jobs", echoed["path"])
	assert.Equal(t, "page=2", echoed["query"])
	assert.Equal(t, "Bearer token-user", echoed["authorization"])
	assert.Empty(t, echoed["cookie"], "session cookie is not forwarded")

	// an explicit bearer token wins over the cookie
	req := httptest.NewRequest(http.MethodGet, "/api/locations", nil)
	req.Header.Set("Authorization", "Bearer other")
	req.AddCookie(&http.Cookie{Name: "token", Value: "token-user"})
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &echoed))
	assert.Equal(t, "Bearer other", echoed["authorization"])

	// anonymous calls go through without credentials
	rec = do(srv, http.MethodGet, "/api/locations", "", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &echoed))
	assert.Empty(t, echoed["authorization"])
}

func TestProxyAPI_UpstreamDown(t *testing.T) {
	upstream, _ := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)
	upstream.Close()

	rec := do(srv, http.MethodGet, "/api/jobs", "", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"Upstream API unavailable"}`, rec.Body.String())
}

func TestExtractBearerToken(t *testing.T) {
	token, err := extractBearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = extractBearerToken("")
	assert.ErrorIs(t, err, ErrMissingAuthHeader)
	_, err = extractBearerToken("Basic abc")
	assert.ErrorIs(t, err, ErrInvalidAuthFormat)
	_, err = extractBearerToken("Bearer ")
	assert.ErrorIs(t, err, ErrEmptyToken)
}

func TestCORS(t *testing.T) {
	upstream, _ := fakeUpstream(t)
	srv := newTestServer(t, upstream.URL)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
