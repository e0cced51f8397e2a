package server

import (
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// newProxy forwards /api/** unchanged to the upstream marketplace API.
func (s *Server) newProxy() *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(s.upstream)

	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Host = s.upstream.Host
		// the session cookie is for the gateway only
		req.Header.Del("Cookie")
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Upstream API request failed")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"Upstream API unavailable"}`))
	}

	return proxy
}

// proxyAPI attaches the session token as a bearer credential unless the
// caller already sent one.
func (s *Server) proxyAPI(c *gin.Context) {
	if _, err := extractBearerToken(c.GetHeader("Authorization")); err != nil {
		sess, err := s.requestSession(c)
		if err != nil {
			respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load session")
			return
		}
		if token, ok := sess.BearerToken(); ok {
			c.Request.Header.Set("Authorization", bearerPrefix+token)
		}
	}

	s.proxy.ServeHTTP(c.Writer, c.Request)
}

// servePage answers page navigations that passed the route guard. With a
// static directory configured it serves the built front-end, falling back to
// index.html for client-side routes. Without one it describes the page and
// session as JSON.
func (s *Server) servePage(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	path := c.Request.URL.Path

	if dir := s.config.HTTP.StaticDir; dir != "" {
		name := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			c.File(name)
			return
		}
		if strings.Contains(filepath.Base(path), ".") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.File(filepath.Join(dir, "index.html"))
		return
	}

	sess, err := s.requestSession(c)
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"path":    path,
		"session": sess.Snapshot(),
	})
}
