package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAPIURL = "https://mansap-server.vercel.app"

// Config holds all configuration for the gateway
type Config struct {
	// Upstream marketplace API
	API APIConfig

	// HTTP listener and front-end assets
	HTTP HTTPConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds upstream API configuration
type APIConfig struct {
	URL     string        // API root, requests to /api/** are proxied here
	Timeout time.Duration // Per-request timeout for calls made by the gateway
}

// HTTPConfig holds listener and session cookie configuration
type HTTPConfig struct {
	ListenAddr   string
	StaticDir    string // Built front-end, empty = answer navigations with JSON
	CookieName   string
	CookieSecure bool
	CORSOrigins  []string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	timeout, err := time.ParseDuration(getenv("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	cookieSecure := false
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		cookieSecure, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
		}
	}

	return &Config{
		API: APIConfig{
			URL:     strings.TrimRight(getenv("MANSAP_API_URL", DefaultAPIURL), "/"),
			Timeout: timeout,
		},
		HTTP: HTTPConfig{
			ListenAddr:   getenv("LISTEN_ADDR", ":3000"),
			StaticDir:    os.Getenv("STATIC_DIR"),
			CookieName:   getenv("COOKIE_NAME", "token"),
			CookieSecure: cookieSecure,
			CORSOrigins:  splitList(getenv("CORS_ORIGINS", "http://localhost:3000")),
		},
		Logging: LoggingConfig{
			// Logging configuration - defaults suitable for production
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
