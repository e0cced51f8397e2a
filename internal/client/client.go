package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client represents an HTTP client for the marketplace API
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *responseCache
}

// New creates a new API client
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		cache: newResponseCache(),
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StatusError is returned when the API answers with an unexpected status code
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s failed (status %d): %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login authenticates the user and returns the access token
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// RegisterResponse carries the status code the API reports in its body
type RegisterResponse struct {
	StatusCode int `json:"statusCode"`
}

// Register creates a new account. It does not log the user in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile represents the identity of the token holder
type Profile struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Profile fetches the identity bound to token
func (c *Client) Profile(ctx context.Context, token string) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile", token, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ResumeStatus is the answer of the resume endpoint; Message is "no resume"
// when the applicant has none.
type ResumeStatus struct {
	Message string `json:"message"`
}

// ResumeStatus checks whether the token holder has a resume on file
func (c *Client) ResumeStatus(ctx context.Context, token string) (*ResumeStatus, error) {
	var status ResumeStatus
	if err := c.do(ctx, http.MethodGet, "/api/profile/resume", token, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ApplicationRequest represents a job application
type ApplicationRequest struct {
	CoverLetter string `json:"coverLetter"`
	JobID       int    `json:"jobId"`
}

// ApplyToJob submits a job application
func (c *Client) ApplyToJob(ctx context.Context, token string, req ApplicationRequest) error {
	return c.do(ctx, http.MethodPost, "/api/jobs/applications", token, req, nil)
}

// Location represents a job location
type Location struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ListLocations returns all job locations
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	var locations []Location
	if err := c.do(ctx, http.MethodGet, "/api/locations", "", nil, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// do sends one JSON request. A non-empty token is sent as a bearer header.
// out may be nil when the response body is not needed.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	data, err := c.send(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path, token string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	return data, nil
}
