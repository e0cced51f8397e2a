package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// Job represents a job posting
type Job struct {
	ID              int      `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description" yaml:"description"`
	Salary          float64  `json:"salary" yaml:"salary"`
	Unit            string   `json:"unit" yaml:"unit"`                       // HOUR, DAY, PROJECT
	ExperienceLevel string   `json:"experienceLevel" yaml:"experienceLevel"` // JUNIOR, MID, SENIOR
	JobType         string   `json:"jobType" yaml:"jobType"`                 // FULL_TIME, PART_TIME, CONTRACT
	Location        Location `json:"location" yaml:"location"`
	IsRemote        bool     `json:"isRemote,omitempty" yaml:"isRemote,omitempty"`
	Applied         bool     `json:"applied" yaml:"applied"`
	CreatedAt       string   `json:"createdAt" yaml:"createdAt"`
}

// JobsKey and JobKey are the cache keys of the job listing responses.
const JobsKey = "/api/jobs"

func JobKey(id int) string {
	return fmt.Sprintf("/api/jobs/%d", id)
}

// ListJobs returns all job postings. Responses are cached until invalidated.
func (c *Client) ListJobs(ctx context.Context, token string) ([]Job, error) {
	var jobs []Job
	if err := c.cachedGet(ctx, JobsKey, token, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob returns one job posting. Responses are cached until invalidated.
func (c *Client) GetJob(ctx context.Context, token string, id int) (*Job, error) {
	var job Job
	if err := c.cachedGet(ctx, JobKey(id), token, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Invalidate drops cached responses for every token so the next read
// refetches them
func (c *Client) Invalidate(keys ...string) {
	c.cache.delete(keys...)
}

func (c *Client) cachedGet(ctx context.Context, path, token string, out any) error {
	data, ok := c.cache.get(path, token)
	if !ok {
		var err error
		data, err = c.send(ctx, http.MethodGet, path, token, nil)
		if err != nil {
			return err
		}
		c.cache.put(path, token, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// responseCache holds raw response bodies keyed by request path, then by the
// bearer token the response was fetched with. Bodies carry per-user fields
// such as Job.Applied, so one token never reads another's entry.
type responseCache struct {
	mu      sync.RWMutex
	entries map[string]map[string][]byte
}

func newResponseCache() *responseCache {
	return &responseCache{entries: make(map[string]map[string][]byte)}
}

func (rc *responseCache) get(path, token string) ([]byte, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	data, ok := rc.entries[path][token]
	return data, ok
}

func (rc *responseCache) put(path, token string, data []byte) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	byToken, ok := rc.entries[path]
	if !ok {
		byToken = make(map[string][]byte)
		rc.entries[path] = byToken
	}
	byToken[token] = data
}

func (rc *responseCache) delete(paths ...string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	for _, path := range paths {
		delete(rc.entries, path)
	}
}
