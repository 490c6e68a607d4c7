// Package management wraps the parts of the Supabase Management API used to
// look up projects before a clone.
package management

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"supabase-clone/internal/logger"
	"supabase-clone/internal/schema"
)

const DefaultURL = "https://api.supabase.com/v1"

type Database struct {
	Host    string `json:"host"`
	Version string `json:"version"`
}

type Project struct {
	ID             string    `json:"id"`
	Ref            string    `json:"ref,omitempty"`
	Name           string    `json:"name"`
	OrganizationID string    `json:"organization_id"`
	Region         string    `json:"region"`
	CreatedAt      string    `json:"created_at"`
	Status         string    `json:"status,omitempty"`
	Database       *Database `json:"database,omitempty"`
}

// ProjectRef returns the ref used in project URLs. Older API responses only
// carry it as the id.
func (p Project) ProjectRef() string {
	if p.Ref != "" {
		return p.Ref
	}
	return p.ID
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.token == "" {
		return fmt.Errorf("%w: management access token is empty", schema.ErrCredentialsMissing)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	logger.Get().Debug("management request", "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", schema.ErrSourceUnavailable, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", schema.ErrSourceUnavailable, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &schema.APIError{Endpoint: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", schema.ErrSourceUnavailable, path, err)
	}
	return nil
}

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.get(ctx, "/projects", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) GetProject(ctx context.Context, ref string) (*Project, error) {
	var p Project
	if err := c.get(ctx, "/projects/"+url.PathEscape(ref), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ValidateToken reports whether the token can list projects. Only an
// authorization failure yields false without an error.
func (c *Client) ValidateToken(ctx context.Context) (bool, error) {
	_, err := c.ListProjects(ctx)
	if err == nil {
		return true, nil
	}
	var apiErr *schema.APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
		return false, nil
	}
	if errors.Is(err, schema.ErrCredentialsMissing) {
		return false, nil
	}
	return false, err
}
