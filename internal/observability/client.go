// Package observability records incident runs with the error-tracking
// collaborator: one release + deploy per run, plus a lookup of open issues
// touching the order. Everything here is best-effort; failures degrade to a
// status on the run result and never abort the workflow.
package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Release struct {
	Version string `json:"version"`
}

type Deploy struct {
	ID          string `json:"id,omitempty"`
	Environment string `json:"environment"`
	Name        string `json:"name,omitempty"`
}

type Issue struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Permalink string `json:"permalink,omitempty"`
}

// Client is the observability collaborator contract.
type Client interface {
	CreateRelease(ctx context.Context, version, notes string, date time.Time) (Release, error)
	CreateDeploy(ctx context.Context, version, environment, name string, started, finished time.Time) (Deploy, error)
	ListIssues(ctx context.Context, query string, limit int) ([]Issue, error)
}

type HTTPClient struct {
	BaseURL string
	Token   string
	Org     string
	Project string
	Client  *http.Client
}

func NewHTTPClient(baseURL, token, org, project string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Org:     org,
		Project: project,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) CreateRelease(ctx context.Context, version, notes string, date time.Time) (Release, error) {
	path := fmt.Sprintf("/api/0/organizations/%s/releases/", url.PathEscape(c.Org))
	payload := map[string]any{
		"version":      version,
		"projects":     []string{c.Project},
		"dateReleased": date.UTC().Format(time.RFC3339),
	}
	if notes != "" {
		payload["url"] = ""
		payload["notes"] = notes
	}

	var release Release
	if err := c.post(ctx, path, payload, &release); err != nil {
		return Release{}, fmt.Errorf("create release %s: %w", version, err)
	}
	if release.Version == "" {
		release.Version = version
	}
	return release, nil
}

func (c *HTTPClient) CreateDeploy(ctx context.Context, version, environment, name string, started, finished time.Time) (Deploy, error) {
	path := fmt.Sprintf("/api/0/organizations/%s/releases/%s/deploys/",
		url.PathEscape(c.Org), url.PathEscape(version))
	payload := map[string]any{
		"environment":  environment,
		"name":         name,
		"dateStarted":  started.UTC().Format(time.RFC3339),
		"dateFinished": finished.UTC().Format(time.RFC3339),
	}

	var deploy Deploy
	if err := c.post(ctx, path, payload, &deploy); err != nil {
		return Deploy{}, fmt.Errorf("create deploy for %s: %w", version, err)
	}
	return deploy, nil
}

func (c *HTTPClient) ListIssues(ctx context.Context, query string, limit int) ([]Issue, error) {
	params := url.Values{"query": {query}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := fmt.Sprintf("/api/0/projects/%s/%s/issues/?%s",
		url.PathEscape(c.Org), url.PathEscape(c.Project), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("list issues: status %d", resp.StatusCode)
	}

	var issues []Issue
	if err := json.NewDecoder(resp.Body).Decode(&issues); err != nil {
		return nil, fmt.Errorf("list issues: decode: %w", err)
	}
	return issues, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

func (c *HTTPClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}
