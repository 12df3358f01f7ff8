// Package decision acquires a remediation decision for an incident from the
// external decision service, or substitutes a canned simulation.
package decision

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

	"github.com/autorescue/autorescue/pkg/types"
)

// Terminal run statuses reported by the decision service.
const (
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusAborted   = "ABORTED"
	StatusTimedOut  = "TIMED-OUT"
)

func IsTerminal(status string) bool {
	switch status {
	case StatusSucceeded, StatusFailed, StatusAborted, StatusTimedOut:
		return true
	default:
		return false
	}
}

type RunRef struct {
	ID        string
	DatasetID string
}

type RunState struct {
	Status    string
	DatasetID string
}

type Deployment struct {
	ID      string
	Name    string
	Project string
}

// Client is the decision-service collaborator contract.
type Client interface {
	StartRun(ctx context.Context, deployment string, params map[string]any) (RunRef, error)
	GetRun(ctx context.Context, runID string) (RunState, error)
	ListResults(ctx context.Context, datasetID string, limit int) ([]types.Decision, error)
	ListDeployments(ctx context.Context) ([]Deployment, error)
}

// HTTPClient talks to the hosted decision service over its REST API.
type HTTPClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) StartRun(ctx context.Context, deployment string, params map[string]any) (RunRef, error) {
	path := "/v2/acts/" + url.PathEscape(deployment) + "/runs"
	raw, err := c.request(ctx, http.MethodPost, path, nil, params)
	if err != nil {
		return RunRef{}, err
	}

	run := unwrapData(raw)
	ref := RunRef{
		ID:        stringField(run, "id"),
		DatasetID: stringField(run, "defaultDatasetId", "default_dataset_id"),
	}
	if ref.ID == "" {
		return RunRef{}, fmt.Errorf("run response missing id")
	}
	return ref, nil
}

func (c *HTTPClient) GetRun(ctx context.Context, runID string) (RunState, error) {
	raw, err := c.request(ctx, http.MethodGet, "/v2/actor-runs/"+url.PathEscape(runID), nil, nil)
	if err != nil {
		return RunState{}, err
	}

	run := unwrapData(raw)
	return RunState{
		Status:    stringField(run, "status"),
		DatasetID: stringField(run, "defaultDatasetId", "default_dataset_id"),
	}, nil
}

func (c *HTTPClient) ListResults(ctx context.Context, datasetID string, limit int) ([]types.Decision, error) {
	params := url.Values{"format": {"json"}, "clean": {"1"}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	raw, err := c.request(ctx, http.MethodGet, "/v2/datasets/"+url.PathEscape(datasetID)+"/items", params, nil)
	if err != nil {
		return nil, err
	}

	var decisions []types.Decision
	if err := json.Unmarshal(raw, &decisions); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", datasetID, err)
	}
	return decisions, nil
}

func (c *HTTPClient) ListDeployments(ctx context.Context) ([]Deployment, error) {
	raw, err := c.request(ctx, http.MethodGet, "/v2/acts", nil, nil)
	if err != nil {
		return nil, err
	}
	return NormalizeDeployments(raw)
}

func (c *HTTPClient) request(ctx context.Context, method, path string, params url.Values, payload any) (json.RawMessage, error) {
	endpoint := c.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s %s: status %d: %s",
			method, path, resp.StatusCode, strings.TrimSpace(firstN(string(data), 256)))
	}
	return data, nil
}

// unwrapData tolerates both bare objects and the {"data": {...}} envelope
// the service wraps around run resources.
func unwrapData(raw json.RawMessage) map[string]any {
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return map[string]any{}
	}
	if inner, ok := decoded["data"].(map[string]any); ok {
		return inner
	}
	return decoded
}

func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := m[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
