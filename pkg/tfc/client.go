package tfc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-hclog"
)

// contentType is the JSON:API media type the Terraform Cloud API expects.
const contentType = "application/vnd.api+json"

// Workspace is a Terraform Cloud workspace as the sweep engine sees it.
type Workspace struct {
	ID   string
	Name string
}

// Run is a single run record from a workspace's run history.
type Run struct {
	ID        string
	Status    string
	IsDestroy bool
}

// Gateway is the surface of the Terraform Cloud API the sweep engine
// depends on. Client implements it against the real API; tests substitute
// in-memory doubles.
type Gateway interface {
	// ListWorkspaces returns every workspace in the organization, following
	// pagination until exhausted. On a page-fetch failure the workspaces
	// collected so far are returned alongside the error.
	ListWorkspaces(ctx context.Context, org string) ([]Workspace, error)

	// ListRuns returns the workspace's run history in the API's own
	// ordering (most recent first).
	ListRuns(ctx context.Context, workspaceID string) ([]Run, error)

	// EnableAutoApply turns on the auto-apply setting for a workspace.
	EnableAutoApply(ctx context.Context, workspaceID string) error

	// CreateDestroyRun queues a destroy run for a workspace and returns the
	// created run's ID.
	CreateDestroyRun(ctx context.Context, workspaceID, workspaceName string) (string, error)
}

// Client is a minimal Terraform Cloud API client covering the calls the
// sweep engine performs.
type Client struct {
	config *Config
	client *http.Client
	log    hclog.Logger
}

var _ Gateway = (*Client)(nil)

// NewClient creates a Terraform Cloud API client.
func NewClient(cfg *Config, log hclog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}

	return &Client{
		config: cfg,
		client: cfg.NewHTTPClient(),
		log:    log,
	}, nil
}

// APIError is a non-2xx response from the Terraform Cloud API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// do executes one request against the API. The response body is decoded
// into result when it is non-nil and the response was successful.
func (c *Client) do(ctx context.Context, method, url string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// workspaceListResponse is one page of the workspace listing.
type workspaceListResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

// ListWorkspaces fetches all workspaces for an organization, following
// links.next until absent. A page-fetch failure returns the pages already
// collected together with the error so callers can proceed with partial
// results.
func (c *Client) ListWorkspaces(ctx context.Context, org string) ([]Workspace, error) {
	url := fmt.Sprintf("%s/organizations/%s/workspaces", c.config.BaseURL, org)
	var workspaces []Workspace

	c.log.Info("fetching workspaces", "organization", org)
	for url != "" {
		var page workspaceListResponse
		if err := c.do(ctx, http.MethodGet, url, nil, &page); err != nil {
			return workspaces, fmt.Errorf(
				"failed to fetch workspaces for %q: %w", org, err)
		}
		for _, w := range page.Data {
			workspaces = append(workspaces, Workspace{
				ID:   w.ID,
				Name: w.Attributes.Name,
			})
		}
		url = page.Links.Next
	}

	c.log.Info("retrieved workspaces",
		"organization", org, "count", len(workspaces))
	return workspaces, nil
}

// runListResponse is the workspace run history envelope.
type runListResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Status    string `json:"status"`
			IsDestroy bool   `json:"is-destroy"`
		} `json:"attributes"`
	} `json:"data"`
}

// ListRuns fetches a workspace's run history in the API's default ordering.
func (c *Client) ListRuns(ctx context.Context, workspaceID string) ([]Run, error) {
	url := fmt.Sprintf("%s/workspaces/%s/runs", c.config.BaseURL, workspaceID)

	var resp runListResponse
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, fmt.Errorf(
			"failed to fetch runs for workspace %q: %w", workspaceID, err)
	}

	runs := make([]Run, 0, len(resp.Data))
	for _, r := range resp.Data {
		runs = append(runs, Run{
			ID:        r.ID,
			Status:    r.Attributes.Status,
			IsDestroy: r.Attributes.IsDestroy,
		})
	}
	return runs, nil
}

// EnableAutoApply enables the auto-apply setting on a workspace.
func (c *Client) EnableAutoApply(ctx context.Context, workspaceID string) error {
	url := fmt.Sprintf("%s/workspaces/%s", c.config.BaseURL, workspaceID)
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"type": "workspaces",
			"attributes": map[string]interface{}{
				"auto-apply": true,
			},
		},
	}

	c.log.Info("enabling auto-apply", "workspace_id", workspaceID)
	if err := c.do(ctx, http.MethodPatch, url, payload, nil); err != nil {
		return fmt.Errorf(
			"failed to enable auto-apply for workspace %q: %w", workspaceID, err)
	}
	return nil
}

// createRunResponse carries the created run's ID.
type createRunResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// CreateDestroyRun queues a destroy run for a workspace. The run message
// identifies the sweep as the originator.
func (c *Client) CreateDestroyRun(ctx context.Context, workspaceID, workspaceName string) (string, error) {
	url := fmt.Sprintf("%s/runs", c.config.BaseURL)
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"type": "runs",
			"attributes": map[string]interface{}{
				"is-destroy": true,
				"message":    "Automated destroy with auto-apply",
			},
			"relationships": map[string]interface{}{
				"workspace": map[string]interface{}{
					"data": map[string]interface{}{
						"type": "workspaces",
						"id":   workspaceID,
					},
				},
			},
		},
	}

	c.log.Info("creating destroy run",
		"workspace", workspaceName, "workspace_id", workspaceID)

	var resp createRunResponse
	if err := c.do(ctx, http.MethodPost, url, payload, &resp); err != nil {
		return "", fmt.Errorf(
			"failed to create destroy run for workspace %q: %w", workspaceName, err)
	}

	c.log.Info("destroy run created",
		"workspace", workspaceName, "run_id", resp.Data.ID)
	return resp.Data.ID, nil
}
