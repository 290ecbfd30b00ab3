package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"issuesync/internal/models"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "ISSUESYNC_HTTP_TIMEOUT"
	apiTokenEnvKey     = "ISSUESYNC_API_TOKEN"
)

// Client is a simple HTTP client for the issuesync API.
type Client struct {
	baseURL   string
	http      *http.Client
	authToken string
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: httpTimeoutFromEnv()},
		authToken: strings.TrimSpace(os.Getenv(apiTokenEnvKey)),
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/info", nil, nil, &resp)
	return resp, err
}

func (c *Client) CreateProject(ctx context.Context, req ProjectCreateRequest) (models.Project, error) {
	var resp models.Project
	err := c.do(ctx, http.MethodPost, "/v1/projects", nil, req, &resp)
	return resp, err
}

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var resp []models.Project
	err := c.do(ctx, http.MethodGet, "/v1/projects", nil, nil, &resp)
	return resp, err
}

func (c *Client) GetProject(ctx context.Context, id string) (models.Project, error) {
	var resp models.Project
	err := c.do(ctx, http.MethodGet, "/v1/projects/"+url.PathEscape(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) GetProvider(ctx context.Context, projectID string) (models.ProviderConfig, error) {
	var resp models.ProviderConfig
	err := c.do(ctx, http.MethodGet, "/v1/projects/"+url.PathEscape(projectID)+"/provider", nil, nil, &resp)
	return resp, err
}

func (c *Client) SetProvider(ctx context.Context, projectID string, req ProviderConfigRequest) (models.ProviderConfig, error) {
	var resp models.ProviderConfig
	err := c.do(ctx, http.MethodPut, "/v1/projects/"+url.PathEscape(projectID)+"/provider", nil, req, &resp)
	return resp, err
}

func (c *Client) GetContext(ctx context.Context) (models.WorkContext, error) {
	var resp models.WorkContext
	err := c.do(ctx, http.MethodGet, "/v1/context", nil, nil, &resp)
	return resp, err
}

func (c *Client) SetContext(ctx context.Context, req ContextRequest) (models.WorkContext, error) {
	var resp models.WorkContext
	err := c.do(ctx, http.MethodPut, "/v1/context", nil, req, &resp)
	return resp, err
}

func (c *Client) CreateTask(ctx context.Context, req TaskCreateRequest) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodPost, "/v1/tasks", nil, req, &resp)
	return resp, err
}

func (c *Client) GetTask(ctx context.Context, id string) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) ListTasks(ctx context.Context, query url.Values) ([]models.Task, error) {
	var resp []models.Task
	err := c.do(ctx, http.MethodGet, "/v1/tasks", query, nil, &resp)
	return resp, err
}

func (c *Client) RefreshTask(ctx context.Context, id string, force bool) (RefreshResponse, error) {
	var resp RefreshResponse
	query := url.Values{}
	if force {
		query.Set("force", "true")
	}
	err := c.do(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(id)+"/refresh", query, nil, &resp)
	return resp, err
}

func (c *Client) AddLabels(ctx context.Context, id string, req LabelsRequest) ([]string, error) {
	var resp []string
	err := c.do(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(id)+"/labels", nil, req, &resp)
	return resp, err
}

func (c *Client) RemoveLabels(ctx context.Context, id string, req LabelsRequest) ([]string, error) {
	var resp []string
	err := c.do(ctx, http.MethodDelete, "/v1/tasks/"+url.PathEscape(id)+"/labels", nil, req, &resp)
	return resp, err
}

func (c *Client) Notifications(ctx context.Context, limit int) (NotificationsResponse, error) {
	var resp NotificationsResponse
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	err := c.do(ctx, http.MethodGet, "/v1/notifications", query, nil, &resp)
	return resp, err
}

func (c *Client) SyncStatus(ctx context.Context) (SyncStatusResponse, error) {
	var resp SyncStatusResponse
	err := c.do(ctx, http.MethodGet, "/v1/sync/status", nil, nil, &resp)
	return resp, err
}

func (c *Client) SyncTrigger(ctx context.Context) (SyncTriggerResponse, error) {
	var resp SyncTriggerResponse
	err := c.do(ctx, http.MethodPost, "/v1/sync/trigger", nil, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		apiErr.Code = errResp.Code
		apiErr.ErrorCode = errResp.ErrorCode
		apiErr.Message = errResp.Error
	}
	return apiErr
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.authToken == "" || req == nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
