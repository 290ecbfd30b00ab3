package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// NewClient creates a client with default endpoint, timeout and retry budget.
func NewClient(token string) *Client {
	return &Client{
		Token:      token,
		BaseURL:    DefaultAPIEndpoint,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		MaxElapsed: DefaultMaxElapsed,
	}
}

// WithHTTPClient returns a copy of the client using httpClient.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	cp := *c
	cp.HTTPClient = httpClient
	return &cp
}

// WithBaseURL returns a copy of the client using baseURL (tests, GitHub Enterprise).
func (c *Client) WithBaseURL(baseURL string) *Client {
	cp := *c
	cp.BaseURL = baseURL
	return &cp
}

// RecentIssues returns the most recently created open issues of a repository,
// newest first, at most one page. Pull requests are skipped.
func (c *Client) RecentIssues(ctx context.Context, owner, repo string) ([]Issue, error) {
	params := url.Values{}
	params.Set("state", "open")
	params.Set("sort", "created")
	params.Set("direction", "desc")
	params.Set("per_page", strconv.Itoa(MaxPageSize))

	var page []Issue
	if err := c.getJSON(ctx, "issues", "/repos/"+owner+"/"+repo+"/issues", params, &page); err != nil {
		return nil, fmt.Errorf("fetch issues for %s/%s: %w", owner, repo, err)
	}

	issues := make([]Issue, 0, len(page))
	for _, issue := range page {
		if issue.IsPullRequest() {
			continue
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// GetIssue returns a single issue by its repository-scoped number.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*Issue, error) {
	var issue Issue
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number)
	if err := c.getJSON(ctx, "issue", path, nil, &issue); err != nil {
		return nil, fmt.Errorf("fetch issue %s/%s#%d: %w", owner, repo, number, err)
	}
	return &issue, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	u := c.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	body, err := c.doWithRetry(ctx, endpoint, http.MethodGet, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// doWithRetry retries network failures and 5xx responses with exponential
// backoff. Other non-2xx responses fail immediately.
func (c *Client) doWithRetry(ctx context.Context, endpoint, method, urlStr string) ([]byte, error) {
	op := func() ([]byte, error) {
		body, status, err := c.do(ctx, method, urlStr)
		requestsTotal.WithLabelValues(endpoint, statusLabel(status, err)).Inc()
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		if status >= 200 && status < 300 {
			return body, nil
		}
		apiErr := &APIError{StatusCode: status, Message: errorMessage(body)}
		if status >= 500 {
			return nil, apiErr
		}
		return nil, backoff.Permanent(apiErr)
	}

	if c.MaxElapsed <= 0 {
		body, err := op()
		return body, unwrapPermanent(err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = c.MaxElapsed
	return backoff.RetryWithData(op, backoff.WithContext(bo, ctx))
}

func (c *Client) do(ctx context.Context, method, urlStr string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}

func statusLabel(status int, err error) string {
	if err != nil && status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}

func unwrapPermanent(err error) error {
	if perm, ok := err.(*backoff.PermanentError); ok {
		return perm.Err
	}
	return err
}
