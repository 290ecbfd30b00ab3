// Package github is a small client for the GitHub REST issues API.
package github

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultAPIEndpoint is the GitHub REST API base URL.
	DefaultAPIEndpoint = "https://api.github.com"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxElapsed bounds the total time spent retrying one request.
	DefaultMaxElapsed = 30 * time.Second

	// MaxPageSize is the largest page the issues endpoint returns.
	MaxPageSize = 100

	apiVersion      = "2022-11-28"
	maxResponseSize = 10 * 1024 * 1024
)

// ErrNotFound is returned when the repository or issue does not exist.
var ErrNotFound = errors.New("github: not found")

// Client talks to the GitHub REST API.
type Client struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
	// MaxElapsed bounds retries of transient failures. Zero disables retry.
	MaxElapsed time.Duration
}

// Issue is an issue as returned by the GitHub API.
type Issue struct {
	ID          int64      `json:"id"`
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	State       string     `json:"state"`
	HTMLURL     string     `json:"html_url"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	PullRequest *PullRef   `json:"pull_request,omitempty"`
}

// PullRef is set when an issues-endpoint entry is really a pull request.
type PullRef struct {
	URL string `json:"url,omitempty"`
}

// IsPullRequest reports whether the entry is a pull request.
func (i Issue) IsPullRequest() bool {
	return i.PullRequest != nil
}

// APIError is a non-2xx response from GitHub.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api error: %s (status %d)", e.Message, e.StatusCode)
}

// Is makes errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
