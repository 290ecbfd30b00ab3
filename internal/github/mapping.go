package github

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"issuesync/internal/models"
)

// Fetcher adapts Client to repository references stored on provider configs.
type Fetcher struct {
	client *Client
}

// NewFetcher wraps a client.
func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{client: client}
}

// FetchRecentIssues returns the latest page of issues for the config's repo.
func (f *Fetcher) FetchRecentIssues(ctx context.Context, cfg *models.ProviderConfig) ([]models.RemoteIssue, error) {
	if cfg == nil {
		return nil, fmt.Errorf("provider config is required")
	}
	owner, repo, err := models.ParseRepo(cfg.Repo)
	if err != nil {
		return nil, err
	}
	issues, err := f.client.RecentIssues(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	out := make([]models.RemoteIssue, 0, len(issues))
	for _, issue := range issues {
		out = append(out, ToRemoteIssue(issue))
	}
	return out, nil
}

// IssueByNumber returns one issue of repoRef ("owner/name").
func (f *Fetcher) IssueByNumber(ctx context.Context, repoRef string, number int) (models.RemoteIssue, error) {
	owner, repo, err := models.ParseRepo(repoRef)
	if err != nil {
		return models.RemoteIssue{}, err
	}
	issue, err := f.client.GetIssue(ctx, owner, repo, number)
	if err != nil {
		return models.RemoteIssue{}, err
	}
	return ToRemoteIssue(*issue), nil
}

// ToRemoteIssue converts an API issue to the provider-neutral shape.
func ToRemoteIssue(issue Issue) models.RemoteIssue {
	var updated time.Time
	if issue.UpdatedAt != nil {
		updated = issue.UpdatedAt.UTC()
	}
	return models.RemoteIssue{
		ExternalID: strconv.FormatInt(issue.ID, 10),
		Number:     issue.Number,
		Title:      issue.Title,
		Body:       issue.Body,
		State:      issue.State,
		URL:        issue.HTMLURL,
		UpdatedAt:  updated,
	}
}
