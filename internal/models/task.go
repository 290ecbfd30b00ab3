package models

import "time"

// Task represents a single local task, optionally linked to a remote issue.
type Task struct {
	ID               string     `json:"id"`
	ProjectID        string     `json:"project_id"`
	Title            string     `json:"title"`
	Status           string     `json:"status"`
	Notes            string     `json:"notes,omitempty"`
	IssueType        IssueType  `json:"issue_type,omitempty"`
	IssueID          string     `json:"issue_id,omitempty"`
	IssueNumber      int        `json:"issue_number,omitempty"`
	IssueState       string     `json:"issue_state,omitempty"`
	IssueURL         string     `json:"issue_url,omitempty"`
	IssueLastUpdated *time.Time `json:"issue_last_updated,omitempty"`
	IssueWasUpdated  bool       `json:"issue_was_updated,omitempty"`
	Backlog          bool       `json:"backlog"`
	SortOrder        int        `json:"sort_order"`
	Labels           []string   `json:"labels,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
}

// HasIssue reports whether the task is backed by a remote issue of the given type.
func (t Task) HasIssue(issueType IssueType) bool {
	return t.IssueType == issueType && t.IssueID != ""
}
