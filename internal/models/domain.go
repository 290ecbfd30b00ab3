package models

import (
	"fmt"
	"regexp"
	"strings"
)

// TaskStatus defines allowed lifecycle states for tasks.
type TaskStatus string

const (
	StatusOpen       TaskStatus = "open"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// IssueType tags where a task's issue data comes from.
type IssueType string

const (
	IssueTypeNone   IssueType = ""
	IssueTypeGitHub IssueType = "github"
)

// WorkContextType distinguishes project contexts from tag contexts.
type WorkContextType string

const (
	ContextProject WorkContextType = "project"
	ContextTag     WorkContextType = "tag"
)

// Placement controls where a new backlog task is ordered.
type Placement string

const (
	PlacementTop    Placement = "top"
	PlacementBottom Placement = "bottom"
)

var validTaskStatuses = map[TaskStatus]struct{}{
	StatusOpen:       {},
	StatusInProgress: {},
	StatusDone:       {},
}

var validIssueTypes = map[IssueType]struct{}{
	IssueTypeNone:   {},
	IssueTypeGitHub: {},
}

var (
	projectIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)
	repoPartRegex  = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

func IsValidTaskStatus(status TaskStatus) bool {
	_, ok := validTaskStatuses[status]
	return ok
}

func IsValidIssueType(issueType IssueType) bool {
	_, ok := validIssueTypes[issueType]
	return ok
}

func ParseTaskStatus(raw string) (TaskStatus, error) {
	value := TaskStatus(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("status is required")
	}
	if !IsValidTaskStatus(value) {
		return "", fmt.Errorf("invalid status: %s", value)
	}
	return value, nil
}

func ParseIssueType(raw string) (IssueType, error) {
	value := IssueType(strings.ToLower(strings.TrimSpace(raw)))
	if !IsValidIssueType(value) {
		return "", fmt.Errorf("invalid issue type: %s", value)
	}
	return value, nil
}

func ParsePlacement(raw string) (Placement, error) {
	switch Placement(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PlacementBottom:
		return PlacementBottom, nil
	case PlacementTop:
		return PlacementTop, nil
	default:
		return "", fmt.Errorf("invalid placement: %s", raw)
	}
}

func ParseWorkContextType(raw string) (WorkContextType, error) {
	switch WorkContextType(strings.ToLower(strings.TrimSpace(raw))) {
	case ContextProject:
		return ContextProject, nil
	case ContextTag:
		return ContextTag, nil
	default:
		return "", fmt.Errorf("invalid context type: %s", raw)
	}
}

// NormalizeProjectID lowercases and validates a project id.
func NormalizeProjectID(raw string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", fmt.Errorf("project id is required")
	}
	if !projectIDRegex.MatchString(value) {
		return "", fmt.Errorf("invalid project id: %s", raw)
	}
	return value, nil
}

// ParseRepo splits an "owner/name" repository reference.
func ParseRepo(raw string) (string, string, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok || !repoPartRegex.MatchString(owner) || !repoPartRegex.MatchString(name) {
		return "", "", fmt.Errorf("repo must be owner/name: %q", raw)
	}
	return owner, name, nil
}
