package poll

import (
	"errors"
	"fmt"
)

// ErrIssueNotFound means a linked remote issue no longer exists.
var ErrIssueNotFound = errors.New("remote issue not found")

// FetchError means the remote issue list could not be retrieved.
type FetchError struct {
	ProjectID string
	Repo      string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch issues for project %s (%s): %v", e.ProjectID, e.Repo, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// LookupError means a task's provider config could not be resolved.
type LookupError struct {
	ProjectID string
	Err       error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup provider config for project %s: %v", e.ProjectID, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// CreateError means a task could not be created for a remote issue.
type CreateError struct {
	ProjectID string
	IssueID   string
	Number    int
	Err       error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("create task for issue #%d (%s) in project %s: %v", e.Number, e.IssueID, e.ProjectID, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// RefreshError means a single task refresh failed.
type RefreshError struct {
	TaskID string
	Err    error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh task %s: %v", e.TaskID, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// NotFound reports whether the refresh failed because the remote issue is gone.
func (e *RefreshError) NotFound() bool { return errors.Is(e.Err, ErrIssueNotFound) }
