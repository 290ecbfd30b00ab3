package poll

import (
	"context"
	"log/slog"

	"issuesync/internal/models"
	"issuesync/internal/notify"
)

// ContextSource yields the active work context.
type ContextSource interface {
	ActiveContext(ctx context.Context) (models.WorkContext, error)
}

// ConfigStore resolves a project's provider config; nil, nil when absent.
type ConfigStore interface {
	ProviderConfig(ctx context.Context, projectID string) (*models.ProviderConfig, error)
}

// IssueFetcher returns the most recent page of remote issues for a config.
type IssueFetcher interface {
	FetchRecentIssues(ctx context.Context, cfg *models.ProviderConfig) ([]models.RemoteIssue, error)
}

// TaskStore is the task side of reconciliation.
type TaskStore interface {
	VisibleTasks(ctx context.Context, wc models.WorkContext) ([]models.Task, error)
	KnownIssueIDs(ctx context.Context, projectID string, issueType models.IssueType) (map[string]struct{}, error)
	CreateTaskFromIssue(ctx context.Context, issueType models.IssueType, issue models.RemoteIssue, projectID string, placement models.Placement) (*models.Task, error)
	RefreshTask(ctx context.Context, task models.Task, forced bool) error
}

// Deps are the collaborators shared by the importer and the refresher.
type Deps struct {
	Contexts  ContextSource
	Configs   ConfigStore
	Fetcher   IssueFetcher
	Tasks     TaskStore
	Notifier  notify.Notifier
	Logger    *slog.Logger
	Placement models.Placement
	// LookupLimit caps concurrent config lookups. Zero means no limit.
	LookupLimit int
	// RefreshLimit caps concurrent task refreshes. Zero means one at a time.
	RefreshLimit int
}

func (d Deps) logger(component string) *slog.Logger {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", component)
}

func (d Deps) notify(ctx context.Context, n notify.Notification) {
	if d.Notifier != nil {
		d.Notifier.Notify(ctx, n)
	}
}
