package store

import (
	"context"

	"issuesync/internal/models"
)

// TaskStore abstracts task storage backends.
type TaskStore interface {
	TaskExists(id string) (bool, error)
	GenerateTaskID() (string, error)
	CreateTask(ctx context.Context, task *models.Task, labels []string, placement models.Placement) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context, filter ListFilter) ([]models.Task, error)
	VisibleTasks(ctx context.Context, wc models.WorkContext) ([]models.Task, error)
	KnownIssueIDs(ctx context.Context, projectID string, issueType models.IssueType) (map[string]struct{}, error)
	UpdateIssueFields(ctx context.Context, id string, update IssueUpdate) error
	AddLabels(ctx context.Context, id string, labels []string) error
	RemoveLabels(ctx context.Context, id string, labels []string) error
	ListLabels(ctx context.Context, id string) ([]string, error)
}

// ProjectStore abstracts project, provider config and work context storage.
type ProjectStore interface {
	CreateProject(ctx context.Context, project *models.Project) error
	UpsertProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	ProviderConfig(ctx context.Context, projectID string) (*models.ProviderConfig, error)
	SetProviderConfig(ctx context.Context, cfg *models.ProviderConfig) error
	ActiveContext(ctx context.Context) (models.WorkContext, error)
	SetActiveContext(ctx context.Context, wc models.WorkContext) error
}

var (
	_ TaskStore    = (*Store)(nil)
	_ ProjectStore = (*Store)(nil)
)
