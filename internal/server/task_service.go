package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"issuesync/internal/api"
	"issuesync/internal/github"
	"issuesync/internal/models"
	"issuesync/internal/notify"
	"issuesync/internal/poll"
	"issuesync/internal/store"
)

const defaultStatus = string(models.StatusOpen)

// IssueLookup fetches a single remote issue by repository and number.
type IssueLookup interface {
	IssueByNumber(ctx context.Context, repo string, number int) (models.RemoteIssue, error)
}

// TaskService centralizes task validation, defaults and issue refresh.
type TaskService struct {
	store    Store
	issues   IssueLookup
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

var _ poll.TaskStore = (*TaskService)(nil)

// NewTaskService constructs a TaskService.
func NewTaskService(st Store, issues IssueLookup, notifier notify.Notifier, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		store:    st,
		issues:   issues,
		notifier: notifier,
		logger:   logger.With("component", "tasks"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create creates a local task from a request.
func (s *TaskService) Create(ctx context.Context, req api.TaskCreateRequest) (models.Task, error) {
	var task models.Task

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return task, badRequestCode(fmt.Errorf("title is required"), ErrCodeMissingRequired)
	}

	projectID, err := normalizeProjectID(req.ProjectID)
	if err != nil {
		return task, err
	}
	if err := s.requireProject(ctx, projectID); err != nil {
		return task, err
	}

	status := defaultStatus
	if req.Status != nil {
		status, err = normalizeStatus(*req.Status)
		if err != nil {
			return task, err
		}
	}

	labels, err := normalizeLabels(req.Labels)
	if err != nil {
		return task, err
	}

	id, err := s.store.GenerateTaskID()
	if err != nil {
		return task, storeFailure(err)
	}

	now := s.now()
	task = models.Task{
		ID:        id,
		ProjectID: projectID,
		Title:     title,
		Status:    status,
		Notes:     valueOrEmpty(req.Notes),
		Backlog:   req.Backlog,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == string(models.StatusDone) {
		task.ClosedAt = &now
	}

	if err := s.store.CreateTask(ctx, &task, labels, models.PlacementBottom); err != nil {
		return task, s.mapCreateError(err, projectID)
	}
	task.Labels = labels
	return task, nil
}

// Get loads a task by id.
func (s *TaskService) Get(ctx context.Context, id string) (models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, storeFailure(err)
	}
	if task == nil {
		return models.Task{}, notFoundCode(fmt.Errorf("task %s not found", id), ErrCodeTaskNotFound)
	}
	return *task, nil
}

// List returns tasks matching filter. Without a project filter, tasks visible
// in the active work context are returned.
func (s *TaskService) List(ctx context.Context, filter store.ListFilter) ([]models.Task, error) {
	if filter.ProjectID == "" && filter.Label == "" {
		wc, err := s.store.ActiveContext(ctx)
		if err != nil {
			return nil, storeFailure(err)
		}
		switch {
		case wc.IsProject():
			filter.ProjectID = wc.ID
		case wc.Type == models.ContextTag && wc.ID != "":
			filter.Label = wc.ID
		}
	}

	tasks, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, storeFailure(err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// AddLabels adds labels to a task and returns the resulting label set.
func (s *TaskService) AddLabels(ctx context.Context, id string, values []string) ([]string, error) {
	return s.changeLabels(ctx, id, values, s.store.AddLabels)
}

// RemoveLabels removes labels from a task and returns the resulting label set.
func (s *TaskService) RemoveLabels(ctx context.Context, id string, values []string) ([]string, error) {
	return s.changeLabels(ctx, id, values, s.store.RemoveLabels)
}

func (s *TaskService) changeLabels(ctx context.Context, id string, values []string, apply func(context.Context, string, []string) error) ([]string, error) {
	labels, err := normalizeLabels(values)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, badRequestCode(fmt.Errorf("labels are required"), ErrCodeMissingRequired)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := apply(ctx, id, labels); err != nil {
		return nil, storeFailure(err)
	}
	current, err := s.store.ListLabels(ctx, id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if current == nil {
		current = []string{}
	}
	return current, nil
}

// VisibleTasks returns the tasks visible in a work context.
func (s *TaskService) VisibleTasks(ctx context.Context, wc models.WorkContext) ([]models.Task, error) {
	return s.store.VisibleTasks(ctx, wc)
}

// KnownIssueIDs returns the remote issue ids already linked in a project.
func (s *TaskService) KnownIssueIDs(ctx context.Context, projectID string, issueType models.IssueType) (map[string]struct{}, error) {
	return s.store.KnownIssueIDs(ctx, projectID, issueType)
}

// CreateTaskFromIssue creates a backlog task linked to a remote issue.
func (s *TaskService) CreateTaskFromIssue(ctx context.Context, issueType models.IssueType, issue models.RemoteIssue, projectID string, placement models.Placement) (*models.Task, error) {
	if issue.ExternalID == "" {
		return nil, fmt.Errorf("remote issue has no id")
	}
	title := strings.TrimSpace(issue.Title)
	if title == "" {
		title = fmt.Sprintf("#%d", issue.Number)
	}

	id, err := s.store.GenerateTaskID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &models.Task{
		ID:          id,
		ProjectID:   projectID,
		Title:       title,
		Status:      defaultStatus,
		IssueType:   issueType,
		IssueID:     issue.ExternalID,
		IssueNumber: issue.Number,
		IssueState:  issue.State,
		IssueURL:    issue.URL,
		Backlog:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !issue.UpdatedAt.IsZero() {
		updatedAt := issue.UpdatedAt.UTC()
		task.IssueLastUpdated = &updatedAt
	}

	if err := s.store.CreateTask(ctx, task, nil, placement); err != nil {
		return nil, err
	}
	s.logger.Debug("task created from issue", "task_id", task.ID, "project_id", projectID, "issue_number", issue.Number)
	return task, nil
}

// RefreshTask re-reads a task's remote issue. Unless forced, the task is only
// rewritten when the remote issue changed after the last recorded update.
func (s *TaskService) RefreshTask(ctx context.Context, task models.Task, forced bool) error {
	_, _, err := s.refresh(ctx, task, forced)
	return err
}

// RefreshTaskByID loads and refreshes one task, reporting whether it changed.
func (s *TaskService) RefreshTaskByID(ctx context.Context, id string, forced bool) (models.Task, bool, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return models.Task{}, false, err
	}
	return s.refresh(ctx, task, forced)
}

func (s *TaskService) refresh(ctx context.Context, task models.Task, forced bool) (models.Task, bool, error) {
	if !task.HasIssue(models.IssueTypeGitHub) || task.IssueNumber <= 0 {
		return task, false, badRequestCode(fmt.Errorf("task %s is not linked to a github issue", task.ID), ErrCodeNotIssueBacked)
	}
	if s.issues == nil {
		return task, false, unavailable(fmt.Errorf("github provider is not configured"))
	}

	cfg, err := s.store.ProviderConfig(ctx, task.ProjectID)
	if err != nil {
		return task, false, storeFailure(err)
	}
	if cfg == nil || strings.TrimSpace(cfg.Repo) == "" {
		return task, false, notFoundCode(fmt.Errorf("project %s has no github repo", task.ProjectID), ErrCodeNoProvider)
	}

	remote, err := s.issues.IssueByNumber(ctx, cfg.Repo, task.IssueNumber)
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			return task, false, notFoundCode(fmt.Errorf("%w: %s#%d", poll.ErrIssueNotFound, cfg.Repo, task.IssueNumber), ErrCodeIssueNotFound)
		}
		return task, false, providerFailure(fmt.Errorf("fetch %s#%d: %w", cfg.Repo, task.IssueNumber, err))
	}

	if !forced && !remoteIsNewer(remote.UpdatedAt, task.IssueLastUpdated) {
		return task, false, nil
	}

	title := strings.TrimSpace(remote.Title)
	if title == "" {
		title = task.Title
	}
	update := store.IssueUpdate{
		Title:            title,
		IssueState:       remote.State,
		IssueURL:         remote.URL,
		IssueLastUpdated: remote.UpdatedAt.UTC(),
		UpdatedAt:        s.now(),
	}
	if err := s.store.UpdateIssueFields(ctx, task.ID, update); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return task, false, notFoundCode(fmt.Errorf("task %s not found", task.ID), ErrCodeTaskNotFound)
		}
		return task, false, storeFailure(err)
	}

	updated, err := s.Get(ctx, task.ID)
	if err != nil {
		return task, false, err
	}

	n := notify.New(notify.KindIssueUpdated, fmt.Sprintf("Updated #%d %s", task.IssueNumber, updated.Title))
	n.ProjectID = task.ProjectID
	n.TaskID = task.ID
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
	s.logger.Debug("task refreshed", "task_id", task.ID, "issue_number", task.IssueNumber, "forced", forced)
	return updated, true, nil
}

func (s *TaskService) requireProject(ctx context.Context, projectID string) error {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return storeFailure(err)
	}
	if project == nil {
		return notFoundCode(fmt.Errorf("project %s not found", projectID), ErrCodeProjectNotFound)
	}
	return nil
}

func (s *TaskService) mapCreateError(err error, projectID string) error {
	switch {
	case errors.Is(err, store.ErrIssueAlreadyLinked):
		return conflictCode(err, ErrCodeIssueLinked)
	case errors.Is(err, store.ErrNotFound):
		return notFoundCode(fmt.Errorf("project %s not found", projectID), ErrCodeProjectNotFound)
	case errors.Is(err, store.ErrTaskIDExists):
		return conflictCode(err, ErrCodeTaskIDExists)
	default:
		return storeFailure(err)
	}
}

func remoteIsNewer(remote time.Time, local *time.Time) bool {
	if remote.IsZero() {
		return false
	}
	if local == nil {
		return true
	}
	return remote.After(*local)
}
