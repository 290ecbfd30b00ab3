package poll

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"issuesync/internal/models"
	"issuesync/internal/notify"
)

type fakeContexts struct {
	mu  sync.Mutex
	wc  models.WorkContext
	err error
}

func (f *fakeContexts) ActiveContext(context.Context) (models.WorkContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wc, f.err
}

func (f *fakeContexts) set(wc models.WorkContext) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wc = wc
}

func (f *fakeContexts) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeConfigs struct {
	mu    sync.Mutex
	cfgs  map[string]*models.ProviderConfig
	errs  map[string]error
	gates map[string]chan struct{}
	calls atomic.Int32
}

func (f *fakeConfigs) ProviderConfig(ctx context.Context, projectID string) (*models.ProviderConfig, error) {
	f.calls.Add(1)
	if gate := f.gates[projectID]; gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[projectID]; err != nil {
		return nil, err
	}
	return f.cfgs[projectID], nil
}

type fakeFetcher struct {
	issues []models.RemoteIssue
	err    error
	calls  atomic.Int32
}

func (f *fakeFetcher) FetchRecentIssues(context.Context, *models.ProviderConfig) ([]models.RemoteIssue, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.issues, nil
}

type fakeTasks struct {
	mu         sync.Mutex
	tasks      []models.Task
	createErr  map[string]error
	refreshErr map[string]error
	refreshed  []string
	forced     []bool
	nextID     int
}

func (f *fakeTasks) VisibleTasks(_ context.Context, wc models.WorkContext) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Task
	for _, task := range f.tasks {
		switch wc.Type {
		case models.ContextProject:
			if task.ProjectID == wc.ID {
				out = append(out, task)
			}
		case models.ContextTag:
			for _, label := range task.Labels {
				if label == wc.ID {
					out = append(out, task)
					break
				}
			}
		}
	}
	return out, nil
}

func (f *fakeTasks) KnownIssueIDs(_ context.Context, projectID string, issueType models.IssueType) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	known := map[string]struct{}{}
	for _, task := range f.tasks {
		if task.ProjectID == projectID && task.HasIssue(issueType) {
			known[task.IssueID] = struct{}{}
		}
	}
	return known, nil
}

func (f *fakeTasks) CreateTaskFromIssue(_ context.Context, issueType models.IssueType, issue models.RemoteIssue, projectID string, placement models.Placement) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createErr[issue.ExternalID]; err != nil {
		return nil, err
	}
	f.nextID++
	task := models.Task{
		ID:          fmt.Sprintf("is-%06d", f.nextID),
		ProjectID:   projectID,
		Title:       issue.Title,
		Status:      string(models.StatusOpen),
		IssueType:   issueType,
		IssueID:     issue.ExternalID,
		IssueNumber: issue.Number,
		Backlog:     true,
	}
	f.tasks = append(f.tasks, task)
	return &task, nil
}

func (f *fakeTasks) RefreshTask(_ context.Context, task models.Task, forced bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.refreshErr[task.ID]; err != nil {
		return err
	}
	f.refreshed = append(f.refreshed, task.ID)
	f.forced = append(f.forced, forced)
	return nil
}

func (f *fakeTasks) refreshedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.refreshed...)
}

func (f *fakeTasks) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nextID
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.items...)
}

func projectCtx(id string) models.WorkContext {
	return models.WorkContext{Type: models.ContextProject, ID: id}
}

func tagCtx(id string) models.WorkContext {
	return models.WorkContext{Type: models.ContextTag, ID: id}
}

func issue(id string, number int, title string) models.RemoteIssue {
	return models.RemoteIssue{ExternalID: id, Number: number, Title: title, State: "open", UpdatedAt: time.Now().UTC()}
}

func githubTask(id, projectID, issueID string, labels ...string) models.Task {
	return models.Task{ID: id, ProjectID: projectID, Title: id, IssueType: models.IssueTypeGitHub, IssueID: issueID, Labels: labels}
}
