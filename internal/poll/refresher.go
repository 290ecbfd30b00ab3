package poll

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"issuesync/internal/models"
	"issuesync/internal/notify"
)

const pollingMessage = "Polling changes for issues"

// RefreshResult summarizes one refresher tick.
type RefreshResult struct {
	Visible   int
	Linked    int
	Eligible  []models.Task
	Refreshed int
	Failed    int
}

// Refresher requests refreshes of issue-backed tasks visible in the active context.
type Refresher struct {
	deps   Deps
	logger *slog.Logger
}

// NewRefresher returns a refresher using deps.
func NewRefresher(deps Deps) *Refresher {
	return &Refresher{deps: deps, logger: deps.logger("poll.refresher")}
}

// Tick runs one refresh pass. Any config lookup failure aborts the pass
// before side effects and is returned as a *LookupError.
func (r *Refresher) Tick(ctx context.Context) (RefreshResult, error) {
	var result RefreshResult

	wc, err := r.deps.Contexts.ActiveContext(ctx)
	if err != nil {
		countError(PipelineRefresh, "context")
		return result, fmt.Errorf("resolve active context: %w", err)
	}
	if wc.IsZero() {
		return result, nil
	}

	visible, err := r.deps.Tasks.VisibleTasks(ctx, wc)
	if err != nil {
		countError(PipelineRefresh, "tasks")
		return result, fmt.Errorf("load visible tasks: %w", err)
	}
	result.Visible = len(visible)

	linked := make([]models.Task, 0, len(visible))
	for _, task := range visible {
		if task.HasIssue(models.IssueTypeGitHub) {
			linked = append(linked, task)
		}
	}
	result.Linked = len(linked)
	if len(linked) == 0 {
		return result, nil
	}

	configs, err := r.lookupConfigs(ctx, linked)
	if err != nil {
		countError(PipelineRefresh, "lookup")
		return result, err
	}

	for _, task := range linked {
		if refreshEligible(configs[task.ProjectID]) {
			result.Eligible = append(result.Eligible, task)
		}
	}
	if len(result.Eligible) == 0 {
		return result, nil
	}

	n := notify.New(notify.KindPolling, pollingMessage)
	n.Count = len(result.Eligible)
	if wc.IsProject() {
		n.ProjectID = wc.ID
	}
	r.deps.notify(ctx, n)

	result.Refreshed, result.Failed = r.refreshAll(ctx, result.Eligible)
	r.logger.Debug("refresh tick done",
		"context", wc.Type,
		"context_id", wc.ID,
		"visible", result.Visible,
		"linked", result.Linked,
		"eligible", len(result.Eligible),
		"failed", result.Failed,
	)
	return result, nil
}

// lookupConfigs resolves the provider config of every distinct project among
// tasks concurrently and waits for all of them.
func (r *Refresher) lookupConfigs(ctx context.Context, tasks []models.Task) (map[string]*models.ProviderConfig, error) {
	projectIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, task := range tasks {
		if _, ok := seen[task.ProjectID]; ok {
			continue
		}
		seen[task.ProjectID] = struct{}{}
		projectIDs = append(projectIDs, task.ProjectID)
	}

	results := make([]*models.ProviderConfig, len(projectIDs))
	g, gctx := errgroup.WithContext(ctx)
	if r.deps.LookupLimit > 0 {
		g.SetLimit(r.deps.LookupLimit)
	}
	for i, projectID := range projectIDs {
		g.Go(func() error {
			cfg, err := r.deps.Configs.ProviderConfig(gctx, projectID)
			if err != nil {
				return &LookupError{ProjectID: projectID, Err: err}
			}
			results[i] = cfg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	configs := make(map[string]*models.ProviderConfig, len(projectIDs))
	for i, projectID := range projectIDs {
		configs[projectID] = results[i]
	}
	return configs, nil
}

func (r *Refresher) refreshAll(ctx context.Context, tasks []models.Task) (int, int) {
	limit := r.deps.RefreshLimit
	if limit <= 0 {
		limit = 1
	}
	failed := make([]bool, len(tasks))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, task := range tasks {
		g.Go(func() error {
			refreshRequestsTotal.Inc()
			if err := r.deps.Tasks.RefreshTask(ctx, task, false); err != nil {
				failed[i] = true
				refreshErr := &RefreshError{TaskID: task.ID, Err: err}
				if refreshErr.NotFound() {
					countError(PipelineRefresh, "not_found")
				} else {
					countError(PipelineRefresh, "refresh")
				}
				r.logger.Warn("refresh task failed", "error", refreshErr)
			}
			return nil
		})
	}
	_ = g.Wait()

	nFailed := 0
	for _, f := range failed {
		if f {
			nFailed++
		}
	}
	return len(tasks) - nFailed, nFailed
}
