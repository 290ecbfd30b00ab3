package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"issuesync/internal/models"
	"issuesync/internal/notify"
)

// ImportResult summarizes one backlog import tick.
type ImportResult struct {
	ProjectID string
	Fetched   int
	Candidate int
	Created   []models.Task
	Failed    int
}

// Importer adds newly created remote issues to the active project's backlog.
type Importer struct {
	deps   Deps
	logger *slog.Logger
}

// NewImporter returns an importer using deps.
func NewImporter(deps Deps) *Importer {
	return &Importer{deps: deps, logger: deps.logger("poll.importer")}
}

// Tick runs one import pass. It returns a *FetchError when the remote list
// could not be fetched; per-issue create failures are logged and skipped.
func (im *Importer) Tick(ctx context.Context) (ImportResult, error) {
	var result ImportResult

	wc, err := im.deps.Contexts.ActiveContext(ctx)
	if err != nil {
		countError(PipelineBacklog, "context")
		return result, fmt.Errorf("resolve active context: %w", err)
	}
	if !wc.IsProject() {
		return result, nil
	}
	result.ProjectID = wc.ID

	cfg, err := im.deps.Configs.ProviderConfig(ctx, wc.ID)
	if err != nil {
		countError(PipelineBacklog, "lookup")
		return result, &LookupError{ProjectID: wc.ID, Err: err}
	}
	if !backlogEligible(cfg) {
		return result, nil
	}

	issues, err := im.deps.Fetcher.FetchRecentIssues(ctx, cfg)
	if err != nil {
		countError(PipelineBacklog, "fetch")
		return result, &FetchError{ProjectID: wc.ID, Repo: cfg.Repo, Err: err}
	}
	result.Fetched = len(issues)
	if len(issues) == 0 {
		return result, nil
	}

	known, err := im.deps.Tasks.KnownIssueIDs(ctx, wc.ID, models.IssueTypeGitHub)
	if err != nil {
		countError(PipelineBacklog, "known")
		return result, fmt.Errorf("load known issue ids for %s: %w", wc.ID, err)
	}

	toAdd := issuesToAdd(issues, known)
	result.Candidate = len(toAdd)

	var createdIssues []models.RemoteIssue
	for _, issue := range toAdd {
		task, err := im.deps.Tasks.CreateTaskFromIssue(ctx, models.IssueTypeGitHub, issue, wc.ID, im.deps.Placement)
		if err != nil {
			createErr := &CreateError{ProjectID: wc.ID, IssueID: issue.ExternalID, Number: issue.Number, Err: err}
			countError(PipelineBacklog, "create")
			result.Failed++
			im.logger.Warn("import issue failed", "error", createErr)
			continue
		}
		result.Created = append(result.Created, *task)
		createdIssues = append(createdIssues, issue)
	}
	importedTasksTotal.Add(float64(len(result.Created)))

	if n, ok := importNotification(wc.ID, result.Created, createdIssues); ok {
		im.deps.notify(ctx, n)
	}
	im.logger.Debug("import tick done",
		"project_id", wc.ID,
		"fetched", result.Fetched,
		"candidates", result.Candidate,
		"created", len(result.Created),
		"failed", result.Failed,
	)
	return result, nil
}

// issuesToAdd keeps remote issues that are neither known locally nor seen
// earlier in the same page, in fetch order.
func issuesToAdd(issues []models.RemoteIssue, known map[string]struct{}) []models.RemoteIssue {
	seen := make(map[string]struct{}, len(known)+len(issues))
	for id := range known {
		seen[id] = struct{}{}
	}
	out := make([]models.RemoteIssue, 0, len(issues))
	for _, issue := range issues {
		if issue.ExternalID == "" {
			continue
		}
		if _, ok := seen[issue.ExternalID]; ok {
			continue
		}
		seen[issue.ExternalID] = struct{}{}
		out = append(out, issue)
	}
	return out
}

func importNotification(projectID string, created []models.Task, issues []models.RemoteIssue) (notify.Notification, bool) {
	var n notify.Notification
	switch len(created) {
	case 0:
		return n, false
	case 1:
		n = notify.New(notify.KindImportedSingle, fmt.Sprintf("#%d %s", issues[0].Number, issues[0].Title))
		n.TaskID = created[0].ID
	default:
		n = notify.New(notify.KindImportedMultiple, fmt.Sprintf("Imported %d new issues", len(created)))
	}
	n.Count = len(created)
	n.ProjectID = projectID
	return n, true
}

// IsFetchError reports whether err came from the remote fetch step.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
