package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"issuesync/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func mustCreateProject(t *testing.T, st *Store, id string) {
	t.Helper()
	now := time.Now().UTC()
	if err := st.CreateProject(context.Background(), &models.Project{ID: id, Name: id, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("create project %s: %v", id, err)
	}
}

func newTask(id, projectID, title string) *models.Task {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Task{
		ID:        id,
		ProjectID: projectID,
		Title:     title,
		Status:    string(models.StatusOpen),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGetTask(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	mustCreateProject(t, st, "web")

	updated := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	task := newTask("is-ab12cd", "web", "Fix bug")
	task.IssueType = models.IssueTypeGitHub
	task.IssueID = "1001"
	task.IssueNumber = 10
	task.IssueState = "open"
	task.IssueURL = "https://github.com/acme/web/issues/10"
	task.IssueLastUpdated = &updated
	task.Backlog = true

	if err := st.CreateTask(ctx, task, []string{"urgent"}, models.PlacementBottom); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := st.GetTask(ctx, "is-ab12cd")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected task, got nil")
	}
	if got.Title != "Fix bug" || got.ProjectID != "web" {
		t.Fatalf("unexpected task: %+v", got)
	}
	if !got.HasIssue(models.IssueTypeGitHub) || got.IssueID != "1001" || got.IssueNumber != 10 {
		t.Fatalf("issue fields not persisted: %+v", got)
	}
	if got.IssueLastUpdated == nil || !got.IssueLastUpdated.Equal(updated) {
		t.Fatalf("expected issue_last_updated %v, got %v", updated, got.IssueLastUpdated)
	}
	if !got.Backlog {
		t.Fatal("expected backlog task")
	}
	if len(got.Labels) != 1 || got.Labels[0] != "urgent" {
		t.Fatalf("expected [urgent] labels, got %v", got.Labels)
	}
}

func TestGetTaskMissingReturnsNil(t *testing.T) {
	st := testStore(t)
	got, err := st.GetTask(context.Background(), "is-nope00")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestCreateTaskRequiresProject(t *testing.T) {
	st := testStore(t)
	err := st.CreateTask(context.Background(), newTask("is-aaaaaa", "ghost", "x"), nil, models.PlacementBottom)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateTaskRejectsDuplicateIssue(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	mustCreateProject(t, st, "web")
	mustCreateProject(t, st, "api")

	first := newTask("is-000001", "web", "one")
	first.IssueType, first.IssueID = models.IssueTypeGitHub, "77"
	if err := st.CreateTask(ctx, first, nil, models.PlacementBottom); err != nil {
		t.Fatalf("create first: %v", err)
	}

	dup := newTask("is-000002", "web", "dup")
	dup.IssueType, dup.IssueID = models.IssueTypeGitHub, "77"
	if err := st.CreateTask(ctx, dup, nil, models.PlacementBottom); !errors.Is(err, ErrIssueAlreadyLinked) {
		t.Fatalf("expected ErrIssueAlreadyLinked, got %v", err)
	}

	other := newTask("is-000003", "api", "same issue other project")
	other.IssueType, other.IssueID = models.IssueTypeGitHub, "77"
	if err := st.CreateTask(ctx, other, nil, models.PlacementBottom); err != nil {
		t.Fatalf("same issue id in another project should be allowed: %v", err)
	}
}

func TestBacklogPlacement(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	mustCreateProject(t, st, "web")

	create := func(id string, placement models.Placement) {
		task := newTask(id, "web", id)
		task.Backlog = true
		if err := st.CreateTask(ctx, task, nil, placement); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	create("is-bottm1", models.PlacementBottom)
	create("is-bottm2", models.PlacementBottom)
	create("is-top001", models.PlacementTop)

	backlog := true
	tasks, err := st.ListTasks(ctx, ListFilter{ProjectID: "web", Backlog: &backlog})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"is-top001", "is-bottm1", "is-bottm2"}
	if len(tasks) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(tasks))
	}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, tasks[i].ID)
		}
	}
}

func TestListTasksFilters(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	mustCreateProject(t, st, "web")
	mustCreateProject(t, st, "api")

	gh := newTask("is-gh0001", "web", "issue task")
	gh.IssueType, gh.IssueID = models.IssueTypeGitHub, "1"
	for _, tc := range []struct {
		task   *models.Task
		labels []string
	}{
		{gh, []string{"urgent"}},
		{newTask("is-plain1", "web", "plain"), nil},
		{newTask("is-api001", "api", "api task"), []string{"urgent"}},
	} {
		if err := st.CreateTask(ctx, tc.task, tc.labels, models.PlacementBottom); err != nil {
			t.Fatalf("create %s: %v", tc.task.ID, err)
		}
	}

	byProject, err := st.ListTasks(ctx, ListFilter{ProjectID: "web"})
	if err != nil {
		t.Fatalf("list by project: %v", err)
	}
	if len(byProject) != 2 {
		t.Fatalf("expected 2 web tasks, got %d", len(byProject))
	}

	byLabel, err := st.ListTasks(ctx, ListFilter{Label: "urgent"})
	if err != nil {
		t.Fatalf("list by label: %v", err)
	}
	if len(byLabel) != 2 {
		t.Fatalf("expected 2 urgent tasks, got %d", len(byLabel))
	}

	issueType := models.IssueTypeGitHub
	byType, err := st.ListTasks(ctx, ListFilter{IssueType: &issueType})
	if err != nil {
		t.Fatalf("list by issue type: %v", err)
	}
	if len(byType) != 1 || byType[0].ID != "is-gh0001" {
		t.Fatalf("expected only github task, got %+v", byType)
	}

	limited, err := st.ListTasks(ctx, ListFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 task, got %d", len(limited))
	}
}

func TestVisibleTasks(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	mustCreateProject(t, st, "web")
	mustCreateProject(t, st, "api")

	if err := st.CreateTask(ctx, newTask("is-web001", "web", "w"), []string{"focus"}, models.PlacementBottom); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.CreateTask(ctx, newTask("is-api001", "api", "a"), []string{"focus"}, models.PlacementBottom); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.CreateTask(ctx, newTask("is-api002", "api", "b"), nil, models.PlacementBottom); err != nil {
		t.Fatalf("create: %v", err)
	}

	project, err := st.VisibleTasks(ctx, models.WorkContext{Type: models.ContextProject, ID: "api"})
	if err != nil {
		t.Fatalf("visible project: %v", err)
	}
	if len(project) != 2 {
		t.Fatalf("expected 2 api tasks, got %d", len(project))
	}

	tag, err := st.VisibleTasks(ctx, models.WorkContext{Type: models.ContextTag, ID: "focus"})
	if err != nil {
		t.Fatalf("visible tag: %v", err)
	}
	if len(tag) != 2 {
		t.Fatalf("expected 2 focus tasks across projects, got %d", len(tag))
	}

	none, err := st.VisibleTasks(ctx, models.WorkContext{})
	if err != nil {
		t.Fatalf("visible none: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no tasks without context, got %d", len(none))
	}
}

func TestKnownIssueIDs(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	mustCreateProject(t, st, "web")

	for i, issueID := range []string{"10", "11"} {
		task := newTask([]string{"is-k00001", "is-k00002"}[i], "web", issueID)
		task.IssueType, task.IssueID = models.IssueTypeGitHub, issueID
		if err := st.CreateTask(ctx, task, nil, models.PlacementBottom); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := st.CreateTask(ctx, newTask("is-k00003", "web", "plain"), nil, models.PlacementBottom); err != nil {
		t.Fatalf("create: %v", err)
	}

	known, err := st.KnownIssueIDs(ctx, "web", models.IssueTypeGitHub)
	if err != nil {
		t.Fatalf("known: %v", err)
	}
	if len(known) != 2 {
		t.Fatalf("expected 2 known ids, got %v", known)
	}
	if _, ok := known["10"]; !ok {
		t.Fatal("expected issue 10 to be known")
	}
}

func TestUpdateIssueFields(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	mustCreateProject(t, st, "web")

	task := newTask("is-upd001", "web", "old")
	task.IssueType, task.IssueID = models.IssueTypeGitHub, "5"
	if err := st.CreateTask(ctx, task, nil, models.PlacementBottom); err != nil {
		t.Fatalf("create: %v", err)
	}

	remoteUpdated := time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)
	err := st.UpdateIssueFields(ctx, task.ID, IssueUpdate{
		Title:            "new",
		IssueState:       "closed",
		IssueURL:         "https://github.com/acme/web/issues/5",
		IssueLastUpdated: remoteUpdated,
		UpdatedAt:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := st.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "new" || got.IssueState != "closed" || !got.IssueWasUpdated {
		t.Fatalf("unexpected task after update: %+v", got)
	}
	if got.IssueLastUpdated == nil || !got.IssueLastUpdated.Equal(remoteUpdated) {
		t.Fatalf("expected issue_last_updated %v, got %v", remoteUpdated, got.IssueLastUpdated)
	}

	if err := st.UpdateIssueFields(ctx, "is-missing", IssueUpdate{Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddAndRemoveLabels(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	mustCreateProject(t, st, "web")
	if err := st.CreateTask(ctx, newTask("is-lbl001", "web", "x"), nil, models.PlacementBottom); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := st.AddLabels(ctx, "is-lbl001", []string{"b", "a", "a"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	labels, err := st.ListLabels(ctx, "is-lbl001")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(labels) != 2 || labels[0] != "a" || labels[1] != "b" {
		t.Fatalf("expected [a b], got %v", labels)
	}

	if err := st.RemoveLabels(ctx, "is-lbl001", []string{"a"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	labels, err = st.ListLabels(ctx, "is-lbl001")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(labels) != 1 || labels[0] != "b" {
		t.Fatalf("expected [b], got %v", labels)
	}
}

func TestStoreInfo(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	info, err := st.StoreInfo(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.SchemaVersion == 0 {
		t.Fatal("expected non-zero schema version")
	}
	if info.TotalTasks != 0 {
		t.Fatalf("expected 0 total tasks, got %d", info.TotalTasks)
	}

	mustCreateProject(t, st, "web")
	done := newTask("is-in0003", "web", "Done")
	done.Status = string(models.StatusDone)
	for _, task := range []*models.Task{newTask("is-in0001", "web", "Open 1"), newTask("is-in0002", "web", "Open 2"), done} {
		if err := st.CreateTask(ctx, task, nil, models.PlacementBottom); err != nil {
			t.Fatalf("create %s: %v", task.ID, err)
		}
	}

	info, err = st.StoreInfo(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Projects != 1 {
		t.Fatalf("expected 1 project, got %d", info.Projects)
	}
	if info.TotalTasks != 3 {
		t.Fatalf("expected 3 total tasks, got %d", info.TotalTasks)
	}
	if info.TaskCounts["open"] != 2 || info.TaskCounts["done"] != 1 {
		t.Fatalf("unexpected counts: %v", info.TaskCounts)
	}
}
