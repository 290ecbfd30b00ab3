package server

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"issuesync/internal/api"
	"issuesync/internal/models"
	"issuesync/internal/notify"
	"issuesync/internal/poll"
	"issuesync/internal/store"
)

func TestTaskServiceCreate(t *testing.T) {
	env := newTestEnv(t)
	env.seedProject(t, "web", "")
	ctx := context.Background()

	t.Run("defaults and labels", func(t *testing.T) {
		task, err := env.srv.Service().Create(ctx, api.TaskCreateRequest{
			ProjectID: "Web",
			Title:     "  Write docs ",
			Labels:    []string{"Docs", "docs", "urgent"},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if task.ProjectID != "web" || task.Title != "Write docs" || task.Status != "open" {
			t.Fatalf("unexpected task: %+v", task)
		}
		if len(task.Labels) != 2 || task.Labels[0] != "docs" || task.Labels[1] != "urgent" {
			t.Fatalf("unexpected labels: %v", task.Labels)
		}
		if !validateID(task.ID) {
			t.Fatalf("generated id %q does not validate", task.ID)
		}
	})

	t.Run("done sets closed_at", func(t *testing.T) {
		status := "done"
		task, err := env.srv.Service().Create(ctx, api.TaskCreateRequest{ProjectID: "web", Title: "Ship", Status: &status})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if task.ClosedAt == nil {
			t.Fatal("expected closed_at for done task")
		}
	})

	t.Run("unknown project", func(t *testing.T) {
		_, err := env.srv.Service().Create(ctx, api.TaskCreateRequest{ProjectID: "nope", Title: "x"})
		if httpStatusFromError(err) != http.StatusNotFound || errorNumericCode(0, err) != ErrCodeProjectNotFound {
			t.Fatalf("expected project not found, got %v", err)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := env.srv.Service().Create(ctx, api.TaskCreateRequest{ProjectID: "web"})
		if httpStatusFromError(err) != http.StatusBadRequest || errorNumericCode(0, err) != ErrCodeMissingRequired {
			t.Fatalf("expected missing title, got %v", err)
		}
	})
}

func TestTaskServiceCreateTaskFromIssue(t *testing.T) {
	env := newTestEnv(t)
	env.seedProject(t, "p", "octo/app")
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	task := env.seedIssueTask(t, "p", models.RemoteIssue{
		ExternalID: "9001", Number: 10, Title: "Fix bug", State: "open",
		URL: "https://github.com/octo/app/issues/10", UpdatedAt: updated,
	})
	if !task.Backlog || !task.HasIssue(models.IssueTypeGitHub) || task.IssueNumber != 10 {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.IssueLastUpdated == nil || !task.IssueLastUpdated.Equal(updated) {
		t.Fatalf("expected issue_last_updated %v, got %v", updated, task.IssueLastUpdated)
	}

	_, err := env.srv.Service().CreateTaskFromIssue(context.Background(), models.IssueTypeGitHub,
		models.RemoteIssue{ExternalID: "9001", Number: 10, Title: "Fix bug"}, "p", models.PlacementBottom)
	if err == nil {
		t.Fatal("expected duplicate issue to be rejected")
	}

	known, err := env.srv.Service().KnownIssueIDs(context.Background(), "p", models.IssueTypeGitHub)
	if err != nil {
		t.Fatalf("known ids: %v", err)
	}
	if _, ok := known["9001"]; !ok || len(known) != 1 {
		t.Fatalf("unexpected known ids: %v", known)
	}
}

func TestTaskServiceRefresh(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issue := models.RemoteIssue{ExternalID: "1", Number: 7, Title: "Old title", State: "open", UpdatedAt: base}

	t.Run("unchanged issue is a no-op", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedProject(t, "p", "octo/app")
		task := env.seedIssueTask(t, "p", issue)
		env.issues.set("octo/app", issue)

		got, changed, err := env.srv.Service().RefreshTaskByID(context.Background(), task.ID, false)
		if err != nil {
			t.Fatalf("refresh: %v", err)
		}
		if changed || got.IssueWasUpdated {
			t.Fatalf("expected no change, got changed=%v task=%+v", changed, got)
		}
		if len(env.notes.List(0)) != 0 {
			t.Fatal("expected no notification")
		}
	})

	t.Run("newer issue updates task and notifies", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedProject(t, "p", "octo/app")
		task := env.seedIssueTask(t, "p", issue)
		newer := issue
		newer.Title = "New title"
		newer.State = "closed"
		newer.UpdatedAt = base.Add(time.Hour)
		env.issues.set("octo/app", newer)

		if err := env.srv.Service().RefreshTask(context.Background(), task, false); err != nil {
			t.Fatalf("refresh: %v", err)
		}
		got, err := env.srv.Service().Get(context.Background(), task.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "New title" || got.IssueState != "closed" || !got.IssueWasUpdated {
			t.Fatalf("task not updated: %+v", got)
		}
		notes := env.notes.List(0)
		if len(notes) != 1 || notes[0].Kind != notify.KindIssueUpdated || notes[0].TaskID != task.ID {
			t.Fatalf("unexpected notifications: %+v", notes)
		}
		if notes[0].Message != "Updated #7 New title" {
			t.Fatalf("unexpected message: %q", notes[0].Message)
		}
	})

	t.Run("forced refresh rewrites unchanged issue", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedProject(t, "p", "octo/app")
		task := env.seedIssueTask(t, "p", issue)
		env.issues.set("octo/app", issue)

		_, changed, err := env.srv.Service().RefreshTaskByID(context.Background(), task.ID, true)
		if err != nil {
			t.Fatalf("refresh: %v", err)
		}
		if !changed {
			t.Fatal("expected forced refresh to update")
		}
	})

	t.Run("missing remote issue", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedProject(t, "p", "octo/app")
		task := env.seedIssueTask(t, "p", issue)

		err := env.srv.Service().RefreshTask(context.Background(), task, false)
		if !errors.Is(err, poll.ErrIssueNotFound) {
			t.Fatalf("expected ErrIssueNotFound, got %v", err)
		}
		if httpStatusFromError(err) != http.StatusNotFound || errorNumericCode(0, err) != ErrCodeIssueNotFound {
			t.Fatalf("unexpected api mapping for %v", err)
		}
	})

	t.Run("provider failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedProject(t, "p", "octo/app")
		task := env.seedIssueTask(t, "p", issue)
		env.issues.err = errors.New("connection reset")

		err := env.srv.Service().RefreshTask(context.Background(), task, true)
		if httpStatusFromError(err) != http.StatusBadGateway {
			t.Fatalf("expected bad gateway, got %v", err)
		}
	})

	t.Run("local task is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedProject(t, "p", "octo/app")
		local, err := env.srv.Service().Create(context.Background(), api.TaskCreateRequest{ProjectID: "p", Title: "local"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		_, _, err = env.srv.Service().RefreshTaskByID(context.Background(), local.ID, true)
		if errorNumericCode(0, err) != ErrCodeNotIssueBacked {
			t.Fatalf("expected not issue backed, got %v", err)
		}
		if env.issues.calls != 0 {
			t.Fatalf("expected no provider calls, got %d", env.issues.calls)
		}
	})

	t.Run("project without repo", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedProject(t, "p", "")
		task := env.seedIssueTask(t, "p", issue)

		err := env.srv.Service().RefreshTask(context.Background(), task, true)
		if errorNumericCode(0, err) != ErrCodeNoProvider {
			t.Fatalf("expected no provider, got %v", err)
		}
	})
}

func TestTaskServiceListUsesActiveContext(t *testing.T) {
	env := newTestEnv(t)
	env.seedProject(t, "a", "")
	env.seedProject(t, "b", "")
	ctx := context.Background()
	svc := env.srv.Service()

	if _, err := svc.Create(ctx, api.TaskCreateRequest{ProjectID: "a", Title: "in a", Labels: []string{"focus"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, api.TaskCreateRequest{ProjectID: "b", Title: "in b"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, api.TaskCreateRequest{ProjectID: "b", Title: "b focus", Labels: []string{"focus"}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := svc.List(ctx, store.ListFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("expected all 3 tasks without context, got %d err=%v", len(all), err)
	}

	if err := env.store.SetActiveContext(ctx, models.WorkContext{Type: models.ContextProject, ID: "b"}); err != nil {
		t.Fatalf("set context: %v", err)
	}
	inB, err := svc.List(ctx, store.ListFilter{})
	if err != nil || len(inB) != 2 {
		t.Fatalf("expected 2 tasks in project b, got %d err=%v", len(inB), err)
	}

	if err := env.store.SetActiveContext(ctx, models.WorkContext{Type: models.ContextTag, ID: "focus"}); err != nil {
		t.Fatalf("set context: %v", err)
	}
	tagged, err := svc.List(ctx, store.ListFilter{})
	if err != nil || len(tagged) != 2 {
		t.Fatalf("expected 2 tagged tasks, got %d err=%v", len(tagged), err)
	}
}
