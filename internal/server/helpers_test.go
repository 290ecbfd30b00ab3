package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"issuesync/internal/events"
	"issuesync/internal/github"
	"issuesync/internal/models"
	"issuesync/internal/notify"
	"issuesync/internal/store"
)

type fakeIssues struct {
	mu     sync.Mutex
	issues map[string]models.RemoteIssue
	err    error
	calls  int
}

func (f *fakeIssues) IssueByNumber(_ context.Context, repo string, number int) (models.RemoteIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return models.RemoteIssue{}, f.err
	}
	issue, ok := f.issues[fmt.Sprintf("%s#%d", repo, number)]
	if !ok {
		return models.RemoteIssue{}, &github.APIError{StatusCode: http.StatusNotFound, Message: "Not Found"}
	}
	return issue, nil
}

func (f *fakeIssues) set(repo string, issue models.RemoteIssue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues[fmt.Sprintf("%s#%d", repo, issue.Number)] = issue
}

type testEnv struct {
	srv    *Server
	store  *store.Store
	issues *fakeIssues
	bus    *events.Bus
	notes  *notify.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(apiTokenEnvKey, "")

	path := filepath.Join(t.TempDir(), "server_test.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})

	env := &testEnv{
		store:  st,
		issues: &fakeIssues{issues: map[string]models.RemoteIssue{}},
		bus:    events.NewBus(),
		notes:  notify.NewMemory(20),
	}
	env.srv = New(Options{
		Addr:          "127.0.0.1:0",
		DBPath:        path,
		Store:         st,
		Issues:        env.issues,
		Notifier:      env.notes,
		Notifications: env.notes,
		Bus:           env.bus,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.srv.routes().ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedProject(t *testing.T, id, repo string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	if err := e.store.CreateProject(ctx, &models.Project{ID: id, Name: id, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("create project %s: %v", id, err)
	}
	if repo == "" {
		return
	}
	cfg := &models.ProviderConfig{ProjectID: id, Enabled: true, AutoAddToBacklog: true, AutoPoll: true, Repo: repo, UpdatedAt: now}
	if err := e.store.SetProviderConfig(ctx, cfg); err != nil {
		t.Fatalf("set provider %s: %v", id, err)
	}
}

func (e *testEnv) seedIssueTask(t *testing.T, projectID string, issue models.RemoteIssue) models.Task {
	t.Helper()
	task, err := e.srv.Service().CreateTaskFromIssue(context.Background(), models.IssueTypeGitHub, issue, projectID, models.PlacementBottom)
	if err != nil {
		t.Fatalf("create task from issue #%d: %v", issue.Number, err)
	}
	return *task
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func subscribe(t *testing.T, bus *events.Bus) <-chan events.Event {
	t.Helper()
	ch, cancel := bus.Subscribe()
	t.Cleanup(cancel)
	return ch
}

func expectEvent(t *testing.T, ch <-chan events.Event, kind events.Kind) events.Event {
	t.Helper()
	select {
	case ev := <-ch:
		if ev.Kind != kind {
			t.Fatalf("expected %s event, got %s", kind, ev.Kind)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s event", kind)
	}
	return events.Event{}
}
