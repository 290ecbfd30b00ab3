package poll

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issuesync/internal/models"
	"issuesync/internal/notify"
)

type importerFixture struct {
	contexts *fakeContexts
	configs  *fakeConfigs
	fetcher  *fakeFetcher
	tasks    *fakeTasks
	notifier *recordingNotifier
	importer *Importer
}

func newImporterFixture(issues ...models.RemoteIssue) *importerFixture {
	f := &importerFixture{
		contexts: &fakeContexts{wc: projectCtx("p")},
		configs: &fakeConfigs{cfgs: map[string]*models.ProviderConfig{
			"p": {ProjectID: "p", Enabled: true, AutoAddToBacklog: true, Repo: "acme/web"},
		}},
		fetcher:  &fakeFetcher{issues: issues},
		tasks:    &fakeTasks{},
		notifier: &recordingNotifier{},
	}
	f.importer = NewImporter(Deps{
		Contexts:  f.contexts,
		Configs:   f.configs,
		Fetcher:   f.fetcher,
		Tasks:     f.tasks,
		Notifier:  f.notifier,
		Placement: models.PlacementBottom,
	})
	return f
}

func TestImporterSingleIssue(t *testing.T) {
	f := newImporterFixture(issue("1001", 10, "Fix bug"))

	result, err := f.importer.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.Equal(t, "p", result.Created[0].ProjectID)
	assert.Equal(t, "1001", result.Created[0].IssueID)
	assert.Equal(t, models.IssueTypeGitHub, result.Created[0].IssueType)

	notes := f.notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.KindImportedSingle, notes[0].Kind)
	assert.Equal(t, "#10 Fix bug", notes[0].Message)
	assert.Equal(t, 1, notes[0].Count)
	assert.Equal(t, "p", notes[0].ProjectID)
}

func TestImporterIsIdempotent(t *testing.T) {
	f := newImporterFixture(issue("1001", 10, "Fix bug"), issue("1002", 11, "Add docs"))

	_, err := f.importer.Tick(context.Background())
	require.NoError(t, err)
	second, err := f.importer.Tick(context.Background())
	require.NoError(t, err)

	assert.Empty(t, second.Created)
	assert.Equal(t, 2, f.tasks.createdCount())
	assert.Len(t, f.notifier.all(), 1, "second tick must not notify")
}

func TestImporterDedupesWithinPage(t *testing.T) {
	f := newImporterFixture(
		issue("1", 1, "a"),
		issue("1", 1, "a again"),
		issue("2", 2, "b"),
	)

	result, err := f.importer.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Created, 2)
	assert.Equal(t, "a", result.Created[0].Title)
	assert.Equal(t, "b", result.Created[1].Title)
}

func TestImporterSkipsKnownIssues(t *testing.T) {
	f := newImporterFixture(issue("1", 1, "known"), issue("2", 2, "new"))
	f.tasks.tasks = []models.Task{githubTask("is-000009", "p", "1")}

	result, err := f.importer.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.Equal(t, "2", result.Created[0].IssueID)
}

func TestImporterMultipleNotification(t *testing.T) {
	f := newImporterFixture(issue("1", 1, "a"), issue("2", 2, "b"), issue("3", 3, "c"))

	_, err := f.importer.Tick(context.Background())
	require.NoError(t, err)

	notes := f.notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.KindImportedMultiple, notes[0].Kind)
	assert.Equal(t, 3, notes[0].Count)
}

func TestImporterEmptyFetchIsNoop(t *testing.T) {
	f := newImporterFixture()

	result, err := f.importer.Tick(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Empty(t, f.notifier.all())
	assert.Equal(t, int32(1), f.fetcher.calls.Load())
}

func TestImporterEligibilityGating(t *testing.T) {
	tests := []struct {
		name string
		wc   models.WorkContext
		cfg  *models.ProviderConfig
	}{
		{name: "tag context", wc: tagCtx("urgent"), cfg: &models.ProviderConfig{Enabled: true, AutoAddToBacklog: true, Repo: "acme/web"}},
		{name: "no context", wc: models.WorkContext{}, cfg: &models.ProviderConfig{Enabled: true, AutoAddToBacklog: true, Repo: "acme/web"}},
		{name: "missing config", wc: projectCtx("p"), cfg: nil},
		{name: "disabled", wc: projectCtx("p"), cfg: &models.ProviderConfig{AutoAddToBacklog: true, Repo: "acme/web"}},
		{name: "auto add off", wc: projectCtx("p"), cfg: &models.ProviderConfig{Enabled: true, Repo: "acme/web"}},
		{name: "malformed repo", wc: projectCtx("p"), cfg: &models.ProviderConfig{Enabled: true, AutoAddToBacklog: true, Repo: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newImporterFixture(issue("1", 1, "a"))
			f.contexts.set(tt.wc)
			f.configs.cfgs["p"] = tt.cfg

			result, err := f.importer.Tick(context.Background())
			require.NoError(t, err)
			assert.Empty(t, result.Created)
			assert.Zero(t, f.fetcher.calls.Load())
			assert.Empty(t, f.notifier.all())
		})
	}
}

func TestImporterFetchErrorAborts(t *testing.T) {
	f := newImporterFixture(issue("1", 1, "a"))
	f.fetcher.err = errors.New("connection refused")

	_, err := f.importer.Tick(context.Background())
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "p", fetchErr.ProjectID)
	assert.Equal(t, "acme/web", fetchErr.Repo)
	assert.True(t, IsFetchError(err))
	assert.Zero(t, f.tasks.createdCount())
	assert.Empty(t, f.notifier.all())
}

func TestImporterCreateErrorContinues(t *testing.T) {
	f := newImporterFixture(issue("1", 1, "broken"), issue("2", 2, "fine"))
	f.tasks.createErr = map[string]error{"1": errors.New("disk full")}

	result, err := f.importer.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Created, 1)

	notes := f.notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.KindImportedSingle, notes[0].Kind)
	assert.Equal(t, "#2 fine", notes[0].Message)
}

func TestImporterLookupError(t *testing.T) {
	f := newImporterFixture(issue("1", 1, "a"))
	f.configs.errs = map[string]error{"p": errors.New("db locked")}

	_, err := f.importer.Tick(context.Background())
	var lookupErr *LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Zero(t, f.fetcher.calls.Load())
}
