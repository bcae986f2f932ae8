package runner

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jwebster45206/scene-engine/internal/events"
	"github.com/jwebster45206/scene-engine/internal/handlers"
	"github.com/jwebster45206/scene-engine/internal/storage"
	"github.com/jwebster45206/scene-engine/pkg/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	casesDir = "../cases"
	dataDir  = "../../data"
)

// newTestAPI serves the real router over Redis storage backed by miniredis
// and the sample projects.
func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()

	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := storage.NewRedisStorage(mr.Addr(), dataDir, time.Hour, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	broadcaster := events.NewBroadcaster(store.Client(), logger)
	srv := httptest.NewServer(handlers.NewRouter(handlers.RouterConfig{
		Storage:    store,
		Publisher:  broadcaster,
		Subscriber: broadcaster,
		Logger:     logger,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func discoverCases(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(casesDir)
	require.NoError(t, err)

	var files []string
	for _, e := range entries {
		if !e.IsDir() && IsCaseFile(e.Name()) {
			files = append(files, filepath.Join(casesDir, e.Name()))
		}
	}
	require.NotEmpty(t, files)
	return files
}

func TestRunner_Cases(t *testing.T) {
	srv := newTestAPI(t)

	r := NewRunner(srv.URL)
	r.Logger = t.Logf

	for _, file := range discoverCases(t) {
		jobs, err := LoadTestSuiteWithExpansion(file, casesDir)
		require.NoError(t, err, file)

		for _, job := range jobs {
			t.Run(filepath.Base(file)+"/"+job.Name, func(t *testing.T) {
				result, err := r.RunSuite(context.Background(), job.Suite)
				for _, step := range result.Results {
					assert.True(t, step.Success, "%s: %v", step.StepName, step.Error)
				}
				assert.NoError(t, err)
				assert.Len(t, result.Results, len(job.Suite.Steps))
			})
		}
	}
}

func TestRunner_ReportsFailedExpectations(t *testing.T) {
	srv := newTestAPI(t)

	node := "nowhere"
	suite := TestSuite{
		Name:    "Failing",
		Project: "lighthouse.json",
		Steps: []TestStep{
			{Name: "wrong node", Input: "look", Expectations: Expectations{Node: &node}},
			{Name: "expects an error", Input: "look", Expectations: Expectations{ErrorKind: "unknown_hotspot"}},
			{Name: "fine", Input: "look"},
		},
	}

	r := NewRunner(srv.URL)
	result, err := r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	require.Len(t, result.Results, 3)
	assert.False(t, result.Results[0].Success)
	assert.False(t, result.Results[1].Success)
	assert.True(t, result.Results[2].Success)

	r.ErrorHandlingMode = ErrorHandlingExit
	result, err = r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Len(t, result.Results, 1)
}

func TestRunner_UnknownProject(t *testing.T) {
	srv := newTestAPI(t)

	r := NewRunner(srv.URL)
	_, err := r.RunSuite(context.Background(), TestSuite{Name: "Missing", Project: "missing.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project_not_found")
}

func TestLoadTestSuiteWithExpansion_Cycle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("name: A\ncases: [b.yaml]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("name: B\ncases: [a.yaml]\n"), 0o644))

	_, err := LoadTestSuiteWithExpansion(filepath.Join(dir, "a.yaml"), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestSampleProjects(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(dataDir, "projects", "lighthouse.json"))
	require.NoError(t, err)
	raw, err := normalize.ParseJSON(data)
	require.NoError(t, err)
	_, report := normalize.NormalizeWithReport(raw)
	assert.True(t, report.Clean(), "lighthouse.json should need no repairs: %v", report.Repairs)

	data, err = os.ReadFile(filepath.Join(dataDir, "projects", "cellar.yaml"))
	require.NoError(t, err)
	p, err := normalize.DecodeYAML(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"kitchen"}, p.StartNodes())
}
