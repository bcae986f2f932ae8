//go:build integration

package integration

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jwebster45206/scene-engine/integration/runner"
	"github.com/jwebster45206/scene-engine/internal/events"
	"github.com/jwebster45206/scene-engine/internal/handlers"
	"github.com/jwebster45206/scene-engine/internal/storage"
	"github.com/stretchr/testify/require"
)

const casesDir = "cases"

var (
	caseFlag    = flag.String("case", "", "Comma separated case files to run from integration/cases/ (default: all)")
	errFlag     = flag.String("err", "continue", "Step failure mode: 'continue' or 'exit'")
	projectFlag = flag.String("project", "", "Play every case against this project file instead of its own")
)

// baseURL returns the API under test. With API_BASE_URL unset the cases run
// against an in-process server backed by miniredis and the repo's data dir.
func baseURL(t *testing.T) string {
	t.Helper()
	if url := os.Getenv("API_BASE_URL"); url != "" {
		return url
	}

	mr := miniredis.RunT(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := storage.NewRedisStorage(mr.Addr(), filepath.Join("..", "data"), time.Hour, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	broadcaster := events.NewBroadcaster(store.Client(), log)
	srv := httptest.NewServer(handlers.NewRouter(handlers.RouterConfig{
		Storage:    store,
		Publisher:  broadcaster,
		Subscriber: broadcaster,
		Logger:     log,
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func caseFiles(t *testing.T) []string {
	t.Helper()
	if *caseFlag == "" {
		var files []string
		err := filepath.WalkDir(casesDir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && runner.IsCaseFile(path) {
				files = append(files, path)
			}
			return nil
		})
		require.NoError(t, err)
		return files
	}

	var files []string
	for _, name := range strings.Split(*caseFlag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		path := filepath.Join(casesDir, name)
		if !runner.IsCaseFile(path) {
			path += ".yaml"
		}
		files = append(files, path)
	}
	return files
}

func TestCases(t *testing.T) {
	mode := runner.ErrorHandlingMode(*errFlag)
	if mode != runner.ErrorHandlingExit && mode != runner.ErrorHandlingContinue {
		t.Fatalf("invalid -err value %q", *errFlag)
	}

	r := runner.NewRunner(baseURL(t))
	r.Timeout = time.Duration(intEnv("TEST_TIMEOUT_SECONDS", 30)) * time.Second
	r.ErrorHandlingMode = mode
	r.ProjectOverride = *projectFlag
	r.Logger = t.Logf

	files := caseFiles(t)
	require.NotEmpty(t, files, "no case files found")

	var jobs []runner.TestJob
	for _, file := range files {
		expanded, err := runner.LoadTestSuiteWithExpansion(file, casesDir)
		require.NoError(t, err, "loading %s", file)
		jobs = append(jobs, expanded...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	for _, job := range jobs {
		t.Run(job.Name, func(t *testing.T) {
			result, err := r.RunSuite(ctx, job.Suite)
			if err != nil && result.Error == nil {
				result.Error = err
			}
			t.Logf("session %s, %v", result.Session, result.Duration)

			for _, step := range result.Results {
				switch {
				case step.Success && step.IsReset:
					t.Logf("reset: %s", step.StepName)
				case step.Success:
					t.Logf("ok: %s", step.StepName)
				default:
					t.Errorf("%s: %v", step.StepName, step.Error)
				}
			}
			if result.Error != nil {
				t.Errorf("suite failed: %v", result.Error)
			}
		})
	}
}

func intEnv(name string, def int) int {
	v, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return def
	}
	return v
}
