package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"postpack/internal/config"
	"postpack/internal/database"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeTree(t *testing.T, dist string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dist, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dist, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dist, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dist, "sub", "c.txt"), []byte("c"), 0o644))
}

func TestRunOnceScenario(t *testing.T) {
	dist := filepath.Join(t.TempDir(), "dist")
	writeTree(t, dist)
	logger, _ := logtest.NewNullLogger()

	var out bytes.Buffer
	res, err := RunOnceWithDB(context.Background(), config.Default(), dist, logger, nil, &out)

	require.NoError(t, err)
	assert.Equal(t, "Deleted 3 file(s).\n", out.String())
	assert.Equal(t, 3, res.Deleted)

	remaining, err := os.ReadDir(dist)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRunOnceIsIdempotent(t *testing.T) {
	dist := filepath.Join(t.TempDir(), "dist")
	writeTree(t, dist)
	logger, _ := logtest.NewNullLogger()

	var first, second bytes.Buffer
	_, err := RunOnceWithDB(context.Background(), nil, dist, logger, nil, &first)
	require.NoError(t, err)
	_, err = RunOnceWithDB(context.Background(), nil, dist, logger, nil, &second)
	require.NoError(t, err)

	assert.Equal(t, "Deleted 3 file(s).\n", first.String())
	assert.Equal(t, "Deleted 0 file(s).\n", second.String())
}

func TestRunOnceMissingOutputDir(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	var out bytes.Buffer
	res, err := RunOnceWithDB(context.Background(), nil, filepath.Join(t.TempDir(), "dist"), logger, nil, &out)

	require.NoError(t, err)
	assert.Equal(t, "Deleted 0 file(s).\n", out.String())
	assert.Zero(t, res.Failed)
	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, "cannot list output directory, nothing to delete", e.Message)
	}
}

func TestRunOnceUnlistableOutputDir(t *testing.T) {
	dist := filepath.Join(t.TempDir(), "dist")
	require.NoError(t, os.WriteFile(dist, []byte("not a directory"), 0o644))
	logger, hook := logtest.NewNullLogger()

	var out bytes.Buffer
	_, err := RunOnceWithDB(context.Background(), nil, dist, logger, nil, &out)

	require.NoError(t, err)
	assert.Equal(t, "Deleted 0 file(s).\n", out.String())
	require.NotNil(t, hook.LastEntry())
	assert.FileExists(t, dist)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Message == "cannot list output directory, nothing to delete" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRunOnceDefaultOutputDir(t *testing.T) {
	project := t.TempDir()
	chdirForTest(t, project)
	writeTree(t, "dist")
	logger, _ := logtest.NewNullLogger()

	var out bytes.Buffer
	_, err := RunOnce(context.Background(), nil, logger, &out)

	require.NoError(t, err)
	assert.Equal(t, "Deleted 3 file(s).\n", out.String())
	assert.DirExists(t, filepath.Join(project, "dist"))
}

func TestRunOnceRecordsHistoryAndMetrics(t *testing.T) {
	tmp := t.TempDir()
	dist := filepath.Join(tmp, "dist")
	writeTree(t, dist)

	cfg := config.Default()
	cfg.DatabasePath = filepath.Join(tmp, "history.db")
	cfg.Metrics.Textfile = filepath.Join(tmp, "postpack.prom")

	db, err := database.NewDeletionDB(cfg.DatabasePath)
	require.NoError(t, err)
	defer db.Close()

	logger, _ := logtest.NewNullLogger()
	var out bytes.Buffer
	_, err = RunOnceWithDB(context.Background(), cfg, dist, logger, db, &out)
	require.NoError(t, err)

	runs, err := db.GetRunSummaries(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].Deleted)
	assert.Equal(t, int64(3), runs[0].BytesFreed)
	assert.NotEmpty(t, runs[0].RunID)

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "postpack_last_run_deleted_entries 3")
}

func TestRunOnceProtectsConfiguredArtifacts(t *testing.T) {
	dist := filepath.Join(t.TempDir(), "dist")
	writeTree(t, dist)

	cfg := config.Default()
	cfg.Logging.File = filepath.Join(dist, "sub", "postpack.log")

	logger, _ := logtest.NewNullLogger()
	var out bytes.Buffer
	_, err := RunOnceWithDB(context.Background(), cfg, dist, logger, nil, &out)

	require.NoError(t, err)
	assert.Equal(t, "Deleted 2 file(s).\n", out.String())
	assert.DirExists(t, filepath.Join(dist, "sub"))
}

func TestRunOnceCancelledContext(t *testing.T) {
	dist := filepath.Join(t.TempDir(), "dist")
	writeTree(t, dist)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := RunOnceWithDB(ctx, nil, dist, nil, nil, &out)

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, out.String())
	assert.FileExists(t, filepath.Join(dist, "a.txt"))
}

func TestRunOnceNilWriter(t *testing.T) {
	_, err := RunOnceWithDB(context.Background(), nil, t.TempDir(), nil, nil, nil)
	assert.Error(t, err)
}

// chdirForTest mirrors testing.T.Chdir (Go 1.24+) for older toolchains:
// it changes the working directory and restores it when the test ends.
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(dir) {
		if dir, err = os.Getwd(); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			panic("restoring working directory: " + err.Error())
		}
	})
}
