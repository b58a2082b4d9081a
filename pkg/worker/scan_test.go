package worker

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/dlshelf/dlshelf/pkg/catalog"
	"github.com/dlshelf/dlshelf/pkg/config"
	"github.com/dlshelf/dlshelf/pkg/jobs"
	"github.com/dlshelf/dlshelf/pkg/metadata"
	"github.com/dlshelf/dlshelf/pkg/migrations"
	"github.com/dlshelf/dlshelf/pkg/models"
	"github.com/dlshelf/dlshelf/pkg/watchpaths"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// mockSource serves canned metadata keyed by identifier and records calls.
type mockSource struct {
	metadata map[string]*metadata.Metadata
	errs     map[string]error
	calls    []string
}

func (m *mockSource) Fetch(_ context.Context, code string) (*metadata.Metadata, error) {
	m.calls = append(m.calls, code)
	if err, ok := m.errs[code]; ok {
		return nil, err
	}
	if md, ok := m.metadata[code]; ok {
		return md, nil
	}
	return nil, &metadata.NetworkError{URL: "mock://" + code, Err: errors.New("no such product")}
}

// mockCoverCache pretends every folder gets a cover without touching the
// network.
type mockCoverCache struct {
	err   error
	calls []string
}

func (m *mockCoverCache) EnsureCoverImage(_ context.Context, folderPath string, urls []string) (string, error) {
	m.calls = append(m.calls, folderPath)
	if m.err != nil {
		return "", m.err
	}
	if len(urls) == 0 {
		return "", nil
	}
	return filepath.Join(folderPath, models.ThumbDirName, "00.jpg"), nil
}

type testContext struct {
	t      *testing.T
	db     *bun.DB
	worker *Worker
	source *mockSource
	covers *mockCoverCache
}

func newTestContext(t *testing.T) *testContext {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	source := &mockSource{metadata: map[string]*metadata.Metadata{}, errs: map[string]error{}}
	covers := &mockCoverCache{}

	cfg := &config.Config{WorkerProcesses: 1}

	return &testContext{
		t:      t,
		db:     db,
		worker: New(cfg, db, source, covers),
		source: source,
		covers: covers,
	}
}

func (tc *testContext) addWatchPath(path string) {
	tc.t.Helper()
	svc := watchpaths.NewService(tc.db)
	require.NoError(tc.t, svc.CreateWatchPath(context.Background(), &models.WatchPath{Filepath: path}))
}

func (tc *testContext) addMetadata(code, title string) {
	tc.source.metadata[code] = &metadata.Metadata{
		Identifier: code,
		Title:      title,
		Publisher:  "Circle Nimbus",
		Categories: []string{"Game"},
		Genres:     []string{"Fantasy", "RPG"},
		ImageURLs:  []string{"//img.example.com/main.jpg"},
		Rating:     4.2,
	}
}

// runScan executes one scan job synchronously and returns its final report.
func (tc *testContext) runScan() *models.ScanReport {
	tc.t.Helper()
	ctx := context.Background()

	jobService := jobs.NewService(tc.db)
	job := &models.Job{
		Type:       models.JobTypeScan,
		Status:     models.JobStatusPending,
		DataParsed: &models.ScanReport{},
	}
	require.NoError(tc.t, jobService.CreateJob(ctx, job))

	require.NoError(tc.t, tc.worker.ProcessScanJob(ctx, job))

	job, err := jobService.RetrieveJob(ctx, jobs.RetrieveJobOptions{ID: &job.ID})
	require.NoError(tc.t, err)

	report, ok := job.DataParsed.(*models.ScanReport)
	require.True(tc.t, ok)
	return report
}

func (tc *testContext) listEntries() []*models.Entry {
	tc.t.Helper()
	entries, err := catalog.NewService(tc.db).ListEntries(context.Background(), catalog.ListEntriesOptions{})
	require.NoError(tc.t, err)
	return entries
}

func createGameFolder(t *testing.T, root, name string, executables ...string) string {
	t.Helper()

	folder := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(folder, 0o755))
	for _, exe := range executables {
		path := filepath.Join(folder, exe)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("MZ"), 0o644))
	}
	return folder
}

func TestProcessScanJob_RegistersFolder(t *testing.T) {
	tc := newTestContext(t)

	root := t.TempDir()
	tc.addWatchPath(root)
	tc.addMetadata("RJ123456", "Magical Quest")
	folder := createGameFolder(t, root, "RJ123456 Magical Quest", "start.exe", "bin/config.exe")

	report := tc.runScan()
	assert.Equal(t, 1, report.Registered)
	assert.Empty(t, report.Skipped)
	assert.Empty(t, report.NoIdentifier)

	entries := tc.listEntries()
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "RJ123456", entry.Identifier)
	assert.Equal(t, "Magical Quest", entry.Title)
	assert.Equal(t, "Circle Nimbus", entry.Publisher)
	assert.Equal(t, "Game", entry.Category)
	assert.Equal(t, "Fantasy,RPG", entry.Tags)
	assert.InDelta(t, 4.2, entry.Rating, 0.001)
	assert.Equal(t, filepath.Clean(folder), entry.FolderPath)
	assert.ElementsMatch(t, []string{"start.exe", filepath.Join("bin", "config.exe")}, entry.Executables)
	require.NotNil(t, entry.CoverImagePath)
	assert.Equal(t, filepath.Join(folder, models.ThumbDirName, "00.jpg"), *entry.CoverImagePath)
}

func TestProcessScanJob_RescanSkipsRegistered(t *testing.T) {
	tc := newTestContext(t)

	root := t.TempDir()
	tc.addWatchPath(root)
	tc.addMetadata("RJ123456", "Magical Quest")
	createGameFolder(t, root, "RJ123456 Magical Quest", "start.exe")

	report := tc.runScan()
	assert.Equal(t, 1, report.Registered)

	// Second run: nothing new, the folder counts as skipped, and the
	// metadata source isn't consulted again.
	fetchesAfterFirst := len(tc.source.calls)
	report = tc.runScan()
	assert.Zero(t, report.Registered)
	assert.Len(t, report.Skipped, 1)
	assert.Len(t, tc.source.calls, fetchesAfterFirst)

	assert.Len(t, tc.listEntries(), 1)
}

func TestProcessScanJob_NoIdentifier(t *testing.T) {
	tc := newTestContext(t)

	root := t.TempDir()
	tc.addWatchPath(root)
	folder := createGameFolder(t, root, "Some Random Folder", "start.exe")

	report := tc.runScan()
	assert.Zero(t, report.Registered)
	assert.Equal(t, []string{filepath.Clean(folder)}, report.NoIdentifier)
	assert.Empty(t, tc.source.calls)
	assert.Empty(t, tc.listEntries())
}

func TestProcessScanJob_EnrichmentFailure(t *testing.T) {
	tc := newTestContext(t)

	root := t.TempDir()
	tc.addWatchPath(root)
	tc.source.errs["RJ123456"] = &metadata.NetworkError{URL: "mock://RJ123456", Err: errors.New("timeout")}
	folder := createGameFolder(t, root, "RJ123456 Magical Quest", "start.exe")

	report := tc.runScan()
	assert.Zero(t, report.Registered)
	assert.Equal(t, []string{filepath.Clean(folder)}, report.EnrichmentFailed)
	assert.Empty(t, tc.listEntries())
}

func TestProcessScanJob_NoExecutableNotPersisted(t *testing.T) {
	tc := newTestContext(t)

	root := t.TempDir()
	tc.addWatchPath(root)
	tc.addMetadata("RJ123456", "Magical Quest")
	folder := createGameFolder(t, root, "RJ123456 Magical Quest")

	report := tc.runScan()
	assert.Zero(t, report.Registered)
	assert.Equal(t, []string{filepath.Clean(folder)}, report.NoExecutable)
	assert.Empty(t, tc.listEntries())

	// The folder is revisited on the next run once an executable appears.
	require.NoError(t, os.WriteFile(filepath.Join(folder, "start.exe"), []byte("MZ"), 0o644))

	report = tc.runScan()
	assert.Equal(t, 1, report.Registered)
	assert.Len(t, tc.listEntries(), 1)
}

func TestProcessScanJob_CoverFailureDegrades(t *testing.T) {
	tc := newTestContext(t)

	root := t.TempDir()
	tc.addWatchPath(root)
	tc.addMetadata("RJ123456", "Magical Quest")
	tc.covers.err = errors.New("disk full")
	createGameFolder(t, root, "RJ123456 Magical Quest", "start.exe")

	report := tc.runScan()
	assert.Equal(t, 1, report.Registered)

	entries := tc.listEntries()
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].CoverImagePath)
}

func TestProcessScanJob_MissingWatchPathSkipped(t *testing.T) {
	tc := newTestContext(t)

	tc.addWatchPath(filepath.Join(t.TempDir(), "does-not-exist"))

	root := t.TempDir()
	tc.addWatchPath(root)
	tc.addMetadata("RJ123456", "Magical Quest")
	createGameFolder(t, root, "RJ123456 Magical Quest", "start.exe")

	report := tc.runScan()
	assert.Equal(t, 1, report.Registered)
}

func TestProcessScanJob_IgnoresLooseFiles(t *testing.T) {
	tc := newTestContext(t)

	root := t.TempDir()
	tc.addWatchPath(root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("hi"), 0o644))

	report := tc.runScan()
	assert.Zero(t, report.Registered)
	assert.Empty(t, report.NoIdentifier)
}

func TestFindExecutables(t *testing.T) {
	t.Parallel()

	folder := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(folder, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "Start.EXE"), []byte("MZ"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "bin", "tool.exe"), []byte("MZ"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "notes.txt"), []byte("hi"), 0o644))

	executables, err := FindExecutables(folder)
	require.NoError(t, err)
	assert.ElementsMatch(t, models.StringList{"Start.EXE", filepath.Join("bin", "tool.exe")}, executables)
}
