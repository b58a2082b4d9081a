package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv(configFileENV, filepath.Join(t.TempDir(), "missing.yml"))

	cfg, err := New()
	require.NoError(t, err)

	// The test environment zeroes the port so listeners pick a free one.
	assert.Equal(t, 0, cfg.ServerPort)
	assert.Equal(t, ":memory:", cfg.DatabaseFilePath)
	assert.Equal(t, 3, cfg.PrefetchWorkers)
	assert.Equal(t, 1, cfg.WorkerProcesses)
	assert.Equal(t, 30*time.Second, cfg.EnrichmentTimeout)
}

func TestNewConfigFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dlshelf.yml")
	contents := "server_port: 8080\ntrash_dir: " + filepath.Join(dir, "trash") + "\nenrichment_timeout: 10s\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	t.Setenv("ENVIRONMENT", "test")
	t.Setenv(configFileENV, path)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, filepath.Join(dir, "trash"), cfg.TrashDir)
	assert.Equal(t, 10*time.Second, cfg.EnrichmentTimeout)
}

func TestNewEnvWinsOverConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dlshelf.yml")
	require.NoError(t, os.WriteFile(path, []byte("server_port: 8080\n"), 0o644))

	t.Setenv("ENVIRONMENT", "test")
	t.Setenv(configFileENV, path)
	t.Setenv("DLSHELF_SERVER_PORT", "9090")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
}
