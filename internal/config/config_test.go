package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("DAYLOG_CONFIG", "")
	return dir
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.RemoteEnabled())
	assert.Equal(t, 1200*time.Millisecond, cfg.Sync.InitialDelay)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 15*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 500, cfg.Remote.BatchSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filepath.Join(dir, "data", "daylog", "daylog.db"), cfg.Store.Path)
	assert.Equal(t, filepath.Join(dir, "data", "daylog", "changed.signal"), cfg.Sync.SignalFile)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DAYLOG_REMOTE_DSN", "postgres://u:p@localhost:5432/daylog")
	t.Setenv("DAYLOG_SYNC_INTERVAL", "30s")
	t.Setenv("DAYLOG_DB_PATH", "/tmp/custom.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.RemoteEnabled())
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, "/tmp/custom.db", cfg.Store.Path)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := isolate(t)
	path := writeYAML(t, dir, `
remote:
  dsn: "postgres://u:p@db:5432/daylog"
  batch_size: 50
sync:
  interval: "1m"
log:
  level: "debug"
  format: "json"
  file: "/tmp/daylog.log"
`)
	t.Setenv("DAYLOG_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/daylog", cfg.Remote.DSN)
	assert.Equal(t, 50, cfg.Remote.BatchSize)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 4, int(cfg.Remote.MaxConns))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("DAYLOG_CONFIG", filepath.Join(dir, "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	isolate(t)
	t.Setenv("DAYLOG_LOG_LEVEL", "chatty")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")

	t.Setenv("DAYLOG_LOG_LEVEL", "info")
	t.Setenv("DAYLOG_REMOTE_BATCH_SIZE", "0")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_size")
}
