package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

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
	t.Setenv("DAYLOG_REMOTE_DSN", "")
	t.Setenv("DAYLOG_LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAddListDone(t *testing.T) {
	isolate(t)

	out, err := run(t, "add", "write", "tests", "--due", "30")
	require.NoError(t, err)
	assert.Contains(t, out, `added "write tests"`)

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1. [ ] write tests (~30m)")

	out, err = run(t, "done", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `completed "write tests"`)

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1. [x] write tests")

	_, err = run(t, "done", "5")
	assert.Error(t, err)
	_, err = run(t, "done", "zero")
	assert.Error(t, err)
}

func TestAddWritesChangeSignal(t *testing.T) {
	dir := isolate(t)
	_, err := run(t, "add", "ping")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "data", "daylog", "changed.signal"))
	assert.NoError(t, err)
}

func TestSummaryAndRules(t *testing.T) {
	isolate(t)

	_, err := run(t, "summary", "good", "day", "--rating", "4")
	require.NoError(t, err)
	out, err := run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "summary (4.0/5): good day")

	_, err = run(t, "summary", "--rating", "4.2")
	assert.Error(t, err)

	out, err = run(t, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared summary")

	out, err = run(t, "rule", "daily", "stretch")
	require.NoError(t, err)
	assert.Contains(t, out, "rule added: stretch")

	out, err = run(t, "rule", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1. stretch")

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "stretch")

	out, err = run(t, "rule", "del", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "rule deleted")
}

func TestSyncAndStatusWithoutRemote(t *testing.T) {
	isolate(t)

	out, err := run(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Disabled")

	out, err = run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "status:    Disabled")
	assert.Contains(t, out, "watermark: 1970-01-01T00:00:00.000Z")

	_, err = run(t, "remote", "migrate")
	assert.Error(t, err)
}

func TestTheme(t *testing.T) {
	isolate(t)

	out, err := run(t, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	out, err = run(t, "theme", "dark")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	_, err = run(t, "theme", "sepia")
	assert.Error(t, err)
}
