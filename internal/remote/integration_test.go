//go:build integration

package remote

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sandeepkv93/daylog/internal/config"
	"github.com/sandeepkv93/daylog/internal/model"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "daylog",
				"POSTGRES_PASSWORD": "daylog",
				"POSTGRES_DB":       "daylog",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://daylog:daylog@%s:%s/daylog?sslmode=disable", host, port.Port())
	require.NoError(t, Migrate(ctx, dsn))
	return dsn
}

func TestPostgresUpsertIsIdempotent(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	store, err := Open(ctx, config.RemoteConfig{DSN: dsn, Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer store.Close()

	created := time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)
	task := model.Task{UUID: "it-1", Date: "2026-02-09", Text: "first", CreatedAt: created, UpdatedAt: created.Add(time.Minute)}

	require.NoError(t, store.UpsertTasks(ctx, []model.Task{task}))
	require.NoError(t, store.UpsertTasks(ctx, []model.Task{task}))

	got, err := store.TasksModifiedAfter(ctx, model.Epoch)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, task.SyncEqual(got[0]))

	edited := task
	edited.Text = "edited"
	edited.Completed = true
	edited.UpdatedAt = created.Add(2 * time.Minute)
	require.NoError(t, store.UpsertTasks(ctx, []model.Task{edited}))

	got, err = store.TasksModifiedAfter(ctx, model.Epoch)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "edited", got[0].Text)
	assert.True(t, got[0].Completed)

	after, err := store.TasksModifiedAfter(ctx, edited.UpdatedAt)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestPostgresUpsertKeepsNewerRow(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	store, err := Open(ctx, config.RemoteConfig{DSN: dsn, Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer store.Close()

	created := time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)
	newer := model.Task{UUID: "it-2", Date: "2026-02-09", Text: "newer", CreatedAt: created, UpdatedAt: created.Add(5 * time.Minute)}
	stale := newer
	stale.Text = "stale"
	stale.Completed = true
	stale.UpdatedAt = created.Add(time.Minute)

	require.NoError(t, store.UpsertTasks(ctx, []model.Task{newer}))
	require.NoError(t, store.UpsertTasks(ctx, []model.Task{stale}))

	got, err := store.TasksModifiedAfter(ctx, model.Epoch)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, newer.SyncEqual(got[0]))

	summary := model.Summary{UUID: "it-s", Date: "2026-02-09", Text: "late", Rating: 4, CreatedAt: created, UpdatedAt: created.Add(5 * time.Minute)}
	old := summary
	old.Text = "early"
	old.UpdatedAt = created
	require.NoError(t, store.UpsertSummaries(ctx, []model.Summary{summary}))
	require.NoError(t, store.UpsertSummaries(ctx, []model.Summary{old}))

	sums, err := store.SummariesModifiedAfter(ctx, model.Epoch)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, "late", sums[0].Text)
}
