package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/daylog/internal/model"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "daylog-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(context.Background(), db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func TestTaskCRUDAndQueries(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")

	task := model.Task{
		UUID:       "task-uuid-1",
		UserID:     "user-1",
		Date:       "2026-02-09",
		Text:       "Write schema",
		DueMinutes: 25,
		RuleID:     7,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	id, err := repo.AddTask(ctx, task)
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	got, err := repo.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Text != "Write schema" || got.DueMinutes != 25 || got.RuleID != 7 || got.Completed {
		t.Fatalf("unexpected task: %+v", got)
	}
	if !got.CreatedAt.Equal(created) || got.DeletedAt != nil {
		t.Fatalf("unexpected timestamps: %+v", got)
	}

	got.Completed = true
	got.UpdatedAt = created.Add(time.Minute)
	if err := repo.UpdateTask(ctx, got); err != nil {
		t.Fatalf("update task: %v", err)
	}

	byDate, err := repo.TasksByDate(ctx, "2026-02-09")
	if err != nil {
		t.Fatalf("tasks by date: %v", err)
	}
	if len(byDate) != 1 || !byDate[0].Completed {
		t.Fatalf("unexpected tasks by date: %+v", byDate)
	}

	byRule, err := repo.TasksByRule(ctx, 7)
	if err != nil {
		t.Fatalf("tasks by rule: %v", err)
	}
	if len(byRule) != 1 {
		t.Fatalf("expected one task for rule, got %d", len(byRule))
	}

	byUUID, err := repo.TaskByStableID(ctx, "task-uuid-1")
	if err != nil {
		t.Fatalf("task by uuid: %v", err)
	}
	if byUUID.ID != id {
		t.Fatalf("unexpected task by uuid: %+v", byUUID)
	}

	deletedAt := created.Add(2 * time.Minute)
	if err := repo.SoftDeleteTask(ctx, id, deletedAt); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	got, err = repo.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got.DeletedAt == nil || !got.DeletedAt.Equal(deletedAt) || !got.UpdatedAt.Equal(deletedAt) {
		t.Fatalf("expected soft deletion stamps, got %+v", got)
	}
}

func TestUpdateMissingRecordReturnsNotFound(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if err := repo.UpdateTask(ctx, model.Task{ID: 404, Text: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for task, got %v", err)
	}
	if err := repo.UpdateSummary(ctx, model.Summary{ID: 404}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for summary, got %v", err)
	}
	if err := repo.UpdateRule(ctx, model.RecurrenceRule{ID: 404, Text: "x", Type: model.RecurrenceDaily}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for rule, got %v", err)
	}
	if _, err := repo.GetTask(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on get, got %v", err)
	}
	if _, err := repo.TaskByStableID(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty uuid, got %v", err)
	}
}

func TestTasksModifiedAfterUsesStrictComparison(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := parseRFC3339(t, "2026-02-09T08:00:00Z")

	for i, text := range []string{"legacy", "at-watermark", "after"} {
		task := model.Task{Date: "2026-02-09", Text: text, CreatedAt: base}
		switch i {
		case 1:
			task.UpdatedAt = base
		case 2:
			task.UpdatedAt = base.Add(time.Millisecond)
		}
		if _, err := repo.AddTask(ctx, task); err != nil {
			t.Fatalf("add %s: %v", text, err)
		}
	}

	got, err := repo.TasksModifiedAfter(ctx, base)
	if err != nil {
		t.Fatalf("modified after: %v", err)
	}
	if len(got) != 1 || got[0].Text != "after" {
		t.Fatalf("unexpected modified tasks: %+v", got)
	}

	all, err := repo.TasksModifiedAfter(ctx, model.Epoch)
	if err != nil {
		t.Fatalf("modified after epoch: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("legacy row without updated_at must not be returned, got %d rows", len(all))
	}
}

func TestSummaryQueries(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := parseRFC3339(t, "2026-02-09T20:00:00Z")

	first := model.Summary{UUID: "s-1", Date: "2026-02-09", Text: "ok day", Rating: 3.5, CreatedAt: base, UpdatedAt: base}
	second := model.Summary{UUID: "s-2", Date: "2026-02-09", Text: "better", Rating: 4, CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)}
	for _, s := range []model.Summary{second, first} {
		if _, err := repo.AddSummary(ctx, s); err != nil {
			t.Fatalf("add summary: %v", err)
		}
	}

	rows, err := repo.SummariesByDate(ctx, "2026-02-09")
	if err != nil {
		t.Fatalf("summaries by date: %v", err)
	}
	if len(rows) != 2 || rows[0].UUID != "s-1" || rows[1].Rating != 4 {
		t.Fatalf("expected rows ordered by modification, got %+v", rows)
	}

	got, err := repo.SummaryByStableID(ctx, "s-2")
	if err != nil {
		t.Fatalf("summary by uuid: %v", err)
	}
	got.Text = "best"
	if err := repo.UpdateSummary(ctx, got); err != nil {
		t.Fatalf("update summary: %v", err)
	}
	reloaded, err := repo.GetSummary(ctx, got.ID)
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if reloaded.Text != "best" {
		t.Fatalf("unexpected summary text %q", reloaded.Text)
	}

	modified, err := repo.SummariesModifiedAfter(ctx, base)
	if err != nil {
		t.Fatalf("summaries modified after: %v", err)
	}
	if len(modified) != 1 || modified[0].UUID != "s-2" {
		t.Fatalf("unexpected modified summaries: %+v", modified)
	}
}

func TestRuleRoundTrip(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-01T09:00:00Z")

	id, err := repo.AddRule(ctx, model.RecurrenceRule{
		UUID:      "rule-1",
		Text:      "Gym",
		Type:      model.RecurrenceWeekly,
		Weekdays:  []time.Weekday{time.Monday, time.Friday},
		StartDate: "2026-02-01",
		CreatedAt: created,
		UpdatedAt: created,
	})
	if err != nil {
		t.Fatalf("add rule: %v", err)
	}

	rule, err := repo.GetRule(ctx, id)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if len(rule.Weekdays) != 2 || rule.Weekdays[1] != time.Friday {
		t.Fatalf("unexpected weekdays: %v", rule.Weekdays)
	}

	if err := repo.SoftDeleteRule(ctx, id, created.Add(time.Hour)); err != nil {
		t.Fatalf("soft delete rule: %v", err)
	}
	rules, err := repo.ListRules(ctx)
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	if len(rules) != 1 || !rules[0].Deleted() {
		t.Fatalf("expected one deleted rule, got %+v", rules)
	}

	byUUID, err := repo.RuleByStableID(ctx, "rule-1")
	if err != nil || byUUID.ID != id {
		t.Fatalf("rule by uuid: %+v (%v)", byUUID, err)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	var watermark string
	found, err := repo.GetMeta(ctx, model.MetaLastSyncAt, &watermark)
	if err != nil || found {
		t.Fatalf("expected missing key, got found=%v err=%v", found, err)
	}

	if err := repo.SetMeta(ctx, model.MetaLastSyncAt, "2026-02-09T08:00:00.000Z"); err != nil {
		t.Fatalf("set meta: %v", err)
	}
	if err := repo.SetMeta(ctx, model.MetaLastSyncAt, "2026-02-09T09:00:00.000Z"); err != nil {
		t.Fatalf("overwrite meta: %v", err)
	}
	found, err = repo.GetMeta(ctx, model.MetaLastSyncAt, &watermark)
	if err != nil || !found {
		t.Fatalf("get meta: found=%v err=%v", found, err)
	}
	if watermark != "2026-02-09T09:00:00.000Z" {
		t.Fatalf("unexpected watermark %q", watermark)
	}

	type timerSnapshot struct {
		Mode      string `json:"mode"`
		Remaining int    `json:"remaining"`
	}
	if err := repo.SetMeta(ctx, model.MetaTimer, timerSnapshot{Mode: "focus", Remaining: 900}); err != nil {
		t.Fatalf("set timer: %v", err)
	}
	var snap timerSnapshot
	if _, err := repo.GetMeta(ctx, model.MetaTimer, &snap); err != nil {
		t.Fatalf("get timer: %v", err)
	}
	if snap.Remaining != 900 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestOpenSQLiteCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "daylog.db")
	repo, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer repo.Close()

	if _, err := repo.AddTask(context.Background(), model.Task{Date: "2026-02-09", Text: "x"}); err != nil {
		t.Fatalf("add after open: %v", err)
	}
}
