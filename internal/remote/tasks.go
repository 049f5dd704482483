package remote

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/daylog/internal/model"
)

var taskColumns = []string{"uuid", "date", "text", "completed", "created_at", "updated_at", "deleted_at"}

// The WHERE clause makes re-sending an applied row a no-op and ignores a
// row older than the stored one. The stale writer converges on its next
// pull.
const taskUpsertSuffix = `ON CONFLICT (uuid) DO UPDATE SET
	date = EXCLUDED.date,
	text = EXCLUDED.text,
	completed = EXCLUDED.completed,
	created_at = EXCLUDED.created_at,
	updated_at = EXCLUDED.updated_at,
	deleted_at = EXCLUDED.deleted_at
WHERE (todos.date, todos.text, todos.completed, todos.created_at, todos.updated_at, todos.deleted_at)
		IS DISTINCT FROM
		(EXCLUDED.date, EXCLUDED.text, EXCLUDED.completed, EXCLUDED.created_at, EXCLUDED.updated_at, EXCLUDED.deleted_at)
	AND todos.updated_at <= EXCLUDED.updated_at`

type taskRow struct {
	UUID      string
	Date      string
	Text      string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

func taskToRow(t model.Task) taskRow {
	return taskRow{
		UUID:      t.UUID,
		Date:      t.Date,
		Text:      t.Text,
		Completed: t.Completed,
		CreatedAt: model.Stamp(t.CreatedAt),
		UpdatedAt: model.Stamp(t.UpdatedAt),
		DeletedAt: stampPtr(t.DeletedAt),
	}
}

func (r taskRow) toModel() model.Task {
	return model.Task{
		UUID:      r.UUID,
		Date:      r.Date,
		Text:      r.Text,
		Completed: r.Completed,
		CreatedAt: model.Stamp(r.CreatedAt),
		UpdatedAt: model.Stamp(r.UpdatedAt),
		DeletedAt: stampPtr(r.DeletedAt),
	}
}

// UpsertTasks writes tasks keyed by stable id. Rows without a stable id
// cannot be keyed and are skipped; duplicates within the batch collapse to
// the most recently modified row.
func (s *PostgresStore) UpsertTasks(ctx context.Context, tasks []model.Task) error {
	rows := dedupeTasks(tasks)
	for _, batch := range chunks(rows, s.batchSize) {
		q := psql.Insert(TasksTable).Columns(taskColumns...)
		for _, r := range batch {
			q = q.Values(r.UUID, r.Date, r.Text, r.Completed, r.CreatedAt, r.UpdatedAt, r.DeletedAt)
		}
		query, args, err := q.Suffix(taskUpsertSuffix).ToSql()
		if err != nil {
			return fmt.Errorf("build task upsert: %w", err)
		}

		callCtx, cancel := s.withTimeout(ctx)
		tag, err := s.db.Exec(callCtx, query, args...)
		cancel()
		if err != nil {
			return fmt.Errorf("upsert %s: %w", TasksTable, err)
		}
		s.log.WithFields(logrus.Fields{"sent": len(batch), "applied": tag.RowsAffected()}).Debug("tasks upserted")
	}
	return nil
}

// TasksModifiedAfter returns every row with updated_at strictly after ts.
func (s *PostgresStore) TasksModifiedAfter(ctx context.Context, ts time.Time) ([]model.Task, error) {
	query, args, err := psql.Select(taskColumns...).
		From(TasksTable).
		Where(sq.Gt{"updated_at": model.Stamp(ts)}).
		OrderBy("updated_at ASC", "uuid ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build task select: %w", err)
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.Query(callCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", TasksTable, err)
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		var r taskRow
		if err := rows.Scan(&r.UUID, &r.Date, &r.Text, &r.Completed, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", TasksTable, err)
		}
		out = append(out, r.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", TasksTable, err)
	}
	return out, nil
}

func dedupeTasks(tasks []model.Task) []taskRow {
	pos := make(map[string]int, len(tasks))
	out := make([]taskRow, 0, len(tasks))
	for _, t := range tasks {
		if t.UUID == "" {
			continue
		}
		row := taskToRow(t)
		if i, ok := pos[t.UUID]; ok {
			if row.UpdatedAt.After(out[i].UpdatedAt) {
				out[i] = row
			}
			continue
		}
		pos[t.UUID] = len(out)
		out = append(out, row)
	}
	return out
}

func stampPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := model.Stamp(*t)
	return &v
}
