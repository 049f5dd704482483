package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/daylog/internal/model"
)

const taskColumns = `id, uuid, user_id, date, text, completed, due_minutes, rule_id, carried_from, created_at, updated_at, deleted_at`

type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return &SQLiteRepository{db: db}, nil
}

// OpenSQLite opens the store at path, creating parent directories, and
// applies pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create dir: %w", ErrUnavailable, err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", ErrUnavailable, err)
	}
	// One connection keeps per-connection pragmas in effect and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: enable wal: %w", ErrUnavailable, err)
	}
	if err := MigrateUp(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) AddTask(ctx context.Context, in model.Task) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (uuid, user_id, date, text, completed, due_minutes, rule_id, carried_from, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.UUID, in.UserID, in.Date, in.Text, boolInt(in.Completed), in.DueMinutes, nullID(in.RuleID), in.CarriedFrom,
		model.FormatTimestamp(in.CreatedAt), model.FormatTimestamp(in.UpdatedAt), nullTime(in.DeletedAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, in model.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET uuid = ?, user_id = ?, date = ?, text = ?, completed = ?, due_minutes = ?, rule_id = ?, carried_from = ?,
			created_at = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		in.UUID, in.UserID, in.Date, in.Text, boolInt(in.Completed), in.DueMinutes, nullID(in.RuleID), in.CarriedFrom,
		model.FormatTimestamp(in.CreatedAt), model.FormatTimestamp(in.UpdatedAt), nullTime(in.DeletedAt), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id int64) (model.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return oneTask(row)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context) ([]model.Task, error) {
	return r.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id ASC`)
}

func (r *SQLiteRepository) TasksByDate(ctx context.Context, date string) ([]model.Task, error) {
	return r.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE date = ? ORDER BY id ASC`, date)
}

func (r *SQLiteRepository) TasksByRule(ctx context.Context, ruleID int64) ([]model.Task, error) {
	return r.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE rule_id = ? ORDER BY date ASC, id ASC`, ruleID)
}

// TaskByStableID returns the most recently modified task with the given
// stable id.
func (r *SQLiteRepository) TaskByStableID(ctx context.Context, uuid string) (model.Task, error) {
	if uuid == "" {
		return model.Task{}, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE uuid = ?
		ORDER BY updated_at DESC, id DESC LIMIT 1`, uuid)
	return oneTask(row)
}

func (r *SQLiteRepository) TasksModifiedAfter(ctx context.Context, ts time.Time) ([]model.Task, error) {
	return r.queryTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE updated_at > ?
		ORDER BY updated_at ASC, id ASC`, model.FormatTimestamp(ts))
}

func (r *SQLiteRepository) SoftDeleteTask(ctx context.Context, id int64, at time.Time) error {
	stamp := model.FormatTimestamp(at)
	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET deleted_at = ?, updated_at = ? WHERE id = ?`, stamp, stamp, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) queryTasks(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func oneTask(row *sql.Row) (model.Task, error) {
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return model.FormatTimestamp(*v)
}

func nullID(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := model.ParseTimestamp(v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var completed int
	var ruleID sql.NullInt64
	var created, updated string
	var deleted sql.NullString
	if err := s.Scan(&out.ID, &out.UUID, &out.UserID, &out.Date, &out.Text, &completed, &out.DueMinutes, &ruleID,
		&out.CarriedFrom, &created, &updated, &deleted); err != nil {
		return model.Task{}, err
	}
	var err error
	if out.CreatedAt, err = model.ParseTimestamp(created); err != nil {
		return model.Task{}, err
	}
	if out.UpdatedAt, err = model.ParseTimestamp(updated); err != nil {
		return model.Task{}, err
	}
	if out.DeletedAt, err = parseNullableTime(deleted); err != nil {
		return model.Task{}, err
	}
	out.Completed = completed == 1
	out.RuleID = ruleID.Int64
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
