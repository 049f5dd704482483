package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sandeepkv93/daylog/internal/model"
)

const summaryColumns = `id, uuid, user_id, date, text, rating, created_at, updated_at, deleted_at`

func (r *SQLiteRepository) AddSummary(ctx context.Context, in model.Summary) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO summaries (uuid, user_id, date, text, rating, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.UUID, in.UserID, in.Date, in.Text, in.Rating,
		model.FormatTimestamp(in.CreatedAt), model.FormatTimestamp(in.UpdatedAt), nullTime(in.DeletedAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateSummary(ctx context.Context, in model.Summary) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE summaries
		SET uuid = ?, user_id = ?, date = ?, text = ?, rating = ?, created_at = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		in.UUID, in.UserID, in.Date, in.Text, in.Rating,
		model.FormatTimestamp(in.CreatedAt), model.FormatTimestamp(in.UpdatedAt), nullTime(in.DeletedAt), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) GetSummary(ctx context.Context, id int64) (model.Summary, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+summaryColumns+` FROM summaries WHERE id = ?`, id)
	return oneSummary(row)
}

func (r *SQLiteRepository) ListSummaries(ctx context.Context) ([]model.Summary, error) {
	return r.querySummaries(ctx, `SELECT `+summaryColumns+` FROM summaries ORDER BY id ASC`)
}

// SummariesByDate returns every row for date, oldest modification first.
func (r *SQLiteRepository) SummariesByDate(ctx context.Context, date string) ([]model.Summary, error) {
	return r.querySummaries(ctx, `
		SELECT `+summaryColumns+` FROM summaries WHERE date = ?
		ORDER BY updated_at ASC, id ASC`, date)
}

func (r *SQLiteRepository) SummaryByStableID(ctx context.Context, uuid string) (model.Summary, error) {
	if uuid == "" {
		return model.Summary{}, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+summaryColumns+` FROM summaries WHERE uuid = ?
		ORDER BY updated_at DESC, id DESC LIMIT 1`, uuid)
	return oneSummary(row)
}

func (r *SQLiteRepository) SummariesModifiedAfter(ctx context.Context, ts time.Time) ([]model.Summary, error) {
	return r.querySummaries(ctx, `
		SELECT `+summaryColumns+` FROM summaries WHERE updated_at > ?
		ORDER BY updated_at ASC, id ASC`, model.FormatTimestamp(ts))
}

func (r *SQLiteRepository) querySummaries(ctx context.Context, query string, args ...any) ([]model.Summary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Summary, 0)
	for rows.Next() {
		item, scanErr := scanSummary(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func oneSummary(row *sql.Row) (model.Summary, error) {
	item, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Summary{}, ErrNotFound
		}
		return model.Summary{}, err
	}
	return item, nil
}

func scanSummary(s scanner) (model.Summary, error) {
	var out model.Summary
	var created, updated string
	var deleted sql.NullString
	if err := s.Scan(&out.ID, &out.UUID, &out.UserID, &out.Date, &out.Text, &out.Rating, &created, &updated, &deleted); err != nil {
		return model.Summary{}, err
	}
	var err error
	if out.CreatedAt, err = model.ParseTimestamp(created); err != nil {
		return model.Summary{}, err
	}
	if out.UpdatedAt, err = model.ParseTimestamp(updated); err != nil {
		return model.Summary{}, err
	}
	if out.DeletedAt, err = parseNullableTime(deleted); err != nil {
		return model.Summary{}, err
	}
	return out, nil
}
