package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/daylog/internal/model"
)

const ruleColumns = `id, uuid, user_id, text, rule_type, weekdays, day, month, interval_value, unit, due_minutes, start_date, created_at, updated_at, deleted_at`

func (r *SQLiteRepository) AddRule(ctx context.Context, in model.RecurrenceRule) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurrence_rules (uuid, user_id, text, rule_type, weekdays, day, month, interval_value, unit, due_minutes, start_date, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.UUID, in.UserID, in.Text, in.Type, joinWeekdays(in.Weekdays), in.Day, int(in.Month), in.Interval, in.Unit,
		in.DueMinutes, in.StartDate, model.FormatTimestamp(in.CreatedAt), model.FormatTimestamp(in.UpdatedAt), nullTime(in.DeletedAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateRule(ctx context.Context, in model.RecurrenceRule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurrence_rules
		SET uuid = ?, user_id = ?, text = ?, rule_type = ?, weekdays = ?, day = ?, month = ?, interval_value = ?, unit = ?,
			due_minutes = ?, start_date = ?, created_at = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		in.UUID, in.UserID, in.Text, in.Type, joinWeekdays(in.Weekdays), in.Day, int(in.Month), in.Interval, in.Unit,
		in.DueMinutes, in.StartDate, model.FormatTimestamp(in.CreatedAt), model.FormatTimestamp(in.UpdatedAt), nullTime(in.DeletedAt), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) GetRule(ctx context.Context, id int64) (model.RecurrenceRule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM recurrence_rules WHERE id = ?`, id)
	return oneRule(row)
}

func (r *SQLiteRepository) ListRules(ctx context.Context) ([]model.RecurrenceRule, error) {
	return r.queryRules(ctx, `SELECT `+ruleColumns+` FROM recurrence_rules ORDER BY id ASC`)
}

func (r *SQLiteRepository) RuleByStableID(ctx context.Context, uuid string) (model.RecurrenceRule, error) {
	if uuid == "" {
		return model.RecurrenceRule{}, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+ruleColumns+` FROM recurrence_rules WHERE uuid = ?
		ORDER BY updated_at DESC, id DESC LIMIT 1`, uuid)
	return oneRule(row)
}

func (r *SQLiteRepository) RulesModifiedAfter(ctx context.Context, ts time.Time) ([]model.RecurrenceRule, error) {
	return r.queryRules(ctx, `
		SELECT `+ruleColumns+` FROM recurrence_rules WHERE updated_at > ?
		ORDER BY updated_at ASC, id ASC`, model.FormatTimestamp(ts))
}

func (r *SQLiteRepository) SoftDeleteRule(ctx context.Context, id int64, at time.Time) error {
	stamp := model.FormatTimestamp(at)
	res, err := r.db.ExecContext(ctx, `UPDATE recurrence_rules SET deleted_at = ?, updated_at = ? WHERE id = ?`, stamp, stamp, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) queryRules(ctx context.Context, query string, args ...any) ([]model.RecurrenceRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.RecurrenceRule, 0)
	for rows.Next() {
		item, scanErr := scanRule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func oneRule(row *sql.Row) (model.RecurrenceRule, error) {
	item, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RecurrenceRule{}, ErrNotFound
		}
		return model.RecurrenceRule{}, err
	}
	return item, nil
}

func scanRule(s scanner) (model.RecurrenceRule, error) {
	var out model.RecurrenceRule
	var weekdays string
	var month int
	var created, updated string
	var deleted sql.NullString
	if err := s.Scan(&out.ID, &out.UUID, &out.UserID, &out.Text, &out.Type, &weekdays, &out.Day, &month, &out.Interval,
		&out.Unit, &out.DueMinutes, &out.StartDate, &created, &updated, &deleted); err != nil {
		return model.RecurrenceRule{}, err
	}
	var err error
	if out.Weekdays, err = splitWeekdays(weekdays); err != nil {
		return model.RecurrenceRule{}, err
	}
	if out.CreatedAt, err = model.ParseTimestamp(created); err != nil {
		return model.RecurrenceRule{}, err
	}
	if out.UpdatedAt, err = model.ParseTimestamp(updated); err != nil {
		return model.RecurrenceRule{}, err
	}
	if out.DeletedAt, err = parseNullableTime(deleted); err != nil {
		return model.RecurrenceRule{}, err
	}
	out.Month = time.Month(month)
	return out, nil
}

func joinWeekdays(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

func splitWeekdays(v string) ([]time.Weekday, error) {
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	out := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("storage: bad weekday %q: %w", p, err)
		}
		out = append(out, time.Weekday(n))
	}
	return out, nil
}
