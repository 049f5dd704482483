package remote

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sandeepkv93/daylog/internal/model"
)

var summaryColumns = []string{"uuid", "date", "text", "rating", "created_at", "updated_at", "deleted_at"}

const summaryUpsertSuffix = `ON CONFLICT (uuid) DO UPDATE SET
	date = EXCLUDED.date,
	text = EXCLUDED.text,
	rating = EXCLUDED.rating,
	created_at = EXCLUDED.created_at,
	updated_at = EXCLUDED.updated_at,
	deleted_at = EXCLUDED.deleted_at
WHERE (summaries.date, summaries.text, summaries.rating, summaries.created_at, summaries.updated_at, summaries.deleted_at)
		IS DISTINCT FROM
		(EXCLUDED.date, EXCLUDED.text, EXCLUDED.rating, EXCLUDED.created_at, EXCLUDED.updated_at, EXCLUDED.deleted_at)
	AND summaries.updated_at <= EXCLUDED.updated_at`

type summaryRow struct {
	UUID      string
	Date      string
	Text      string
	Rating    float64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

func summaryToRow(s model.Summary) summaryRow {
	return summaryRow{
		UUID:      s.UUID,
		Date:      s.Date,
		Text:      s.Text,
		Rating:    s.Rating,
		CreatedAt: model.Stamp(s.CreatedAt),
		UpdatedAt: model.Stamp(s.UpdatedAt),
		DeletedAt: stampPtr(s.DeletedAt),
	}
}

func (r summaryRow) toModel() model.Summary {
	return model.Summary{
		UUID:      r.UUID,
		Date:      r.Date,
		Text:      r.Text,
		Rating:    r.Rating,
		CreatedAt: model.Stamp(r.CreatedAt),
		UpdatedAt: model.Stamp(r.UpdatedAt),
		DeletedAt: stampPtr(r.DeletedAt),
	}
}

func (s *PostgresStore) UpsertSummaries(ctx context.Context, summaries []model.Summary) error {
	pos := make(map[string]int, len(summaries))
	rows := make([]summaryRow, 0, len(summaries))
	for _, item := range summaries {
		if item.UUID == "" {
			continue
		}
		row := summaryToRow(item)
		if i, ok := pos[item.UUID]; ok {
			if row.UpdatedAt.After(rows[i].UpdatedAt) {
				rows[i] = row
			}
			continue
		}
		pos[item.UUID] = len(rows)
		rows = append(rows, row)
	}

	for _, batch := range chunks(rows, s.batchSize) {
		q := psql.Insert(SummariesTable).Columns(summaryColumns...)
		for _, r := range batch {
			q = q.Values(r.UUID, r.Date, r.Text, r.Rating, r.CreatedAt, r.UpdatedAt, r.DeletedAt)
		}
		query, args, err := q.Suffix(summaryUpsertSuffix).ToSql()
		if err != nil {
			return fmt.Errorf("build summary upsert: %w", err)
		}

		callCtx, cancel := s.withTimeout(ctx)
		_, err = s.db.Exec(callCtx, query, args...)
		cancel()
		if err != nil {
			return fmt.Errorf("upsert %s: %w", SummariesTable, err)
		}
	}
	return nil
}

func (s *PostgresStore) SummariesModifiedAfter(ctx context.Context, ts time.Time) ([]model.Summary, error) {
	query, args, err := psql.Select(summaryColumns...).
		From(SummariesTable).
		Where(sq.Gt{"updated_at": model.Stamp(ts)}).
		OrderBy("updated_at ASC", "uuid ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build summary select: %w", err)
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.Query(callCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", SummariesTable, err)
	}
	defer rows.Close()

	out := make([]model.Summary, 0)
	for rows.Next() {
		var r summaryRow
		if err := rows.Scan(&r.UUID, &r.Date, &r.Text, &r.Rating, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", SummariesTable, err)
		}
		out = append(out, r.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", SummariesTable, err)
	}
	return out, nil
}
