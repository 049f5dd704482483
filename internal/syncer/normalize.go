package syncer

import (
	"context"
	"time"

	"github.com/sandeepkv93/daylog/internal/identity"
	"github.com/sandeepkv93/daylog/internal/model"
)

// normalize repairs records written before stable ids and modification
// stamps existed. A record missing a modification stamp takes its creation
// time, or now when that is missing too.
func (s *Session) normalize(ctx context.Context) error {
	now := model.Stamp(s.now())
	fixed := 0

	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if t.UUID != "" && !t.UpdatedAt.IsZero() {
			continue
		}
		if t.UUID == "" {
			t.UUID = identity.NewStableID()
		}
		t.UpdatedAt = fillStamp(t.UpdatedAt, t.CreatedAt, now)
		if err := s.store.UpdateTask(ctx, t); err != nil {
			return err
		}
		fixed++
	}

	summaries, err := s.store.ListSummaries(ctx)
	if err != nil {
		return err
	}
	for _, item := range summaries {
		if item.UUID != "" && !item.UpdatedAt.IsZero() {
			continue
		}
		if item.UUID == "" {
			item.UUID = identity.NewStableID()
		}
		item.UpdatedAt = fillStamp(item.UpdatedAt, item.CreatedAt, now)
		if err := s.store.UpdateSummary(ctx, item); err != nil {
			return err
		}
		fixed++
	}

	rules, err := s.store.ListRules(ctx)
	if err != nil {
		return err
	}
	for _, r := range rules {
		if r.UUID != "" && !r.UpdatedAt.IsZero() {
			continue
		}
		if r.UUID == "" {
			r.UUID = identity.NewStableID()
		}
		r.UpdatedAt = fillStamp(r.UpdatedAt, r.CreatedAt, now)
		if err := s.store.UpdateRule(ctx, r); err != nil {
			return err
		}
		fixed++
	}

	if fixed > 0 {
		s.log.WithField("records", fixed).Info("normalized legacy records")
	}
	return nil
}

func fillStamp(updated, created, now time.Time) time.Time {
	if !updated.IsZero() {
		return updated
	}
	if !created.IsZero() {
		return created
	}
	return now
}
