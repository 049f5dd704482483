package model

import (
	"errors"
	"testing"
	"time"
)

func TestTaskValidateSuccess(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	task := Task{
		Date:      "2026-02-09",
		Text:      "Implement model validation",
		CreatedAt: now,
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
}

func TestTaskValidateRejectsBadInput(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	task := Task{Date: "09/02/2026", Text: "x", CreatedAt: now}
	if err := task.Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got: %v", err)
	}

	task.Date = "2026-02-09"
	task.Text = "   "
	if err := task.Validate(); err == nil || err.Error() != "model: task text is required" {
		t.Fatalf("unexpected error: %v", err)
	}

	task.Text = "x"
	task.DueMinutes = -5
	if err := task.Validate(); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got: %v", err)
	}
}

func TestTaskSyncEqualIgnoresLocalOnlyFields(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	a := Task{ID: 1, UUID: "u1", Date: "2026-02-09", Text: "x", CreatedAt: now, UpdatedAt: now, RuleID: 3}
	b := a
	b.ID = 9
	b.RuleID = 0
	b.UpdatedAt = now.Add(300 * time.Microsecond)
	if !a.SyncEqual(b) {
		t.Fatal("expected tasks to be sync-equal")
	}

	deleted := now
	b.DeletedAt = &deleted
	if a.SyncEqual(b) {
		t.Fatal("deletion must break sync equality")
	}
}

func TestSummaryRating(t *testing.T) {
	for _, r := range []float64{0, 0.5, 3, 4.5, 5} {
		if err := ValidateRating(r); err != nil {
			t.Fatalf("rating %v: %v", r, err)
		}
	}
	for _, r := range []float64{-0.5, 5.5, 2.25} {
		if err := ValidateRating(r); !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("rating %v: expected ErrInvalidRating, got %v", r, err)
		}
	}
}

func TestTimestampFormatIsOrdered(t *testing.T) {
	early := time.Date(2026, 2, 9, 9, 5, 0, 7_000_000, time.UTC)
	late := early.Add(time.Millisecond)
	if FormatTimestamp(early) >= FormatTimestamp(late) {
		t.Fatalf("expected %s < %s", FormatTimestamp(early), FormatTimestamp(late))
	}
	if got := FormatTimestamp(early); got != "2026-02-09T09:05:00.007Z" {
		t.Fatalf("unexpected format: %s", got)
	}

	parsed, err := ParseTimestamp("2026-02-09T11:05:00.007+02:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(early) {
		t.Fatalf("parsed %s, want %s", parsed, early)
	}

	zero, err := ParseTimestamp("")
	if err != nil || !zero.IsZero() {
		t.Fatalf("expected zero time, got %v (%v)", zero, err)
	}
}
