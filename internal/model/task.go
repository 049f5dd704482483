package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidDate     = errors.New("model: invalid date")
	ErrInvalidRating   = errors.New("model: invalid rating")
	ErrInvalidDuration = errors.New("model: invalid duration")
)

// Task is one entry of a day's list. ID is the local store key; UUID is the
// stable identifier shared with the remote store and never changes once set.
type Task struct {
	ID          int64
	UUID        string
	UserID      string
	Date        string
	Text        string
	Completed   bool
	DueMinutes  int
	RuleID      int64
	CarriedFrom string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

func (t Task) Deleted() bool {
	return t.DeletedAt != nil
}

func (t Task) Validate() error {
	if _, err := ParseDate(t.Date, time.UTC); err != nil {
		return err
	}
	if strings.TrimSpace(t.Text) == "" {
		return errors.New("model: task text is required")
	}
	if t.DueMinutes < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, t.DueMinutes)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	return nil
}

// SyncEqual reports whether two tasks agree on every field the sync engine
// exchanges with the remote store.
func (t Task) SyncEqual(o Task) bool {
	return t.UUID == o.UUID &&
		t.Date == o.Date &&
		t.Text == o.Text &&
		t.Completed == o.Completed &&
		equalInstant(t.CreatedAt, o.CreatedAt) &&
		equalInstant(t.UpdatedAt, o.UpdatedAt) &&
		equalOptionalInstant(t.DeletedAt, o.DeletedAt)
}
