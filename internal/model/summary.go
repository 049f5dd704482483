package model

import (
	"fmt"
	"math"
	"time"
)

const MaxRating = 5.0

// Summary is a daily reflection. Rows are append-only per date; the latest
// live row is the day's summary.
type Summary struct {
	ID        int64
	UUID      string
	UserID    string
	Date      string
	Text      string
	Rating    float64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

func (s Summary) Deleted() bool {
	return s.DeletedAt != nil
}

// Empty reports a cleared summary: no text and no rating.
func (s Summary) Empty() bool {
	return s.Text == "" && s.Rating == 0
}

func (s Summary) Validate() error {
	if _, err := ParseDate(s.Date, time.UTC); err != nil {
		return err
	}
	return ValidateRating(s.Rating)
}

// ValidateRating accepts values in [0, 5] in half-point steps.
func ValidateRating(r float64) error {
	if r < 0 || r > MaxRating || math.Mod(r*2, 1) != 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRating, r)
	}
	return nil
}
