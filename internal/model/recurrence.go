package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
	RecurrenceWorkday RecurrenceType = "workday"
	RecurrenceCustom  RecurrenceType = "custom"
)

func (t RecurrenceType) IsValid() bool {
	switch t {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly, RecurrenceWorkday, RecurrenceCustom:
		return true
	default:
		return false
	}
}

type IntervalUnit string

const (
	UnitDay   IntervalUnit = "day"
	UnitWeek  IntervalUnit = "week"
	UnitMonth IntervalUnit = "month"
	UnitYear  IntervalUnit = "year"
)

func (u IntervalUnit) IsValid() bool {
	switch u {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidRecurrenceType = errors.New("model: invalid recurrence type")
	ErrInvalidInterval       = errors.New("model: invalid recurrence interval")
	ErrInvalidUnit           = errors.New("model: invalid recurrence unit")
)

// RecurrenceRule spawns one task per matching date. StartDate anchors custom
// intervals and is the local date the rule was created on.
type RecurrenceRule struct {
	ID         int64
	UUID       string
	UserID     string
	Text       string
	Type       RecurrenceType
	Weekdays   []time.Weekday
	Day        int
	Month      time.Month
	Interval   int
	Unit       IntervalUnit
	DueMinutes int
	StartDate  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

func (r RecurrenceRule) Deleted() bool {
	return r.DeletedAt != nil
}

func (r RecurrenceRule) Validate() error {
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRecurrenceType, r.Type)
	}
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("model: recurrence text is required")
	}
	switch r.Type {
	case RecurrenceWeekly:
		if len(r.Weekdays) == 0 {
			return errors.New("model: weekly recurrence needs at least one weekday")
		}
		s := make([]int, 0, len(r.Weekdays))
		for _, d := range r.Weekdays {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("model: invalid weekday %d", d)
			}
			s = append(s, int(d))
		}
		sort.Ints(s)
		for i := 1; i < len(s); i++ {
			if s[i] == s[i-1] {
				return errors.New("model: duplicate weekday in recurrence")
			}
		}
	case RecurrenceMonthly:
		if r.Day < 1 || r.Day > 31 {
			return fmt.Errorf("model: invalid day of month %d", r.Day)
		}
	case RecurrenceYearly:
		if r.Month < time.January || r.Month > time.December {
			return fmt.Errorf("model: invalid month %d", r.Month)
		}
		if r.Day < 1 || r.Day > 31 {
			return fmt.Errorf("model: invalid day of month %d", r.Day)
		}
	case RecurrenceCustom:
		if r.Interval <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidInterval, r.Interval)
		}
		if !r.Unit.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidUnit, r.Unit)
		}
		if _, err := ParseDate(r.StartDate, time.UTC); err != nil {
			return err
		}
	}
	return nil
}

// Matches reports whether the rule produces an instance on date. Malformed
// dates and rules never match.
func (r RecurrenceRule) Matches(date string) bool {
	d, err := ParseDate(date, time.UTC)
	if err != nil {
		return false
	}
	switch r.Type {
	case RecurrenceDaily:
		return true
	case RecurrenceWeekly:
		for _, w := range r.Weekdays {
			if w == d.Weekday() {
				return true
			}
		}
		return false
	case RecurrenceMonthly:
		return d.Day() == r.Day
	case RecurrenceYearly:
		return d.Month() == r.Month && d.Day() == r.Day
	case RecurrenceWorkday:
		wd := d.Weekday()
		return wd >= time.Monday && wd <= time.Friday
	case RecurrenceCustom:
		return r.matchesCustom(d)
	default:
		return false
	}
}

func (r RecurrenceRule) matchesCustom(d time.Time) bool {
	start, err := ParseDate(r.StartDate, time.UTC)
	if err != nil || r.Interval < 1 {
		return false
	}
	switch r.Unit {
	case UnitDay, UnitWeek:
		step := r.Interval
		if r.Unit == UnitWeek {
			step *= 7
		}
		days := int(d.Sub(start).Hours() / 24)
		return days >= 0 && days%step == 0
	case UnitMonth:
		months := (d.Year()-start.Year())*12 + int(d.Month()-start.Month())
		return months >= 0 && months%r.Interval == 0 && d.Day() == start.Day()
	case UnitYear:
		years := d.Year() - start.Year()
		return years >= 0 && years%r.Interval == 0 && d.Month() == start.Month() && d.Day() == start.Day()
	default:
		return false
	}
}

// Describe renders a short human label for lists.
func (r RecurrenceRule) Describe() string {
	switch r.Type {
	case RecurrenceWeekly:
		names := make([]string, 0, len(r.Weekdays))
		for _, w := range r.Weekdays {
			names = append(names, w.String()[:3])
		}
		return "weekly " + strings.Join(names, ",")
	case RecurrenceMonthly:
		return fmt.Sprintf("monthly on day %d", r.Day)
	case RecurrenceYearly:
		return fmt.Sprintf("yearly on %s %d", r.Month.String()[:3], r.Day)
	case RecurrenceCustom:
		return fmt.Sprintf("every %d %s from %s", r.Interval, r.Unit, r.StartDate)
	default:
		return string(r.Type)
	}
}
