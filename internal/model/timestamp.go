package model

import (
	"fmt"
	"time"
)

// TimestampLayout is the fixed-width instant format used for every persisted
// timestamp. Byte order of two formatted values equals their time order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DateLayout is the calendar-date format of task and summary dates.
const DateLayout = "2006-01-02"

// Epoch is the watermark used before the first successful sync.
var Epoch = time.Unix(0, 0).UTC()

// Stamp normalizes t to UTC with millisecond precision.
func Stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC().Truncate(time.Millisecond)
}

// FormatTimestamp renders t in TimestampLayout. The zero time renders empty.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts TimestampLayout and any RFC 3339 instant. An empty
// string yields the zero time.
func ParseTimestamp(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(TimestampLayout, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("model: parse timestamp %q: %w", v, err)
	}
	return Stamp(t), nil
}

// Millis is the comparison key of an instant. Zero sorts before any instant.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FormatDate renders the local calendar date of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a calendar date in loc.
func ParseDate(v string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, v)
	}
	return d, nil
}

// AddDays shifts a calendar date string by n days.
func AddDays(date string, n int) (string, error) {
	d, err := ParseDate(date, time.UTC)
	if err != nil {
		return "", err
	}
	return FormatDate(d.AddDate(0, 0, n)), nil
}

func equalInstant(a, b time.Time) bool {
	return Millis(a) == Millis(b)
}

func equalOptionalInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return equalInstant(*a, *b)
}
