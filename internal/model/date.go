package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used for record dates.
const DateLayout = "2006-01-02"

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// Timestamp formats t the way CreatedAt and UpdatedAt are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseDate parses a "YYYY-MM-DD" string in the local zone.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// AddDays shifts a "YYYY-MM-DD" date by n days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return DateOf(t.AddDate(0, 0, n)), nil
}
