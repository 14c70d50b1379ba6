// Package utils holds small helpers shared by the HTTP and service layers:
// calendar dates in a configured zone and bounded query parameters.
package utils

import (
	"time"
)

// DateFormat is the calendar-date layout stored for logs, briefings and
// contract start/end dates (YYYY-MM-DD).
const DateFormat = "2006-01-02"

// Clock returns the current instant. Services take one so tests can pin "now".
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

// DateIn returns t's calendar date in loc. A nil loc means UTC.
func DateIn(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateFormat)
}

// ParseDate parses a YYYY-MM-DD string as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// ValidDate reports whether s is a well-formed calendar date.
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// AddDays shifts a YYYY-MM-DD date by n days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateFormat), nil
}

// YesterdayIn returns the calendar date before t's date in loc.
func YesterdayIn(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).AddDate(0, 0, -1).Format(DateFormat)
}

// MondayOf returns the Monday of the ISO week containing date.
func MondayOf(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset).Format(DateFormat), nil
}
