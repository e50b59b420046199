package core

import (
	"strings"
	"time"
)

// MonthKey is the canonical YYYY-MM identifier for a calendar month.
// Keys sort chronologically as plain strings.
type MonthKey string

const monthKeyFormat = "2006-01"

// ParseMonthKey validates and normalizes a YYYY-MM string.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse(monthKeyFormat, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidMonthKey
	}
	return MonthKey(t.Format(monthKeyFormat)), nil
}

// CurrentMonth returns the month key for the given instant.
func CurrentMonth(now time.Time) MonthKey {
	return MonthKey(now.Format(monthKeyFormat))
}

func (m MonthKey) time() time.Time {
	t, err := time.Parse(monthKeyFormat, string(m))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Prev returns the key of the previous calendar month.
func (m MonthKey) Prev() MonthKey {
	t := m.time()
	if t.IsZero() {
		return ""
	}
	return MonthKey(t.AddDate(0, -1, 0).Format(monthKeyFormat))
}

// Label returns the display form, e.g. "January 2024".
func (m MonthKey) Label() string {
	t := m.time()
	if t.IsZero() {
		return string(m)
	}
	return t.Format("January 2006")
}

// Days returns the number of calendar days in the month.
func (m MonthKey) Days() int {
	t := m.time()
	if t.IsZero() {
		return 0
	}
	// Day zero of the next month is the last day of this one.
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Contains reports whether the date falls inside the month.
func (m MonthKey) Contains(d Date) bool {
	return d.Month() == m
}
