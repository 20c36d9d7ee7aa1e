// Package workday implements business-day arithmetic on calendar dates.
//
// A workday is Monday through Friday; public holidays are not considered.
// All arithmetic happens in UTC so daylight-saving transitions never shift a
// date.
package workday

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date form used for every input and output.
const DateLayout = "2006-01-02"

// Date truncates t to midnight UTC of its UTC calendar day.
func Date(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// timestampLayouts are the date-time forms accepted besides a bare date.
var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// Parse reads a YYYY-MM-DD date or an ISO 8601 timestamp. Timestamps are
// truncated to their UTC calendar date. Anything else is rejected.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q: want YYYY-MM-DD or an ISO 8601 timestamp", s)
}

// Format renders the calendar date of t as YYYY-MM-DD.
func Format(t time.Time) string {
	return Date(t).Format(DateLayout)
}

// IsWorkday reports whether t falls on Monday through Friday (UTC).
func IsWorkday(t time.Time) bool {
	switch t.UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// Add steps one calendar day at a time in the direction of n and counts a
// step only when it lands on a workday, until |n| steps are counted.
// Add(d, 0) returns d unchanged.
func Add(date time.Time, n int) time.Time {
	d := Date(date)
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	for counted := 0; counted < n; {
		d = d.AddDate(0, 0, step)
		if IsWorkday(d) {
			counted++
		}
	}
	return d
}

// AddISO is Add over YYYY-MM-DD strings.
func AddISO(date string, n int) (string, error) {
	d, err := Parse(date)
	if err != nil {
		return "", err
	}
	return Format(Add(d, n)), nil
}

// IsInThePast reports whether date is strictly before the date reached by
// moving n workdays from reference. A negative n means "n workdays before
// reference".
func IsInThePast(date string, reference time.Time, n int) (bool, error) {
	d, err := Parse(date)
	if err != nil {
		return false, err
	}
	return d.Before(Add(reference, n)), nil
}
