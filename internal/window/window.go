// Package window derives stable string keys for time-bounded leaderboards.
// All functions are pure: they never read the clock or perform I/O, which
// keeps the key derivation deterministic and trivially testable.
package window

import (
	"fmt"
	"time"
)

// Policy selects how a timestamp is mapped onto a window key.
type Policy string

const (
	// PolicyDaily buckets timestamps into wall-clock days in a target
	// timezone, with the day rolling over at a configurable hour instead
	// of midnight.
	PolicyDaily Policy = "daily"

	// PolicyWeekly buckets timestamps into ISO-8601 weeks.
	PolicyWeekly Policy = "weekly"
)

// Valid reports whether p is a known windowing policy.
func (p Policy) Valid() bool {
	return p == PolicyDaily || p == PolicyWeekly
}

// DailyKey returns the "YYYY-MM-DD" key for now under a day boundary that
// rolls over at boundaryOffsetHours:00 in a UTC+tzOffsetHours timezone.
//
// The production configuration uses tzOffsetHours=9, boundaryOffsetHours=3:
// 2025-01-01 03:00 JST through 2025-01-02 02:59 JST all map to "2025-01-01".
func DailyKey(now time.Time, boundaryOffsetHours, tzOffsetHours int) string {
	shifted := now.UTC().Add(time.Duration(tzOffsetHours-boundaryOffsetHours) * time.Hour)
	return shifted.Format("2006-01-02")
}

// WeeklyKey returns the "YYYY-Www" key for now using ISO-8601 week
// numbering. The year component is the ISO week-year, not the calendar
// year, so keys remain unambiguous across year boundaries (Dec 29 can
// belong to week 1 of the following ISO year).
func WeeklyKey(now time.Time) string {
	year, week := now.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Key derives the window key for now under the given policy. Daily keys
// honor the boundary and timezone offsets; weekly keys ignore them.
func Key(now time.Time, policy Policy, boundaryOffsetHours, tzOffsetHours int) string {
	if policy == PolicyWeekly {
		return WeeklyKey(now)
	}
	return DailyKey(now, boundaryOffsetHours, tzOffsetHours)
}

// Range returns the UTC time range [start, end) covered by the window that
// contains now. The durable aggregation uses this range to reproduce the
// ranking a freshly derived key refers to.
func Range(now time.Time, policy Policy, boundaryOffsetHours, tzOffsetHours int) (time.Time, time.Time) {
	if policy == PolicyWeekly {
		shifted := now.UTC()
		// Walk back to the ISO week's Monday 00:00 UTC.
		weekday := int(shifted.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		day := time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, time.UTC)
		start := day.AddDate(0, 0, -(weekday - 1))
		return start, start.AddDate(0, 0, 7)
	}

	offset := time.Duration(tzOffsetHours-boundaryOffsetHours) * time.Hour
	shifted := now.UTC().Add(offset)
	day := time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, time.UTC)
	start := day.Add(-offset)
	return start, start.Add(24 * time.Hour)
}
