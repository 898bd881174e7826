package learning

import (
	"sort"
	"time"

	v1 "github.com/studylink-app/studylink/internal/api/v1"
)

const dateLayout = "2006-01-02"

// computeStreaks derives the current and longest consecutive-day runs
// from distinct study dates (most recent first). The current streak only
// counts if the most recent study day is today or yesterday.
func computeStreaks(dates []string, now time.Time) *v1.StreakInfo {
	info := &v1.StreakInfo{LearningDates: []string{}}
	if len(dates) == 0 {
		return info
	}

	// Normalize to descending regardless of what the store returned.
	sorted := make([]string, len(dates))
	copy(sorted, dates)
	sort.Sort(sort.Reverse(sort.StringSlice(sorted)))

	today := now.UTC().Format(dateLayout)
	yesterday := now.UTC().AddDate(0, 0, -1).Format(dateLayout)

	if sorted[0] == today || sorted[0] == yesterday {
		info.CurrentStreak = 1
		for i := 1; i < len(sorted); i++ {
			if dayDiff(sorted[i-1], sorted[i]) == 1 {
				info.CurrentStreak++
			} else {
				break
			}
		}
	}

	// Longest run over the ascending sequence.
	ascending := make([]string, len(sorted))
	copy(ascending, sorted)
	sort.Strings(ascending)

	longest, run := 1, 1
	for i := 1; i < len(ascending); i++ {
		if dayDiff(ascending[i], ascending[i-1]) == 1 {
			run++
		} else {
			if run > longest {
				longest = run
			}
			run = 1
		}
	}
	if run > longest {
		longest = run
	}
	info.LongestStreak = longest

	if len(sorted) > streakDatesReturned {
		sorted = sorted[:streakDatesReturned]
	}
	info.LearningDates = sorted

	return info
}

// dayDiff returns the number of days from the older date b to the newer
// date a; malformed dates count as a break in the run.
func dayDiff(a, b string) int {
	ta, errA := time.Parse(dateLayout, a)
	tb, errB := time.Parse(dateLayout, b)
	if errA != nil || errB != nil {
		return -1
	}
	return int(ta.Sub(tb).Hours() / 24)
}
