package repos

import "time"

// Trailing windows are closed intervals of whole days ending at the
// evaluation date: [date - days @ 00:00:00, date @ 23:59:59.999...].
// A window of 0 days covers the evaluation date only.

func dayStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

func dayEnd(d time.Time) time.Time {
	return dayStart(d).Add(24*time.Hour - time.Nanosecond)
}

func windowBounds(endDate time.Time, days int) (time.Time, time.Time) {
	return dayStart(endDate.AddDate(0, 0, -days)), dayEnd(endDate)
}
