package service

import "time"

// IsBusinessDay reports whether t falls on Monday through Friday.
// Public holidays are not considered.
func IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// AddBusinessDays walks forward from start one calendar day at a time and
// returns the date on which the n-th business day is reached. The time of
// day is preserved. n <= 0 returns start unchanged.
func AddBusinessDays(start time.Time, n int) time.Time {
	result := start
	for added := 0; added < n; {
		result = result.AddDate(0, 0, 1)
		if IsBusinessDay(result) {
			added++
		}
	}
	return result
}
