package domain

import "time"

// Period identifies one calendar month, the rate-limiting window.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf derives the quota period for a wall-clock instant. Periods are
// always computed in UTC so that the window boundary does not depend on the
// server's local zone.
func PeriodOf(now time.Time) Period {
	utc := now.UTC()
	return Period{Year: utc.Year(), Month: utc.Month()}
}

// NextReset returns the first instant of the period that follows p.
func (p Period) NextReset() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

// UsagePeriod is the per-user monthly request counter. Exactly one row
// exists per (user, year, month); it is created lazily on the first request
// of the period and only ever incremented.
type UsagePeriod struct {
	ID           string
	UserID       string
	Year         int
	Month        int
	RequestCount int
}
