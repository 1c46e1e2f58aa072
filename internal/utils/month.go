package utils

import (
	"fmt"
	"time"
)

// MonthKey identifies a calendar month as "YYYY-MM". It is the idempotency key
// for month closures and recurring payment materializations.
type MonthKey string

func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format("2006-01"))
}

func ParseMonthKey(s string) (MonthKey, error) {
	if _, err := time.Parse("2006-01", s); err != nil {
		return "", fmt.Errorf("invalid month key %q: %w", s, err)
	}
	return MonthKey(s), nil
}

// Bounds returns the half-open date range [first day of month, first day of
// next month) in UTC.
func (m MonthKey) Bounds() (time.Time, time.Time) {
	start, _ := time.Parse("2006-01", string(m))
	return start, start.AddDate(0, 1, 0)
}

// End returns the last day of the month at midnight UTC. Rollover transactions
// emitted by the month close are dated here.
func (m MonthKey) End() time.Time {
	_, next := m.Bounds()
	return next.AddDate(0, 0, -1)
}

func (m MonthKey) Prev() MonthKey {
	start, _ := m.Bounds()
	return MonthKeyOf(start.AddDate(0, -1, 0))
}

func (m MonthKey) String() string {
	return string(m)
}

// LastDayOfMonth returns the number of days in t's month.
func LastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// DaysRemaining returns the number of days left in t's month, counting t's day.
func DaysRemaining(t time.Time) int {
	return LastDayOfMonth(t) - t.Day() + 1
}
