package analytics

import (
	"errors"
	"time"

	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/internal/utils"
)

// Period selects the month range an aggregation covers, resolved against the
// current date.
type Period string

const (
	Period1Month       Period = "1month"
	Period3Months      Period = "3months"
	Period6Months      Period = "6months"
	PeriodCurrentYear  Period = "currentYear"
	PeriodCurrentMonth Period = "currentMonth"
)

var ErrInvalidPeriod = errors.New("invalid analytics period")

func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case Period1Month, Period3Months, Period6Months, PeriodCurrentYear, PeriodCurrentMonth:
		return Period(s), nil
	case "":
		return Period3Months, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// Months resolves the period to concrete month keys in chronological order,
// ending with the current month.
func (p Period) Months(now time.Time) []utils.MonthKey {
	current := utils.MonthKeyOf(now)
	var n int
	switch p {
	case Period1Month, PeriodCurrentMonth:
		n = 1
	case Period3Months:
		n = 3
	case Period6Months:
		n = 6
	case PeriodCurrentYear:
		n = int(now.Month())
	default:
		n = 1
	}

	months := make([]utils.MonthKey, n)
	month := current
	for i := n - 1; i >= 0; i-- {
		months[i] = month
		month = month.Prev()
	}
	return months
}

// TrendPoint is one month of the income/expenses/savings series.
type TrendPoint struct {
	Month    utils.MonthKey
	Income   money.Cents
	Expenses money.Cents
	Savings  money.Cents
}

// MovingAverage is the arithmetic mean of the last n trend points (fewer when
// the series is shorter). Integer division truncates toward zero.
func MovingAverage(trend []TrendPoint, n int) TrendPoint {
	if n > len(trend) {
		n = len(trend)
	}
	if n == 0 {
		return TrendPoint{}
	}

	var avg TrendPoint
	for _, p := range trend[len(trend)-n:] {
		avg.Income += p.Income
		avg.Expenses += p.Expenses
		avg.Savings += p.Savings
	}
	avg.Income /= money.Cents(n)
	avg.Expenses /= money.Cents(n)
	avg.Savings /= money.Cents(n)
	return avg
}

// Delta compares one figure across two periods. ChangePercent is 0 when the
// previous period had nothing to compare against.
type Delta struct {
	Current       money.Cents
	Previous      money.Cents
	Change        money.Cents
	ChangePercent int
}

func NewDelta(current, previous money.Cents) Delta {
	return Delta{
		Current:       current,
		Previous:      previous,
		Change:        current - previous,
		ChangePercent: money.RatioPercent(current-previous, previous),
	}
}

// Comparison is the period-over-period view of the three trend figures.
type Comparison struct {
	Income   Delta
	Expenses Delta
	Savings  Delta
}

func Compare(current, previous TrendPoint) Comparison {
	return Comparison{
		Income:   NewDelta(current.Income, previous.Income),
		Expenses: NewDelta(current.Expenses, previous.Expenses),
		Savings:  NewDelta(current.Savings, previous.Savings),
	}
}

// BreakdownRow is one envelope/category slice of the period's expenses.
// Percentages are rounded per row; the residual from rounding is left as-is,
// so rows may sum to slightly under or over 100.
type BreakdownRow struct {
	EnvelopeID   int
	EnvelopeName string
	Category     string
	Amount       money.Cents
	Percentage   int
}

// Forecast projects the average monthly savings linearly. A point estimate
// only.
func Forecast(avgSavings money.Cents, monthsAhead int) money.Cents {
	return avgSavings * money.Cents(monthsAhead)
}
