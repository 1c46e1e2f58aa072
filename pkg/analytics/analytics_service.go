package analytics

import (
	"context"
	"sort"

	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/internal/utils"
	"github.com/koperta/koperta/pkg/envelope"
	"github.com/koperta/koperta/pkg/transaction"
)

type Ledger interface {
	MonthTotals(ctx context.Context, month utils.MonthKey) (transaction.MonthTotals, error)
	List(ctx context.Context, filter transaction.Filter) ([]transaction.Transaction, error)
}

type Envelopes interface {
	GetAll(ctx context.Context) ([]envelope.Envelope, error)
}

// Report is the full aggregation for one period.
type Report struct {
	Period        Period
	Trend         []TrendPoint
	MovingAverage TrendPoint
	Comparison    Comparison
	// ForecastNextMonth projects the moving-average savings one month out.
	ForecastNextMonth money.Cents
}

type Service interface {
	Report(ctx context.Context, period Period) (Report, error)
	CategoryBreakdown(ctx context.Context, period Period) ([]BreakdownRow, error)
}

type ServiceImpl struct {
	ledger    Ledger
	envelopes Envelopes
	clock     utils.Clock
}

func NewService(ledger Ledger, envelopes Envelopes, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{ledger: ledger, envelopes: envelopes, clock: clock}
}

const movingAverageWindow = 3

func (s *ServiceImpl) Report(ctx context.Context, period Period) (Report, error) {
	trend, err := s.monthlyTrend(ctx, period)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Period:        period,
		Trend:         trend,
		MovingAverage: MovingAverage(trend, movingAverageWindow),
	}
	report.ForecastNextMonth = Forecast(report.MovingAverage.Savings, 1)

	// compare the last covered month against the one before it, reaching
	// back past the period boundary when the trend has a single point
	current := trend[len(trend)-1]
	var previous TrendPoint
	if len(trend) > 1 {
		previous = trend[len(trend)-2]
	} else {
		previous, err = s.trendPoint(ctx, current.Month.Prev())
		if err != nil {
			return Report{}, err
		}
	}
	report.Comparison = Compare(current, previous)

	return report, nil
}

func (s *ServiceImpl) monthlyTrend(ctx context.Context, period Period) ([]TrendPoint, error) {
	months := period.Months(s.clock.Now())
	trend := make([]TrendPoint, 0, len(months))
	for _, month := range months {
		point, err := s.trendPoint(ctx, month)
		if err != nil {
			return nil, err
		}
		trend = append(trend, point)
	}
	return trend, nil
}

func (s *ServiceImpl) trendPoint(ctx context.Context, month utils.MonthKey) (TrendPoint, error) {
	totals, err := s.ledger.MonthTotals(ctx, month)
	if err != nil {
		return TrendPoint{}, err
	}
	return TrendPoint{
		Month:    month,
		Income:   totals.StatsIncome,
		Expenses: totals.TotalExpenses,
		Savings:  totals.StatsIncome - totals.TotalExpenses,
	}, nil
}

func (s *ServiceImpl) CategoryBreakdown(ctx context.Context, period Period) ([]BreakdownRow, error) {
	months := period.Months(s.clock.Now())
	from, _ := months[0].Bounds()
	_, to := months[len(months)-1].Bounds()

	txs, err := s.ledger.List(ctx, transaction.Filter{From: from, To: to, Kind: transaction.KindExpense})
	if err != nil {
		return nil, err
	}

	names := map[int]string{}
	all, err := s.envelopes.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range all {
		names[e.ID] = e.Name
	}

	type groupKey struct {
		envelopeID int
		category   string
	}
	var total money.Cents
	amounts := map[groupKey]money.Cents{}
	for _, tx := range txs {
		if !tx.IncludeInStats {
			continue
		}
		amounts[groupKey{tx.EnvelopeID, tx.CategoryID}] += tx.Amount
		total += tx.Amount
	}

	rows := make([]BreakdownRow, 0, len(amounts))
	for key, amount := range amounts {
		rows = append(rows, BreakdownRow{
			EnvelopeID:   key.envelopeID,
			EnvelopeName: names[key.envelopeID],
			Category:     key.category,
			Amount:       amount,
			Percentage:   money.RatioPercent(amount, total),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Amount != rows[j].Amount {
			return rows[i].Amount > rows[j].Amount
		}
		if rows[i].EnvelopeID != rows[j].EnvelopeID {
			return rows[i].EnvelopeID < rows[j].EnvelopeID
		}
		return rows[i].Category < rows[j].Category
	})
	return rows, nil
}
