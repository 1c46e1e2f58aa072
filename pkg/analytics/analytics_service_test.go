package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/internal/utils"
	"github.com/koperta/koperta/pkg/envelope"
	"github.com/koperta/koperta/pkg/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLedger struct {
	totals       map[utils.MonthKey]transaction.MonthTotals
	transactions []transaction.Transaction
}

func (s *stubLedger) MonthTotals(_ context.Context, month utils.MonthKey) (transaction.MonthTotals, error) {
	return s.totals[month], nil
}

func (s *stubLedger) List(_ context.Context, filter transaction.Filter) ([]transaction.Transaction, error) {
	var matched []transaction.Transaction
	for _, tx := range s.transactions {
		if filter.Kind != "" && tx.Kind != filter.Kind {
			continue
		}
		if tx.Date.Before(filter.From) || !tx.Date.Before(filter.To) {
			continue
		}
		matched = append(matched, tx)
	}
	return matched, nil
}

type stubEnvelopes struct {
	envelopes []envelope.Envelope
}

func (s *stubEnvelopes) GetAll(_ context.Context) ([]envelope.Envelope, error) {
	return s.envelopes, nil
}

var ledger = &stubLedger{}
var envelopesStub = &stubEnvelopes{envelopes: []envelope.Envelope{
	{ID: 2, Name: "Jedzenie", Kind: envelope.KindMonthly},
	{ID: 3, Name: "Rozrywka", Kind: envelope.KindMonthly},
}}
var clock = &utils.MockClock{FixedNow: time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)}

func setup(t *testing.T) (*ServiceImpl, context.Context, func()) {
	service := NewService(ledger, envelopesStub, clock)
	return service, context.Background(), func() {
		t.Log("Teardown after test")
		ledger.totals = nil
		ledger.transactions = nil
	}
}

func TestServiceImpl_Report(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	// given three months of totals
	ledger.totals = map[utils.MonthKey]transaction.MonthTotals{
		"2025-01": {StatsIncome: 500000, TotalExpenses: 300000},
		"2025-02": {StatsIncome: 500000, TotalExpenses: 400000},
		"2025-03": {StatsIncome: 560000, TotalExpenses: 380000},
	}

	// when
	report, err := service.Report(ctx, Period3Months)

	// then the trend covers the period in order
	require.NoError(t, err)
	require.Len(t, report.Trend, 3)
	assert.Equal(t, utils.MonthKey("2025-01"), report.Trend[0].Month)
	assert.Equal(t, money.Cents(200000), report.Trend[0].Savings)
	assert.Equal(t, utils.MonthKey("2025-03"), report.Trend[2].Month)

	// and the derived figures follow
	assert.Equal(t, money.Cents(160000), report.MovingAverage.Savings)
	assert.Equal(t, money.Cents(160000), report.ForecastNextMonth)
	assert.Equal(t, money.Cents(80000), report.Comparison.Savings.Change)
	assert.Equal(t, 80, report.Comparison.Savings.ChangePercent)
}

func TestServiceImpl_Report_singleMonthComparesAgainstPreviousMonth(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	ledger.totals = map[utils.MonthKey]transaction.MonthTotals{
		"2025-02": {StatsIncome: 500000, TotalExpenses: 400000},
		"2025-03": {StatsIncome: 550000, TotalExpenses: 400000},
	}

	report, err := service.Report(ctx, PeriodCurrentMonth)

	require.NoError(t, err)
	require.Len(t, report.Trend, 1)
	assert.Equal(t, money.Cents(500000), report.Comparison.Income.Previous)
	assert.Equal(t, 10, report.Comparison.Income.ChangePercent)
}

func TestServiceImpl_CategoryBreakdown(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	// given expenses across two envelopes in the current month
	ledger.transactions = []transaction.Transaction{
		transaction.NewExpense(60000, time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), 2, "groceries", "Biedronka", true),
		transaction.NewExpense(20000, time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC), 2, "groceries", "Lidl", true),
		transaction.NewExpense(20000, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), 3, "entertainment", "Kino", true),
		// outside the period, must not count
		transaction.NewExpense(99000, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), 3, "entertainment", "Koncert", true),
		// excluded from stats, must not count
		transaction.NewExpense(5000, time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC), 2, "groceries", "Zwrot", false),
	}

	// when
	rows, err := service.CategoryBreakdown(ctx, PeriodCurrentMonth)

	// then rows are grouped and ranked by amount
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Jedzenie", rows[0].EnvelopeName)
	assert.Equal(t, "groceries", rows[0].Category)
	assert.Equal(t, money.Cents(80000), rows[0].Amount)
	assert.Equal(t, 80, rows[0].Percentage)
	assert.Equal(t, "Rozrywka", rows[1].EnvelopeName)
	assert.Equal(t, 20, rows[1].Percentage)
}

func TestServiceImpl_CategoryBreakdown_emptyPeriod(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	rows, err := service.CategoryBreakdown(ctx, PeriodCurrentMonth)

	require.NoError(t, err)
	assert.Empty(t, rows)
}
