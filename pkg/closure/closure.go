package closure

import (
	"errors"
	"time"

	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/internal/utils"
	"github.com/koperta/koperta/pkg/envelope"
	"github.com/koperta/koperta/pkg/transaction"
)

var (
	// ErrAlreadyClosed means the month was closed before. It is a
	// conflict-as-success outcome: callers get the prior closure alongside it.
	ErrAlreadyClosed   = errors.New("month already closed")
	ErrClosureNotFound = errors.New("month closure not found")
)

// Summary is the reconciliation result for one month. Never mutated after the
// month transitions to closed.
type Summary struct {
	StatsIncome    money.Cents
	NonStatsIncome money.Cents
	TotalExpenses  money.Cents
	// MonthBalance = StatsIncome - TotalExpenses, may be negative.
	MonthBalance money.Cents
	// ReturnsBalance is the non-stats income rolled into free funds on top of
	// the month balance (refunds and reimbursements).
	ReturnsBalance money.Cents
	// SavingsRate is MonthBalance as a whole percentage of StatsIncome,
	// 0 when there was no income.
	SavingsRate      int
	TotalTransferred money.Cents
	// UnusedFunds sums the positive headroom left in monthly envelopes.
	UnusedFunds money.Cents
}

type MonthClosure struct {
	MonthKey utils.MonthKey
	ClosedAt time.Time
	Summary  Summary
}

// BuildSummary reconciles a month's ledger totals with the monthly envelope
// snapshots. Pure; overspent envelopes contribute nothing to UnusedFunds.
func BuildSummary(totals transaction.MonthTotals, snapshots []envelope.MonthlySnapshot) Summary {
	var unused money.Cents
	for _, s := range snapshots {
		if s.Balance > 0 {
			unused += s.Balance
		}
	}

	monthBalance := totals.StatsIncome - totals.TotalExpenses
	return Summary{
		StatsIncome:      totals.StatsIncome,
		NonStatsIncome:   totals.NonStatsIncome,
		TotalExpenses:    totals.TotalExpenses,
		MonthBalance:     monthBalance,
		ReturnsBalance:   totals.NonStatsIncome,
		SavingsRate:      money.RatioPercent(monthBalance, totals.StatsIncome),
		TotalTransferred: totals.TotalTransferred,
		UnusedFunds:      unused,
	}
}

// RolloverTransactions builds the transfers that move the month's net result
// into the free-funds envelope, dated at month-end. A deficit month pulls from
// free funds instead; free funds may go negative, which is reported, not
// rejected.
func RolloverTransactions(summary Summary, month utils.MonthKey, freeFundsID int) []transaction.Transaction {
	net := summary.MonthBalance + summary.ReturnsBalance
	switch {
	case net > 0:
		return []transaction.Transaction{
			transaction.NewTransfer(net, month.End(), 0, freeFundsID, "Month-end rollover "+string(month)),
		}
	case net < 0:
		return []transaction.Transaction{
			transaction.NewTransfer(-net, month.End(), freeFundsID, 0, "Month-end deficit "+string(month)),
		}
	default:
		return nil
	}
}
