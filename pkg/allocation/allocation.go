package allocation

import (
	"errors"
	"fmt"
	"time"

	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/pkg/transaction"
)

var (
	// ErrAllocationOverflow means the envelope splits exceed the income amount.
	ErrAllocationOverflow = errors.New("allocation exceeds income amount")
	// ErrAllocationNotExhaustive means bonus percentages do not sum to exactly 100.
	ErrAllocationNotExhaustive = errors.New("bonus percentages must sum to exactly 100")
	ErrInvalidSplit            = errors.New("invalid split")
)

// Split routes a fixed amount of an income into an envelope.
type Split struct {
	EnvelopeID int
	Amount     money.Cents
}

// PercentSplit routes a percentage of a bonus into an envelope. EnvelopeID 0
// leaves the bucket's share in the main balance.
type PercentSplit struct {
	EnvelopeID int
	Percent    int
}

// PlanSalary builds the transactions for a salary allocation: one income
// transaction for the full amount (the residual after transfers stays in the
// main balance) plus one transfer per split. Pure: no side effects, envelope
// existence is checked by the service.
func PlanSalary(amount money.Cents, date time.Time, includeInStats bool, description string, splits []Split) ([]transaction.Transaction, error) {
	if amount <= 0 {
		return nil, transaction.ErrNonPositiveAmount
	}
	var total money.Cents
	for _, s := range splits {
		if s.Amount <= 0 || s.EnvelopeID == 0 {
			return nil, ErrInvalidSplit
		}
		total += s.Amount
	}
	if total > amount {
		return nil, fmt.Errorf("%w: splits %s exceed income %s", ErrAllocationOverflow, total, amount)
	}

	txs := make([]transaction.Transaction, 0, len(splits)+1)
	txs = append(txs, transaction.NewIncome(amount, date, description, includeInStats))
	for _, s := range splits {
		txs = append(txs, transaction.NewTransfer(s.Amount, date, 0, s.EnvelopeID, description))
	}
	return txs, nil
}

// PlanBonus builds the transactions for a percentage-based bonus allocation.
// Percentages must sum to exactly 100. Each bucket gets floor(amount*pct/100);
// the rounding residue is added to the last bucket so the bucket amounts sum
// to the bonus exactly.
func PlanBonus(amount money.Cents, date time.Time, includeInStats bool, description string, splits []PercentSplit) ([]transaction.Transaction, error) {
	if amount <= 0 {
		return nil, transaction.ErrNonPositiveAmount
	}
	if len(splits) == 0 {
		return nil, ErrAllocationNotExhaustive
	}
	totalPercent := 0
	for _, s := range splits {
		if s.Percent <= 0 {
			return nil, ErrInvalidSplit
		}
		totalPercent += s.Percent
	}
	if totalPercent != 100 {
		return nil, fmt.Errorf("%w: got %d", ErrAllocationNotExhaustive, totalPercent)
	}

	amounts := make([]money.Cents, len(splits))
	var allocated money.Cents
	for i, s := range splits {
		amounts[i] = amount.PercentFloor(s.Percent)
		allocated += amounts[i]
	}
	// no lost pennies: the flooring residue goes to the last bucket
	amounts[len(amounts)-1] += amount - allocated

	txs := make([]transaction.Transaction, 0, len(splits)+1)
	txs = append(txs, transaction.NewIncome(amount, date, description, includeInStats))
	for i, s := range splits {
		if s.EnvelopeID == 0 {
			// this bucket's share stays in the main balance
			continue
		}
		if amounts[i] == 0 {
			continue
		}
		txs = append(txs, transaction.NewTransfer(amounts[i], date, 0, s.EnvelopeID, description))
	}
	return txs, nil
}
