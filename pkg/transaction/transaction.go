package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/pkg/envelope"
)

type Kind string

const (
	KindIncome   Kind = "income"
	KindExpense  Kind = "expense"
	KindTransfer Kind = "transfer"
)

var (
	ErrNonPositiveAmount = errors.New("transaction amount must be positive")
	ErrInvalidKind       = errors.New("invalid transaction kind")
	ErrInvalidTransfer   = errors.New("transfer must move money between two distinct parties")
	ErrUnknownEnvelope   = errors.New("unknown envelope")
	ErrUnknownCategory   = errors.New("unknown category")
)

// Transaction is an immutable ledger entry. Envelope references use 0 to mean
// "none" (for EnvelopeID) or "the main balance" (for transfer endpoints).
type Transaction struct {
	ID             uuid.UUID
	Kind           Kind
	Amount         money.Cents
	Date           time.Time
	EnvelopeID     int
	FromEnvelopeID int
	ToEnvelopeID   int
	CategoryID     string
	Description    string
	// IncludeInStats is false for reimbursements and refunds: they move the
	// main balance but stay out of income/expense aggregates.
	IncludeInStats bool
	// Seq is the insertion order, assigned by the store. It breaks ordering
	// ties between transactions on the same date.
	Seq int64
}

func NewIncome(amount money.Cents, date time.Time, description string, includeInStats bool) Transaction {
	return Transaction{
		ID:             uuid.New(),
		Kind:           KindIncome,
		Amount:         amount,
		Date:           date,
		Description:    description,
		IncludeInStats: includeInStats,
	}
}

func NewExpense(amount money.Cents, date time.Time, envelopeID int, categoryID, description string, includeInStats bool) Transaction {
	return Transaction{
		ID:             uuid.New(),
		Kind:           KindExpense,
		Amount:         amount,
		Date:           date,
		EnvelopeID:     envelopeID,
		CategoryID:     categoryID,
		Description:    description,
		IncludeInStats: includeInStats,
	}
}

// NewTransfer moves money between envelopes; 0 on either side means the main
// balance. Transfers are net-zero in aggregates, so IncludeInStats is moot and
// kept true.
func NewTransfer(amount money.Cents, date time.Time, fromEnvelopeID, toEnvelopeID int, description string) Transaction {
	return Transaction{
		ID:             uuid.New(),
		Kind:           KindTransfer,
		Amount:         amount,
		Date:           date,
		FromEnvelopeID: fromEnvelopeID,
		ToEnvelopeID:   toEnvelopeID,
		Description:    description,
		IncludeInStats: true,
	}
}

func (t Transaction) Validate() error {
	if t.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	switch t.Kind {
	case KindIncome, KindExpense:
		return nil
	case KindTransfer:
		if t.FromEnvelopeID == t.ToEnvelopeID {
			return ErrInvalidTransfer
		}
		return nil
	default:
		return ErrInvalidKind
	}
}

// MonthTotals are the aggregate figures the month close and analytics work on.
type MonthTotals struct {
	StatsIncome    money.Cents
	NonStatsIncome money.Cents
	TotalExpenses  money.Cents
	// TotalTransferred sums transfers out of the main balance into envelopes.
	TotalTransferred money.Cents
}

// Totals folds transactions into aggregate totals. Expenses flagged with
// IncludeInStats=false stay out of TotalExpenses; transfers are net-zero and
// only counted in TotalTransferred.
func Totals(txs []Transaction) MonthTotals {
	var t MonthTotals
	for _, tx := range txs {
		switch tx.Kind {
		case KindIncome:
			if tx.IncludeInStats {
				t.StatsIncome += tx.Amount
			} else {
				t.NonStatsIncome += tx.Amount
			}
		case KindExpense:
			if tx.IncludeInStats {
				t.TotalExpenses += tx.Amount
			}
		case KindTransfer:
			if tx.FromEnvelopeID == 0 && tx.ToEnvelopeID != 0 {
				t.TotalTransferred += tx.Amount
			}
		}
	}
	return t
}

// MainBalance folds transactions into the main balance. Monthly envelopes are
// spending ceilings, not pots: expenses booked against them are paid from the
// main balance. Expenses against a yearly envelope spend that envelope's
// accumulated money instead.
func MainBalance(txs []Transaction, kinds map[int]envelope.Kind) money.Cents {
	var balance money.Cents
	for _, tx := range txs {
		switch tx.Kind {
		case KindIncome:
			if tx.EnvelopeID == 0 {
				balance += tx.Amount
			}
		case KindExpense:
			if tx.EnvelopeID == 0 || kinds[tx.EnvelopeID] != envelope.KindYearly {
				balance -= tx.Amount
			}
		case KindTransfer:
			if tx.FromEnvelopeID == 0 {
				balance -= tx.Amount
			}
			if tx.ToEnvelopeID == 0 {
				balance += tx.Amount
			}
		}
	}
	return balance
}

// EnvelopeDeposits folds transactions into a yearly envelope's balance:
// cumulative net deposits minus expenses debited against it.
func EnvelopeDeposits(txs []Transaction, envelopeID int) money.Cents {
	var balance money.Cents
	for _, tx := range txs {
		switch tx.Kind {
		case KindIncome:
			if tx.EnvelopeID == envelopeID {
				balance += tx.Amount
			}
		case KindExpense:
			if tx.EnvelopeID == envelopeID {
				balance -= tx.Amount
			}
		case KindTransfer:
			if tx.ToEnvelopeID == envelopeID {
				balance += tx.Amount
			}
			if tx.FromEnvelopeID == envelopeID {
				balance -= tx.Amount
			}
		}
	}
	return balance
}

// SpentBy sums expenses booked against the given envelope, regardless of the
// IncludeInStats flag: the spend tracker counts refunds-excluded entries too.
func SpentBy(txs []Transaction, envelopeID int) money.Cents {
	var spent money.Cents
	for _, tx := range txs {
		if tx.Kind == KindExpense && tx.EnvelopeID == envelopeID {
			spent += tx.Amount
		}
	}
	return spent
}
