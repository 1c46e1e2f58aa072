package recurring

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/internal/utils"
)

type Kind string

const (
	// KindExpense rules book a monthly expense against an envelope.
	KindExpense Kind = "expense"
	// KindTransfer rules move money from the main balance into an envelope.
	KindTransfer Kind = "transfer"
)

var (
	ErrRuleNotFound        = errors.New("recurring payment rule not found")
	ErrInvalidRule         = errors.New("invalid recurring payment rule")
	ErrRuleNotDue          = errors.New("recurring payment rule is not due")
	ErrAlreadyMaterialized = errors.New("rule already materialized for this month")
)

// Rule is a day-of-month-triggered payment template. It produces at most one
// transaction per calendar month.
type Rule struct {
	ID         int
	Name       string
	Amount     money.Cents
	DayOfMonth int
	Kind       Kind
	// EnvelopeID is the expense envelope (expense rules, optional).
	EnvelopeID int
	// ToEnvelopeID is the transfer destination (transfer rules, required).
	ToEnvelopeID int
	CategoryID   string
	Active       bool
}

func (r Rule) Validate() error {
	if r.Name == "" || r.Amount <= 0 {
		return ErrInvalidRule
	}
	if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
		return ErrInvalidRule
	}
	switch r.Kind {
	case KindExpense:
		return nil
	case KindTransfer:
		if r.ToEnvelopeID == 0 {
			return ErrInvalidRule
		}
		return nil
	default:
		return ErrInvalidRule
	}
}

// IsDueOn reports whether the rule's trigger day has been reached in asOf's
// month. The trigger day is clamped to the month's last day, so a rule set to
// day 31 still fires in February.
func (r Rule) IsDueOn(asOf time.Time) bool {
	if !r.Active {
		return false
	}
	day := r.DayOfMonth
	if last := utils.LastDayOfMonth(asOf); day > last {
		day = last
	}
	return asOf.Day() >= day
}

// Materialization records that a rule produced its transaction for a month.
// The (RuleID, MonthKey) pair is the idempotency key.
type Materialization struct {
	RuleID        int
	MonthKey      utils.MonthKey
	TransactionID uuid.UUID
	CreatedAt     time.Time
}
