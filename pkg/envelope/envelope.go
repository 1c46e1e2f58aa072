package envelope

import (
	"errors"

	"github.com/koperta/koperta/internal/money"
)

type Kind string

const (
	// KindMonthly envelopes are spending ceilings: spend is tracked against
	// PlannedAmount within a calendar month and starts from zero again after
	// the month is closed.
	KindMonthly Kind = "monthly"
	// KindYearly envelopes accumulate real money toward PlannedAmount and
	// never reset.
	KindYearly Kind = "yearly"
)

type Role string

const (
	RoleRegular Role = "regular"
	// RoleFreeFunds marks the reserved yearly envelope that absorbs the
	// month-end surplus or deficit. It has no planned ceiling and cannot be
	// deleted.
	RoleFreeFunds Role = "free_funds"
)

var (
	ErrEnvelopeNotFound = errors.New("envelope not found")
	ErrReservedEnvelope = errors.New("reserved envelope cannot be modified")
	ErrInvalidEnvelope  = errors.New("invalid envelope")
)

type Envelope struct {
	ID            int
	Name          string
	Icon          string
	Kind          Kind
	PlannedAmount money.Cents
	Group         string
	Role          Role
	Position      int
}

// Validate checks structural invariants before a store or update.
func (e Envelope) Validate() error {
	if e.Name == "" {
		return ErrInvalidEnvelope
	}
	if e.Kind != KindMonthly && e.Kind != KindYearly {
		return ErrInvalidEnvelope
	}
	if e.PlannedAmount < 0 {
		return ErrInvalidEnvelope
	}
	return nil
}

// MonthlySnapshot is a monthly envelope with its spend for the open period.
type MonthlySnapshot struct {
	Envelope Envelope
	Spent    money.Cents
	// Balance is PlannedAmount - Spent; negative when the ceiling is blown.
	Balance money.Cents
}

// YearlySnapshot is a yearly envelope with its accumulated balance.
type YearlySnapshot struct {
	Envelope Envelope
	Balance  money.Cents
}
