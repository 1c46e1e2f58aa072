package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/pkg/transaction"
)

// Ledger is the slice of the transaction service the allocation engine needs.
type Ledger interface {
	RecordAll(ctx context.Context, txs []transaction.Transaction) ([]transaction.Transaction, error)
}

type EnvelopeDirectory interface {
	Exists(ctx context.Context, id int) (bool, error)
}

type Service interface {
	AllocateSalary(ctx context.Context, amount money.Cents, date time.Time, includeInStats bool, description string, splits []Split) ([]transaction.Transaction, error)
	AllocateBonus(ctx context.Context, amount money.Cents, date time.Time, includeInStats bool, description string, splits []PercentSplit) ([]transaction.Transaction, error)
	AllocateOther(ctx context.Context, amount money.Cents, date time.Time, includeInStats bool, description string) ([]transaction.Transaction, error)
}

type ServiceImpl struct {
	ledger    Ledger
	envelopes EnvelopeDirectory
}

func NewService(ledger Ledger, envelopes EnvelopeDirectory) *ServiceImpl {
	return &ServiceImpl{ledger: ledger, envelopes: envelopes}
}

func (s *ServiceImpl) AllocateSalary(ctx context.Context, amount money.Cents, date time.Time, includeInStats bool, description string, splits []Split) ([]transaction.Transaction, error) {
	for _, split := range splits {
		if err := s.checkEnvelope(ctx, split.EnvelopeID); err != nil {
			return nil, err
		}
	}
	plan, err := PlanSalary(amount, date, includeInStats, description, splits)
	if err != nil {
		return nil, err
	}
	return s.ledger.RecordAll(ctx, plan)
}

func (s *ServiceImpl) AllocateBonus(ctx context.Context, amount money.Cents, date time.Time, includeInStats bool, description string, splits []PercentSplit) ([]transaction.Transaction, error) {
	for _, split := range splits {
		if split.EnvelopeID == 0 {
			continue
		}
		if err := s.checkEnvelope(ctx, split.EnvelopeID); err != nil {
			return nil, err
		}
	}
	plan, err := PlanBonus(amount, date, includeInStats, description, splits)
	if err != nil {
		return nil, err
	}
	return s.ledger.RecordAll(ctx, plan)
}

// AllocateOther records a plain income into the main balance, no splits.
func (s *ServiceImpl) AllocateOther(ctx context.Context, amount money.Cents, date time.Time, includeInStats bool, description string) ([]transaction.Transaction, error) {
	if amount <= 0 {
		return nil, transaction.ErrNonPositiveAmount
	}
	return s.ledger.RecordAll(ctx, []transaction.Transaction{
		transaction.NewIncome(amount, date, description, includeInStats),
	})
}

func (s *ServiceImpl) checkEnvelope(ctx context.Context, id int) error {
	exists, err := s.envelopes.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("could not check envelope %d: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("%w: %d", transaction.ErrUnknownEnvelope, id)
	}
	return nil
}
