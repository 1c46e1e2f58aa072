package closure

import (
	"context"
	"errors"

	"github.com/koperta/koperta/internal/utils"
	"github.com/koperta/koperta/pkg/envelope"
	"github.com/koperta/koperta/pkg/transaction"
	log "github.com/sirupsen/logrus"
)

type Ledger interface {
	MonthTotals(ctx context.Context, month utils.MonthKey) (transaction.MonthTotals, error)
}

type Envelopes interface {
	MonthlySnapshots(ctx context.Context, month utils.MonthKey) ([]envelope.MonthlySnapshot, error)
	FreeFunds(ctx context.Context) (envelope.Envelope, error)
}

type Service interface {
	// CloseMonth reconciles the month and rolls its net result into free
	// funds, exactly once. Closing an already-closed month returns the prior
	// closure with ErrAlreadyClosed.
	CloseMonth(ctx context.Context, month utils.MonthKey) (MonthClosure, error)
	Get(ctx context.Context, month utils.MonthKey) (MonthClosure, error)
	GetAll(ctx context.Context) ([]MonthClosure, error)
	IsClosed(ctx context.Context, month utils.MonthKey) (bool, error)
}

type ServiceImpl struct {
	repo      Repository
	ledger    Ledger
	envelopes Envelopes
}

func NewService(repo Repository, ledger Ledger, envelopes Envelopes) *ServiceImpl {
	return &ServiceImpl{repo: repo, ledger: ledger, envelopes: envelopes}
}

func (s *ServiceImpl) CloseMonth(ctx context.Context, month utils.MonthKey) (MonthClosure, error) {
	totals, err := s.ledger.MonthTotals(ctx, month)
	if err != nil {
		return MonthClosure{}, err
	}
	snapshots, err := s.envelopes.MonthlySnapshots(ctx, month)
	if err != nil {
		return MonthClosure{}, err
	}
	freeFunds, err := s.envelopes.FreeFunds(ctx)
	if err != nil {
		return MonthClosure{}, err
	}

	summary := BuildSummary(totals, snapshots)
	rollover := RolloverTransactions(summary, month, freeFunds.ID)

	stored, created, err := s.repo.Create(ctx, month, summary, rollover)
	if err != nil {
		return MonthClosure{}, err
	}
	if !created {
		log.Infof("month %s was already closed, returning prior closure", month)
		return stored, ErrAlreadyClosed
	}
	return stored, nil
}

func (s *ServiceImpl) Get(ctx context.Context, month utils.MonthKey) (MonthClosure, error) {
	return s.repo.Get(ctx, month)
}

func (s *ServiceImpl) GetAll(ctx context.Context) ([]MonthClosure, error) {
	return s.repo.GetAll(ctx)
}

// IsClosed is the authoritative month-status check: a closure record exists or
// it does not.
func (s *ServiceImpl) IsClosed(ctx context.Context, month utils.MonthKey) (bool, error) {
	_, err := s.repo.Get(ctx, month)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrClosureNotFound) {
		return false, nil
	}
	return false, err
}
