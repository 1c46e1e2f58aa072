package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/koperta/koperta/internal/event_bus"
	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/internal/utils"
	"github.com/koperta/koperta/pkg/envelope"
	log "github.com/sirupsen/logrus"
)

// EnvelopeDirectory is the envelope store surface the ledger needs for
// reference validation and balance folds.
type EnvelopeDirectory interface {
	Exists(ctx context.Context, id int) (bool, error)
	KindsByID(ctx context.Context) (map[int]envelope.Kind, error)
}

// CategoryCatalog validates spending categories on expense entries.
type CategoryCatalog interface {
	Exists(id string) bool
}

type Service interface {
	Record(ctx context.Context, t Transaction) (Transaction, error)
	RecordAll(ctx context.Context, txs []Transaction) ([]Transaction, error)
	List(ctx context.Context, filter Filter) ([]Transaction, error)
	MainBalance(ctx context.Context, asOf time.Time) (money.Cents, error)
	SpentInMonth(ctx context.Context, envelopeID int, month utils.MonthKey) (money.Cents, error)
	EnvelopeBalance(ctx context.Context, envelopeID int, asOf time.Time) (money.Cents, error)
	MonthTotals(ctx context.Context, month utils.MonthKey) (MonthTotals, error)
	NetIncome(ctx context.Context, from, to time.Time, includeNonStats bool) (money.Cents, error)
}

type ServiceImpl struct {
	repo       Repository
	envelopes  EnvelopeDirectory
	categories CategoryCatalog
	bus        *event_bus.EventBus
}

func NewService(repo Repository, envelopes EnvelopeDirectory, categories CategoryCatalog, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, envelopes: envelopes, categories: categories, bus: bus}
}

func (s *ServiceImpl) Record(ctx context.Context, t Transaction) (Transaction, error) {
	if err := s.validate(ctx, t); err != nil {
		return Transaction{}, err
	}
	stored, err := s.repo.Store(ctx, t)
	if err != nil {
		return Transaction{}, err
	}
	s.publishRecorded(ctx, stored)
	return stored, nil
}

func (s *ServiceImpl) RecordAll(ctx context.Context, txs []Transaction) ([]Transaction, error) {
	for _, t := range txs {
		if err := s.validate(ctx, t); err != nil {
			return nil, err
		}
	}
	stored, err := s.repo.StoreAll(ctx, txs)
	if err != nil {
		return nil, err
	}
	for _, t := range stored {
		s.publishRecorded(ctx, t)
	}
	return stored, nil
}

func (s *ServiceImpl) validate(ctx context.Context, t Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	for _, id := range []int{t.EnvelopeID, t.FromEnvelopeID, t.ToEnvelopeID} {
		if id == 0 {
			continue
		}
		exists, err := s.envelopes.Exists(ctx, id)
		if err != nil {
			return fmt.Errorf("could not check envelope %d: %w", id, err)
		}
		if !exists {
			return fmt.Errorf("%w: %d", ErrUnknownEnvelope, id)
		}
	}
	if t.CategoryID != "" && !s.categories.Exists(t.CategoryID) {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, t.CategoryID)
	}
	return nil
}

// publishRecorded notifies subscribers (usage ranking) about a new ledger
// entry. Best-effort: a subscriber failure never affects the stored entry.
func (s *ServiceImpl) publishRecorded(ctx context.Context, t Transaction) {
	if s.bus == nil {
		return
	}
	err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TransactionRecorded, event_bus.TransactionRecordedData{
		TransactionID: t.ID.String(),
		Kind:          string(t.Kind),
		CategoryID:    t.CategoryID,
		Date:          t.Date,
	}))
	if err != nil {
		log.Warnf("transaction recorded event not fully processed: %v", err)
	}
}

func (s *ServiceImpl) List(ctx context.Context, filter Filter) ([]Transaction, error) {
	return s.repo.List(ctx, filter)
}

func (s *ServiceImpl) MainBalance(ctx context.Context, asOf time.Time) (money.Cents, error) {
	txs, err := s.repo.List(ctx, Filter{To: asOf.AddDate(0, 0, 1)})
	if err != nil {
		return 0, err
	}
	kinds, err := s.envelopes.KindsByID(ctx)
	if err != nil {
		return 0, err
	}
	return MainBalance(txs, kinds), nil
}

func (s *ServiceImpl) SpentInMonth(ctx context.Context, envelopeID int, month utils.MonthKey) (money.Cents, error) {
	from, to := month.Bounds()
	txs, err := s.repo.List(ctx, Filter{From: from, To: to, EnvelopeID: envelopeID, Kind: KindExpense})
	if err != nil {
		return 0, err
	}
	return SpentBy(txs, envelopeID), nil
}

func (s *ServiceImpl) EnvelopeBalance(ctx context.Context, envelopeID int, asOf time.Time) (money.Cents, error) {
	txs, err := s.repo.List(ctx, Filter{To: asOf.AddDate(0, 0, 1), EnvelopeID: envelopeID})
	if err != nil {
		return 0, err
	}
	return EnvelopeDeposits(txs, envelopeID), nil
}

func (s *ServiceImpl) MonthTotals(ctx context.Context, month utils.MonthKey) (MonthTotals, error) {
	from, to := month.Bounds()
	txs, err := s.repo.List(ctx, Filter{From: from, To: to})
	if err != nil {
		return MonthTotals{}, err
	}
	return Totals(txs), nil
}

func (s *ServiceImpl) NetIncome(ctx context.Context, from, to time.Time, includeNonStats bool) (money.Cents, error) {
	txs, err := s.repo.List(ctx, Filter{From: from, To: to})
	if err != nil {
		return 0, err
	}
	totals := Totals(txs)
	net := totals.StatsIncome - totals.TotalExpenses
	if includeNonStats {
		net += totals.NonStatsIncome
	}
	return net, nil
}
