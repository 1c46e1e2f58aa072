package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/koperta/koperta/internal/event_bus"
	"github.com/koperta/koperta/internal/utils"
	"github.com/koperta/koperta/pkg/transaction"
	log "github.com/sirupsen/logrus"
)

type EnvelopeDirectory interface {
	Exists(ctx context.Context, id int) (bool, error)
}

type Service interface {
	GetAll(ctx context.Context) ([]Rule, error)
	Get(ctx context.Context, id int) (Rule, error)
	Create(ctx context.Context, rule Rule) (Rule, error)
	Update(ctx context.Context, rule Rule) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	// DueRules returns active rules whose trigger day has passed and which
	// have not been materialized in asOf's month. Deferred rules reappear
	// here on every check until approved.
	DueRules(ctx context.Context, asOf time.Time) ([]Rule, error)
	// Materialize emits the rule's transaction for asOf's month, exactly
	// once. A second call in the same month returns the recorded
	// materialization and ErrAlreadyMaterialized.
	Materialize(ctx context.Context, ruleID int, asOf time.Time) (Materialization, error)
}

type ServiceImpl struct {
	repo      Repository
	envelopes EnvelopeDirectory
	bus       *event_bus.EventBus
}

func NewService(repo Repository, envelopes EnvelopeDirectory, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, envelopes: envelopes, bus: bus}
}

func (s *ServiceImpl) GetAll(ctx context.Context) ([]Rule, error) {
	return s.repo.GetAll(ctx)
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Rule, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ServiceImpl) Create(ctx context.Context, rule Rule) (Rule, error) {
	if err := s.validate(ctx, rule); err != nil {
		return Rule{}, err
	}
	id, err := s.repo.Store(ctx, rule)
	if err != nil {
		return Rule{}, err
	}
	rule.ID = id
	return rule, nil
}

func (s *ServiceImpl) Update(ctx context.Context, rule Rule) (bool, error) {
	if err := s.validate(ctx, rule); err != nil {
		return false, err
	}
	updated, err := s.repo.Update(ctx, rule)
	if err != nil {
		return false, err
	}
	if !updated {
		log.Warnf("recurring payment rule not updated, probably because it does not exist (%d)", rule.ID)
		return false, ErrRuleNotFound
	}
	return true, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) (bool, error) {
	return s.repo.Delete(ctx, id)
}

func (s *ServiceImpl) validate(ctx context.Context, rule Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	for _, id := range []int{rule.EnvelopeID, rule.ToEnvelopeID} {
		if id == 0 {
			continue
		}
		exists, err := s.envelopes.Exists(ctx, id)
		if err != nil {
			return fmt.Errorf("could not check envelope %d: %w", id, err)
		}
		if !exists {
			return fmt.Errorf("%w: %d", transaction.ErrUnknownEnvelope, id)
		}
	}
	return nil
}

func (s *ServiceImpl) DueRules(ctx context.Context, asOf time.Time) ([]Rule, error) {
	rules, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	materialized, err := s.repo.MaterializedRules(ctx, utils.MonthKeyOf(asOf))
	if err != nil {
		return nil, err
	}

	due := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if rule.IsDueOn(asOf) && !materialized[rule.ID] {
			due = append(due, rule)
		}
	}
	return due, nil
}

func (s *ServiceImpl) Materialize(ctx context.Context, ruleID int, asOf time.Time) (Materialization, error) {
	rule, err := s.repo.GetByID(ctx, ruleID)
	if err != nil {
		return Materialization{}, err
	}
	if !rule.IsDueOn(asOf) {
		return Materialization{}, ErrRuleNotDue
	}

	month := utils.MonthKeyOf(asOf)
	tx := rule.buildTransaction(asOf)
	m, err := s.repo.StoreMaterialization(ctx, ruleID, month, tx)
	if err != nil {
		if errors.Is(err, ErrAlreadyMaterialized) {
			// idempotent outcome: hand back what the first call produced
			existing, findErr := s.repo.FindMaterialization(ctx, ruleID, month)
			if findErr != nil {
				return Materialization{}, findErr
			}
			return existing, ErrAlreadyMaterialized
		}
		return Materialization{}, err
	}

	s.publishRecorded(ctx, tx)
	return m, nil
}

func (r Rule) buildTransaction(asOf time.Time) transaction.Transaction {
	date := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	switch r.Kind {
	case KindTransfer:
		return transaction.NewTransfer(r.Amount, date, 0, r.ToEnvelopeID, r.Name)
	default:
		return transaction.NewExpense(r.Amount, date, r.EnvelopeID, r.CategoryID, r.Name, true)
	}
}

func (s *ServiceImpl) publishRecorded(ctx context.Context, t transaction.Transaction) {
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
