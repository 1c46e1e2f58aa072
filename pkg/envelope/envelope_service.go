package envelope

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/internal/utils"
	log "github.com/sirupsen/logrus"
)

// LedgerReader is the slice of the transaction ledger the envelope store needs
// to derive balances. Implemented by the transaction service and injected at
// wiring time to keep the ledger free of envelope dependencies.
type LedgerReader interface {
	SpentInMonth(ctx context.Context, envelopeID int, month utils.MonthKey) (money.Cents, error)
	EnvelopeBalance(ctx context.Context, envelopeID int, asOf time.Time) (money.Cents, error)
}

type Service interface {
	GetAll(ctx context.Context) ([]Envelope, error)
	Get(ctx context.Context, id int) (Envelope, error)
	Create(ctx context.Context, envelope Envelope) (Envelope, error)
	Update(ctx context.Context, envelope Envelope) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	MoveAfter(ctx context.Context, id, precedingID int) (bool, error)
	Exists(ctx context.Context, id int) (bool, error)
	KindsByID(ctx context.Context) (map[int]Kind, error)
	FreeFunds(ctx context.Context) (Envelope, error)
	MonthlySnapshots(ctx context.Context, month utils.MonthKey) ([]MonthlySnapshot, error)
	YearlySnapshots(ctx context.Context, asOf time.Time) ([]YearlySnapshot, error)
}

type ServiceImpl struct {
	repo   Repository
	ledger LedgerReader
}

func NewService(repo Repository, ledger LedgerReader) *ServiceImpl {
	return &ServiceImpl{repo: repo, ledger: ledger}
}

// SetLedger injects the ledger after construction. The transaction service
// needs this store to validate envelope references, so one of the two has to
// be bound late.
func (s *ServiceImpl) SetLedger(ledger LedgerReader) {
	s.ledger = ledger
}

func (s *ServiceImpl) GetAll(ctx context.Context) ([]Envelope, error) {
	return s.repo.GetAll(ctx)
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Envelope, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ServiceImpl) Create(ctx context.Context, envelope Envelope) (Envelope, error) {
	if err := envelope.Validate(); err != nil {
		return Envelope{}, err
	}
	if envelope.Role == RoleFreeFunds {
		// the free funds envelope is created by migration, exactly once
		return Envelope{}, ErrReservedEnvelope
	}
	envelope.Role = RoleRegular

	maxPosition, err := s.repo.FindMaxPosition(ctx)
	if err != nil {
		return Envelope{}, err
	}
	envelope.Position = maxPosition + 100

	id, err := s.repo.Store(ctx, envelope)
	if err != nil {
		return Envelope{}, err
	}
	envelope.ID = id
	return envelope, nil
}

func (s *ServiceImpl) Update(ctx context.Context, envelope Envelope) (bool, error) {
	if err := envelope.Validate(); err != nil {
		return false, err
	}
	current, err := s.repo.GetByID(ctx, envelope.ID)
	if err != nil {
		return false, err
	}
	if current.Role == RoleFreeFunds {
		return false, ErrReservedEnvelope
	}

	updated, err := s.repo.Update(ctx, envelope)
	if err != nil {
		return false, err
	}
	if !updated {
		log.Warnf("envelope not updated, probably because it does not exist (%d)", envelope.ID)
		return false, fmt.Errorf("envelope not updated")
	}
	return true, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) (bool, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if current.Role == RoleFreeFunds {
		return false, ErrReservedEnvelope
	}
	return s.repo.Delete(ctx, id)
}

func (s *ServiceImpl) Exists(ctx context.Context, id int) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrEnvelopeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *ServiceImpl) KindsByID(ctx context.Context) (map[int]Kind, error) {
	envelopes, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	kinds := make(map[int]Kind, len(envelopes))
	for _, e := range envelopes {
		kinds[e.ID] = e.Kind
	}
	return kinds, nil
}

func (s *ServiceImpl) FreeFunds(ctx context.Context) (Envelope, error) {
	return s.repo.FindFreeFunds(ctx)
}

func (s *ServiceImpl) MonthlySnapshots(ctx context.Context, month utils.MonthKey) ([]MonthlySnapshot, error) {
	envelopes, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	snapshots := make([]MonthlySnapshot, 0, len(envelopes))
	for _, e := range envelopes {
		if e.Kind != KindMonthly {
			continue
		}
		spent, err := s.ledger.SpentInMonth(ctx, e.ID, month)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, MonthlySnapshot{
			Envelope: e,
			Spent:    spent,
			Balance:  e.PlannedAmount - spent,
		})
	}
	return snapshots, nil
}

func (s *ServiceImpl) YearlySnapshots(ctx context.Context, asOf time.Time) ([]YearlySnapshot, error) {
	envelopes, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	snapshots := make([]YearlySnapshot, 0, len(envelopes))
	for _, e := range envelopes {
		if e.Kind != KindYearly {
			continue
		}
		balance, err := s.ledger.EnvelopeBalance(ctx, e.ID, asOf)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, YearlySnapshot{Envelope: e, Balance: balance})
	}
	return snapshots, nil
}

func (s *ServiceImpl) MoveAfter(ctx context.Context, id, precedingID int) (bool, error) {
	envelopes, err := s.repo.GetAll(ctx)
	if err != nil {
		return false, err
	}
	idx := findEnvelope(id, envelopes)
	if idx == -1 {
		return false, ErrEnvelopeNotFound
	}

	newPos := 0
	prevPos, nextPos := findPreviousAndNextPositions(precedingID, envelopes)
	if nextPos == -1 {
		newPos = prevPos + 100
	} else if nextPos-prevPos > 1 {
		newPos = prevPos + ((nextPos - prevPos) / 2)
	} else { // no space between prev and next - respace all envelopes
		if err := s.respace(ctx, envelopes); err != nil {
			return false, err
		}
		return s.MoveAfter(ctx, id, precedingID)
	}
	return s.repo.UpdatePosition(ctx, id, newPos)
}

func (s *ServiceImpl) respace(ctx context.Context, envelopes []Envelope) error {
	for i, e := range envelopes {
		if _, err := s.repo.UpdatePosition(ctx, e.ID, (i+1)*100); err != nil {
			return err
		}
	}
	return nil
}

func findPreviousAndNextPositions(precedingID int, envelopes []Envelope) (int, int) {
	prevIdx := findEnvelope(precedingID, envelopes)
	if prevIdx == -1 {
		if len(envelopes) == 0 {
			return 0, -1
		}
		return 0, envelopes[0].Position
	}
	prevPos := envelopes[prevIdx].Position
	if prevIdx == len(envelopes)-1 {
		return prevPos, -1
	}
	return prevPos, envelopes[prevIdx+1].Position
}

func findEnvelope(id int, envelopes []Envelope) int {
	for idx, e := range envelopes {
		if e.ID == id {
			return idx
		}
	}
	return -1
}
