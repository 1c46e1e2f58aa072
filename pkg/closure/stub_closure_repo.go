package closure

import (
	"context"
	"sort"
	"time"

	"github.com/koperta/koperta/internal/utils"
	"github.com/koperta/koperta/pkg/transaction"
)

// StubRepository is an in-memory Repository for tests. It keeps the
// all-or-nothing contract: rollover transactions land only when the closure
// row is new.
type StubRepository struct {
	closures  map[utils.MonthKey]MonthClosure
	Rollovers []transaction.Transaction
}

func NewStubRepository() *StubRepository {
	return &StubRepository{closures: map[utils.MonthKey]MonthClosure{}}
}

func (s *StubRepository) Cleanup() {
	s.closures = map[utils.MonthKey]MonthClosure{}
	s.Rollovers = nil
}

func (s *StubRepository) Get(_ context.Context, month utils.MonthKey) (MonthClosure, error) {
	c, ok := s.closures[month]
	if !ok {
		return MonthClosure{}, ErrClosureNotFound
	}
	return c, nil
}

func (s *StubRepository) GetAll(_ context.Context) ([]MonthClosure, error) {
	closures := make([]MonthClosure, 0, len(s.closures))
	for _, c := range s.closures {
		closures = append(closures, c)
	}
	sort.Slice(closures, func(i, j int) bool { return closures[i].MonthKey > closures[j].MonthKey })
	return closures, nil
}

func (s *StubRepository) Create(_ context.Context, month utils.MonthKey, summary Summary, rollover []transaction.Transaction) (MonthClosure, bool, error) {
	if existing, ok := s.closures[month]; ok {
		return existing, false, nil
	}
	c := MonthClosure{MonthKey: month, ClosedAt: time.Now(), Summary: summary}
	s.closures[month] = c
	s.Rollovers = append(s.Rollovers, rollover...)
	return c, true, nil
}
