package category

import (
	"context"
	"sort"
)

type StubUsageRepository struct {
	counts map[string]int64
	// FailNext makes the next Increment fail, to exercise the
	// fire-and-forget contract in tests.
	FailNext error
}

func NewStubUsageRepository() *StubUsageRepository {
	return &StubUsageRepository{counts: map[string]int64{}}
}

func (s *StubUsageRepository) Increment(ctx context.Context, categoryID string) error {
	if s.FailNext != nil {
		err := s.FailNext
		s.FailNext = nil
		return err
	}
	s.counts[categoryID]++
	return nil
}

func (s *StubUsageRepository) TopN(ctx context.Context, n int) ([]CategoryUsage, error) {
	usages := make([]CategoryUsage, 0, len(s.counts))
	for id, count := range s.counts {
		usages = append(usages, CategoryUsage{CategoryID: id, UseCount: count})
	}
	sort.Slice(usages, func(i, j int) bool { return usages[i].UseCount > usages[j].UseCount })
	if len(usages) > n {
		usages = usages[:n]
	}
	return usages, nil
}

func (s *StubUsageRepository) Cleanup() {
	s.counts = map[string]int64{}
	s.FailNext = nil
}
