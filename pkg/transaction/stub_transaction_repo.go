package transaction

import (
	"context"
	"sort"
)

// StubRepository is an in-memory ledger for service tests. It mirrors the
// ordering guarantee of the real store: date first, insertion order second.
type StubRepository struct {
	nextSeq int64
	data    []Transaction
}

func NewStubRepository() *StubRepository {
	return &StubRepository{}
}

func (s *StubRepository) Store(ctx context.Context, t Transaction) (Transaction, error) {
	s.nextSeq++
	t.Seq = s.nextSeq
	s.data = append(s.data, t)
	return t, nil
}

func (s *StubRepository) StoreAll(ctx context.Context, txs []Transaction) ([]Transaction, error) {
	stored := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		st, _ := s.Store(ctx, t)
		stored = append(stored, st)
	}
	return stored, nil
}

func (s *StubRepository) List(ctx context.Context, filter Filter) ([]Transaction, error) {
	var txs []Transaction
	for _, t := range s.data {
		if !filter.From.IsZero() && t.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !t.Date.Before(filter.To) {
			continue
		}
		if filter.EnvelopeID != 0 &&
			t.EnvelopeID != filter.EnvelopeID &&
			t.FromEnvelopeID != filter.EnvelopeID &&
			t.ToEnvelopeID != filter.EnvelopeID {
			continue
		}
		if filter.Kind != "" && t.Kind != filter.Kind {
			continue
		}
		txs = append(txs, t)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Seq < txs[j].Seq
		}
		return txs[i].Date.Before(txs[j].Date)
	})
	return txs, nil
}

func (s *StubRepository) Cleanup() {
	s.data = nil
	s.nextSeq = 0
}
