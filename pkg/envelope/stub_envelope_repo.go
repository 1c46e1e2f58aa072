package envelope

import (
	"context"
	"sort"
)

type StubRepository struct {
	nextID int
	data   map[int]Envelope
}

func NewStubRepository() *StubRepository {
	return &StubRepository{nextID: 0, data: map[int]Envelope{}}
}

func (s *StubRepository) Store(ctx context.Context, envelope Envelope) (int, error) {
	s.nextID++
	envelope.ID = s.nextID
	s.data[envelope.ID] = envelope
	return envelope.ID, nil
}

func (s *StubRepository) GetAll(ctx context.Context) ([]Envelope, error) {
	envelopes := make([]Envelope, 0, len(s.data))
	for _, e := range s.data {
		envelopes = append(envelopes, e)
	}
	sort.Slice(envelopes, func(i, j int) bool { return envelopes[i].Position < envelopes[j].Position })
	return envelopes, nil
}

func (s *StubRepository) GetByID(ctx context.Context, id int) (Envelope, error) {
	e, ok := s.data[id]
	if !ok {
		return Envelope{}, ErrEnvelopeNotFound
	}
	return e, nil
}

func (s *StubRepository) FindFreeFunds(ctx context.Context) (Envelope, error) {
	for _, e := range s.data {
		if e.Role == RoleFreeFunds {
			return e, nil
		}
	}
	return Envelope{}, ErrEnvelopeNotFound
}

func (s *StubRepository) Update(ctx context.Context, envelope Envelope) (bool, error) {
	if _, ok := s.data[envelope.ID]; !ok {
		return false, nil
	}
	current := s.data[envelope.ID]
	envelope.Position = current.Position
	envelope.Role = current.Role
	s.data[envelope.ID] = envelope
	return true, nil
}

func (s *StubRepository) UpdatePosition(ctx context.Context, id int, position int) (bool, error) {
	e, ok := s.data[id]
	if !ok {
		return false, nil
	}
	e.Position = position
	s.data[id] = e
	return true, nil
}

func (s *StubRepository) FindMaxPosition(ctx context.Context) (int, error) {
	maxPosition := 0
	for _, e := range s.data {
		if e.Position > maxPosition {
			maxPosition = e.Position
		}
	}
	return maxPosition, nil
}

func (s *StubRepository) Delete(ctx context.Context, id int) (bool, error) {
	e, ok := s.data[id]
	if !ok || e.Role == RoleFreeFunds {
		return false, nil
	}
	delete(s.data, id)
	return true, nil
}

func (s *StubRepository) Cleanup() {
	s.data = map[int]Envelope{}
	s.nextID = 0
}
