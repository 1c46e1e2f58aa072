package allocation

import (
	"context"
	"testing"

	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/pkg/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLedger struct {
	recorded []transaction.Transaction
}

func (s *stubLedger) RecordAll(_ context.Context, txs []transaction.Transaction) ([]transaction.Transaction, error) {
	s.recorded = append(s.recorded, txs...)
	return txs, nil
}

type stubEnvelopes struct {
	known map[int]bool
}

func (s *stubEnvelopes) Exists(_ context.Context, id int) (bool, error) {
	return s.known[id], nil
}

var ledger = &stubLedger{}
var envelopes = &stubEnvelopes{known: map[int]bool{2: true, 5: true, 6: true, 7: true}}

func setup(t *testing.T) (*ServiceImpl, context.Context, func()) {
	service := NewService(ledger, envelopes)
	return service, context.Background(), func() {
		t.Log("Teardown after test")
		ledger.recorded = nil
	}
}

func TestServiceImpl_AllocateSalary(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	// when
	recorded, err := service.AllocateSalary(ctx, 500000, payday, true, "Wypłata", []Split{
		{EnvelopeID: 2, Amount: 250000},
		{EnvelopeID: 5, Amount: 50000},
	})

	// then the whole plan lands in the ledger in one batch
	require.NoError(t, err)
	assert.Len(t, recorded, 3)
	assert.Len(t, ledger.recorded, 3)
}

func TestServiceImpl_AllocateSalary_rejectsUnknownEnvelopeBeforeRecording(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	_, err := service.AllocateSalary(ctx, 500000, payday, true, "Wypłata", []Split{
		{EnvelopeID: 99, Amount: 50000},
	})

	assert.ErrorIs(t, err, transaction.ErrUnknownEnvelope)
	assert.Empty(t, ledger.recorded, "nothing is appended when validation fails")
}

func TestServiceImpl_AllocateBonus_rejectsInvalidPercentagesBeforeRecording(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	_, err := service.AllocateBonus(ctx, 130000, payday, true, "Premia", []PercentSplit{
		{EnvelopeID: 5, Percent: 50},
	})

	assert.ErrorIs(t, err, ErrAllocationNotExhaustive)
	assert.Empty(t, ledger.recorded)
}

func TestServiceImpl_AllocateBonus_mainBalanceBucketNeedsNoEnvelope(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	recorded, err := service.AllocateBonus(ctx, 130000, payday, true, "Premia", []PercentSplit{
		{EnvelopeID: 5, Percent: 55},
		{EnvelopeID: 0, Percent: 45},
	})

	require.NoError(t, err)
	assert.Len(t, recorded, 2)
}

func TestServiceImpl_AllocateOther(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	recorded, err := service.AllocateOther(ctx, 20000, payday, false, "Zwrot podatku")

	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, transaction.KindIncome, recorded[0].Kind)
	assert.False(t, recorded[0].IncludeInStats)
	assert.Equal(t, money.Cents(20000), recorded[0].Amount)
}
