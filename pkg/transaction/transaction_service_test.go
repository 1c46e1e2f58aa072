package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/koperta/koperta/internal/event_bus"
	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/pkg/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEnvelopes struct {
	kinds map[int]envelope.Kind
}

func (s *stubEnvelopes) Exists(_ context.Context, id int) (bool, error) {
	_, ok := s.kinds[id]
	return ok, nil
}

func (s *stubEnvelopes) KindsByID(_ context.Context) (map[int]envelope.Kind, error) {
	return s.kinds, nil
}

type stubCatalog struct{}

func (stubCatalog) Exists(id string) bool {
	switch id {
	case "groceries", "bills", "entertainment", "travel":
		return true
	}
	return false
}

var repo = NewStubRepository()
var envelopesStub = &stubEnvelopes{kinds: map[int]envelope.Kind{
	2: envelope.KindMonthly,
	5: envelope.KindYearly,
}}
var bus = event_bus.NewEventBus()

func setup(t *testing.T) (*ServiceImpl, context.Context, func()) {
	service := NewService(repo, envelopesStub, stubCatalog{}, bus)
	return service, context.Background(), func() {
		t.Log("Teardown after test")
		repo.Cleanup()
	}
}

func TestServiceImpl_Record(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	// given a usage subscriber on the bus
	var published []event_bus.TransactionRecordedData
	unsubscribe := event_bus.SubscribeTyped(bus, event_bus.TransactionRecorded,
		func(e event_bus.EventT[event_bus.TransactionRecordedData]) error {
			published = append(published, e.Data)
			return nil
		})
	defer unsubscribe()

	// when
	stored, err := service.Record(ctx, NewExpense(12000, day, 2, "groceries", "Biedronka", true))

	// then the entry gets its insertion order and the event is out
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Seq)
	require.Len(t, published, 1)
	assert.Equal(t, "groceries", published[0].CategoryID)
}

func TestServiceImpl_Record_rejectsUnknownReferences(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	_, err := service.Record(ctx, NewExpense(12000, day, 99, "groceries", "x", true))
	assert.ErrorIs(t, err, ErrUnknownEnvelope)

	_, err = service.Record(ctx, NewExpense(12000, day, 2, "crypto", "x", true))
	assert.ErrorIs(t, err, ErrUnknownCategory)

	listed, listErr := service.List(ctx, Filter{})
	require.NoError(t, listErr)
	assert.Empty(t, listed, "rejected entries never reach the ledger")
}

func TestServiceImpl_RecordAll_validatesTheWholeBatchFirst(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	_, err := service.RecordAll(ctx, []Transaction{
		NewIncome(500000, day, "Wypłata", true),
		NewTransfer(50000, day, 0, 99, "Nieznana koperta"),
	})

	assert.ErrorIs(t, err, ErrUnknownEnvelope)
	listed, listErr := service.List(ctx, Filter{})
	require.NoError(t, listErr)
	assert.Empty(t, listed)
}

func TestServiceImpl_List_ordersByDateThenInsertion(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	later := day.AddDate(0, 0, 5)
	_, err := service.Record(ctx, NewExpense(100, later, 2, "groceries", "trzecia", true))
	require.NoError(t, err)
	_, err = service.Record(ctx, NewExpense(100, day, 2, "groceries", "pierwsza", true))
	require.NoError(t, err)
	_, err = service.Record(ctx, NewExpense(100, day, 2, "groceries", "druga", true))
	require.NoError(t, err)

	listed, err := service.List(ctx, Filter{})

	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "pierwsza", listed[0].Description)
	assert.Equal(t, "druga", listed[1].Description)
	assert.Equal(t, "trzecia", listed[2].Description)
}

func TestServiceImpl_MainBalance(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	_, err := service.RecordAll(ctx, []Transaction{
		NewIncome(500000, day, "Wypłata", true),
		NewExpense(120000, day, 2, "groceries", "Zakupy", true),
		NewTransfer(50000, day, 0, 5, "Odkładanie"),
	})
	require.NoError(t, err)

	balance, err := service.MainBalance(ctx, day)

	require.NoError(t, err)
	assert.Equal(t, money.Cents(330000), balance)
}

func TestServiceImpl_MonthTotals_boundsAreHalfOpen(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	_, err := service.RecordAll(ctx, []Transaction{
		NewIncome(500000, day, "Wypłata", true),
		NewExpense(120000, time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC), 2, "groceries", "Ostatni dzień", true),
		NewExpense(99000, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), 2, "groceries", "Następny miesiąc", true),
	})
	require.NoError(t, err)

	totals, err := service.MonthTotals(ctx, "2025-01")

	require.NoError(t, err)
	assert.Equal(t, money.Cents(500000), totals.StatsIncome)
	assert.Equal(t, money.Cents(120000), totals.TotalExpenses)
}

func TestServiceImpl_EnvelopeBalance(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	_, err := service.RecordAll(ctx, []Transaction{
		NewTransfer(50000, day, 0, 5, "Odkładanie"),
		NewExpense(20000, day.AddDate(0, 0, 1), 5, "travel", "Hotel", true),
	})
	require.NoError(t, err)

	balance, err := service.EnvelopeBalance(ctx, 5, day.AddDate(0, 0, 2))

	require.NoError(t, err)
	assert.Equal(t, money.Cents(30000), balance)
}

func TestServiceImpl_NetIncome(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	_, err := service.RecordAll(ctx, []Transaction{
		NewIncome(500000, day, "Wypłata", true),
		NewIncome(20000, day, "Zwrot", false),
		NewExpense(120000, day, 2, "groceries", "Zakupy", true),
	})
	require.NoError(t, err)

	from, to := day.AddDate(0, 0, -1), day.AddDate(0, 0, 1)

	net, err := service.NetIncome(ctx, from, to, false)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(380000), net)

	net, err = service.NetIncome(ctx, from, to, true)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(400000), net)
}
