package envelope

import (
	"context"
	"testing"
	"time"

	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLedger struct {
	spent    map[int]money.Cents
	balances map[int]money.Cents
}

func (s *stubLedger) SpentInMonth(_ context.Context, envelopeID int, _ utils.MonthKey) (money.Cents, error) {
	return s.spent[envelopeID], nil
}

func (s *stubLedger) EnvelopeBalance(_ context.Context, envelopeID int, _ time.Time) (money.Cents, error) {
	return s.balances[envelopeID], nil
}

var repo = NewStubRepository()
var ledger = &stubLedger{}

func setup(t *testing.T) (*ServiceImpl, context.Context, func()) {
	service := NewService(repo, ledger)
	return service, context.Background(), func() {
		t.Log("Teardown after test")
		repo.Cleanup()
		ledger.spent = nil
		ledger.balances = nil
	}
}

func seedFreeFunds(t *testing.T, ctx context.Context) Envelope {
	t.Helper()
	id, err := repo.Store(ctx, Envelope{Name: "Wolne środki", Kind: KindYearly, Role: RoleFreeFunds})
	require.NoError(t, err)
	e, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	return e
}

func TestServiceImpl_Create(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	// when two envelopes are created
	first, err := service.Create(ctx, Envelope{Name: "Jedzenie", Kind: KindMonthly, PlannedAmount: 150000})
	require.NoError(t, err)
	second, err := service.Create(ctx, Envelope{Name: "Wakacje", Kind: KindYearly, PlannedAmount: 600000})
	require.NoError(t, err)

	// then each lands after the previous with position headroom
	assert.Equal(t, 100, first.Position)
	assert.Equal(t, 200, second.Position)
	assert.Equal(t, RoleRegular, first.Role)
}

func TestServiceImpl_Create_refusesFreeFundsRole(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	_, err := service.Create(ctx, Envelope{Name: "Drugie wolne środki", Kind: KindYearly, Role: RoleFreeFunds})

	assert.ErrorIs(t, err, ErrReservedEnvelope)
}

func TestServiceImpl_Create_rejectsInvalidEnvelopes(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	_, err := service.Create(ctx, Envelope{Name: "", Kind: KindMonthly})
	assert.ErrorIs(t, err, ErrInvalidEnvelope)

	_, err = service.Create(ctx, Envelope{Name: "Jedzenie", Kind: "weekly"})
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
}

func TestServiceImpl_UpdateAndDelete_guardFreeFunds(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	freeFunds := seedFreeFunds(t, ctx)

	_, err := service.Update(ctx, Envelope{ID: freeFunds.ID, Name: "Inna nazwa", Kind: KindYearly})
	assert.ErrorIs(t, err, ErrReservedEnvelope)

	_, err = service.Delete(ctx, freeFunds.ID)
	assert.ErrorIs(t, err, ErrReservedEnvelope)
}

func TestServiceImpl_MonthlySnapshots(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	seedFreeFunds(t, ctx)
	food, err := service.Create(ctx, Envelope{Name: "Jedzenie", Kind: KindMonthly, PlannedAmount: 150000})
	require.NoError(t, err)
	fun, err := service.Create(ctx, Envelope{Name: "Rozrywka", Kind: KindMonthly, PlannedAmount: 50000})
	require.NoError(t, err)
	_, err = service.Create(ctx, Envelope{Name: "Wakacje", Kind: KindYearly, PlannedAmount: 600000})
	require.NoError(t, err)
	ledger.spent = map[int]money.Cents{food.ID: 120000, fun.ID: 60000}

	snapshots, err := service.MonthlySnapshots(ctx, "2025-01")

	require.NoError(t, err)
	require.Len(t, snapshots, 2, "yearly envelopes stay out of monthly snapshots")
	assert.Equal(t, money.Cents(30000), snapshots[0].Balance)
	assert.Equal(t, money.Cents(-10000), snapshots[1].Balance, "a blown ceiling reports negative")
}

func TestServiceImpl_YearlySnapshots(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	freeFunds := seedFreeFunds(t, ctx)
	vacation, err := service.Create(ctx, Envelope{Name: "Wakacje", Kind: KindYearly, PlannedAmount: 600000})
	require.NoError(t, err)
	ledger.balances = map[int]money.Cents{freeFunds.ID: 340000, vacation.ID: 250000}

	snapshots, err := service.YearlySnapshots(ctx, time.Now())

	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, money.Cents(340000), snapshots[0].Balance)
	assert.Equal(t, money.Cents(250000), snapshots[1].Balance)
}

func TestServiceImpl_MoveAfter(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	a, err := service.Create(ctx, Envelope{Name: "A", Kind: KindMonthly})
	require.NoError(t, err)
	_, err = service.Create(ctx, Envelope{Name: "B", Kind: KindMonthly})
	require.NoError(t, err)
	c, err := service.Create(ctx, Envelope{Name: "C", Kind: KindMonthly})
	require.NoError(t, err)

	// when C moves between A and B
	ok, err := service.MoveAfter(ctx, c.ID, a.ID)

	// then the listing follows the new order
	require.NoError(t, err)
	assert.True(t, ok)
	all, err := service.GetAll(ctx)
	require.NoError(t, err)
	names := []string{all[0].Name, all[1].Name, all[2].Name}
	assert.Equal(t, []string{"A", "C", "B"}, names)
}

func TestServiceImpl_MoveAfter_toFront(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	_, err := service.Create(ctx, Envelope{Name: "A", Kind: KindMonthly})
	require.NoError(t, err)
	b, err := service.Create(ctx, Envelope{Name: "B", Kind: KindMonthly})
	require.NoError(t, err)

	// preceding id 0 moves the envelope to the front
	ok, err := service.MoveAfter(ctx, b.ID, 0)

	require.NoError(t, err)
	assert.True(t, ok)
	all, err := service.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", all[0].Name)
	assert.Equal(t, "A", all[1].Name)
}
