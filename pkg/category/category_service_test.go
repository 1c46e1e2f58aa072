package category

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/koperta/koperta/internal/event_bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var usage = NewStubUsageRepository()

func setup(t *testing.T) (*ServiceImpl, context.Context, func()) {
	service := NewService(NewCatalog(), usage)
	return service, context.Background(), func() {
		t.Log("Teardown after test")
		usage.Cleanup()
	}
}

func TestCatalog_Resolve(t *testing.T) {
	catalog := NewCatalog()

	name, ok := catalog.Resolve("bills")
	assert.True(t, ok)
	assert.Equal(t, "Wspólne opłaty", name)

	// income-only tags never resolve to an envelope
	_, ok = catalog.Resolve("salary")
	assert.False(t, ok)

	_, ok = catalog.Resolve("crypto")
	assert.False(t, ok)
}

func TestServiceImpl_RecordUse_ranksSuggestions(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	service.RecordUse(ctx, "groceries")
	service.RecordUse(ctx, "groceries")
	service.RecordUse(ctx, "bills")

	top, err := service.TopN(ctx, 2)

	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "groceries", top[0].CategoryID)
	assert.Equal(t, int64(2), top[0].UseCount)
	assert.Equal(t, "bills", top[1].CategoryID)
}

func TestServiceImpl_RecordUse_ignoresUnknownCategories(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	service.RecordUse(ctx, "crypto")

	top, err := service.TopN(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestServiceImpl_RecordUse_neverFailsTheCaller(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	usage.FailNext = errors.New("db gone")

	// nothing to assert beyond "does not panic, does not propagate":
	// RecordUse has no error return by contract
	service.RecordUse(ctx, "groceries")

	service.RecordUse(ctx, "groceries")
	top, err := service.TopN(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, int64(1), top[0].UseCount, "the failed increment is simply lost")
}

func TestServiceImpl_SubscribeToLedger(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	bus := event_bus.NewEventBus()
	unsubscribe := service.SubscribeToLedger(bus)
	defer unsubscribe()

	err := bus.Publish(event_bus.NewEvent(ctx, event_bus.TransactionRecorded, event_bus.TransactionRecordedData{
		TransactionID: "t-1",
		Kind:          "expense",
		CategoryID:    "groceries",
		Date:          time.Now(),
	}))
	require.NoError(t, err)

	top, err := service.TopN(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "groceries", top[0].CategoryID)
}
