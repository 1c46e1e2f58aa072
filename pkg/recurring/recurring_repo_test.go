package recurring

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koperta/koperta/internal/test_utils"
	"github.com/koperta/koperta/internal/utils"
	"github.com/koperta/koperta/pkg/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	container *postgres.PostgresContainer
	newPool   func() *pgxpool.Pool
)

func TestMain(m *testing.M) {
	container, newPool = test_utils.TestWithDB()
	code := m.Run()
	_ = container.Terminate(context.Background())
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl, *pgxpool.Pool) {
	ctx := context.Background()
	err := container.Restore(ctx, postgres.WithSnapshotName("postgres-test-snapshot"))
	require.NoError(t, err)
	db := newPool()
	t.Cleanup(db.Close)
	return ctx, NewRepository(db), db
}

func seededEnvelopeID(t *testing.T, ctx context.Context, db *pgxpool.Pool, name string) int {
	var id int
	err := db.QueryRow(ctx, "SELECT id FROM envelope WHERE name = $1", name).Scan(&id)
	require.NoError(t, err)
	return id
}

func materializedLedgerCount(t *testing.T, ctx context.Context, db *pgxpool.Pool) int {
	var count int
	err := db.QueryRow(ctx, "SELECT count(*) FROM ledger_transaction").Scan(&count)
	require.NoError(t, err)
	return count
}

func TestRepositoryImpl_Store_RoundTripsExpenseRule(t *testing.T) {
	// given
	ctx, repo, db := setupTestRepository(t)
	envID := seededEnvelopeID(t, ctx, db, "Wspólne opłaty")
	rule := Rule{Name: "Czynsz", Amount: 180000, DayOfMonth: 10, Kind: KindExpense, EnvelopeID: envID, CategoryID: "bills", Active: true}

	// when
	id, err := repo.Store(ctx, rule)

	// then
	require.NoError(t, err)
	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Czynsz", stored.Name)
	assert.Equal(t, envID, stored.EnvelopeID)
	assert.Equal(t, "bills", stored.CategoryID)
	assert.True(t, stored.Active)
}

func TestRepositoryImpl_Store_RoundTripsTransferRuleWithoutCategory(t *testing.T) {
	// given
	ctx, repo, db := setupTestRepository(t)
	toID := seededEnvelopeID(t, ctx, db, "Wakacje")
	rule := Rule{Name: "Odkładanie na wakacje", Amount: 50000, DayOfMonth: 1, Kind: KindTransfer, ToEnvelopeID: toID, Active: true}

	// when
	id, err := repo.Store(ctx, rule)

	// then
	require.NoError(t, err)
	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, toID, stored.ToEnvelopeID)
	assert.Equal(t, 0, stored.EnvelopeID)
	assert.Equal(t, "", stored.CategoryID)
}

func TestRepositoryImpl_Update_And_Delete(t *testing.T) {
	// given
	ctx, repo, db := setupTestRepository(t)
	envID := seededEnvelopeID(t, ctx, db, "Wspólne opłaty")
	id, err := repo.Store(ctx, Rule{Name: "Czynsz", Amount: 180000, DayOfMonth: 10, Kind: KindExpense, EnvelopeID: envID, CategoryID: "bills", Active: true})
	require.NoError(t, err)

	// when
	updated, err := repo.Update(ctx, Rule{ID: id, Name: "Czynsz", Amount: 185000, DayOfMonth: 12, Kind: KindExpense, EnvelopeID: envID, CategoryID: "bills", Active: false})

	// then
	require.NoError(t, err)
	assert.True(t, updated)
	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 185000, stored.Amount)
	assert.False(t, stored.Active)

	deleted, err := repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestRepositoryImpl_StoreMaterialization_WritesLedgerRow(t *testing.T) {
	// given
	ctx, repo, db := setupTestRepository(t)
	envID := seededEnvelopeID(t, ctx, db, "Wspólne opłaty")
	ruleID, err := repo.Store(ctx, Rule{Name: "Czynsz", Amount: 180000, DayOfMonth: 10, Kind: KindExpense, EnvelopeID: envID, CategoryID: "bills", Active: true})
	require.NoError(t, err)
	month := utils.MonthKey("2025-01")
	tx := transaction.NewExpense(180000, time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC), envID, "bills", "Czynsz", true)

	// when
	m, err := repo.StoreMaterialization(ctx, ruleID, month, tx)

	// then
	require.NoError(t, err)
	assert.Equal(t, ruleID, m.RuleID)
	assert.Equal(t, month, m.MonthKey)
	assert.Equal(t, tx.ID, m.TransactionID)
	assert.Equal(t, 1, materializedLedgerCount(t, ctx, db))

	found, err := repo.FindMaterialization(ctx, ruleID, month)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, found.TransactionID)
}

func TestRepositoryImpl_StoreMaterialization_SameMonthRollsBackDuplicate(t *testing.T) {
	// given
	ctx, repo, db := setupTestRepository(t)
	envID := seededEnvelopeID(t, ctx, db, "Wspólne opłaty")
	ruleID, err := repo.Store(ctx, Rule{Name: "Czynsz", Amount: 180000, DayOfMonth: 10, Kind: KindExpense, EnvelopeID: envID, CategoryID: "bills", Active: true})
	require.NoError(t, err)
	month := utils.MonthKey("2025-01")
	date := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	first, err := repo.StoreMaterialization(ctx, ruleID, month, transaction.NewExpense(180000, date, envID, "bills", "Czynsz", true))
	require.NoError(t, err)

	// when the same rule fires again in the same month with a fresh transaction
	_, err = repo.StoreMaterialization(ctx, ruleID, month, transaction.NewExpense(180000, date, envID, "bills", "Czynsz", true))

	// then the duplicate ledger row is rolled back with the conflict
	assert.ErrorIs(t, err, ErrAlreadyMaterialized)
	assert.Equal(t, 1, materializedLedgerCount(t, ctx, db))

	found, err := repo.FindMaterialization(ctx, ruleID, month)
	require.NoError(t, err)
	assert.Equal(t, first.TransactionID, found.TransactionID)
}

func TestRepositoryImpl_MaterializedRules_ScopedToMonth(t *testing.T) {
	// given
	ctx, repo, db := setupTestRepository(t)
	envID := seededEnvelopeID(t, ctx, db, "Wspólne opłaty")
	ruleID, err := repo.Store(ctx, Rule{Name: "Czynsz", Amount: 180000, DayOfMonth: 10, Kind: KindExpense, EnvelopeID: envID, CategoryID: "bills", Active: true})
	require.NoError(t, err)
	date := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	_, err = repo.StoreMaterialization(ctx, ruleID, "2025-01", transaction.NewExpense(180000, date, envID, "bills", "Czynsz", true))
	require.NoError(t, err)

	// when
	january, err := repo.MaterializedRules(ctx, "2025-01")
	require.NoError(t, err)
	february, err := repo.MaterializedRules(ctx, "2025-02")
	require.NoError(t, err)

	// then
	assert.True(t, january[ruleID])
	assert.False(t, february[ruleID])
}
