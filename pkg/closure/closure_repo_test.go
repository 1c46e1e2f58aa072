package closure

import (
	"context"
	"os"
	"testing"

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

func freeFundsID(t *testing.T, ctx context.Context, db *pgxpool.Pool) int {
	var id int
	err := db.QueryRow(ctx, "SELECT id FROM envelope WHERE role = 'free_funds'").Scan(&id)
	require.NoError(t, err)
	return id
}

func ledgerRowCount(t *testing.T, ctx context.Context, db *pgxpool.Pool) int {
	var count int
	err := db.QueryRow(ctx, "SELECT count(*) FROM ledger_transaction").Scan(&count)
	require.NoError(t, err)
	return count
}

func januarySummary() Summary {
	return Summary{
		StatsIncome:      500000,
		NonStatsIncome:   0,
		TotalExpenses:    320000,
		MonthBalance:     180000,
		ReturnsBalance:   0,
		SavingsRate:      36,
		TotalTransferred: 150000,
		UnusedFunds:      30000,
	}
}

func TestRepositoryImpl_Create_StoresClosureAndRollover(t *testing.T) {
	// given
	ctx, repo, db := setupTestRepository(t)
	month := utils.MonthKey("2025-01")
	summary := januarySummary()
	rollover := RolloverTransactions(summary, month, freeFundsID(t, ctx, db))
	require.Len(t, rollover, 1)

	// when
	closed, created, err := repo.Create(ctx, month, summary, rollover)

	// then
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, month, closed.MonthKey)
	assert.Equal(t, summary, closed.Summary)
	assert.False(t, closed.ClosedAt.IsZero())
	assert.Equal(t, 1, ledgerRowCount(t, ctx, db))

	stored, err := repo.Get(ctx, month)
	require.NoError(t, err)
	assert.Equal(t, summary, stored.Summary)
}

func TestRepositoryImpl_Create_SecondCloseWritesNothing(t *testing.T) {
	// given
	ctx, repo, db := setupTestRepository(t)
	month := utils.MonthKey("2025-01")
	summary := januarySummary()
	rollover := RolloverTransactions(summary, month, freeFundsID(t, ctx, db))
	first, created, err := repo.Create(ctx, month, summary, rollover)
	require.NoError(t, err)
	require.True(t, created)

	// when the loser arrives with different numbers and its own rollover
	later := summary
	later.TotalExpenses = 999999
	_, createdAgain, err := repo.Create(ctx, month, later,
		[]transaction.Transaction{transaction.NewTransfer(1, month.End(), 0, freeFundsID(t, ctx, db), "powtórka")})

	// then the first closure wins and no second rollover lands in the ledger
	require.NoError(t, err)
	assert.False(t, createdAgain)
	assert.Equal(t, 1, ledgerRowCount(t, ctx, db))

	stored, err := repo.Get(ctx, month)
	require.NoError(t, err)
	assert.Equal(t, first.Summary, stored.Summary)
}

func TestRepositoryImpl_Get_MissingMonth(t *testing.T) {
	// given
	ctx, repo, _ := setupTestRepository(t)

	// when
	_, err := repo.Get(ctx, utils.MonthKey("2030-01"))

	// then
	assert.ErrorIs(t, err, ErrClosureNotFound)
}

func TestRepositoryImpl_GetAll_NewestFirst(t *testing.T) {
	// given
	ctx, repo, db := setupTestRepository(t)
	ffID := freeFundsID(t, ctx, db)
	for _, month := range []utils.MonthKey{"2025-01", "2025-02"} {
		summary := januarySummary()
		_, _, err := repo.Create(ctx, month, summary, RolloverTransactions(summary, month, ffID))
		require.NoError(t, err)
	}

	// when
	closures, err := repo.GetAll(ctx)

	// then
	require.NoError(t, err)
	require.Len(t, closures, 2)
	assert.Equal(t, utils.MonthKey("2025-02"), closures[0].MonthKey)
	assert.Equal(t, utils.MonthKey("2025-01"), closures[1].MonthKey)
}
