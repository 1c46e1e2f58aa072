package closure

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koperta/koperta/internal/utils"
	"github.com/koperta/koperta/pkg/transaction"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Get(ctx context.Context, month utils.MonthKey) (MonthClosure, error)
	GetAll(ctx context.Context) ([]MonthClosure, error)
	// Create persists the closure and its rollover transactions atomically.
	// When the month is already closed it writes nothing and returns the
	// existing closure with created=false.
	Create(ctx context.Context, month utils.MonthKey, summary Summary, rollover []transaction.Transaction) (closure MonthClosure, created bool, err error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const closureColumns = `month_key, closed_at, stats_income, non_stats_income, total_expenses,
		month_balance, returns_balance, savings_rate, total_transferred, unused_funds`

func scanClosure(row pgx.Row) (MonthClosure, error) {
	var c MonthClosure
	err := row.Scan(
		&c.MonthKey,
		&c.ClosedAt,
		&c.Summary.StatsIncome,
		&c.Summary.NonStatsIncome,
		&c.Summary.TotalExpenses,
		&c.Summary.MonthBalance,
		&c.Summary.ReturnsBalance,
		&c.Summary.SavingsRate,
		&c.Summary.TotalTransferred,
		&c.Summary.UnusedFunds,
	)
	return c, err
}

func (r RepositoryImpl) Get(ctx context.Context, month utils.MonthKey) (MonthClosure, error) {
	query := fmt.Sprintf("SELECT %s FROM month_closure WHERE month_key = $1", closureColumns)
	c, err := scanClosure(r.db.QueryRow(ctx, query, string(month)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MonthClosure{}, ErrClosureNotFound
		}
		err := fmt.Errorf("could not get month closure: %w", err)
		log.Error(err)
		return MonthClosure{}, err
	}
	return c, nil
}

func (r RepositoryImpl) GetAll(ctx context.Context) ([]MonthClosure, error) {
	query := fmt.Sprintf("SELECT %s FROM month_closure ORDER BY month_key DESC", closureColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query month closures: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var closures []MonthClosure
	for rows.Next() {
		c, err := scanClosure(rows)
		if err != nil {
			err := fmt.Errorf("could not scan month closure: %w", err)
			log.Error(err)
			return nil, err
		}
		closures = append(closures, c)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return closures, nil
}

func (r RepositoryImpl) Create(ctx context.Context, month utils.MonthKey, summary Summary, rollover []transaction.Transaction) (MonthClosure, bool, error) {
	dbTx, err := r.db.Begin(ctx)
	if err != nil {
		return MonthClosure{}, false, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer dbTx.Rollback(ctx)

	// the unique month_key is the mutual-exclusion guard: the loser of a
	// concurrent close inserts zero rows and must not write rollovers
	insertQuery := `INSERT INTO month_closure (
				month_key, stats_income, non_stats_income, total_expenses, month_balance,
				returns_balance, savings_rate, total_transferred, unused_funds
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (month_key) DO NOTHING`
	tag, err := dbTx.Exec(ctx, insertQuery,
		string(month),
		int64(summary.StatsIncome),
		int64(summary.NonStatsIncome),
		int64(summary.TotalExpenses),
		int64(summary.MonthBalance),
		int64(summary.ReturnsBalance),
		summary.SavingsRate,
		int64(summary.TotalTransferred),
		int64(summary.UnusedFunds),
	)
	if err != nil {
		err := fmt.Errorf("could not store month closure: %w", err)
		log.Error(err)
		return MonthClosure{}, false, err
	}
	if tag.RowsAffected() == 0 {
		existing, err := r.Get(ctx, month)
		if err != nil {
			return MonthClosure{}, false, err
		}
		return existing, false, nil
	}

	insertTxQuery := `INSERT INTO ledger_transaction (
				id, kind, amount, tx_date, envelope_id, from_envelope_id, to_envelope_id,
				category, description, include_in_stats
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, t := range rollover {
		_, err = dbTx.Exec(ctx, insertTxQuery,
			t.ID,
			t.Kind,
			int64(t.Amount),
			t.Date,
			nullableID(t.EnvelopeID),
			nullableID(t.FromEnvelopeID),
			nullableID(t.ToEnvelopeID),
			nullableString(t.CategoryID),
			t.Description,
			t.IncludeInStats,
		)
		if err != nil {
			err := fmt.Errorf("could not store rollover transaction: %w", err)
			log.Error(err)
			return MonthClosure{}, false, err
		}
	}

	query := fmt.Sprintf("SELECT %s FROM month_closure WHERE month_key = $1", closureColumns)
	stored, err := scanClosure(dbTx.QueryRow(ctx, query, string(month)))
	if err != nil {
		err := fmt.Errorf("could not read back month closure: %w", err)
		log.Error(err)
		return MonthClosure{}, false, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return MonthClosure{}, false, fmt.Errorf("could not commit transaction: %w", err)
	}
	return stored, true, nil
}

func nullableID(id int) *int {
	if id == 0 {
		return nil
	}
	return &id
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
