package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Filter narrows a ledger listing. Zero values mean "no bound".
type Filter struct {
	// From and To bound the date range as half-open [From, To).
	From time.Time
	To   time.Time
	// EnvelopeID matches transactions referencing the envelope in any role.
	EnvelopeID int
	Kind       Kind
}

type Repository interface {
	Store(ctx context.Context, tx Transaction) (Transaction, error)
	// StoreAll appends all transactions in a single database transaction.
	StoreAll(ctx context.Context, txs []Transaction) ([]Transaction, error)
	List(ctx context.Context, filter Filter) ([]Transaction, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const insertTransactionQuery = `INSERT INTO ledger_transaction (
			id, kind, amount, tx_date, envelope_id, from_envelope_id, to_envelope_id,
			category, description, include_in_stats
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING seq`

func insertArgs(t Transaction) []any {
	return []any{
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
	}
}

func (r RepositoryImpl) Store(ctx context.Context, t Transaction) (Transaction, error) {
	err := r.db.QueryRow(ctx, insertTransactionQuery, insertArgs(t)...).Scan(&t.Seq)
	if err != nil {
		err := fmt.Errorf("could not store transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return t, nil
}

func (r RepositoryImpl) StoreAll(ctx context.Context, txs []Transaction) ([]Transaction, error) {
	dbTx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer dbTx.Rollback(ctx)

	stored := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if err := dbTx.QueryRow(ctx, insertTransactionQuery, insertArgs(t)...).Scan(&t.Seq); err != nil {
			err := fmt.Errorf("could not store transaction: %w", err)
			log.Error(err)
			return nil, err
		}
		stored = append(stored, t)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}
	return stored, nil
}

func (r RepositoryImpl) List(ctx context.Context, filter Filter) ([]Transaction, error) {
	query := `SELECT id, kind, amount, tx_date, envelope_id, from_envelope_id, to_envelope_id,
					 category, description, include_in_stats, seq
			  FROM ledger_transaction WHERE 1=1`
	var args []any
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND tx_date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND tx_date < $%d", len(args))
	}
	if filter.EnvelopeID != 0 {
		args = append(args, filter.EnvelopeID)
		n := len(args)
		query += fmt.Sprintf(" AND (envelope_id = $%d OR from_envelope_id = $%d OR to_envelope_id = $%d)", n, n, n)
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	query += " ORDER BY tx_date, seq"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query transactions: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			err := fmt.Errorf("could not scan transaction: %w", err)
			log.Error(err)
			return nil, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return txs, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	var envelopeID, fromEnvelopeID, toEnvelopeID *int
	var category *string
	if err := row.Scan(
		&t.ID,
		&t.Kind,
		&t.Amount,
		&t.Date,
		&envelopeID,
		&fromEnvelopeID,
		&toEnvelopeID,
		&category,
		&t.Description,
		&t.IncludeInStats,
		&t.Seq,
	); err != nil {
		return Transaction{}, err
	}
	if envelopeID != nil {
		t.EnvelopeID = *envelopeID
	}
	if fromEnvelopeID != nil {
		t.FromEnvelopeID = *fromEnvelopeID
	}
	if toEnvelopeID != nil {
		t.ToEnvelopeID = *toEnvelopeID
	}
	if category != nil {
		t.CategoryID = *category
	}
	return t, nil
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
