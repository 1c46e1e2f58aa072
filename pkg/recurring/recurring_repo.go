package recurring

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koperta/koperta/internal/utils"
	"github.com/koperta/koperta/pkg/transaction"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Store(ctx context.Context, rule Rule) (int, error)
	GetAll(ctx context.Context) ([]Rule, error)
	GetByID(ctx context.Context, id int) (Rule, error)
	Update(ctx context.Context, rule Rule) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	// MaterializedRules returns the ids of rules already materialized in the
	// given month.
	MaterializedRules(ctx context.Context, month utils.MonthKey) (map[int]bool, error)
	FindMaterialization(ctx context.Context, ruleID int, month utils.MonthKey) (Materialization, error)
	// StoreMaterialization inserts the materialization record and the emitted
	// transaction atomically. Returns ErrAlreadyMaterialized when the
	// (rule, month) pair exists; in that case nothing is written.
	StoreMaterialization(ctx context.Context, ruleID int, month utils.MonthKey, tx transaction.Transaction) (Materialization, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const ruleColumns = "id, name, amount, day_of_month, kind, envelope_id, to_envelope_id, category, active"

func scanRule(row pgx.Row) (Rule, error) {
	var r Rule
	var envelopeID, toEnvelopeID *int
	var category *string
	if err := row.Scan(&r.ID, &r.Name, &r.Amount, &r.DayOfMonth, &r.Kind, &envelopeID, &toEnvelopeID, &category, &r.Active); err != nil {
		return Rule{}, err
	}
	if envelopeID != nil {
		r.EnvelopeID = *envelopeID
	}
	if toEnvelopeID != nil {
		r.ToEnvelopeID = *toEnvelopeID
	}
	if category != nil {
		r.CategoryID = *category
	}
	return r, nil
}

func (r RepositoryImpl) Store(ctx context.Context, rule Rule) (int, error) {
	query := `INSERT INTO recurring_payment (name, amount, day_of_month, kind, envelope_id, to_envelope_id, category, active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	var id int
	err := r.db.QueryRow(ctx, query,
		rule.Name,
		int64(rule.Amount),
		rule.DayOfMonth,
		rule.Kind,
		nullableID(rule.EnvelopeID),
		nullableID(rule.ToEnvelopeID),
		nullableString(rule.CategoryID),
		rule.Active,
	).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not store recurring payment rule: %w", err)
		log.Error(err)
		return 0, err
	}
	return id, nil
}

func (r RepositoryImpl) GetAll(ctx context.Context) ([]Rule, error) {
	query := fmt.Sprintf("SELECT %s FROM recurring_payment ORDER BY day_of_month, id", ruleColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query recurring payment rules: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			err := fmt.Errorf("could not scan recurring payment rule: %w", err)
			log.Error(err)
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return rules, nil
}

func (r RepositoryImpl) GetByID(ctx context.Context, id int) (Rule, error) {
	query := fmt.Sprintf("SELECT %s FROM recurring_payment WHERE id = $1", ruleColumns)
	rule, err := scanRule(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rule{}, ErrRuleNotFound
		}
		err := fmt.Errorf("could not get recurring payment rule: %w", err)
		log.Error(err)
		return Rule{}, err
	}
	return rule, nil
}

func (r RepositoryImpl) Update(ctx context.Context, rule Rule) (bool, error) {
	query := `UPDATE recurring_payment SET
				  name = $1, amount = $2, day_of_month = $3, kind = $4,
				  envelope_id = $5, to_envelope_id = $6, category = $7, active = $8
			  WHERE id = $9`
	tag, err := r.db.Exec(ctx, query,
		rule.Name,
		int64(rule.Amount),
		rule.DayOfMonth,
		rule.Kind,
		nullableID(rule.EnvelopeID),
		nullableID(rule.ToEnvelopeID),
		nullableString(rule.CategoryID),
		rule.Active,
		rule.ID,
	)
	if err != nil {
		err := fmt.Errorf("could not update recurring payment rule: %w", err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r RepositoryImpl) Delete(ctx context.Context, id int) (bool, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM recurring_payment WHERE id = $1", id)
	if err != nil {
		err := fmt.Errorf("could not delete recurring payment rule: %w", err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r RepositoryImpl) MaterializedRules(ctx context.Context, month utils.MonthKey) (map[int]bool, error) {
	rows, err := r.db.Query(ctx, "SELECT rule_id FROM recurring_materialization WHERE month_key = $1", string(month))
	if err != nil {
		err := fmt.Errorf("could not query materializations: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	materialized := map[int]bool{}
	for rows.Next() {
		var ruleID int
		if err := rows.Scan(&ruleID); err != nil {
			err := fmt.Errorf("could not scan materialization: %w", err)
			log.Error(err)
			return nil, err
		}
		materialized[ruleID] = true
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return materialized, nil
}

func (r RepositoryImpl) FindMaterialization(ctx context.Context, ruleID int, month utils.MonthKey) (Materialization, error) {
	query := `SELECT rule_id, month_key, transaction_id, created_at
			  FROM recurring_materialization WHERE rule_id = $1 AND month_key = $2`
	var m Materialization
	err := r.db.QueryRow(ctx, query, ruleID, string(month)).Scan(&m.RuleID, &m.MonthKey, &m.TransactionID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Materialization{}, ErrRuleNotFound
		}
		err := fmt.Errorf("could not get materialization: %w", err)
		log.Error(err)
		return Materialization{}, err
	}
	return m, nil
}

func (r RepositoryImpl) StoreMaterialization(ctx context.Context, ruleID int, month utils.MonthKey, tx transaction.Transaction) (Materialization, error) {
	dbTx, err := r.db.Begin(ctx)
	if err != nil {
		return Materialization{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer dbTx.Rollback(ctx)

	// the ledger row goes first: the materialization references it, and a
	// duplicate (rule_id, month_key) rolls both back
	query := `INSERT INTO ledger_transaction (
				id, kind, amount, tx_date, envelope_id, from_envelope_id, to_envelope_id,
				category, description, include_in_stats
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = dbTx.Exec(ctx, query,
		tx.ID,
		tx.Kind,
		int64(tx.Amount),
		tx.Date,
		nullableID(tx.EnvelopeID),
		nullableID(tx.FromEnvelopeID),
		nullableID(tx.ToEnvelopeID),
		nullableString(tx.CategoryID),
		tx.Description,
		tx.IncludeInStats,
	)
	if err != nil {
		err := fmt.Errorf("could not store materialized transaction: %w", err)
		log.Error(err)
		return Materialization{}, err
	}

	// the unique (rule_id, month_key) key is the double-charge guard
	_, err = dbTx.Exec(ctx,
		`INSERT INTO recurring_materialization (rule_id, month_key, transaction_id) VALUES ($1, $2, $3)`,
		ruleID, string(month), tx.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Materialization{}, ErrAlreadyMaterialized
		}
		err := fmt.Errorf("could not store materialization: %w", err)
		log.Error(err)
		return Materialization{}, err
	}

	var m Materialization
	err = dbTx.QueryRow(ctx,
		`SELECT rule_id, month_key, transaction_id, created_at FROM recurring_materialization WHERE rule_id = $1 AND month_key = $2`,
		ruleID, string(month)).Scan(&m.RuleID, &m.MonthKey, &m.TransactionID, &m.CreatedAt)
	if err != nil {
		err := fmt.Errorf("could not read back materialization: %w", err)
		log.Error(err)
		return Materialization{}, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return Materialization{}, fmt.Errorf("could not commit transaction: %w", err)
	}
	return m, nil
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
