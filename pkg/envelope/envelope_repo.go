package envelope

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Store(ctx context.Context, envelope Envelope) (int, error)
	GetAll(ctx context.Context) ([]Envelope, error)
	GetByID(ctx context.Context, id int) (Envelope, error)
	FindFreeFunds(ctx context.Context) (Envelope, error)
	Update(ctx context.Context, envelope Envelope) (bool, error)
	UpdatePosition(ctx context.Context, id int, position int) (bool, error)
	FindMaxPosition(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const envelopeColumns = "id, name, icon, kind, planned_amount, env_group, role, position"

func scanEnvelope(row pgx.Row) (Envelope, error) {
	var e Envelope
	if err := row.Scan(&e.ID, &e.Name, &e.Icon, &e.Kind, &e.PlannedAmount, &e.Group, &e.Role, &e.Position); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

func (r RepositoryImpl) Store(ctx context.Context, envelope Envelope) (int, error) {
	query := `INSERT INTO envelope (name, icon, kind, planned_amount, env_group, role, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	var id int
	err := r.db.QueryRow(ctx, query,
		envelope.Name,
		envelope.Icon,
		envelope.Kind,
		int64(envelope.PlannedAmount),
		envelope.Group,
		envelope.Role,
		envelope.Position,
	).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not store envelope: %w", err)
		log.Error(err)
		return 0, err
	}
	return id, nil
}

func (r RepositoryImpl) GetAll(ctx context.Context) ([]Envelope, error) {
	query := fmt.Sprintf("SELECT %s FROM envelope ORDER BY position", envelopeColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query envelopes: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var envelopes []Envelope
	for rows.Next() {
		e, err := scanEnvelope(rows)
		if err != nil {
			err := fmt.Errorf("could not scan envelope: %w", err)
			log.Error(err)
			return nil, err
		}
		envelopes = append(envelopes, e)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return envelopes, nil
}

func (r RepositoryImpl) GetByID(ctx context.Context, id int) (Envelope, error) {
	query := fmt.Sprintf("SELECT %s FROM envelope WHERE id = $1", envelopeColumns)
	e, err := scanEnvelope(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Envelope{}, ErrEnvelopeNotFound
		}
		err := fmt.Errorf("could not get envelope: %w", err)
		log.Error(err)
		return Envelope{}, err
	}
	return e, nil
}

func (r RepositoryImpl) FindFreeFunds(ctx context.Context) (Envelope, error) {
	query := fmt.Sprintf("SELECT %s FROM envelope WHERE role = $1", envelopeColumns)
	e, err := scanEnvelope(r.db.QueryRow(ctx, query, RoleFreeFunds))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Envelope{}, ErrEnvelopeNotFound
		}
		err := fmt.Errorf("could not find free funds envelope: %w", err)
		log.Error(err)
		return Envelope{}, err
	}
	return e, nil
}

func (r RepositoryImpl) Update(ctx context.Context, envelope Envelope) (bool, error) {
	query := `UPDATE envelope SET
				  name = $1,
				  icon = $2,
				  kind = $3,
				  planned_amount = $4,
				  env_group = $5
			  WHERE id = $6`
	tag, err := r.db.Exec(ctx, query,
		envelope.Name,
		envelope.Icon,
		envelope.Kind,
		int64(envelope.PlannedAmount),
		envelope.Group,
		envelope.ID,
	)
	if err != nil {
		err := fmt.Errorf("could not update envelope: %w", err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r RepositoryImpl) UpdatePosition(ctx context.Context, id int, position int) (bool, error) {
	tag, err := r.db.Exec(ctx, "UPDATE envelope SET position = $1 WHERE id = $2", position, id)
	if err != nil {
		err := fmt.Errorf("could not update envelope position: %w", err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r RepositoryImpl) FindMaxPosition(ctx context.Context) (int, error) {
	var maxPosition *int
	err := r.db.QueryRow(ctx, "SELECT MAX(position) FROM envelope").Scan(&maxPosition)
	if err != nil {
		err := fmt.Errorf("could not find max position: %w", err)
		log.Error(err)
		return 0, err
	}
	if maxPosition == nil {
		log.Debug("no envelopes yet, returning position 0")
		return 0, nil
	}
	return *maxPosition, nil
}

func (r RepositoryImpl) Delete(ctx context.Context, id int) (bool, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM envelope WHERE id = $1 AND role <> $2", id, RoleFreeFunds)
	if err != nil {
		err := fmt.Errorf("could not delete envelope: %w", err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
