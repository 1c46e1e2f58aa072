package category

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// CategoryUsage is a suggestion-ranking counter. It is non-authoritative:
// losing it changes nothing but suggestion order.
type CategoryUsage struct {
	CategoryID string
	UseCount   int64
}

type UsageRepository interface {
	Increment(ctx context.Context, categoryID string) error
	TopN(ctx context.Context, n int) ([]CategoryUsage, error)
}

type UsageRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewUsageRepository(db *pgxpool.Pool) *UsageRepositoryImpl {
	return &UsageRepositoryImpl{db: db}
}

func (r UsageRepositoryImpl) Increment(ctx context.Context, categoryID string) error {
	query := `INSERT INTO category_usage (category_id, use_count, last_used)
			  VALUES ($1, 1, now())
			  ON CONFLICT (category_id)
			  DO UPDATE SET use_count = category_usage.use_count + 1, last_used = now()`
	if _, err := r.db.Exec(ctx, query, categoryID); err != nil {
		err := fmt.Errorf("could not increment category usage: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r UsageRepositoryImpl) TopN(ctx context.Context, n int) ([]CategoryUsage, error) {
	query := `SELECT category_id, use_count FROM category_usage
			  ORDER BY use_count DESC, last_used DESC LIMIT $1`
	rows, err := r.db.Query(ctx, query, n)
	if err != nil {
		err := fmt.Errorf("could not query category usage: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var usages []CategoryUsage
	for rows.Next() {
		var u CategoryUsage
		if err := rows.Scan(&u.CategoryID, &u.UseCount); err != nil {
			err := fmt.Errorf("could not scan category usage: %w", err)
			log.Error(err)
			return nil, err
		}
		usages = append(usages, u)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return usages, nil
}
