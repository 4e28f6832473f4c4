package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"affiliate-catalog/internal/domain"

	"github.com/google/uuid"
)

// ClickRepository persists click events and the denormalised click counter
type ClickRepository interface {
	AppendClickEvent(ctx context.Context, event *domain.ClickEvent) error
	IncrementClickCounter(ctx context.Context, productID uuid.UUID) (int64, error)
	ReconcileClickCounters(ctx context.Context) (int64, error)
	CountProductsSince(ctx context.Context, since *time.Time) (int64, error)
	CountClicksSince(ctx context.Context, since *time.Time) (int64, error)
	TopProductsSince(ctx context.Context, since *time.Time, limit int) ([]domain.ProductClicks, error)
}

type clickRepository struct {
	db *sql.DB
}

// NewClickRepository creates a new instance of ClickRepository
func NewClickRepository(db *sql.DB) ClickRepository {
	return &clickRepository{db: db}
}

// AppendClickEvent inserts the event. Replays of the same event id are ignored.
func (r *clickRepository) AppendClickEvent(ctx context.Context, event *domain.ClickEvent) error {
	query := `
		INSERT INTO product_analytics (id, product_id, event_type, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, event.ID, event.ProductID, event.EventType, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append click event: %w", err)
	}
	return nil
}

// IncrementClickCounter bumps products.clicks and returns the new value
func (r *clickRepository) IncrementClickCounter(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT increment_product_click($1)`, productID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to increment click counter: %w", err)
	}
	if !count.Valid {
		return 0, ErrProductNotFound
	}
	return count.Int64, nil
}

// ReconcileClickCounters rewrites products.clicks from the event log and
// returns how many counters disagreed.
func (r *clickRepository) ReconcileClickCounters(ctx context.Context) (int64, error) {
	query := `
		UPDATE products p
		SET clicks = c.total
		FROM (
			SELECT pr.id, COUNT(pa.id) AS total
			FROM products pr
			LEFT JOIN product_analytics pa
				ON pa.product_id = pr.id AND pa.event_type = $1
			GROUP BY pr.id
		) c
		WHERE p.id = c.id AND p.clicks <> c.total
	`

	result, err := r.db.ExecContext(ctx, query, domain.EventTypeClick)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile click counters: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// CountProductsSince counts products created after since, or all products when since is nil
func (r *clickRepository) CountProductsSince(ctx context.Context, since *time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE $1::timestamptz IS NULL OR created_at >= $1`, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

func (r *clickRepository) CountClicksSince(ctx context.Context, since *time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM product_analytics
		WHERE event_type = $1 AND ($2::timestamptz IS NULL OR created_at >= $2)
	`, domain.EventTypeClick, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return n, nil
}

// TopProductsSince ranks products by click events recorded in the period
func (r *clickRepository) TopProductsSince(ctx context.Context, since *time.Time, limit int) ([]domain.ProductClicks, error) {
	query := `
		SELECT p.id, p.product_name, COUNT(pa.id) AS clicks
		FROM product_analytics pa
		JOIN products p ON p.id = pa.product_id
		WHERE pa.event_type = $1 AND ($2::timestamptz IS NULL OR pa.created_at >= $2)
		GROUP BY p.id, p.product_name
		ORDER BY clicks DESC, p.product_name ASC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, domain.EventTypeClick, since, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list top products: %w", err)
	}
	defer rows.Close()

	top := []domain.ProductClicks{}
	for rows.Next() {
		var pc domain.ProductClicks
		if err := rows.Scan(&pc.ProductID, &pc.ProductName, &pc.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		top = append(top, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top products: %w", err)
	}
	return top, nil
}
