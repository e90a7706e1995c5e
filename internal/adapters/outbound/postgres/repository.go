package postgres

import (
	"context"
	"errors"
	"fmt"

	"orderpipe/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

func (r *OrderStore) Upsert(ctx context.Context, order domain.Order) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO orders (order_id, item, status, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id) DO UPDATE SET
			item = EXCLUDED.item,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, order.OrderID, order.Item, order.Status, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *OrderStore) Insert(ctx context.Context, order domain.Order) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO orders (order_id, item, status, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id) DO NOTHING
	`, order.OrderID, order.Item, order.Status, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderExists
	}
	return nil
}

func (r *OrderStore) SetStatus(ctx context.Context, orderID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE order_id = $1
	`, orderID, status)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderStore) GetByID(ctx context.Context, orderID string) (domain.Order, error) {
	var o domain.Order
	row := r.pool.QueryRow(ctx, `
		SELECT order_id, item, status, updated_at
		FROM orders
		WHERE order_id = $1
	`, orderID)

	if err := row.Scan(&o.OrderID, &o.Item, &o.Status, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return o, nil
}

func (r *OrderStore) ListLatest(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		return []domain.Order{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT order_id, item, status, updated_at
		FROM orders
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.OrderID, &o.Item, &o.Status, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return out, nil
}

func (r *OrderStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return n, nil
}
