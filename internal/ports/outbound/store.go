package outbound

import (
	"context"

	"orderpipe/internal/core/domain"
)

// OrderStore is the durable key-value table keyed by orderId.
// Upsert carries the per-key atomicity guarantee: concurrent writes to
// the same id are serialized by the backend, last write wins.
type OrderStore interface {
	Upsert(ctx context.Context, order domain.Order) error
	// Insert fails with domain.ErrOrderExists when the id is taken.
	Insert(ctx context.Context, order domain.Order) error
	// SetStatus fails with domain.ErrNotFound when the id is absent.
	SetStatus(ctx context.Context, orderID, status string) error
	GetByID(ctx context.Context, orderID string) (domain.Order, error)
	ListLatest(ctx context.Context, limit int) ([]domain.Order, error)
	Count(ctx context.Context) (int, error)
}
