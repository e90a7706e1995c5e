package inbound

import (
	"context"

	"orderpipe/internal/core/domain"
)

type OrderUseCase interface {
	// ProcessEvent runs the full ingestion path for one raw inbound
	// event: decode, validate, idempotent upsert.
	ProcessEvent(ctx context.Context, raw []byte) error
	// CreateOrder inserts a new order and announces it; fails with
	// domain.ErrOrderExists on an id collision.
	CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error)
	// MarkProcessed flips an existing order to PROCESSED.
	MarkProcessed(ctx context.Context, orderID string) error
	GetByID(ctx context.Context, orderID string) (domain.Order, error)
	WarmCache(ctx context.Context, limit int) (int, error)
	ListPage(ctx context.Context, page, pageSize int) (orders []domain.Order, total int, err error)
}
