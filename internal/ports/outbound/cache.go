package outbound

import (
	"context"

	"orderpipe/internal/core/domain"
)

type OrderCache interface {
	Get(ctx context.Context, orderID string) (domain.Order, bool)
	Set(ctx context.Context, order domain.Order)
	SetStatus(ctx context.Context, orderID, status string)
	BulkSet(ctx context.Context, orders []domain.Order)
	Len(ctx context.Context) int
}
