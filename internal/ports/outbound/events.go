package outbound

import (
	"context"

	"orderpipe/internal/core/domain"
)

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, ev domain.OrderCreated) error
}
