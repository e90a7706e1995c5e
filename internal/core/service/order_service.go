package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"orderpipe/internal/core/domain"
	"orderpipe/internal/metrics"
	"orderpipe/internal/ports/inbound"
	"orderpipe/internal/ports/outbound"
)

type OrderService struct {
	store  outbound.OrderStore
	cache  outbound.OrderCache
	events outbound.EventPublisher
	mx     *metrics.Registry
}

func NewOrderService(store outbound.OrderStore, cache outbound.OrderCache, events outbound.EventPublisher, mx *metrics.Registry) *OrderService {
	return &OrderService{store: store, cache: cache, events: events, mx: mx}
}

// ProcessEvent is the ingestion handler: decode the envelope, validate
// the order, upsert it keyed by orderId. Upsert makes re-delivery safe;
// the same event twice leaves one record, and a changed item for the
// same id overwrites. Validation failures are permanent, store failures
// are retry-eligible, and no write happens unless both fields survive
// validation.
func (s *OrderService) ProcessEvent(ctx context.Context, raw []byte) error {
	order, err := domain.DecodeEnvelope(raw)
	if err != nil {
		return err
	}

	order.Status = domain.StatusNew
	order.UpdatedAt = time.Now().UTC()
	if err := s.store.Upsert(ctx, order); err != nil {
		return fmt.Errorf("db upsert: %w", err)
	}
	s.mx.OrdersPersisted.Inc()

	s.cache.Set(ctx, order)
	return nil
}

func (s *OrderService) CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	if err := order.Validate(); err != nil {
		return domain.Order{}, err
	}

	order.Status = domain.StatusNew
	order.UpdatedAt = time.Now().UTC()
	if err := s.store.Insert(ctx, order); err != nil {
		if errors.Is(err, domain.ErrOrderExists) {
			return domain.Order{}, domain.ErrOrderExists
		}
		return domain.Order{}, fmt.Errorf("db insert: %w", err)
	}
	s.mx.OrdersPersisted.Inc()
	s.cache.Set(ctx, order)

	if err := s.events.PublishOrderCreated(ctx, domain.OrderCreated{OrderID: order.OrderID, Item: order.Item}); err != nil {
		// The order is durable at this point; losing the announcement
		// must not fail the request.
		log.Printf("[service] publish OrderCreated order_id=%s err=%v", order.OrderID, err)
	}

	return order, nil
}

// MarkProcessed sets status=PROCESSED for an existing order. An absent
// order surfaces as a store condition rather than a permanent
// rejection: the event may simply have outrun the write it refers to.
func (s *OrderService) MarkProcessed(ctx context.Context, orderID string) error {
	if orderID == "" {
		return fmt.Errorf("%w: orderId", domain.ErrMissingField)
	}

	if err := s.store.SetStatus(ctx, orderID, domain.StatusProcessed); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: order %s not visible yet", domain.ErrStoreUnavailable, orderID)
		}
		return fmt.Errorf("db set status: %w", err)
	}

	s.cache.SetStatus(ctx, orderID, domain.StatusProcessed)
	return nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, domain.ErrNotFound
	}

	if o, ok := s.cache.Get(ctx, orderID); ok {
		return o, nil
	}

	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("db get: %w", err)
	}

	s.cache.Set(ctx, o)
	return o, nil
}

func (s *OrderService) WarmCache(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		return 0, nil
	}

	orders, err := s.store.ListLatest(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("db list latest: %w", err)
	}

	s.cache.BulkSet(ctx, orders)
	return len(orders), nil
}

func (s *OrderService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("db count: %w", err)
	}
	if total == 0 {
		return []domain.Order{}, 0, nil
	}

	all, err := s.store.ListLatest(ctx, page*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("db list: %w", err)
	}

	start := (page - 1) * pageSize
	if start >= len(all) {
		return []domain.Order{}, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

var _ inbound.OrderUseCase = (*OrderService)(nil)
