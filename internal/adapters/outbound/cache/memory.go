package cache

import (
	"context"
	"sync"

	"orderpipe/internal/core/domain"
)

type MemoryCache struct {
	mu    sync.RWMutex
	store map[string]domain.Order
	stats *Stats
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		store: make(map[string]domain.Order),
		stats: NewStats(),
	}
}

func (c *MemoryCache) Get(_ context.Context, orderID string) (domain.Order, bool) {
	c.mu.RLock()
	o, ok := c.store[orderID]
	c.mu.RUnlock()

	if ok {
		c.stats.IncHit()
		return o, true
	}

	c.stats.IncMiss()
	return domain.Order{}, false
}

func (c *MemoryCache) Set(_ context.Context, order domain.Order) {
	if order.OrderID == "" {
		return
	}
	c.mu.Lock()
	c.store[order.OrderID] = order
	c.mu.Unlock()
}

// SetStatus rewrites the status of a cached entry in place, keeping
// the cached copy consistent with the store after a status transition.
// A miss is a no-op; the next Get fills the entry from the store.
func (c *MemoryCache) SetStatus(_ context.Context, orderID, status string) {
	c.mu.Lock()
	if o, ok := c.store[orderID]; ok {
		o.Status = status
		c.store[orderID] = o
	}
	c.mu.Unlock()
}

func (c *MemoryCache) BulkSet(_ context.Context, orders []domain.Order) {
	c.mu.Lock()
	for _, o := range orders {
		if o.OrderID == "" {
			continue
		}
		c.store[o.OrderID] = o
	}
	c.mu.Unlock()
}

func (c *MemoryCache) Len(_ context.Context) int {
	c.mu.RLock()
	n := len(c.store)
	c.mu.RUnlock()
	return n
}

// Stats reports the hit/miss counters accumulated since startup.
func (c *MemoryCache) Stats() (hits uint64, misses uint64) {
	return c.stats.Snapshot()
}
