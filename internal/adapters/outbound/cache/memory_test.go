package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"orderpipe/internal/core/domain"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_, ok := c.Get(ctx, "1")
	require.False(t, ok)

	c.Set(ctx, domain.Order{OrderID: "1", Item: "burger"})
	o, ok := c.Get(ctx, "1")
	require.True(t, ok)
	require.Equal(t, "burger", o.Item)

	// keyless orders are ignored
	c.Set(ctx, domain.Order{Item: "stray"})
	require.Equal(t, 1, c.Len(ctx))
}

func TestMemoryCache_SetStatus(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, domain.Order{OrderID: "1", Item: "burger", Status: domain.StatusNew})
	c.SetStatus(ctx, "1", domain.StatusProcessed)

	o, ok := c.Get(ctx, "1")
	require.True(t, ok)
	require.Equal(t, domain.StatusProcessed, o.Status)
	require.Equal(t, "burger", o.Item)

	// A miss must not create a keyless entry.
	c.SetStatus(ctx, "missing", domain.StatusProcessed)
	require.Equal(t, 1, c.Len(ctx))
}

func TestMemoryCache_BulkSet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	c.BulkSet(ctx, []domain.Order{
		{OrderID: "1", Item: "burger"},
		{OrderID: "2", Item: "crisps"},
		{Item: "keyless"},
	})
	require.Equal(t, 2, c.Len(ctx))
}

func TestMemoryCache_Stats(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, domain.Order{OrderID: "1", Item: "burger"})
	_, _ = c.Get(ctx, "1")
	_, _ = c.Get(ctx, "2")

	hits, misses := c.Stats()
	require.Equal(t, uint64(1), hits)
	require.Equal(t, uint64(1), misses)
}
