package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakadenny/backend-kedai/internal/catalog"
)

func newTestService(t *testing.T, lookup ProductLookup) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Service{R: client, Lookup: lookup, TTL: time.Hour, Logger: zerolog.Nop()}
}

func TestServiceCreateAndGet(t *testing.T) {
	svc := newTestService(t, &stubLookup{})
	ctx := context.Background()

	cartID, err := svc.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cartID)

	items, err := svc.Get(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceAddItemDenormalisesProduct(t *testing.T) {
	lookup := &stubLookup{products: map[string]catalog.Product{
		"p1": simpleProduct("p1", 2500, 4),
	}}
	svc := newTestService(t, lookup)
	ctx := context.Background()

	cartID, err := svc.Create(ctx)
	require.NoError(t, err)

	items, err := svc.AddItem(ctx, cartID, "p1", nil, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Product p1", items[0].Title)
	assert.EqualValues(t, 2500, items[0].UnitPrice)
	assert.Equal(t, catalog.Limited(4), items[0].Ceiling)

	// Requests beyond the known ceiling are clamped.
	items, err = svc.AddItem(ctx, cartID, "p1", nil, 99)
	require.NoError(t, err)
	assert.Equal(t, 4, items[0].Qty)
}

func TestServiceAddItemRejectsBadInput(t *testing.T) {
	lookup := &stubLookup{products: map[string]catalog.Product{
		"p1": func() catalog.Product {
			p := simpleProduct("p1", 2500, 4)
			no := false
			p.InStock = &no
			return p
		}(),
	}}
	svc := newTestService(t, lookup)
	ctx := context.Background()

	cartID, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, cartID, "p1", nil, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddItem(ctx, cartID, "missing", nil, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Out of stock products cannot enter the cart.
	_, err = svc.AddItem(ctx, cartID, "p1", nil, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestServiceMergeDeletesSource(t *testing.T) {
	lookup := &stubLookup{products: map[string]catalog.Product{
		"p1": simpleProduct("p1", 1000, 10),
		"p2": simpleProduct("p2", 2000, 10),
	}}
	svc := newTestService(t, lookup)
	ctx := context.Background()

	target, err := svc.Create(ctx)
	require.NoError(t, err)
	source, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, target, "p1", nil, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, source, "p1", nil, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, source, "p2", nil, 1)
	require.NoError(t, err)

	items, err := svc.Merge(ctx, target, source)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Qty)

	_, err = svc.Get(ctx, source)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceRevalidateRoundTrip(t *testing.T) {
	lookup := &stubLookup{products: map[string]catalog.Product{
		"p1": simpleProduct("p1", 1000, 10),
	}}
	svc := newTestService(t, lookup)
	ctx := context.Background()

	cartID, err := svc.Create(ctx)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cartID, "p1", nil, 2)
	require.NoError(t, err)

	// The product goes out of stock; revalidation drops the line.
	no := false
	gone := simpleProduct("p1", 1000, 10)
	gone.InStock = &no
	lookup.mu.Lock()
	lookup.products["p1"] = gone
	lookup.mu.Unlock()

	items, err := svc.Revalidate(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, items)

	// The emptied cart persisted.
	items, err = svc.Get(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestServiceCartIDs(t *testing.T) {
	svc := newTestService(t, &stubLookup{})
	ctx := context.Background()

	a, err := svc.Create(ctx)
	require.NoError(t, err)
	b, err := svc.Create(ctx)
	require.NoError(t, err)

	ids, err := svc.CartIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, ids)
}
