package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rakadenny/backend-kedai/internal/catalog"
)

// Service adapts the per-cart Engine to the HTTP and worker layers. Each
// request builds an engine bound to the cart's persisted store, so every
// operation reads and writes the shared snapshot that all holders of the cart
// observe.
type Service struct {
	R      *redis.Client
	Lookup ProductLookup
	TTL    time.Duration
	Prefix string
	Logger zerolog.Logger
}

func (s *Service) prefix() string {
	if s.Prefix == "" {
		return "cart:"
	}
	return s.Prefix
}

func (s *Service) key(cartID string) string { return s.prefix() + cartID }

// Engine builds an engine bound to the given cart.
func (s *Service) Engine(cartID string) *Engine {
	store := &RedisStore{Client: s.R, Key: s.key(cartID), TTL: s.TTL}
	return New(store, s.Lookup, s.Logger.With().Str("cart_id", cartID).Logger())
}

// Create allocates a new empty cart and returns its identifier.
func (s *Service) Create(ctx context.Context) (string, error) {
	if s == nil || s.R == nil {
		return "", errors.New("cart service not configured")
	}
	cartID := uuid.NewString()
	store := &RedisStore{Client: s.R, Key: s.key(cartID), TTL: s.TTL}
	if err := store.Save(ctx, []LineItem{}); err != nil {
		return "", err
	}
	return cartID, nil
}

// Get returns the persisted line items for the cart.
func (s *Service) Get(ctx context.Context, cartID string) ([]LineItem, error) {
	e := s.Engine(cartID)
	found, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return e.Items(), nil
}

// AddItem resolves the product, denormalises its current price and stock
// ceiling, and adds the line to the cart.
func (s *Service) AddItem(ctx context.Context, cartID, productKey string, sel catalog.Selection, qty int) ([]LineItem, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	e := s.Engine(cartID)
	found, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	products, err := s.Lookup.BatchGet(ctx, []string{productKey})
	if err != nil {
		return nil, err
	}
	p, ok := products[productKey]
	if !ok {
		return nil, fmt.Errorf("product not found: %w", ErrInvalidInput)
	}
	avail := catalog.Availability(p, sel)
	if !avail.Purchasable() {
		return nil, fmt.Errorf("selection incomplete or out of stock: %w", ErrInvalidInput)
	}
	item := LineItem{
		ProductID: p.ID,
		Slug:      p.Slug,
		Title:     p.Title,
		UnitPrice: catalog.UnitPrice(p, sel),
		Qty:       qty,
		Selection: sel,
		Ceiling:   avail,
		Images:    p.Images,
	}
	if err := e.Add(ctx, item); err != nil {
		return nil, err
	}
	return e.Items(), nil
}

// UpdateItem sets the quantity for a line item; non-positive removes it.
func (s *Service) UpdateItem(ctx context.Context, cartID, productID string, sel catalog.Selection, qty int) ([]LineItem, error) {
	e := s.Engine(cartID)
	found, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	if err := e.UpdateQuantity(ctx, productID, sel, qty); err != nil {
		return nil, err
	}
	return e.Items(), nil
}

// RemoveItem removes the matching line item, or all lines of the product when
// the selection is nil.
func (s *Service) RemoveItem(ctx context.Context, cartID, productID string, sel catalog.Selection) ([]LineItem, error) {
	e := s.Engine(cartID)
	found, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	if err := e.Remove(ctx, productID, sel); err != nil {
		return nil, err
	}
	return e.Items(), nil
}

// Revalidate refreshes the cart against current catalog truth and returns the
// validated items.
func (s *Service) Revalidate(ctx context.Context, cartID string) ([]LineItem, error) {
	e := s.Engine(cartID)
	found, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	if err := e.Revalidate(ctx); err != nil {
		return nil, err
	}
	return e.Items(), nil
}

// Merge folds the source cart's items into the target cart and deletes the
// source snapshot.
func (s *Service) Merge(ctx context.Context, targetID, sourceID string) ([]LineItem, error) {
	source := &RedisStore{Client: s.R, Key: s.key(sourceID), TTL: s.TTL}
	items, found, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	e := s.Engine(targetID)
	if _, err := e.Load(ctx); err != nil {
		return nil, err
	}
	if err := e.Merge(ctx, items); err != nil {
		return nil, err
	}
	if err := source.Delete(ctx); err != nil {
		s.Logger.Warn().Err(err).Str("cart_id", sourceID).Msg("delete merged cart")
	}
	return e.Items(), nil
}

// Clear removes the persisted cart snapshot.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	store := &RedisStore{Client: s.R, Key: s.key(cartID), TTL: s.TTL}
	return store.Delete(ctx)
}

// CartIDs scans the store for every persisted cart identifier. The background
// sweep uses this to revalidate carts on an interval.
func (s *Service) CartIDs(ctx context.Context) ([]string, error) {
	if s == nil || s.R == nil {
		return nil, errors.New("cart service not configured")
	}
	var ids []string
	iter := s.R.Scan(ctx, 0, s.prefix()+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if len(key) <= len(s.prefix()) {
			continue
		}
		ids = append(ids, key[len(s.prefix()):])
	}
	return ids, iter.Err()
}
