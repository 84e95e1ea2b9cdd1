package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rakadenny/backend-kedai/internal/catalog"
	"github.com/rakadenny/backend-kedai/internal/obs"
)

// ErrNotFound indicates the requested cart or line item could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ProductLookup resolves product identifiers against current catalog truth.
// Identifiers with no matching product are absent from the result.
type ProductLookup interface {
	BatchGet(ctx context.Context, keys []string) (map[string]catalog.Product, error)
}

// Store persists cart snapshots and surfaces change notifications from other
// writers of the same cart.
type Store interface {
	Load(ctx context.Context) ([]LineItem, bool, error)
	Save(ctx context.Context, items []LineItem) error
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Engine owns the ordered line-item collection for one cart. All mutations
// replace the collection atomically under the engine's lock and persist the
// result; readers never observe a half-updated cart. Revalidation is
// cancellable: starting a new revalidation supersedes any in-flight one, so
// the most recently started call determines the final state.
type Engine struct {
	store  Store
	lookup ProductLookup
	logger zerolog.Logger

	mu          sync.Mutex
	items       []LineItem
	revalSeq    uint64
	cancelReval context.CancelFunc
	subs        map[uint64]chan struct{}
	nextSub     uint64
}

// New constructs an engine bound to one cart's store.
func New(store Store, lookup ProductLookup, logger zerolog.Logger) *Engine {
	return &Engine{
		store:  store,
		lookup: lookup,
		logger: logger,
		subs:   map[uint64]chan struct{}{},
	}
}

// Load replaces the in-memory collection with the persisted snapshot. It
// reports whether a snapshot existed.
func (e *Engine) Load(ctx context.Context) (bool, error) {
	items, found, err := e.store.Load(ctx)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	e.items = items
	e.mu.Unlock()
	return found, nil
}

// Items returns a copy of the current line-item collection.
func (e *Engine) Items() []LineItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneItems(e.items)
}

// Add inserts the item or, when an entry with the same identity key exists,
// increases its quantity. Quantities clamp to the stock ceiling only when the
// ceiling is a known limit; an unknown ceiling leaves the quantity unclamped.
func (e *Engine) Add(ctx context.Context, item LineItem) error {
	if item.ProductID == "" || item.Qty <= 0 {
		return ErrInvalidInput
	}
	e.mu.Lock()
	next := cloneItems(e.items)
	key := item.Key()
	merged := false
	for i := range next {
		if next[i].Key() == key {
			next[i].Qty = clampQty(next[i].Qty+item.Qty, next[i].Ceiling)
			merged = true
			break
		}
	}
	if !merged {
		item.Qty = clampQty(item.Qty, item.Ceiling)
		item.Selection = item.Selection.Clone()
		next = append(next, item)
	}
	e.items = next
	e.mu.Unlock()
	return e.persist(ctx, next)
}

// Remove deletes the line item matching (productID, selection). A nil
// selection removes every entry for the product regardless of selection.
func (e *Engine) Remove(ctx context.Context, productID string, sel catalog.Selection) error {
	e.mu.Lock()
	next := make([]LineItem, 0, len(e.items))
	for _, it := range e.items {
		if it.ProductID == productID && (sel == nil || it.Selection.Equal(sel)) {
			continue
		}
		next = append(next, it)
	}
	next = cloneItems(next)
	e.items = next
	e.mu.Unlock()
	return e.persist(ctx, next)
}

// UpdateQuantity sets the quantity for the matching line item, clamped like
// Add. A non-positive quantity removes the entry.
func (e *Engine) UpdateQuantity(ctx context.Context, productID string, sel catalog.Selection, qty int) error {
	if qty <= 0 {
		return e.Remove(ctx, productID, sel)
	}
	e.mu.Lock()
	next := cloneItems(e.items)
	for i := range next {
		if next[i].ProductID == productID && next[i].Selection.Equal(sel) {
			next[i].Qty = clampQty(qty, next[i].Ceiling)
			break
		}
	}
	e.items = next
	e.mu.Unlock()
	return e.persist(ctx, next)
}

// Merge folds another collection into this cart, summing quantities on
// identity-key collisions and appending the rest.
func (e *Engine) Merge(ctx context.Context, incoming []LineItem) error {
	e.mu.Lock()
	next := cloneItems(e.items)
	for _, in := range incoming {
		if in.ProductID == "" || in.Qty <= 0 {
			continue
		}
		key := in.Key()
		merged := false
		for i := range next {
			if next[i].Key() == key {
				next[i].Qty = clampQty(next[i].Qty+in.Qty, next[i].Ceiling)
				merged = true
				break
			}
		}
		if !merged {
			in.Qty = clampQty(in.Qty, in.Ceiling)
			in.Selection = in.Selection.Clone()
			next = append(next, in)
		}
	}
	e.items = next
	e.mu.Unlock()
	return e.persist(ctx, next)
}

// Revalidate refreshes every line item against current catalog truth in one
// batched lookup: items whose product vanished or went out of stock are
// dropped, quantities shrink to known ceilings, and denormalised fields are
// refreshed even when nothing else changed. A lookup failure is logged and
// leaves the cart in its last known valid state. Calling Revalidate while a
// previous call is still in flight cancels the older one; the newest call
// wins.
func (e *Engine) Revalidate(ctx context.Context) error {
	e.mu.Lock()
	if e.cancelReval != nil {
		e.cancelReval()
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancelReval = cancel
	e.revalSeq++
	seq := e.revalSeq
	snapshot := cloneItems(e.items)
	e.mu.Unlock()
	defer cancel()

	if len(snapshot) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	keys := make([]string, 0, len(snapshot))
	for _, it := range snapshot {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		keys = append(keys, it.ProductID)
	}

	products, err := e.lookup.BatchGet(ctx, keys)
	if err != nil {
		obs.CartRevalidationTotal.WithLabelValues("lookup_error").Inc()
		e.logger.Warn().Err(err).Int("items", len(snapshot)).Msg("cart revalidation lookup failed")
		// Fail open: the cart keeps its last known valid state this cycle.
		return nil
	}

	next := make([]LineItem, 0, len(snapshot))
	for _, it := range snapshot {
		p, ok := products[it.ProductID]
		if !ok {
			// Product deleted upstream; dropping the line is cleanup, not a fault.
			continue
		}
		avail := catalog.Availability(p, it.Selection)
		if !avail.Purchasable() {
			continue
		}
		it.UnitPrice = catalog.UnitPrice(p, it.Selection)
		it.Ceiling = avail
		it.Title = p.Title
		it.Slug = p.Slug
		it.Images = p.Images
		if avail.State == catalog.StockLimited && it.Qty > avail.Qty {
			it.Qty = avail.Qty
		}
		next = append(next, it)
	}

	e.mu.Lock()
	if seq != e.revalSeq {
		// A newer revalidation superseded this one; discard its result.
		e.mu.Unlock()
		return nil
	}
	e.cancelReval = nil
	e.items = next
	e.mu.Unlock()

	obs.CartRevalidationTotal.WithLabelValues("ok").Inc()
	return e.persist(context.WithoutCancel(ctx), next)
}

// Replace swaps in an externally produced collection wholesale without
// persisting it back. Incoming store notifications use this path: the last
// writer wins, there is no merge.
func (e *Engine) Replace(items []LineItem) {
	e.mu.Lock()
	e.items = cloneItems(items)
	e.mu.Unlock()
	e.notify()
}

// Subscribe registers an observer for cart changes. The returned function
// cancels the subscription.
func (e *Engine) Subscribe() (<-chan struct{}, func()) {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	ch := make(chan struct{}, 1)
	e.subs[id] = ch
	e.mu.Unlock()
	return ch, func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// Sync applies store change notifications until the context ends. Each
// notification reloads the persisted snapshot and replaces the in-memory
// collection wholesale.
func (e *Engine) Sync(ctx context.Context) error {
	ch, err := e.store.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			items, _, err := e.store.Load(ctx)
			if err != nil {
				e.logger.Warn().Err(err).Msg("reload cart after change notification")
				continue
			}
			e.Replace(items)
		}
	}
}

func (e *Engine) persist(ctx context.Context, items []LineItem) error {
	if err := e.store.Save(ctx, items); err != nil {
		e.logger.Error().Err(err).Msg("persist cart")
		return err
	}
	e.notify()
	return nil
}

func (e *Engine) notify() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
