package cart

import (
	"github.com/rakadenny/backend-kedai/internal/catalog"
	"github.com/rakadenny/backend-kedai/internal/pricing"
)

// LineItem is one (product, selection, quantity) entry in the cart. Title,
// price, ceiling and images are denormalised from the catalog at add time and
// refreshed on every revalidation; the price is never treated as final until
// the cart has been revalidated.
type LineItem struct {
	ProductID string            `json:"productId"`
	Slug      string            `json:"slug,omitempty"`
	Title     string            `json:"title"`
	UnitPrice pricing.Money     `json:"unitPrice"`
	Qty       int               `json:"qty"`
	Selection catalog.Selection `json:"selection,omitempty"`
	Ceiling   catalog.Stock     `json:"ceiling"`
	Images    []string          `json:"images,omitempty"`
}

// Key is the line-item identity: the same product with a different selection
// is a distinct entry.
func (li LineItem) Key() string {
	return li.ProductID + "|" + li.Selection.Key()
}

// Subtotal returns the line's contribution to the cart subtotal.
func (li LineItem) Subtotal() pricing.Money {
	return pricing.Money(li.Qty) * li.UnitPrice
}

func clampQty(qty int, ceiling catalog.Stock) int {
	if qty < 1 {
		qty = 1
	}
	if ceiling.State == catalog.StockLimited && qty > ceiling.Qty {
		qty = ceiling.Qty
	}
	return qty
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Selection = out[i].Selection.Clone()
	}
	return out
}
