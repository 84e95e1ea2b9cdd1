package catalog

import (
	"sort"
	"strings"

	"github.com/rakadenny/backend-kedai/internal/pricing"
)

// Kind tags the two product shapes the storefront sells.
type Kind uint8

const (
	// KindSimple is a product without variation axes.
	KindSimple Kind = iota
	// KindVaried is a product configured through one or more variation groups.
	KindVaried
)

// VariationOption is one selectable value on a variation axis. InStock is a
// pointer because legacy catalog rows predate the flag; absence means the
// option was never marked out of stock.
type VariationOption struct {
	Value           string        `json:"value"`
	PriceAdjustment pricing.Money `json:"priceAdjustment"`
	InStock         *bool         `json:"inStock,omitempty"`
	StockQty        int           `json:"stockQty"`
}

// VariationGroup is a named variation axis (e.g. "Size") with its options.
type VariationGroup struct {
	Name    string            `json:"name"`
	Options []VariationOption `json:"options"`
}

// Option returns the option matching the given value.
func (g VariationGroup) Option(value string) (VariationOption, bool) {
	for _, opt := range g.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return VariationOption{}, false
}

// Product is the read-only catalog entity this engine prices and validates
// against. Kind is derived from the presence of variation groups so the
// resolver and calculator branch on an explicit tag instead of probing fields.
type Product struct {
	ID        string           `json:"id"`
	Slug      string           `json:"slug"`
	Title     string           `json:"title"`
	Kind      Kind             `json:"-"`
	Price     pricing.Money    `json:"price"`
	OnSale    bool             `json:"onSale"`
	SalePrice pricing.Money    `json:"salePrice,omitempty"`
	InStock   *bool            `json:"inStock,omitempty"`
	StockQty  int              `json:"stockQty"`
	Groups    []VariationGroup `json:"variations,omitempty"`
	Images    []string         `json:"images,omitempty"`
}

// Normalize derives the product kind from the loaded row.
func (p *Product) Normalize() {
	if len(p.Groups) > 0 {
		p.Kind = KindVaried
	} else {
		p.Kind = KindSimple
	}
}

// Selection maps a variation group name to the chosen option value. A product
// without variations uses a nil selection.
type Selection map[string]string

// Key renders the selection in a canonical order so it can participate in
// line-item identity.
func (s Selection) Key() string {
	if len(s) == 0 {
		return ""
	}
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+s[name])
	}
	return strings.Join(parts, ";")
}

// Equal reports whether two selections pick the same option per group.
func (s Selection) Equal(o Selection) bool {
	if len(s) != len(o) {
		return false
	}
	for name, value := range s {
		if o[name] != value {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the selection.
func (s Selection) Clone() Selection {
	if s == nil {
		return nil
	}
	out := make(Selection, len(s))
	for name, value := range s {
		out[name] = value
	}
	return out
}
