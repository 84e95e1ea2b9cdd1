package catalog

import "github.com/rakadenny/backend-kedai/internal/pricing"

// UnitPrice computes the effective unit price for a product and selection:
// the sale price when the product is flagged on sale and carries one, plus
// the signed adjustment of every selected option. Adjustments may be
// negative; the result is intentionally not clamped at zero. The catalog is
// trusted not to configure adjustments below the base price.
func UnitPrice(p Product, sel Selection) pricing.Money {
	base := p.Price
	if p.OnSale && p.SalePrice > 0 {
		base = p.SalePrice
	}
	if p.Kind == KindSimple {
		return base
	}
	for _, g := range p.Groups {
		if opt, ok := g.Option(sel[g.Name]); ok && opt.PriceAdjustment != 0 {
			base += opt.PriceAdjustment
		}
	}
	return base
}
