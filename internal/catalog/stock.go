package catalog

// StockState distinguishes the three availability shapes the catalog data can
// express. Legacy rows sometimes carry a zero quantity while still being
// sellable; that ambiguity is kept visible as StockUnknown instead of being
// folded into "sold out".
type StockState uint8

const (
	// StockUnknown means no ceiling was recorded; quantity is unconstrained.
	StockUnknown StockState = iota
	// StockLimited means at most Qty units can be sold.
	StockLimited
	// StockOut means the combination cannot be sold.
	StockOut
)

// Stock is the resolved availability for a product/selection combination.
type Stock struct {
	State StockState `json:"state"`
	Qty   int        `json:"qty,omitempty"`
}

// Limited builds a bounded stock level.
func Limited(qty int) Stock {
	if qty <= 0 {
		return Stock{State: StockOut}
	}
	return Stock{State: StockLimited, Qty: qty}
}

// Purchasable reports whether at least one unit can be sold.
func (s Stock) Purchasable() bool { return s.State != StockOut }

// Clamp bounds a requested quantity by the stock ceiling. Unknown ceilings do
// not clamp; that mirrors the upstream catalog where a missing ceiling means
// "no limit recorded", not "sold out".
func (s Stock) Clamp(qty int) int {
	switch s.State {
	case StockOut:
		return 0
	case StockLimited:
		if qty > s.Qty {
			return s.Qty
		}
	}
	return qty
}

// Combine folds two stock levels into the availability of their combination:
// out-of-stock dominates, bounded quantities take their minimum, and an
// unknown level imposes no constraint.
func (s Stock) Combine(o Stock) Stock {
	if s.State == StockOut || o.State == StockOut {
		return Stock{State: StockOut}
	}
	if s.State == StockLimited && o.State == StockLimited {
		if o.Qty < s.Qty {
			return o
		}
		return s
	}
	if s.State == StockLimited {
		return s
	}
	return o
}

func stockFrom(flag *bool, qty int) Stock {
	if flag != nil && !*flag {
		return Stock{State: StockOut}
	}
	if qty > 0 {
		return Stock{State: StockLimited, Qty: qty}
	}
	return Stock{State: StockUnknown}
}

// Availability resolves the stock level for a product and selection. Simple
// products answer from their own stock fields. Varied products require one
// matching option per group; an incomplete or mismatched selection is not
// purchasable. A complete selection is bounded by whichever selected option
// runs out first, since stock is tracked per option rather than per
// combination.
func Availability(p Product, sel Selection) Stock {
	if p.Kind == KindSimple {
		return stockFrom(p.InStock, p.StockQty)
	}
	avail := Stock{State: StockUnknown}
	for _, g := range p.Groups {
		opt, ok := g.Option(sel[g.Name])
		if !ok {
			return Stock{State: StockOut}
		}
		avail = avail.Combine(stockFrom(opt.InStock, opt.StockQty))
	}
	return avail
}

// InStock reports whether the product/selection combination can be sold.
func InStock(p Product, sel Selection) bool {
	return Availability(p, sel).Purchasable()
}
