package refund

import (
	"errors"
	"fmt"

	"github.com/rakadenny/backend-kedai/internal/order"
	"github.com/rakadenny/backend-kedai/internal/pricing"
)

// ErrInvalidInput flags a return request that does not match the order.
var ErrInvalidInput = errors.New("invalid input")

// ReturnLine identifies returned units by their position in the order.
type ReturnLine struct {
	Index int `json:"index"`
	Qty   int `json:"qty"`
}

// LineQuote is the computed refund for one returned line.
type LineQuote struct {
	Index          int           `json:"index"`
	ProductID      string        `json:"productId"`
	Qty            int           `json:"qty"`
	UnitPrice      pricing.Money `json:"unitPrice"`
	UnitDeduction  pricing.Money `json:"unitDeduction"`
	DiscountShare  pricing.Money `json:"discountShare"`
	Amount         pricing.Money `json:"amount"`
	FullLineReturn bool          `json:"fullLineReturn"`
}

// Quote is the full refund computation for a return request.
type Quote struct {
	OrderID       string        `json:"orderId"`
	Lines         []LineQuote   `json:"lines"`
	ShippingBack  pricing.Money `json:"shippingRefund"`
	Total         pricing.Money `json:"total"`
	FullOrder     bool          `json:"fullOrderReturn"`
	TotalDiscount pricing.Money `json:"totalDiscount"`
}

// divRound divides with rounding to nearest, halves away from zero, for
// non-negative operands.
func divRound(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// Prorate distributes the order's combined discount across its lines in
// proportion to each line's subtotal. Within a line the per-unit deduction is
// rounded, and the final unit absorbs the rounding remainder so the line's
// deductions sum exactly to its share.
//
// Returned values are indexed by line position: perUnit[i] applies to every
// unit of line i except the last, which carries lastUnit[i].
func Prorate(o order.Order) (shares, perUnit, lastUnit []pricing.Money) {
	n := len(o.Items)
	shares = make([]pricing.Money, n)
	perUnit = make([]pricing.Money, n)
	lastUnit = make([]pricing.Money, n)
	discount := o.CodeDiscount + o.PointsDiscount
	if discount <= 0 || o.Subtotal <= 0 {
		return shares, perUnit, lastUnit
	}
	for i, it := range o.Items {
		share := divRound(discount*it.Subtotal, o.Subtotal)
		if share > it.Subtotal {
			share = it.Subtotal
		}
		shares[i] = share
		if it.Qty <= 0 {
			continue
		}
		perUnit[i] = divRound(share, int64(it.Qty))
		lastUnit[i] = share - perUnit[i]*pricing.Money(it.Qty-1)
	}
	return shares, perUnit, lastUnit
}

// Compute quotes the refund for returning the given lines of the order. The
// order snapshot is the only price source; current catalog prices never enter
// the computation. A return covering every unit of the order also refunds the
// shipping that was charged.
func Compute(o order.Order, returns []ReturnLine) (Quote, error) {
	if len(returns) == 0 {
		return Quote{}, fmt.Errorf("no return lines: %w", ErrInvalidInput)
	}
	seen := make(map[int]bool, len(returns))
	for _, rl := range returns {
		if rl.Index < 0 || rl.Index >= len(o.Items) {
			return Quote{}, fmt.Errorf("line index %d out of range: %w", rl.Index, ErrInvalidInput)
		}
		if seen[rl.Index] {
			return Quote{}, fmt.Errorf("line index %d repeated: %w", rl.Index, ErrInvalidInput)
		}
		seen[rl.Index] = true
		if rl.Qty < 1 || rl.Qty > o.Items[rl.Index].Qty {
			return Quote{}, fmt.Errorf("return qty for line %d out of range: %w", rl.Index, ErrInvalidInput)
		}
	}

	shares, perUnit, lastUnit := Prorate(o)

	q := Quote{OrderID: o.ID, TotalDiscount: o.CodeDiscount + o.PointsDiscount}
	var returnedUnits int
	for _, rl := range returns {
		it := o.Items[rl.Index]
		returnedUnits += rl.Qty
		full := rl.Qty == it.Qty

		var amount pricing.Money
		if full {
			// The last unit carries the rounding remainder, so a full
			// line return gives back exactly lineSubtotal - share.
			amount = effectiveUnit(it.UnitPrice, perUnit[rl.Index])*pricing.Money(it.Qty-1) +
				effectiveUnit(it.UnitPrice, lastUnit[rl.Index])
		} else {
			amount = effectiveUnit(it.UnitPrice, perUnit[rl.Index]) * pricing.Money(rl.Qty)
		}
		q.Lines = append(q.Lines, LineQuote{
			Index:          rl.Index,
			ProductID:      it.ProductID,
			Qty:            rl.Qty,
			UnitPrice:      it.UnitPrice,
			UnitDeduction:  perUnit[rl.Index],
			DiscountShare:  shares[rl.Index],
			Amount:         amount,
			FullLineReturn: full,
		})
		q.Total += amount
	}

	if returnedUnits == o.TotalQty() {
		q.FullOrder = true
		if o.Shipping > 0 {
			q.ShippingBack = o.Shipping
			q.Total += o.Shipping
		}
	}
	return q, nil
}

func effectiveUnit(price, deduction pricing.Money) pricing.Money {
	refund := price - deduction
	if refund < 0 {
		return 0
	}
	return refund
}
