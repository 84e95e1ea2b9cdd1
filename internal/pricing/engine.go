package pricing

import "github.com/rakadenny/backend-kedai/internal/loyalty"

// Money represents a monetary value stored in minor units.
type Money = int64

// Item describes a line item used for total composition.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Input carries the business constants and discount sources for one composition.
type Input struct {
	FreeShippingMin Money
	ShippingFee     Money
	CodeDiscount    Money
	RedeemPoints    bool
	AvailablePoints int
}

// Summary aggregates the computed pricing components.
type Summary struct {
	Subtotal       Money
	Shipping       Money
	CodeDiscount   Money
	PointsDiscount Money
	PointsRedeemed int
	Total          Money
}

// Compose calculates the payable total for the validated cart contents.
// Shipping is waived once the subtotal reaches the free-shipping cutoff.
// Point redemption resolves through the loyalty tier table against the
// pre-discount figure (subtotal plus shipping); the tier selector already
// refuses tiers that would take that figure below one minor unit. The final
// total is clamped at zero after all discount sources apply.
func Compose(items []Item, in Input) Summary {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}

	shipping := in.ShippingFee
	if shipping < 0 {
		shipping = 0
	}
	if subtotal >= in.FreeShippingMin {
		shipping = 0
	}

	code := in.CodeDiscount
	if code < 0 {
		code = 0
	}

	var pointsDiscount Money
	var pointsRedeemed int
	if in.RedeemPoints {
		if tier, ok := loyalty.BestTier(in.AvailablePoints, subtotal+shipping); ok {
			pointsDiscount = tier.Discount
			pointsRedeemed = tier.Points
		}
	}

	total := subtotal + shipping - code - pointsDiscount
	if total < 0 {
		total = 0
	}
	return Summary{
		Subtotal:       subtotal,
		Shipping:       shipping,
		CodeDiscount:   code,
		PointsDiscount: pointsDiscount,
		PointsRedeemed: pointsRedeemed,
		Total:          total,
	}
}
