package loyalty

// Tier maps a minimum point balance to a flat discount in minor currency units.
type Tier struct {
	Points   int
	Discount int64
}

// tiers is ordered from the highest threshold down. The table is hand-authored
// and discounts strictly increase with the threshold, so selection never ties.
var tiers = []Tier{
	{Points: 5000, Discount: 5000},
	{Points: 4000, Discount: 3500},
	{Points: 3000, Discount: 2000},
	{Points: 2000, Discount: 1000},
	{Points: 1000, Discount: 500},
}

// Tiers returns a copy of the redemption table, highest threshold first.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// BestTier selects the largest tier the balance can afford whose discount
// still leaves at least one minor unit payable on the order. The second
// return value reports whether any tier qualified.
func BestTier(points int, orderTotal int64) (Tier, bool) {
	for _, t := range tiers {
		if points >= t.Points && t.Discount <= orderTotal-1 {
			return t, true
		}
	}
	return Tier{}, false
}

// RemainingPointsHint detects the upsell case: the balance qualifies for a
// tier whose discount the current order total cannot absorb. It returns that
// tier together with the minor-unit amount the order total would need to grow
// by for the tier to become selectable.
func RemainingPointsHint(points int, orderTotal int64) (Tier, int64, bool) {
	for _, t := range tiers {
		if points >= t.Points && t.Discount > orderTotal-1 {
			return t, t.Discount + 1 - orderTotal, true
		}
	}
	return Tier{}, 0, false
}
