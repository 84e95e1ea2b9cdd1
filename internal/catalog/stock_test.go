package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func variedProduct() Product {
	p := Product{
		ID:    "p1",
		Slug:  "tee",
		Title: "Tee",
		Price: 2500,
		Groups: []VariationGroup{
			{Name: "Size", Options: []VariationOption{
				{Value: "S", StockQty: 3},
				{Value: "M", StockQty: 0},
				{Value: "L", InStock: boolPtr(false), StockQty: 10},
			}},
			{Name: "Color", Options: []VariationOption{
				{Value: "Red", StockQty: 5},
				{Value: "Blue"},
			}},
		},
	}
	p.Normalize()
	return p
}

func TestNormalizeDerivesKind(t *testing.T) {
	simple := Product{ID: "p0", Price: 100}
	simple.Normalize()
	assert.Equal(t, KindSimple, simple.Kind)

	varied := variedProduct()
	assert.Equal(t, KindVaried, varied.Kind)
}

func TestStockCombine(t *testing.T) {
	out := Stock{State: StockOut}
	unknown := Stock{State: StockUnknown}

	assert.Equal(t, StockOut, Limited(3).Combine(out).State)
	assert.Equal(t, StockOut, out.Combine(unknown).State)

	min := Limited(3).Combine(Limited(5))
	assert.Equal(t, StockLimited, min.State)
	assert.Equal(t, 3, min.Qty)

	// Unknown imposes no constraint.
	assert.Equal(t, Limited(3), unknown.Combine(Limited(3)))
	assert.Equal(t, StockUnknown, unknown.Combine(unknown).State)
}

func TestStockClamp(t *testing.T) {
	assert.Equal(t, 0, Stock{State: StockOut}.Clamp(4))
	assert.Equal(t, 2, Limited(2).Clamp(4))
	assert.Equal(t, 1, Limited(2).Clamp(1))
	// No ceiling recorded means no clamping.
	assert.Equal(t, 999, Stock{State: StockUnknown}.Clamp(999))
}

func TestAvailabilitySimpleProduct(t *testing.T) {
	p := Product{ID: "p0", Price: 100, StockQty: 7}
	p.Normalize()
	got := Availability(p, nil)
	assert.Equal(t, Limited(7), got)

	p.InStock = boolPtr(false)
	assert.Equal(t, StockOut, Availability(p, nil).State)

	// Zero quantity with no explicit flag is the legacy "no limit recorded" row.
	legacy := Product{ID: "p2", Price: 100}
	legacy.Normalize()
	assert.Equal(t, StockUnknown, Availability(legacy, nil).State)
}

func TestAvailabilityVariedProduct(t *testing.T) {
	p := variedProduct()

	t.Run("complete selection takes the binding option", func(t *testing.T) {
		got := Availability(p, Selection{"Size": "S", "Color": "Red"})
		require.Equal(t, StockLimited, got.State)
		assert.Equal(t, 3, got.Qty)
	})

	t.Run("incomplete selection is not purchasable", func(t *testing.T) {
		assert.Equal(t, StockOut, Availability(p, Selection{"Size": "S"}).State)
		assert.Equal(t, StockOut, Availability(p, nil).State)
	})

	t.Run("unknown option value is not purchasable", func(t *testing.T) {
		assert.Equal(t, StockOut, Availability(p, Selection{"Size": "XXL", "Color": "Red"}).State)
	})

	t.Run("explicitly out of stock option dominates", func(t *testing.T) {
		assert.Equal(t, StockOut, Availability(p, Selection{"Size": "L", "Color": "Red"}).State)
	})

	t.Run("options without quantities leave the ceiling unknown", func(t *testing.T) {
		got := Availability(p, Selection{"Size": "M", "Color": "Blue"})
		assert.Equal(t, StockUnknown, got.State)
		assert.True(t, got.Purchasable())
	})
}

func TestSelectionKeyIsCanonical(t *testing.T) {
	a := Selection{"Size": "M", "Color": "Red"}
	b := Selection{"Color": "Red", "Size": "M"}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "Color=Red;Size=M", a.Key())
	assert.Equal(t, "", Selection(nil).Key())
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(Selection{"Size": "M"}))
}
