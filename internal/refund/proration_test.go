package refund

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakadenny/backend-kedai/internal/order"
)

func twoUnitOrder() order.Order {
	return order.Order{
		ID:           "o1",
		Subtotal:     10000,
		CodeDiscount: 1000,
		Total:        9000,
		Items: []order.Item{
			{ProductID: "p1", UnitPrice: 5000, Qty: 2, Subtotal: 10000},
		},
	}
}

func TestComputeProratesDiscountPerUnit(t *testing.T) {
	// One line of two 5000 units with a 1000 code discount: each returned
	// unit gives back 4500, not 5000.
	q, err := Compute(twoUnitOrder(), []ReturnLine{{Index: 0, Qty: 1}})
	require.NoError(t, err)
	require.Len(t, q.Lines, 1)
	assert.EqualValues(t, 500, q.Lines[0].UnitDeduction)
	assert.EqualValues(t, 4500, q.Lines[0].Amount)
	assert.EqualValues(t, 4500, q.Total)
	assert.False(t, q.FullOrder)
}

func TestComputeFullLineConservesDiscountExactly(t *testing.T) {
	// An odd discount cannot split evenly; the final unit absorbs the
	// remainder so the full line refund equals lineSubtotal minus share.
	o := order.Order{
		ID:           "o2",
		Subtotal:     3000,
		CodeDiscount: 1001,
		Total:        1999,
		Items: []order.Item{
			{ProductID: "p1", UnitPrice: 1000, Qty: 3, Subtotal: 3000},
		},
	}
	q, err := Compute(o, []ReturnLine{{Index: 0, Qty: 3}})
	require.NoError(t, err)
	assert.EqualValues(t, 3000-1001, q.Total)
	assert.True(t, q.Lines[0].FullLineReturn)
}

func TestComputeSharesProportionalAcrossLines(t *testing.T) {
	o := order.Order{
		ID:           "o3",
		Subtotal:     10000,
		CodeDiscount: 1000,
		Total:        9000,
		Items: []order.Item{
			{ProductID: "a", UnitPrice: 3000, Qty: 1, Subtotal: 3000},
			{ProductID: "b", UnitPrice: 7000, Qty: 1, Subtotal: 7000},
		},
	}
	shares, _, _ := Prorate(o)
	assert.EqualValues(t, 300, shares[0])
	assert.EqualValues(t, 700, shares[1])

	q, err := Compute(o, []ReturnLine{{Index: 1, Qty: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 6300, q.Total)
}

func TestProrateConservesDiscountWithinRoundingTolerance(t *testing.T) {
	// 999 over three near-equal lines cannot split cleanly; the per-line
	// shares still sum back to the discount within one cent per line.
	o := order.Order{
		ID:           "o-rounding",
		Subtotal:     1000,
		CodeDiscount: 999,
		Total:        1,
		Items: []order.Item{
			{ProductID: "a", UnitPrice: 333, Qty: 1, Subtotal: 333},
			{ProductID: "b", UnitPrice: 333, Qty: 1, Subtotal: 333},
			{ProductID: "c", UnitPrice: 334, Qty: 1, Subtotal: 334},
		},
	}
	shares, _, _ := Prorate(o)
	var sum int64
	for i, share := range shares {
		assert.LessOrEqual(t, share, o.Items[i].Subtotal)
		sum += share
	}
	diff := sum - o.CodeDiscount
	if diff < 0 {
		diff = -diff
	}
	assert.LessOrEqual(t, diff, int64(len(o.Items)))
}

func TestComputeFullOrderReturnRefundsShipping(t *testing.T) {
	o := order.Order{
		ID:       "o4",
		Subtotal: 6000,
		Shipping: 495,
		Total:    6495,
		Items: []order.Item{
			{ProductID: "a", UnitPrice: 2000, Qty: 2, Subtotal: 4000},
			{ProductID: "b", UnitPrice: 2000, Qty: 1, Subtotal: 2000},
		},
	}
	q, err := Compute(o, []ReturnLine{{Index: 0, Qty: 2}, {Index: 1, Qty: 1}})
	require.NoError(t, err)
	assert.True(t, q.FullOrder)
	assert.EqualValues(t, 495, q.ShippingBack)
	assert.EqualValues(t, 6495, q.Total)

	// A partial return of the same order keeps the shipping.
	q, err = Compute(o, []ReturnLine{{Index: 0, Qty: 2}})
	require.NoError(t, err)
	assert.False(t, q.FullOrder)
	assert.EqualValues(t, 0, q.ShippingBack)
}

func TestComputePointsDiscountProratesToo(t *testing.T) {
	o := order.Order{
		ID:             "o5",
		Subtotal:       10000,
		CodeDiscount:   600,
		PointsDiscount: 400,
		Total:          9000,
		Items: []order.Item{
			{ProductID: "p1", UnitPrice: 5000, Qty: 2, Subtotal: 10000},
		},
	}
	q, err := Compute(o, []ReturnLine{{Index: 0, Qty: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 1000, q.TotalDiscount)
	assert.EqualValues(t, 4500, q.Total)
}

func TestComputeZeroSubtotalYieldsZeroShares(t *testing.T) {
	o := order.Order{
		ID:           "o6",
		Subtotal:     0,
		CodeDiscount: 1000,
		Items: []order.Item{
			{ProductID: "free", UnitPrice: 0, Qty: 1, Subtotal: 0},
		},
	}
	shares, perUnit, lastUnit := Prorate(o)
	assert.EqualValues(t, 0, shares[0])
	assert.EqualValues(t, 0, perUnit[0])
	assert.EqualValues(t, 0, lastUnit[0])

	q, err := Compute(o, []ReturnLine{{Index: 0, Qty: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 0, q.Total)
}

func TestComputeUnitRefundNeverNegative(t *testing.T) {
	// A deduction larger than the unit price clamps the refund at zero
	// instead of charging the customer for returning.
	o := order.Order{
		ID:           "o7",
		Subtotal:     100,
		CodeDiscount: 100,
		Items: []order.Item{
			{ProductID: "p1", UnitPrice: 100, Qty: 1, Subtotal: 100},
		},
	}
	q, err := Compute(o, []ReturnLine{{Index: 0, Qty: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 0, q.Total)
}

func TestComputeValidatesReturnLines(t *testing.T) {
	o := twoUnitOrder()

	_, err := Compute(o, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Compute(o, []ReturnLine{{Index: 5, Qty: 1}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Compute(o, []ReturnLine{{Index: 0, Qty: 3}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Compute(o, []ReturnLine{{Index: 0, Qty: 0}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Compute(o, []ReturnLine{{Index: 0, Qty: 1}, {Index: 0, Qty: 1}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDivRoundHalvesUp(t *testing.T) {
	assert.EqualValues(t, 2, divRound(3, 2))
	assert.EqualValues(t, 1, divRound(2, 2))
	assert.EqualValues(t, 0, divRound(1, 3))
	assert.EqualValues(t, 0, divRound(5, 0))
}
