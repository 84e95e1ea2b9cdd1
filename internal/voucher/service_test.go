package voucher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evalTime = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestDiscountForFlat(t *testing.T) {
	got, err := discountFor(Voucher{Code: "TENOFF", Kind: KindFlat, Value: 1000}, 7000, evalTime)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, got)
}

func TestDiscountForPercent(t *testing.T) {
	// 1500 bps = 15%.
	got, err := discountFor(Voucher{Code: "PCT", Kind: KindPercent, PercentBps: 1500}, 10000, evalTime)
	require.NoError(t, err)
	assert.EqualValues(t, 1500, got)

	_, err = discountFor(Voucher{Code: "PCT0", Kind: KindPercent}, 10000, evalTime)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDiscountForRejectsUnknownKind(t *testing.T) {
	// A kind outside the known set must not fall through to a flat grant.
	_, err := discountFor(Voucher{Code: "ODD", Kind: "bogo", Value: 5000}, 10000, evalTime)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDiscountForValidityWindow(t *testing.T) {
	future := evalTime.Add(time.Hour)
	past := evalTime.Add(-time.Hour)

	_, err := discountFor(Voucher{Code: "SOON", Kind: KindFlat, Value: 100, ValidFrom: &future}, 5000, evalTime)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = discountFor(Voucher{Code: "GONE", Kind: KindFlat, Value: 100, ValidTo: &past}, 5000, evalTime)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDiscountForMinSpend(t *testing.T) {
	_, err := discountFor(Voucher{Code: "BIG", Kind: KindFlat, Value: 500, MinSpend: 5000}, 4999, evalTime)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDiscountForClamps(t *testing.T) {
	got, err := discountFor(Voucher{Code: "HUGE", Kind: KindFlat, Value: 9999}, 700, evalTime)
	require.NoError(t, err)
	assert.EqualValues(t, 700, got)

	got, err = discountFor(Voucher{Code: "NEG", Kind: KindFlat, Value: -50}, 700, evalTime)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got)
}
