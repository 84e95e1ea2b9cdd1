package voucher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rakadenny/backend-kedai/internal/pricing"
)

// ErrNotFound indicates the requested code does not exist.
var ErrNotFound = errors.New("voucher not found")

// ErrInvalidInput is returned when the code cannot be applied.
var ErrInvalidInput = errors.New("invalid input")

// Kind enumerates the supported discount code shapes.
const (
	KindFlat    = "flat"
	KindPercent = "percent"
)

// Voucher is a discount code row.
type Voucher struct {
	Code       string
	Kind       string
	Value      int64
	PercentBps int32
	MinSpend   int64
	ValidFrom  *time.Time
	ValidTo    *time.Time
}

// Service evaluates discount codes against an order subtotal.
type Service struct {
	Pool *pgxpool.Pool
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Evaluate resolves the code and returns the discount amount it grants for
// the given subtotal. The amount is clamped to the subtotal and never
// negative.
func (s *Service) Evaluate(ctx context.Context, code string, subtotal pricing.Money) (pricing.Money, error) {
	if s == nil || s.Pool == nil {
		return 0, errors.New("voucher service not configured")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, fmt.Errorf("voucher code required: %w", ErrInvalidInput)
	}
	v, err := s.byCode(ctx, code)
	if err != nil {
		return 0, err
	}
	return discountFor(v, subtotal, s.now())
}

// discountFor applies the voucher's validity window, spend floor and kind to
// the subtotal. A kind outside the known set is rejected rather than falling
// through to a flat grant.
func discountFor(v Voucher, subtotal pricing.Money, now time.Time) (pricing.Money, error) {
	if v.ValidFrom != nil && v.ValidFrom.After(now) {
		return 0, fmt.Errorf("voucher not active: %w", ErrInvalidInput)
	}
	if v.ValidTo != nil && v.ValidTo.Before(now) {
		return 0, fmt.Errorf("voucher expired: %w", ErrInvalidInput)
	}
	if subtotal < v.MinSpend {
		return 0, fmt.Errorf("minimum spend not met: %w", ErrInvalidInput)
	}

	var discount pricing.Money
	switch v.Kind {
	case KindPercent:
		if v.PercentBps <= 0 {
			return 0, fmt.Errorf("invalid percent voucher: %w", ErrInvalidInput)
		}
		discount = (subtotal * int64(v.PercentBps)) / 10000
	case KindFlat:
		discount = v.Value
	default:
		return 0, fmt.Errorf("unknown voucher kind %q: %w", v.Kind, ErrInvalidInput)
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount, nil
}

func (s *Service) byCode(ctx context.Context, code string) (Voucher, error) {
	var v Voucher
	err := s.Pool.QueryRow(ctx,
		`SELECT code, kind, value, percent_bps, min_spend, valid_from, valid_to
		 FROM discount_codes WHERE code = $1`, code,
	).Scan(&v.Code, &v.Kind, &v.Value, &v.PercentBps, &v.MinSpend, &v.ValidFrom, &v.ValidTo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Voucher{}, ErrNotFound
		}
		return Voucher{}, err
	}
	return v, nil
}
