package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rakadenny/backend-kedai/internal/cart"
	"github.com/rakadenny/backend-kedai/internal/events"
	"github.com/rakadenny/backend-kedai/internal/loyalty"
	"github.com/rakadenny/backend-kedai/internal/obs"
	"github.com/rakadenny/backend-kedai/internal/order"
	"github.com/rakadenny/backend-kedai/internal/pricing"
	"github.com/rakadenny/backend-kedai/internal/voucher"
)

// ErrEmptyCart is returned when checkout is attempted on a cart with no
// purchasable lines left after revalidation.
var ErrEmptyCart = errors.New("cart is empty")

// ErrInvalidInput flags a request the caller can correct.
var ErrInvalidInput = errors.New("invalid input")

// Carts is the slice of the cart service checkout depends on.
type Carts interface {
	Revalidate(ctx context.Context, cartID string) ([]cart.LineItem, error)
	Clear(ctx context.Context, cartID string) error
}

// Vouchers evaluates a discount code against a subtotal.
type Vouchers interface {
	Evaluate(ctx context.Context, code string, subtotal pricing.Money) (pricing.Money, error)
}

// Orders persists the checkout snapshot.
type Orders interface {
	Create(ctx context.Context, o *order.Order) error
}

// Enqueuer schedules post-checkout background work.
type Enqueuer interface {
	EnqueueOrderNotify(ctx context.Context, orderID, userID string) error
}

// Input is the validated checkout request.
type Input struct {
	CartID        string
	UserID        string
	DiscountCode  string
	RedeemPoints  bool
	PaymentMethod string
}

// Service composes the final total from the revalidated cart and persists the
// resulting order snapshot.
type Service struct {
	Carts    Carts
	Vouchers Vouchers
	Balance  loyalty.BalanceProvider
	Orders   Orders
	Bus      *events.Bus
	Tasks    Enqueuer
	Logger   zerolog.Logger

	Currency        string
	FreeShippingMin pricing.Money
	ShippingFee     pricing.Money
}

// Checkout revalidates the cart, applies discounts, writes the order, emits
// the created event, and clears the cart. Event emission and task enqueue are
// best effort; the order stands once persisted.
func (s *Service) Checkout(ctx context.Context, in Input) (order.Order, error) {
	items, err := s.Carts.Revalidate(ctx, in.CartID)
	if err != nil {
		return order.Order{}, err
	}
	if len(items) == 0 {
		return order.Order{}, ErrEmptyCart
	}

	priced := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		priced = append(priced, pricing.Item{Qty: it.Qty, UnitPrice: it.UnitPrice})
	}
	var subtotal pricing.Money
	for _, it := range priced {
		subtotal += pricing.Money(it.Qty) * it.UnitPrice
	}

	var codeDiscount pricing.Money
	if in.DiscountCode != "" {
		codeDiscount, err = s.Vouchers.Evaluate(ctx, in.DiscountCode, subtotal)
		if err != nil {
			if errors.Is(err, voucher.ErrNotFound) || errors.Is(err, voucher.ErrInvalidInput) {
				return order.Order{}, fmt.Errorf("discount code rejected: %w", ErrInvalidInput)
			}
			return order.Order{}, err
		}
	}

	var points int
	if in.RedeemPoints {
		points, err = s.Balance.Balance(ctx, in.UserID)
		if err != nil {
			return order.Order{}, err
		}
	}

	summary := pricing.Compose(priced, pricing.Input{
		FreeShippingMin: s.FreeShippingMin,
		ShippingFee:     s.ShippingFee,
		CodeDiscount:    codeDiscount,
		RedeemPoints:    in.RedeemPoints,
		AvailablePoints: points,
	})

	o := order.Order{
		UserID:         in.UserID,
		Status:         "created",
		Currency:       s.Currency,
		Subtotal:       summary.Subtotal,
		Shipping:       summary.Shipping,
		DiscountCode:   in.DiscountCode,
		CodeDiscount:   summary.CodeDiscount,
		PointsRedeemed: summary.PointsRedeemed,
		PointsDiscount: summary.PointsDiscount,
		Total:          summary.Total,
		PaymentMethod:  in.PaymentMethod,
		Items:          orderItems(items),
	}
	if err := s.Orders.Create(ctx, &o); err != nil {
		obs.CheckoutTotal.WithLabelValues("error").Inc()
		if errors.Is(err, order.ErrInsufficientPoints) {
			return order.Order{}, fmt.Errorf("loyalty balance changed: %w", ErrInvalidInput)
		}
		return order.Order{}, fmt.Errorf("persist order: %w", err)
	}
	obs.CheckoutTotal.WithLabelValues("ok").Inc()

	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicOrderCreated, o.ID, map[string]any{
			"orderId": o.ID,
			"userId":  o.UserID,
			"total":   o.Total,
		}); err != nil {
			s.Logger.Warn().Err(err).Str("order_id", o.ID).Msg("emit order.created")
		}
	}
	if s.Tasks != nil {
		if err := s.Tasks.EnqueueOrderNotify(ctx, o.ID, o.UserID); err != nil {
			s.Logger.Warn().Err(err).Str("order_id", o.ID).Msg("enqueue order notify")
		}
	}
	if err := s.Carts.Clear(ctx, in.CartID); err != nil {
		s.Logger.Warn().Err(err).Str("cart_id", in.CartID).Msg("clear cart after checkout")
	}
	return o, nil
}

func orderItems(items []cart.LineItem) []order.Item {
	out := make([]order.Item, 0, len(items))
	for _, it := range items {
		out = append(out, order.Item{
			ProductID: it.ProductID,
			Slug:      it.Slug,
			Title:     it.Title,
			Selection: it.Selection.Clone(),
			UnitPrice: it.UnitPrice,
			Qty:       it.Qty,
			Subtotal:  it.Subtotal(),
		})
	}
	return out
}
