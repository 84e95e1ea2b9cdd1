package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakadenny/backend-kedai/internal/cart"
	"github.com/rakadenny/backend-kedai/internal/loyalty"
	"github.com/rakadenny/backend-kedai/internal/obs"
	"github.com/rakadenny/backend-kedai/internal/order"
	"github.com/rakadenny/backend-kedai/internal/pricing"
	"github.com/rakadenny/backend-kedai/internal/voucher"
)

func TestMain(m *testing.M) {
	obs.MustRegisterDomainMetrics("test", prometheus.NewRegistry())
	m.Run()
}

type stubCarts struct {
	items   []cart.LineItem
	err     error
	cleared []string
}

func (s *stubCarts) Revalidate(_ context.Context, cartID string) ([]cart.LineItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func (s *stubCarts) Clear(_ context.Context, cartID string) error {
	s.cleared = append(s.cleared, cartID)
	return nil
}

type stubVouchers struct {
	discount pricing.Money
	err      error
	code     string
}

func (s *stubVouchers) Evaluate(_ context.Context, code string, _ pricing.Money) (pricing.Money, error) {
	s.code = code
	if s.err != nil {
		return 0, s.err
	}
	return s.discount, nil
}

type stubOrders struct {
	created *order.Order
	err     error
}

func (s *stubOrders) Create(_ context.Context, o *order.Order) error {
	if s.err != nil {
		return s.err
	}
	o.ID = "order-1"
	s.created = o
	return nil
}

type stubEnqueuer struct {
	orderIDs []string
}

func (s *stubEnqueuer) EnqueueOrderNotify(_ context.Context, orderID, _ string) error {
	s.orderIDs = append(s.orderIDs, orderID)
	return nil
}

func newTestService(carts *stubCarts, vouchers *stubVouchers, orders *stubOrders, tasks *stubEnqueuer, points int) *Service {
	return &Service{
		Carts:           carts,
		Vouchers:        vouchers,
		Balance:         loyalty.StaticBalance(points),
		Orders:          orders,
		Tasks:           tasks,
		Logger:          zerolog.Nop(),
		Currency:        "USD",
		FreeShippingMin: 8000,
		ShippingFee:     495,
	}
}

func testItems() []cart.LineItem {
	return []cart.LineItem{
		{ProductID: "p1", Title: "Tee", UnitPrice: 5000, Qty: 2},
	}
}

func TestCheckoutComposesAndPersists(t *testing.T) {
	carts := &stubCarts{items: testItems()}
	orders := &stubOrders{}
	tasks := &stubEnqueuer{}
	svc := newTestService(carts, &stubVouchers{discount: 1000}, orders, tasks, 0)

	o, err := svc.Checkout(context.Background(), Input{
		CartID:       "c1",
		UserID:       "u1",
		DiscountCode: "SAVE10",
	})
	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)
	assert.EqualValues(t, 10000, o.Subtotal)
	assert.EqualValues(t, 0, o.Shipping)
	assert.EqualValues(t, 1000, o.CodeDiscount)
	assert.EqualValues(t, 9000, o.Total)
	assert.Equal(t, "created", o.Status)
	require.Len(t, o.Items, 1)
	assert.EqualValues(t, 10000, o.Items[0].Subtotal)

	require.NotNil(t, orders.created)
	assert.Equal(t, []string{"c1"}, carts.cleared)
	assert.Equal(t, []string{"order-1"}, tasks.orderIDs)
}

func TestCheckoutChargesShippingBelowThreshold(t *testing.T) {
	carts := &stubCarts{items: []cart.LineItem{{ProductID: "p1", UnitPrice: 7000, Qty: 1}}}
	svc := newTestService(carts, &stubVouchers{}, &stubOrders{}, &stubEnqueuer{}, 0)

	o, err := svc.Checkout(context.Background(), Input{CartID: "c1", UserID: "u1"})
	require.NoError(t, err)
	assert.EqualValues(t, 495, o.Shipping)
	assert.EqualValues(t, 7495, o.Total)
}

func TestCheckoutRedeemsPoints(t *testing.T) {
	carts := &stubCarts{items: testItems()}
	svc := newTestService(carts, &stubVouchers{}, &stubOrders{}, &stubEnqueuer{}, 4000)

	o, err := svc.Checkout(context.Background(), Input{
		CartID:       "c1",
		UserID:       "u1",
		RedeemPoints: true,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3500, o.PointsDiscount)
	assert.Equal(t, 4000, o.PointsRedeemed)
	assert.EqualValues(t, 6500, o.Total)
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	svc := newTestService(&stubCarts{}, &stubVouchers{}, &stubOrders{}, &stubEnqueuer{}, 0)

	_, err := svc.Checkout(context.Background(), Input{CartID: "c1", UserID: "u1"})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutMapsVoucherRejections(t *testing.T) {
	carts := &stubCarts{items: testItems()}
	svc := newTestService(carts, &stubVouchers{err: voucher.ErrNotFound}, &stubOrders{}, &stubEnqueuer{}, 0)

	_, err := svc.Checkout(context.Background(), Input{CartID: "c1", UserID: "u1", DiscountCode: "NOPE"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, carts.cleared)
}

func TestCheckoutPropagatesCartErrors(t *testing.T) {
	svc := newTestService(&stubCarts{err: cart.ErrNotFound}, &stubVouchers{}, &stubOrders{}, &stubEnqueuer{}, 0)

	_, err := svc.Checkout(context.Background(), Input{CartID: "missing", UserID: "u1"})
	assert.ErrorIs(t, err, cart.ErrNotFound)
}

func TestCheckoutFailsWhenPointsBalanceDepleted(t *testing.T) {
	// The balance read said the tier was affordable, but the debit inside
	// the order transaction found it drained by a concurrent checkout.
	carts := &stubCarts{items: testItems()}
	svc := newTestService(carts, &stubVouchers{}, &stubOrders{err: order.ErrInsufficientPoints}, &stubEnqueuer{}, 4000)

	_, err := svc.Checkout(context.Background(), Input{
		CartID:       "c1",
		UserID:       "u1",
		RedeemPoints: true,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, carts.cleared)
}

func TestCheckoutKeepsCartWhenPersistFails(t *testing.T) {
	carts := &stubCarts{items: testItems()}
	svc := newTestService(carts, &stubVouchers{}, &stubOrders{err: errors.New("db down")}, &stubEnqueuer{}, 0)

	_, err := svc.Checkout(context.Background(), Input{CartID: "c1", UserID: "u1"})
	require.Error(t, err)
	assert.Empty(t, carts.cleared)
}
