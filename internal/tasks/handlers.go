package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/rakadenny/backend-kedai/internal/cart"
	"github.com/rakadenny/backend-kedai/internal/common"
	"github.com/rakadenny/backend-kedai/internal/obs"
	"github.com/rakadenny/backend-kedai/internal/order"
)

// OrderGetter loads the snapshot an order notification is rendered from.
type OrderGetter interface {
	Get(ctx context.Context, orderID string) (order.Order, error)
}

// OrderNotifier sends the order confirmation message.
type OrderNotifier struct {
	Orders OrderGetter
	Email  common.EmailSender
	Logger zerolog.Logger
}

// HandleOrderNotify processes an order:notify task.
func (n *OrderNotifier) HandleOrderNotify(ctx context.Context, t *asynq.Task) error {
	var p OrderNotifyPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
	}
	o, err := n.Orders.Get(ctx, p.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return fmt.Errorf("order %s missing: %w", p.OrderID, asynq.SkipRetry)
		}
		return err
	}
	subject := fmt.Sprintf("Order %s confirmed", o.ID)
	body := fmt.Sprintf("Thanks for your order. Total charged: %d %s.", o.Total, o.Currency)
	if err := n.Email.Send(p.UserID, subject, body); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	n.Logger.Info().Str("order_id", o.ID).Msg("order notification sent")
	return nil
}

// CartSweeper revalidates every persisted cart against current catalog truth.
// It runs on a schedule so carts abandoned in a stale state converge without
// waiting for their owner to return.
type CartSweeper struct {
	Carts  *cart.Service
	Logger zerolog.Logger
}

// HandleCartSweep processes a cart:sweep task.
func (s *CartSweeper) HandleCartSweep(ctx context.Context, _ *asynq.Task) error {
	ids, err := s.Carts.CartIDs(ctx)
	if err != nil {
		obs.CartSweepTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("list carts: %w", err)
	}
	var failures int
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.Carts.Revalidate(ctx, id); err != nil {
			if errors.Is(err, cart.ErrNotFound) {
				continue
			}
			failures++
			s.Logger.Warn().Err(err).Str("cart_id", id).Msg("sweep revalidation failed")
		}
	}
	if failures > 0 {
		obs.CartSweepTotal.WithLabelValues("partial").Inc()
	} else {
		obs.CartSweepTotal.WithLabelValues("ok").Inc()
	}
	s.Logger.Info().Int("carts", len(ids)).Int("failures", failures).Msg("cart sweep complete")
	return nil
}

// NewMux registers all task handlers on an asynq mux.
func NewMux(notifier *OrderNotifier, sweeper *CartSweeper) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOrderNotify, notifier.HandleOrderNotify)
	mux.HandleFunc(TypeCartSweep, sweeper.HandleCartSweep)
	return mux
}
