package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested order could not be located.
var ErrNotFound = errors.New("order not found")

// ErrInsufficientPoints indicates the caller's loyalty balance no longer
// covers the redemption recorded on the order.
var ErrInsufficientPoints = errors.New("insufficient loyalty points")

// Repo persists and reads order snapshots.
type Repo struct {
	Pool *pgxpool.Pool
}

// Create writes the snapshot and its items in one transaction and fills in
// the generated identifier and creation time.
func (r *Repo) Create(ctx context.Context, o *Order) error {
	if r == nil || r.Pool == nil {
		return errors.New("order repo not configured")
	}
	if o == nil || len(o.Items) == 0 {
		return errors.New("order requires at least one item")
	}
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	o.ID = uuid.NewString()
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, status, currency, subtotal, shipping,
		   discount_code, code_discount, points_redeemed, points_discount, total, payment_method)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at`,
		o.ID, o.UserID, o.Status, o.Currency, o.Subtotal, o.Shipping,
		o.DiscountCode, o.CodeDiscount, o.PointsRedeemed, o.PointsDiscount, o.Total, o.PaymentMethod,
	).Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, it := range o.Items {
		selection, err := json.Marshal(it.Selection)
		if err != nil {
			return fmt.Errorf("encode selection: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_items (order_id, position, product_id, slug, title, selection, unit_price, qty, subtotal)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			o.ID, i, it.ProductID, it.Slug, it.Title, selection, it.UnitPrice, it.Qty, it.Subtotal,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	// Redeemed points are debited in the same transaction so the balance can
	// never pay for two orders. The guard fails the checkout when a
	// concurrent order drained the balance after it was read.
	if o.PointsRedeemed > 0 {
		tag, err := tx.Exec(ctx,
			`UPDATE loyalty_accounts SET points = points - $1 WHERE user_id = $2 AND points >= $1`,
			o.PointsRedeemed, o.UserID)
		if err != nil {
			return fmt.Errorf("debit loyalty points: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrInsufficientPoints
		}
	}
	return tx.Commit(ctx)
}

// Get loads an order snapshot with its items in original position order.
func (r *Repo) Get(ctx context.Context, orderID string) (Order, error) {
	if r == nil || r.Pool == nil {
		return Order{}, errors.New("order repo not configured")
	}
	var o Order
	err := r.Pool.QueryRow(ctx,
		`SELECT id, user_id, status, currency, subtotal, shipping, discount_code,
		   code_discount, points_redeemed, points_discount, total, payment_method, created_at
		 FROM orders WHERE id = $1`, orderID,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.Currency, &o.Subtotal, &o.Shipping, &o.DiscountCode,
		&o.CodeDiscount, &o.PointsRedeemed, &o.PointsDiscount, &o.Total, &o.PaymentMethod, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}

	rows, err := r.Pool.Query(ctx,
		`SELECT product_id, slug, title, selection, unit_price, qty, subtotal
		 FROM order_items WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it        Item
			selection []byte
		)
		if err := rows.Scan(&it.ProductID, &it.Slug, &it.Title, &selection, &it.UnitPrice, &it.Qty, &it.Subtotal); err != nil {
			return Order{}, err
		}
		if len(selection) > 0 {
			if err := json.Unmarshal(selection, &it.Selection); err != nil {
				return Order{}, fmt.Errorf("decode selection: %w", err)
			}
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// ListByUser returns the user's order history, newest first, without items.
func (r *Repo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	if r == nil || r.Pool == nil {
		return nil, errors.New("order repo not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.Pool.Query(ctx,
		`SELECT id, user_id, status, currency, subtotal, shipping, discount_code,
		   code_discount, points_redeemed, points_discount, total, payment_method, created_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Currency, &o.Subtotal, &o.Shipping, &o.DiscountCode,
			&o.CodeDiscount, &o.PointsRedeemed, &o.PointsDiscount, &o.Total, &o.PaymentMethod, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
