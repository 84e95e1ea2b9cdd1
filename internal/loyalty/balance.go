package loyalty

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BalanceProvider exposes the caller's current redeemable point balance.
type BalanceProvider interface {
	Balance(ctx context.Context, userID string) (int, error)
}

// PGBalance reads loyalty balances from Postgres.
type PGBalance struct {
	Pool *pgxpool.Pool
}

// Balance returns the stored point balance for the user. Users without an
// account row simply hold zero points.
func (p PGBalance) Balance(ctx context.Context, userID string) (int, error) {
	if p.Pool == nil {
		return 0, errors.New("loyalty: pool not configured")
	}
	var points int
	err := p.Pool.QueryRow(ctx,
		`SELECT points FROM loyalty_accounts WHERE user_id = $1`, userID,
	).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	if points < 0 {
		points = 0
	}
	return points, nil
}

// StaticBalance is a test-friendly provider returning a fixed balance.
type StaticBalance int

// Balance implements BalanceProvider.
func (s StaticBalance) Balance(context.Context, string) (int, error) { return int(s), nil }
