package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested product could not be located.
var ErrNotFound = errors.New("product not found")

const productColumns = `id, slug, title, price, on_sale, sale_price, in_stock, stock_qty, variations, images`

// Repo reads catalog rows from Postgres.
type Repo struct {
	Pool *pgxpool.Pool
}

// BySlugOrID loads a single product by its slug or identifier.
func (r *Repo) BySlugOrID(ctx context.Context, key string) (Product, error) {
	if r == nil || r.Pool == nil {
		return Product{}, errors.New("catalog: pool not configured")
	}
	row := r.Pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = $1 OR id::text = $1`, key)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// BatchGet loads every product referenced by the given slugs or identifiers
// in one round trip. Keys with no matching row are simply absent from the
// result; callers treat absence as "product no longer exists".
func (r *Repo) BatchGet(ctx context.Context, keys []string) (map[string]Product, error) {
	if r == nil || r.Pool == nil {
		return nil, errors.New("catalog: pool not configured")
	}
	if len(keys) == 0 {
		return map[string]Product{}, nil
	}
	rows, err := r.Pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id::text = ANY($1) OR slug = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("catalog: batch get: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Product, len(keys))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
		if p.Slug != "" {
			out[p.Slug] = p
		}
	}
	return out, rows.Err()
}

// List returns a page of products ordered by title.
func (r *Repo) List(ctx context.Context, limit, offset int) ([]Product, error) {
	if r == nil || r.Pool == nil {
		return nil, errors.New("catalog: pool not configured")
	}
	rows, err := r.Pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY title LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p          Product
		variations []byte
		images     []byte
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Price, &p.OnSale, &p.SalePrice,
		&p.InStock, &p.StockQty, &variations, &images); err != nil {
		return Product{}, err
	}
	if len(variations) > 0 {
		if err := json.Unmarshal(variations, &p.Groups); err != nil {
			return Product{}, fmt.Errorf("catalog: decode variations: %w", err)
		}
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return Product{}, fmt.Errorf("catalog: decode images: %w", err)
		}
	}
	p.Normalize()
	return p, nil
}
