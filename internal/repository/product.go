package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/craftkart/storefront-api/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, description, price, category, image, combo_offer, variants
		FROM products ORDER BY category, name`

	getProductByIDSQL = `SELECT id, name, description, price, category, image, combo_offer, variants
		FROM products WHERE id = $1`

	upsertProductSQL = `INSERT INTO products
		(id, name, description, price, category, image, combo_offer, variants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			image = EXCLUDED.image,
			combo_offer = EXCLUDED.combo_offer,
			variants = EXCLUDED.variants`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns the full catalog ordered by category and name.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// GetByID looks up a single product.
// Returns product.ErrNotFound when no such product exists.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("finding product %q: %w", id, err)
	}
	return &p, nil
}

// Upsert inserts or replaces a catalog item. Used by the seeding tool.
func (r *ProductRepository) Upsert(ctx context.Context, p product.Product) error {
	variants, err := json.Marshal(p.Variants)
	if err != nil {
		return fmt.Errorf("marshaling variants for product %q: %w", p.ID, err)
	}

	_, err = r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Category,
		p.Image, p.ComboOffer, variants,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p            product.Product
		variantsJSON []byte
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Category,
		&p.Image, &p.ComboOffer, &variantsJSON,
	); err != nil {
		return product.Product{}, err
	}
	if err := json.Unmarshal(variantsJSON, &p.Variants); err != nil {
		return product.Product{}, fmt.Errorf("decoding variants for product %q: %w", p.ID, err)
	}
	return p, nil
}
