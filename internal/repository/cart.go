package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/craftkart/storefront-api/internal/domain/cart"
)

const (
	createCartSQL = `INSERT INTO carts (id, coupon_code, created_at, updated_at)
		VALUES ($1, '', now(), now())`

	getCartSQL = `SELECT id, coupon_code, created_at, updated_at FROM carts WHERE id = $1`

	getCartItemsSQL = `SELECT id, product_id, name, variant, unit_price, quantity, combo_offer, personalization
		FROM cart_items WHERE cart_id = $1 ORDER BY added_at, id`

	addCartItemSQL = `INSERT INTO cart_items
		(id, cart_id, product_id, name, variant, unit_price, quantity, combo_offer, personalization)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateCartItemQuantitySQL = `UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND id = $2`

	removeCartItemSQL = `DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`

	setCartCouponSQL = `UPDATE carts SET coupon_code = $2, updated_at = now() WHERE id = $1`

	clearCartItemsSQL = `DELETE FROM cart_items WHERE cart_id = $1`

	touchCartSQL = `UPDATE carts SET updated_at = now() WHERE id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Items are
// returned in insertion order, which the buy-two-get-one tie-break relies on.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Create persists a new empty cart.
func (r *CartRepository) Create(ctx context.Context, c *cart.Cart) error {
	if _, err := r.pool.Exec(ctx, createCartSQL, c.ID); err != nil {
		return fmt.Errorf("creating cart %q: %w", c.ID, err)
	}
	return nil
}

// Get loads a cart with its items. Returns cart.ErrNotFound when the cart
// does not exist.
func (r *CartRepository) Get(ctx context.Context, id string) (*cart.Cart, error) {
	var c cart.Cart
	err := r.pool.QueryRow(ctx, getCartSQL, id).
		Scan(&c.ID, &c.AppliedCode, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("finding cart %q: %w", id, err)
	}

	rows, err := r.pool.Query(ctx, getCartItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("loading items for cart %q: %w", id, err)
	}
	c.Items, err = pgx.CollectRows(rows, scanCartItem)
	if err != nil {
		return nil, fmt.Errorf("loading items for cart %q: %w", id, err)
	}

	return &c, nil
}

// AddItem appends a line to the cart.
func (r *CartRepository) AddItem(ctx context.Context, cartID string, item cart.Item) error {
	personalization, err := json.Marshal(item.Personalization)
	if err != nil {
		return fmt.Errorf("marshaling personalization: %w", err)
	}

	_, err = r.pool.Exec(ctx, addCartItemSQL,
		item.ID, cartID, item.ProductID, item.Name, item.Variant,
		item.UnitPrice, item.Quantity, item.ComboOffer, personalization,
	)
	if err != nil {
		return fmt.Errorf("adding item to cart %q: %w", cartID, err)
	}

	return r.touch(ctx, cartID)
}

// UpdateItemQuantity changes a line's quantity.
func (r *CartRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	tag, err := r.pool.Exec(ctx, updateCartItemQuantitySQL, cartID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("updating quantity for cart item %q: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return r.touch(ctx, cartID)
}

// RemoveItem deletes a line from the cart.
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, itemID string) error {
	tag, err := r.pool.Exec(ctx, removeCartItemSQL, cartID, itemID)
	if err != nil {
		return fmt.Errorf("removing cart item %q: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return r.touch(ctx, cartID)
}

// SetCoupon stores the applied coupon code; an empty code clears the slot.
func (r *CartRepository) SetCoupon(ctx context.Context, cartID, code string) error {
	tag, err := r.pool.Exec(ctx, setCartCouponSQL, cartID, code)
	if err != nil {
		return fmt.Errorf("setting coupon on cart %q: %w", cartID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

// Clear removes all items and the coupon slot after checkout.
func (r *CartRepository) Clear(ctx context.Context, cartID string) error {
	if _, err := r.pool.Exec(ctx, clearCartItemsSQL, cartID); err != nil {
		return fmt.Errorf("clearing items for cart %q: %w", cartID, err)
	}
	if _, err := r.pool.Exec(ctx, setCartCouponSQL, cartID, ""); err != nil {
		return fmt.Errorf("clearing coupon for cart %q: %w", cartID, err)
	}
	return nil
}

func (r *CartRepository) touch(ctx context.Context, cartID string) error {
	if _, err := r.pool.Exec(ctx, touchCartSQL, cartID); err != nil {
		return fmt.Errorf("touching cart %q: %w", cartID, err)
	}
	return nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var (
		item                cart.Item
		personalizationJSON []byte
	)
	if err := row.Scan(
		&item.ID, &item.ProductID, &item.Name, &item.Variant,
		&item.UnitPrice, &item.Quantity, &item.ComboOffer, &personalizationJSON,
	); err != nil {
		return cart.Item{}, err
	}
	if err := json.Unmarshal(personalizationJSON, &item.Personalization); err != nil {
		return cart.Item{}, fmt.Errorf("decoding personalization for item %q: %w", item.ID, err)
	}
	return item, nil
}
