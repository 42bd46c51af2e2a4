package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/craftkart/storefront-api/internal/domain/order"
	"github.com/craftkart/storefront-api/internal/domain/pricing"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, cart_id, items, subtotal, discount, cod_fee, grand_total, coupon_code, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	getOrderSQL = `SELECT id, cart_id, items, subtotal, discount, cod_fee, grand_total,
		coupon_code, payment_method, created_at
		FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. The line snapshots are serialized to JSON for
// storage in the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.CartID, encodeOrderItems(o.Items),
		o.Subtotal, o.Discount, o.CODFee, o.GrandTotal,
		o.CouponCode, string(o.PaymentMethod),
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// Get loads an order by ID. Returns order.ErrNotFound when no such order
// exists.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var (
		o             order.Order
		itemsJSON     []byte
		paymentMethod string
	)
	err := r.pool.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.CartID, &itemsJSON, &o.Subtotal, &o.Discount, &o.CODFee,
		&o.GrandTotal, &o.CouponCode, &paymentMethod, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("finding order %q: %w", id, err)
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("decoding items for order %q: %w", id, err)
	}
	o.PaymentMethod = pricing.PaymentMethod(paymentMethod)

	return &o, nil
}

// encodeOrderItems writes the line snapshots as a JSON array. Prices are
// emitted as plain JSON numbers so the stored document round-trips through
// decimal unchanged.
func encodeOrderItems(items []order.Item) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("line_id")
		e.Str(it.LineID)
		e.FieldStart("product_id")
		e.Str(it.ProductID)
		e.FieldStart("name")
		e.Str(it.Name)
		if it.Variant != "" {
			e.FieldStart("variant")
			e.Str(it.Variant)
		}
		e.FieldStart("unit_price")
		e.Num(jx.Num(it.UnitPrice.String()))
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		if it.FreeUnits > 0 {
			e.FieldStart("free_units")
			e.Int(it.FreeUnits)
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}
