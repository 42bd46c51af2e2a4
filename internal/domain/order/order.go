// Package order implements checkout: turning a priced cart into a durable
// order record. This is the only point where pricing results cross the
// system boundary durably.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/craftkart/storefront-api/internal/domain/pricing"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Order represents a completed checkout with its pricing breakdown.
type Order struct {
	ID            string
	CartID        string
	Items         []Item
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	CODFee        decimal.Decimal
	GrandTotal    decimal.Decimal
	CouponCode    string
	PaymentMethod pricing.PaymentMethod
	CreatedAt     time.Time
}

// Item is a line snapshot frozen at checkout time. Free units record how
// many of the line's units a buy-two-get-one coupon made free.
type Item struct {
	LineID    string          `json:"line_id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Variant   string          `json:"variant,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	FreeUnits int             `json:"free_units,omitempty"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
}
