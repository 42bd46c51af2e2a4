// Package cart holds the server-side cart: line items with their resolved
// prices and display metadata, plus the single coupon slot.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/craftkart/storefront-api/internal/domain/pricing"
)

// Sentinel errors for cart operations.
var (
	ErrNotFound     = errors.New("cart not found")
	ErrItemNotFound = errors.New("cart item not found")
)

// Item is one cart line: a quantity of an identically-configured product.
// The unit price is resolved from the catalog when the line is created and
// never recomputed afterwards.
type Item struct {
	ID              string
	ProductID       string
	Name            string
	Variant         string
	UnitPrice       decimal.Decimal
	Quantity        int
	ComboOffer      bool
	Personalization map[string]string
}

// PricingLine projects the item into the pricing engine's view of it.
func (it Item) PricingLine() pricing.LineItem {
	return pricing.LineItem{
		LineID:     it.ID,
		UnitPrice:  it.UnitPrice,
		Quantity:   it.Quantity,
		ComboOffer: it.ComboOffer,
	}
}

// Cart is a shopper's open cart. AppliedCode is the coupon slot: empty means
// no coupon, non-empty means exactly one applied coupon. At most one coupon
// is active at a time; applying another replaces it.
type Cart struct {
	ID          string
	Items       []Item
	AppliedCode string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PricingLines projects all cart items for the pricing engine.
func (c *Cart) PricingLines() []pricing.LineItem {
	lines := make([]pricing.LineItem, len(c.Items))
	for i, it := range c.Items {
		lines[i] = it.PricingLine()
	}
	return lines
}

// Item returns the line with the given ID, or ErrItemNotFound.
func (c *Cart) Item(itemID string) (*Item, error) {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i], nil
		}
	}
	return nil, ErrItemNotFound
}

// Repository defines persistence operations for carts.
type Repository interface {
	Create(ctx context.Context, c *Cart) error
	Get(ctx context.Context, id string) (*Cart, error)
	AddItem(ctx context.Context, cartID string, item Item) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
	SetCoupon(ctx context.Context, cartID, code string) error
	Clear(ctx context.Context, cartID string) error
}
