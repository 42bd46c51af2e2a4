package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/craftkart/storefront-api/internal/domain/cart"
	"github.com/craftkart/storefront-api/internal/domain/coupon"
	"github.com/craftkart/storefront-api/internal/domain/pricing"
)

// ErrEmptyCart is returned when checking out a cart with no items.
var ErrEmptyCart = errors.New("cart is empty")

// CheckoutRequest holds the input for placing an order.
type CheckoutRequest struct {
	CartID        string
	PaymentMethod pricing.PaymentMethod
}

// Service encapsulates checkout business logic.
type Service struct {
	carts   *cart.Service
	coupons coupon.Repository
	orders  Repository
}

// NewService creates an order Service with the required domain dependencies.
func NewService(carts *cart.Service, coupons coupon.Repository, orders Repository) *Service {
	return &Service{
		carts:   carts,
		coupons: coupons,
		orders:  orders,
	}
}

// Checkout prices the cart snapshot, persists the order, consumes one use of
// the applied coupon, and clears the cart.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	c, err := s.carts.Get(ctx, req.CartID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	quote, err := s.carts.QuoteSnapshot(ctx, c, req.PaymentMethod)
	if err != nil {
		return nil, errors.Wrap(err, "quote cart")
	}

	o := &Order{
		ID:            uuid.New().String(),
		CartID:        c.ID,
		Items:         snapshotItems(c, quote.Applied),
		Subtotal:      quote.Total.Subtotal,
		Discount:      quote.Total.Discount,
		CODFee:        quote.Total.CODFee,
		GrandTotal:    quote.Total.GrandTotal,
		CouponCode:    c.AppliedCode,
		PaymentMethod: req.PaymentMethod,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if c.AppliedCode != "" {
		if err := s.coupons.IncrementUses(ctx, c.AppliedCode); err != nil {
			return nil, errors.Wrap(err, "increment coupon uses")
		}
	}

	if err := s.carts.ClearAfterCheckout(ctx, c.ID); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}

	return o, nil
}

// Get loads an order by ID.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// snapshotItems freezes the cart lines, annotating each with the free units
// the applied coupon granted it.
func snapshotItems(c *cart.Cart, applied *coupon.Applied) []Item {
	items := make([]Item, len(c.Items))
	for i, it := range c.Items {
		items[i] = Item{
			LineID:    it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Variant:   it.Variant,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		}
		if applied != nil {
			items[i].FreeUnits = applied.FreeUnitsByLine[it.ID]
		}
	}
	return items
}
