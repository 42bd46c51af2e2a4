package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftkart/storefront-api/internal/domain/coupon"
	"github.com/craftkart/storefront-api/internal/domain/pricing"
	"github.com/craftkart/storefront-api/internal/domain/product"
)

// Quote is the priced view of a cart: the order total for the selected
// payment method plus the applied-coupon detail needed for line-level
// "this item is free" annotations.
type Quote struct {
	Total   pricing.OrderTotal
	Applied *coupon.Applied
}

// Service owns cart mutations and quoting. Quoting is pure recomputation
// over the stored cart; an applied coupon's amounts are recalculated on
// every quote while its eligibility is only checked at apply time.
type Service struct {
	carts    Repository
	products product.Repository
	coupons  coupon.Validator
	codFee   decimal.Decimal
}

// NewService creates a cart Service. codFee is the flat cash-on-delivery
// surcharge added once per order.
func NewService(
	carts Repository,
	products product.Repository,
	coupons coupon.Validator,
	codFee decimal.Decimal,
) *Service {
	return &Service{
		carts:    carts,
		products: products,
		coupons:  coupons,
		codFee:   codFee,
	}
}

// Create opens a new empty cart.
func (s *Service) Create(ctx context.Context) (*Cart, error) {
	c := &Cart{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
	}
	if err := s.carts.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create cart")
	}
	return c, nil
}

// Get loads a cart by ID.
func (s *Service) Get(ctx context.Context, cartID string) (*Cart, error) {
	return s.carts.Get(ctx, cartID)
}

// AddItemRequest holds the input for adding a configured product to a cart.
type AddItemRequest struct {
	ProductID       string
	Variant         string
	Quantity        int
	Personalization map[string]string
}

// AddItem resolves the product's unit price for the requested variant and
// appends a new line. Quantity and price validation happens here, so the
// pricing functions downstream never see invalid items.
func (s *Service) AddItem(ctx context.Context, cartID string, req AddItemRequest) (*Item, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	price, err := p.PriceFor(req.Variant)
	if err != nil {
		return nil, err
	}

	// NewLineItem is the single validation gate for price and quantity.
	if _, err := pricing.NewLineItem("", price, req.Quantity, p.ComboOffer); err != nil {
		return nil, err
	}

	item := Item{
		ID:              uuid.New().String(),
		ProductID:       p.ID,
		Name:            p.Name,
		Variant:         req.Variant,
		UnitPrice:       price,
		Quantity:        req.Quantity,
		ComboOffer:      p.ComboOffer,
		Personalization: req.Personalization,
	}
	if err := s.carts.AddItem(ctx, c.ID, item); err != nil {
		return nil, errors.Wrap(err, "add cart item")
	}
	return &item, nil
}

// UpdateQuantity changes the quantity of an existing line.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	if quantity < 1 {
		return pricing.ErrNonPositiveQuantity
	}
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return err
	}
	if _, err := c.Item(itemID); err != nil {
		return err
	}
	return s.carts.UpdateItemQuantity(ctx, c.ID, itemID, quantity)
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) error {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return err
	}
	if _, err := c.Item(itemID); err != nil {
		return err
	}
	return s.carts.RemoveItem(ctx, c.ID, itemID)
}

// ApplyCoupon validates the code against the current cart snapshot and, when
// eligible, stores it in the coupon slot. Applying while another coupon is
// active replaces it; coupons never stack. Ineligibility is returned as
// *coupon.IneligibleError with the single failing reason.
func (s *Service) ApplyCoupon(ctx context.Context, cartID, code string) (*coupon.Applied, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	applied, err := s.coupons.Validate(ctx, code, c.PricingLines())
	if err != nil {
		return nil, err
	}

	if err := s.carts.SetCoupon(ctx, c.ID, applied.Code); err != nil {
		return nil, errors.Wrap(err, "set coupon")
	}
	return applied, nil
}

// RemoveCoupon always clears the coupon slot, applied or not.
func (s *Service) RemoveCoupon(ctx context.Context, cartID string) error {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return err
	}
	return s.carts.SetCoupon(ctx, c.ID, "")
}

// ClearAfterCheckout empties the cart and its coupon slot once the order has
// been placed.
func (s *Service) ClearAfterCheckout(ctx context.Context, cartID string) error {
	return s.carts.Clear(ctx, cartID)
}

// QuoteCart prices the cart for the given payment method. The applied
// coupon's amounts are recomputed against the current items, but its
// eligibility is not re-checked: a coupon accepted at apply time stays in
// the slot until explicitly removed or re-applied.
func (s *Service) QuoteCart(ctx context.Context, cartID string, method pricing.PaymentMethod) (*Quote, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.QuoteSnapshot(ctx, c, method)
}

// QuoteSnapshot prices an already-loaded cart. Checkout uses it to price the
// exact snapshot it is about to persist.
func (s *Service) QuoteSnapshot(ctx context.Context, c *Cart, method pricing.PaymentMethod) (*Quote, error) {
	lines := c.PricingLines()

	var applied *coupon.Applied
	discount := decimal.Zero
	if c.AppliedCode != "" {
		var err error
		applied, err = s.coupons.Recompute(ctx, c.AppliedCode, lines)
		if err != nil {
			return nil, err
		}
		discount = applied.CappedAmount
	}

	return &Quote{
		Total:   pricing.Total(lines, discount, method, s.codFee),
		Applied: applied,
	}, nil
}
