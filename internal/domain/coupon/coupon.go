// Package coupon implements the storefront's coupon-discount engine:
// eligibility evaluation over a cart snapshot and discount application for
// flat, percentage, and buy-two-get-one rules.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountFlat subtracts a fixed currency amount from the subtotal.
	DiscountFlat DiscountType = "FLAT"
	// DiscountPercentage subtracts a percentage of the subtotal.
	DiscountPercentage DiscountType = "PERCENTAGE"
	// DiscountBuyTwoGetOne makes the cheapest unit free for every three
	// units in the cart.
	DiscountBuyTwoGetOne DiscountType = "BUY2GET1"
)

// ErrInvalidCoupon is returned by repositories when a coupon code does not
// exist or is not active.
var ErrInvalidCoupon = errors.New("invalid coupon code")

// Rule defines a coupon's discount behaviour and eligibility constraints.
// The engine treats rules as read-only; usage counters are incremented
// server-side when an order is placed.
type Rule struct {
	Code         string
	DiscountType DiscountType
	// Value is the flat amount for DiscountFlat, percentage points for
	// DiscountPercentage, and unused for DiscountBuyTwoGetOne.
	Value       decimal.Decimal
	MinPurchase decimal.Decimal
	// MaxPurchase caps the subtotal the coupon may be applied to.
	// Zero means no ceiling.
	MaxPurchase decimal.Decimal
	// MaxDiscount clamps the computed discount. Zero means no cap.
	MaxDiscount decimal.Decimal
	ExpiresAt   time.Time
	// UsageLimit of zero means unlimited redemptions.
	UsageLimit  int
	Uses        int
	Active      bool
	Description string
}

// Redeemable reports whether the rule passes the directory pre-filter:
// active, unexpired, and not exhausted. The coupon listing endpoint applies
// this exactly once before any per-cart eligibility evaluation.
func (r Rule) Redeemable(now time.Time) bool {
	if !r.Active {
		return false
	}
	if !now.Before(r.ExpiresAt) {
		return false
	}
	if r.UsageLimit > 0 && r.Uses >= r.UsageLimit {
		return false
	}
	return true
}

// Applied is the resolved outcome of applying a rule to a cart snapshot.
// It is derived state: recomputed on every quote, never persisted.
type Applied struct {
	Code         string
	DiscountType DiscountType
	RawAmount    decimal.Decimal
	CappedAmount decimal.Decimal
	// FreeUnitsByLine maps a cart line ID to the number of its units
	// treated as free under DiscountBuyTwoGetOne. Empty for other types.
	FreeUnitsByLine map[string]int
}

// Repository provides lookup and redemption accounting for coupon rules.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
	ListRedeemable(ctx context.Context, now time.Time) ([]Rule, error)
	IncrementUses(ctx context.Context, code string) error
}
