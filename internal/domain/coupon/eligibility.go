package coupon

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/craftkart/storefront-api/internal/domain/pricing"
)

// IneligibilityReason identifies why a coupon cannot be applied to a cart.
// Exactly one reason is reported per evaluation; the caller renders it as a
// user-facing message, so the check order below is part of the contract.
type IneligibilityReason string

const (
	ReasonNone                 IneligibilityReason = ""
	ReasonComboOfferConflict   IneligibilityReason = "ComboOfferConflict"
	ReasonNotFound             IneligibilityReason = "NotFound"
	ReasonExpired              IneligibilityReason = "Expired"
	ReasonExhausted            IneligibilityReason = "Exhausted"
	ReasonBelowMinimum         IneligibilityReason = "BelowMinimum"
	ReasonAboveMaximum         IneligibilityReason = "AboveMaximum"
	ReasonInsufficientQuantity IneligibilityReason = "InsufficientQuantity"
)

// Message returns the shopper-facing description of the reason.
func (r IneligibilityReason) Message() string {
	switch r {
	case ReasonComboOfferConflict:
		return "coupons cannot be combined with combo offer items"
	case ReasonNotFound:
		return "invalid coupon code"
	case ReasonExpired:
		return "coupon has expired"
	case ReasonExhausted:
		return "coupon usage limit reached"
	case ReasonBelowMinimum:
		return "cart total is below the coupon minimum"
	case ReasonAboveMaximum:
		return "cart total exceeds the coupon maximum"
	case ReasonInsufficientQuantity:
		return "at least 3 items are required for this coupon"
	default:
		return ""
	}
}

// Eligibility is the tri-state result of evaluating a rule against a cart.
type Eligibility struct {
	Eligible bool
	Reason   IneligibilityReason
}

func eligible() Eligibility {
	return Eligibility{Eligible: true}
}

func ineligible(reason IneligibilityReason) Eligibility {
	return Eligibility{Reason: reason}
}

// buyTwoGetOneMinUnits is the unit threshold below which a BUY2GET1 coupon
// would free nothing.
const buyTwoGetOneMinUnits = 3

// PromoOverrides carries business-rule carve-outs for individual promotional
// codes. WelcomeCode's floor overrides that rule's own MinPurchase; this is a
// deliberate exception keyed by exact code match, not a general override
// table.
type PromoOverrides struct {
	WelcomeCode        string
	WelcomeMinPurchase decimal.Decimal
}

// minPurchaseFor resolves the effective minimum subtotal for a rule.
func (p PromoOverrides) minPurchaseFor(rule *Rule) decimal.Decimal {
	if p.WelcomeCode != "" && strings.EqualFold(rule.Code, p.WelcomeCode) {
		return p.WelcomeMinPurchase
	}
	return rule.MinPurchase
}

// Evaluate checks whether the rule can be applied to the given cart snapshot.
// The subtotal is caller-supplied to avoid recomputation on every quote.
//
// Checks run in a fixed order and the first failure wins: combo-offer
// conflict, expiry, exhaustion, minimum, maximum, then unit quantity.
// A nil rule reports ReasonNotFound, which also covers the window before the
// coupon directory has loaded.
func Evaluate(rule *Rule, items []pricing.LineItem, subtotal decimal.Decimal, now time.Time, promo PromoOverrides) Eligibility {
	if pricing.HasComboOffer(items) {
		return ineligible(ReasonComboOfferConflict)
	}
	if rule == nil {
		return ineligible(ReasonNotFound)
	}
	if !rule.Active || !now.Before(rule.ExpiresAt) {
		return ineligible(ReasonExpired)
	}
	if rule.UsageLimit > 0 && rule.Uses >= rule.UsageLimit {
		return ineligible(ReasonExhausted)
	}
	if subtotal.LessThan(promo.minPurchaseFor(rule)) {
		return ineligible(ReasonBelowMinimum)
	}
	if rule.MaxPurchase.IsPositive() && subtotal.GreaterThan(rule.MaxPurchase) {
		return ineligible(ReasonAboveMaximum)
	}
	if rule.DiscountType == DiscountBuyTwoGetOne && pricing.TotalQuantity(items) < buyTwoGetOneMinUnits {
		return ineligible(ReasonInsufficientQuantity)
	}
	return eligible()
}
