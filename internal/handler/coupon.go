package handler

import (
	"net/http"
	"time"

	"github.com/craftkart/storefront-api/internal/domain/coupon"
)

type couponResponse struct {
	Code         string  `json:"code"`
	DiscountType string  `json:"discountType"`
	Value        float64 `json:"value,omitempty"`
	MinPurchase  float64 `json:"minPurchase,omitempty"`
	MaxPurchase  float64 `json:"maxPurchase,omitempty"`
	MaxDiscount  float64 `json:"maxDiscount,omitempty"`
	ExpiresAt    string  `json:"expiresAt"`
	Description  string  `json:"description,omitempty"`
}

// ListCoupons returns the redeemable coupon directory. The active/expiry/
// exhaustion pre-filter runs here, exactly once, before any per-cart
// eligibility evaluation.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	rules, err := h.coupons.ListRedeemable(r.Context(), time.Now())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]couponResponse, len(rules))
	for i, rule := range rules {
		resp[i] = toCouponResponse(rule)
	}
	respondJSON(w, http.StatusOK, resp)
}

func toCouponResponse(rule coupon.Rule) couponResponse {
	return couponResponse{
		Code:         rule.Code,
		DiscountType: string(rule.DiscountType),
		Value:        rule.Value.InexactFloat64(),
		MinPurchase:  rule.MinPurchase.InexactFloat64(),
		MaxPurchase:  rule.MaxPurchase.InexactFloat64(),
		MaxDiscount:  rule.MaxDiscount.InexactFloat64(),
		ExpiresAt:    rule.ExpiresAt.Format(time.RFC3339),
		Description:  rule.Description,
	}
}
