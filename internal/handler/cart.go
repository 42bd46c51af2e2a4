package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/craftkart/storefront-api/internal/domain/cart"
	"github.com/craftkart/storefront-api/internal/domain/coupon"
	"github.com/craftkart/storefront-api/internal/domain/pricing"
)

type cartResponse struct {
	ID         string             `json:"id"`
	Items      []cartItemResponse `json:"items"`
	CouponCode string             `json:"couponCode,omitempty"`
}

type cartItemResponse struct {
	ID              string            `json:"id"`
	ProductID       string            `json:"productId"`
	Name            string            `json:"name"`
	Variant         string            `json:"variant,omitempty"`
	UnitPrice       float64           `json:"unitPrice"`
	Quantity        int               `json:"quantity"`
	ComboOffer      bool              `json:"comboOffer,omitempty"`
	Personalization map[string]string `json:"personalization,omitempty"`
	LineTotal       float64           `json:"lineTotal"`
}

type addItemRequest struct {
	ProductID       string            `json:"productId"`
	Variant         string            `json:"variant,omitempty"`
	Quantity        int               `json:"quantity"`
	Personalization map[string]string `json:"personalization,omitempty"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

type quoteResponse struct {
	Subtotal   float64                `json:"subtotal"`
	Discount   float64                `json:"discount"`
	CODFee     float64                `json:"codFee"`
	GrandTotal float64                `json:"grandTotal"`
	Coupon     *appliedCouponResponse `json:"coupon,omitempty"`
}

type appliedCouponResponse struct {
	Code            string         `json:"code"`
	DiscountType    string         `json:"discountType"`
	RawAmount       float64        `json:"rawAmount"`
	Discount        float64        `json:"discount"`
	FreeUnitsByItem map[string]int `json:"freeUnitsByItem,omitempty"`
}

// CreateCart opens a new empty cart.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Create(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCartResponse(c))
}

// GetCart returns the cart with its lines.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

// AddCartItem adds a configured product to the cart. The unit price is
// resolved server-side from the catalog.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	item, err := h.carts.AddItem(r.Context(), chi.URLParam(r, "cartID"), cart.AddItemRequest{
		ProductID:       req.ProductID,
		Variant:         req.Variant,
		Quantity:        req.Quantity,
		Personalization: req.Personalization,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCartItemResponse(*item))
}

// UpdateCartItem changes a line's quantity.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.carts.UpdateQuantity(r.Context(),
		chi.URLParam(r, "cartID"), chi.URLParam(r, "itemID"), req.Quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveCartItem deletes a line.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	err := h.carts.RemoveItem(r.Context(),
		chi.URLParam(r, "cartID"), chi.URLParam(r, "itemID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyCoupon validates and applies a coupon code to the cart. Ineligible
// codes get a 422 with the single failing reason.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if !decodeBody(w, r, &req) {
		return
	}

	applied, err := h.carts.ApplyCoupon(r.Context(), chi.URLParam(r, "cartID"), req.Code)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAppliedCouponResponse(applied))
}

// RemoveCoupon clears the cart's coupon slot.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.RemoveCoupon(r.Context(), chi.URLParam(r, "cartID")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QuoteCart prices the cart for the payment method in the payment_method
// query parameter (upi by default).
func (h *Handler) QuoteCart(w http.ResponseWriter, r *http.Request) {
	method, err := pricing.ParsePaymentMethod(r.URL.Query().Get("payment_method"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	quote, err := h.carts.QuoteCart(r.Context(), chi.URLParam(r, "cartID"), method)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, quoteResponse{
		Subtotal:   quote.Total.Subtotal.InexactFloat64(),
		Discount:   quote.Total.Discount.InexactFloat64(),
		CODFee:     quote.Total.CODFee.InexactFloat64(),
		GrandTotal: quote.Total.GrandTotal.InexactFloat64(),
		Coupon:     toAppliedCouponResponse(quote.Applied),
	})
}

func toCartResponse(c *cart.Cart) cartResponse {
	items := make([]cartItemResponse, len(c.Items))
	for i, it := range c.Items {
		items[i] = toCartItemResponse(it)
	}
	return cartResponse{
		ID:         c.ID,
		Items:      items,
		CouponCode: c.AppliedCode,
	}
}

func toCartItemResponse(it cart.Item) cartItemResponse {
	return cartItemResponse{
		ID:              it.ID,
		ProductID:       it.ProductID,
		Name:            it.Name,
		Variant:         it.Variant,
		UnitPrice:       it.UnitPrice.InexactFloat64(),
		Quantity:        it.Quantity,
		ComboOffer:      it.ComboOffer,
		Personalization: it.Personalization,
		LineTotal:       it.PricingLine().LineTotal().InexactFloat64(),
	}
}

func toAppliedCouponResponse(applied *coupon.Applied) *appliedCouponResponse {
	if applied == nil {
		return nil
	}
	return &appliedCouponResponse{
		Code:            applied.Code,
		DiscountType:    string(applied.DiscountType),
		RawAmount:       applied.RawAmount.InexactFloat64(),
		Discount:        applied.CappedAmount.InexactFloat64(),
		FreeUnitsByItem: applied.FreeUnitsByLine,
	}
}
