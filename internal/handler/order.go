package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/craftkart/storefront-api/internal/domain/order"
	"github.com/craftkart/storefront-api/internal/domain/pricing"
)

type placeOrderRequest struct {
	CartID        string `json:"cartId"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	Items         []orderItemResponse `json:"items"`
	Subtotal      float64             `json:"subtotal"`
	Discount      float64             `json:"discount"`
	CODFee        float64             `json:"codFee"`
	GrandTotal    float64             `json:"grandTotal"`
	CouponCode    string              `json:"couponCode,omitempty"`
	PaymentMethod string              `json:"paymentMethod"`
	CreatedAt     string              `json:"createdAt,omitempty"`
}

type orderItemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Variant   string  `json:"variant,omitempty"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	FreeUnits int     `json:"freeUnits,omitempty"`
}

// PlaceOrder checks out a cart: prices the snapshot, persists the order,
// consumes one coupon use, and clears the cart.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CartID == "" {
		respondError(w, http.StatusBadRequest, "cartId required")
		return
	}

	method, err := pricing.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	o, err := h.orders.Checkout(r.Context(), order.CheckoutRequest{
		CartID:        req.CartID,
		PaymentMethod: method,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toOrderResponse(o))
}

// GetOrder returns a placed order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Variant:   it.Variant,
			UnitPrice: it.UnitPrice.InexactFloat64(),
			Quantity:  it.Quantity,
			FreeUnits: it.FreeUnits,
		}
	}

	createdAt := ""
	if !o.CreatedAt.IsZero() {
		createdAt = o.CreatedAt.Format(time.RFC3339)
	}

	return orderResponse{
		ID:            o.ID,
		Items:         items,
		Subtotal:      o.Subtotal.InexactFloat64(),
		Discount:      o.Discount.InexactFloat64(),
		CODFee:        o.CODFee.InexactFloat64(),
		GrandTotal:    o.GrandTotal.InexactFloat64(),
		CouponCode:    o.CouponCode,
		PaymentMethod: string(o.PaymentMethod),
		CreatedAt:     createdAt,
	}
}
