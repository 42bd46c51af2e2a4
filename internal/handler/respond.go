package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/craftkart/storefront-api/internal/domain/cart"
	"github.com/craftkart/storefront-api/internal/domain/coupon"
	"github.com/craftkart/storefront-api/internal/domain/order"
	"github.com/craftkart/storefront-api/internal/domain/pricing"
	"github.com/craftkart/storefront-api/internal/domain/product"
)

// errorResponse is the uniform JSON error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	// Reason carries the coupon ineligibility reason when applicable.
	Reason string `json:"reason,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError maps domain errors onto HTTP statuses. Coupon
// ineligibility is a validation outcome: a 422 carrying the single failing
// reason, never a 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ineligible *coupon.IneligibleError
	if errors.As(err, &ineligible) {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: ineligible.Error(),
			Reason:  string(ineligible.Reason),
		})
		return
	}

	switch {
	case errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pricing.ErrNegativePrice),
		errors.Is(err, pricing.ErrNonPositiveQuantity),
		errors.Is(err, pricing.ErrUnknownPaymentMethod),
		errors.Is(err, product.ErrUnknownVariant),
		errors.Is(err, order.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
