// Package handler exposes the storefront REST API: catalog reads, cart
// mutations, coupon application, quoting, and checkout.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/craftkart/storefront-api/internal/domain/cart"
	"github.com/craftkart/storefront-api/internal/domain/coupon"
	"github.com/craftkart/storefront-api/internal/domain/order"
	"github.com/craftkart/storefront-api/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product
	// responses. When empty, image paths are returned as stored.
	ImageBaseURL string
}

// Handler delegates HTTP requests to the domain services.
type Handler struct {
	products     product.Repository
	coupons      coupon.Repository
	carts        *cart.Service
	orders       *order.Service
	imageBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products product.Repository,
	coupons coupon.Repository,
	carts *cart.Service,
	orders *order.Service,
) *Handler {
	return &Handler{
		products:     products,
		coupons:      coupons,
		carts:        carts,
		orders:       orders,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes mounts all API routes. Checkout requires an API key; everything
// else is public storefront surface.
func (h *Handler) Routes(requireAPIKey func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)

	r.Get("/coupons", h.ListCoupons)

	r.Route("/carts", func(r chi.Router) {
		r.Post("/", h.CreateCart)
		r.Route("/{cartID}", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Get("/quote", h.QuoteCart)
			r.Post("/items", h.AddCartItem)
			r.Patch("/items/{itemID}", h.UpdateCartItem)
			r.Delete("/items/{itemID}", h.RemoveCartItem)
			r.Post("/coupon", h.ApplyCoupon)
			r.Delete("/coupon", h.RemoveCoupon)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAPIKey)
		r.Post("/orders", h.PlaceOrder)
		r.Get("/orders/{orderID}", h.GetOrder)
	})

	return r
}
