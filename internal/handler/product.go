package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/craftkart/storefront-api/internal/domain/product"
)

type productResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Price       float64           `json:"price"`
	Category    string            `json:"category"`
	Image       string            `json:"image,omitempty"`
	ComboOffer  bool              `json:"comboOffer,omitempty"`
	Variants    []variantResponse `json:"variants,omitempty"`
}

type variantResponse struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ListProducts returns the full catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = h.toProductResponse(p)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetProduct returns a single catalog item.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toProductResponse(*p))
}

func (h *Handler) toProductResponse(p product.Product) productResponse {
	variants := make([]variantResponse, len(p.Variants))
	for i, v := range p.Variants {
		variants[i] = variantResponse{Name: v.Name, Price: v.Price.InexactFloat64()}
	}
	if len(variants) == 0 {
		variants = nil
	}
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Category:    p.Category,
		Image:       h.imageURL(p.Image),
		ComboOffer:  p.ComboOffer,
		Variants:    variants,
	}
}

// imageURL prepends the configured base URL to relative image paths.
func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" {
		return path
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
