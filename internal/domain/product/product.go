// Package product defines the catalog items offered by the storefront.
package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Personalizable
// products carry named variants (size, material, photo count) that override
// the base price.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Image       string
	// ComboOffer marks bundle products whose lines exclude the cart from
	// coupon redemption.
	ComboOffer bool
	Variants   []Variant
}

// Variant is a named product configuration with its own price. The JSON tags
// match the catalog's JSONB variants column.
type Variant struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ErrUnknownVariant is returned when a requested variant is not offered.
var ErrUnknownVariant = errors.New("unknown product variant")

// PriceFor resolves the unit price for the given variant name. An empty name
// selects the base price. The resolved price is final: cart lines store it
// and the pricing engine never looks back at the catalog.
func (p Product) PriceFor(variant string) (decimal.Decimal, error) {
	if variant == "" {
		return p.Price, nil
	}
	for _, v := range p.Variants {
		if v.Name == variant {
			return v.Price, nil
		}
	}
	return decimal.Decimal{}, errors.Wrapf(ErrUnknownVariant, "%q", variant)
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}
