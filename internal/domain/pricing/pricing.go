// Package pricing holds the cart arithmetic shared by quotes and checkout:
// line totals, subtotals, and the order total with discount and payment fee
// applied. All amounts are decimal and rounded to two places.
package pricing

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// PaymentMethod selects how the shopper pays for an order.
type PaymentMethod string

const (
	// PaymentUPI is prepaid and carries no extra fee.
	PaymentUPI PaymentMethod = "upi"
	// PaymentCOD is cash on delivery; the order total includes a flat
	// handling fee, charged once regardless of cart size.
	PaymentCOD PaymentMethod = "cod"
)

// ErrUnknownPaymentMethod is returned for payment methods outside the
// supported set.
var ErrUnknownPaymentMethod = errors.New("unknown payment method")

// ParsePaymentMethod normalizes a wire value into a PaymentMethod.
// The empty string defaults to UPI.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PaymentUPI):
		return PaymentUPI, nil
	case string(PaymentCOD):
		return PaymentCOD, nil
	default:
		return "", errors.Wrapf(ErrUnknownPaymentMethod, "%q", s)
	}
}

var (
	// ErrNegativePrice rejects line items priced below zero.
	ErrNegativePrice = errors.New("unit price must not be negative")
	// ErrNonPositiveQuantity rejects line items with fewer than one unit.
	ErrNonPositiveQuantity = errors.New("quantity must be at least 1")
)

// LineItem is the pricing view of one cart line: enough to compute totals
// and evaluate coupon rules, nothing more.
type LineItem struct {
	LineID    string
	UnitPrice decimal.Decimal
	Quantity  int
	// ComboOffer marks lines whose product is already bundle-priced;
	// such lines exclude the whole cart from coupon discounts.
	ComboOffer bool
}

// NewLineItem validates and builds a LineItem.
func NewLineItem(lineID string, unitPrice decimal.Decimal, quantity int, comboOffer bool) (LineItem, error) {
	if unitPrice.IsNegative() {
		return LineItem{}, ErrNegativePrice
	}
	if quantity < 1 {
		return LineItem{}, ErrNonPositiveQuantity
	}
	return LineItem{
		LineID:     lineID,
		UnitPrice:  unitPrice,
		Quantity:   quantity,
		ComboOffer: comboOffer,
	}, nil
}

// LineTotal is unit price times quantity, rounded to two places.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))).Round(2)
}

// Subtotal sums the line totals of all items.
func Subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total.Round(2)
}

// TotalQuantity counts physical units across all lines.
func TotalQuantity(items []LineItem) int {
	var n int
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// HasComboOffer reports whether any line carries a combo-offer product.
func HasComboOffer(items []LineItem) bool {
	for _, it := range items {
		if it.ComboOffer {
			return true
		}
	}
	return false
}

// OrderTotal is the complete price breakdown for a cart quote or an order.
type OrderTotal struct {
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	CODFee     decimal.Decimal
	GrandTotal decimal.Decimal
}

// Total computes the full breakdown. The discount is subtracted from the
// subtotal and the payable amount floors at zero before the COD fee is
// added, so an oversized discount never offsets the fee.
func Total(items []LineItem, discount decimal.Decimal, method PaymentMethod, codFee decimal.Decimal) OrderTotal {
	subtotal := Subtotal(items)

	payable := subtotal.Sub(discount)
	if payable.IsNegative() {
		payable = decimal.Zero
	}

	fee := decimal.Zero
	if method == PaymentCOD {
		fee = codFee
	}

	return OrderTotal{
		Subtotal:   subtotal,
		Discount:   discount.Round(2),
		CODFee:     fee.Round(2),
		GrandTotal: payable.Add(fee).Round(2),
	}
}
