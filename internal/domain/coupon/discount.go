package coupon

import (
	"sort"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/craftkart/storefront-api/internal/domain/pricing"
)

var hundred = decimal.NewFromInt(100)

// Apply calculates the discount for an already-eligible rule against the
// cart snapshot. It is pure: quotes recompute it on every cart change.
func Apply(rule *Rule, items []pricing.LineItem) (Applied, error) {
	var raw decimal.Decimal
	var freeUnits map[string]int

	switch rule.DiscountType {
	case DiscountFlat:
		raw = rule.Value
	case DiscountPercentage:
		raw = pricing.Subtotal(items).Mul(rule.Value).Div(hundred)
	case DiscountBuyTwoGetOne:
		raw, freeUnits = applyBuyTwoGetOne(items)
	default:
		return Applied{}, errors.Errorf("unsupported discount type: %q", rule.DiscountType)
	}

	raw = raw.Round(2)

	capped := raw
	if rule.MaxDiscount.IsPositive() {
		capped = decimal.Min(raw, rule.MaxDiscount)
	}

	return Applied{
		Code:            rule.Code,
		DiscountType:    rule.DiscountType,
		RawAmount:       raw,
		CappedAmount:    capped,
		FreeUnitsByLine: freeUnits,
	}, nil
}

// ticket is one physical unit of a cart line, used to pick which units
// become free under the buy-two-get-one rule.
type ticket struct {
	lineID string
	price  decimal.Decimal
}

// applyBuyTwoGetOne expands the cart into one ticket per physical unit,
// stable-sorts tickets ascending by unit price, and frees the cheapest
// floor(totalUnits/3) of them. The stable sort keeps expansion order (cart
// line order, then unit index) as the tie-break, so which specific line is
// annotated free is deterministic even though the monetary result is
// tie-break independent.
func applyBuyTwoGetOne(items []pricing.LineItem) (decimal.Decimal, map[string]int) {
	tickets := make([]ticket, 0, pricing.TotalQuantity(items))
	for _, it := range items {
		for range it.Quantity {
			tickets = append(tickets, ticket{lineID: it.LineID, price: it.UnitPrice})
		}
	}

	numFree := len(tickets) / 3
	if numFree == 0 {
		return decimal.Zero, nil
	}

	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].price.LessThan(tickets[j].price)
	})

	amount := decimal.Zero
	freeUnits := make(map[string]int, numFree)
	for _, t := range tickets[:numFree] {
		amount = amount.Add(t.price)
		freeUnits[t.lineID]++
	}

	return amount, freeUnits
}
