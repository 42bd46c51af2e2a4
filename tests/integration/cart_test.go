//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestCartLifecycle(t *testing.T) {
	cartID := createCart(t)

	addItem(t, cartID, "led-name-lamp", "", 1)
	addItem(t, cartID, "keychain-metal", "", 2)

	c := getCart(t, cartID)
	if len(c.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(c.Items))
	}
	if c.Items[0].UnitPrice != 1299 {
		t.Errorf("lamp unit price: got %v, want 1299", c.Items[0].UnitPrice)
	}
	if c.Items[1].LineTotal != 398 {
		t.Errorf("keychain line total: got %v, want 398", c.Items[1].LineTotal)
	}

	// Bump the keychain quantity.
	itemID := c.Items[1].ID
	resp := doPatch(t, "/api/carts/"+cartID+"/items/"+itemID, updateItemRequest{Quantity: 3})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("update quantity: expected 204, got %d", resp.StatusCode)
	}

	c = getCart(t, cartID)
	if c.Items[1].Quantity != 3 {
		t.Errorf("quantity after update: got %d, want 3", c.Items[1].Quantity)
	}

	// Drop the line entirely.
	resp = doDelete(t, "/api/carts/"+cartID+"/items/"+itemID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("remove item: expected 204, got %d", resp.StatusCode)
	}

	c = getCart(t, cartID)
	if len(c.Items) != 1 {
		t.Fatalf("items after remove: got %d, want 1", len(c.Items))
	}
}

func TestCart_VariantPrice(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "magic-mug", "450ml", 1)

	c := getCart(t, cartID)
	if c.Items[0].UnitPrice != 649 {
		t.Errorf("variant unit price: got %v, want 649", c.Items[0].UnitPrice)
	}
}

func TestCart_NotFound(t *testing.T) {
	resp := doGet(t, "/api/carts/missing-cart")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCart_ZeroQuantityRejected(t *testing.T) {
	cartID := createCart(t)

	resp := doPost(t, "/api/carts/"+cartID+"/items", addItemRequest{
		ProductID: "engraved-pen",
		Quantity:  0,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestQuote_NoCoupon(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "led-name-lamp", "", 1)

	resp := doGet(t, "/api/carts/"+cartID+"/quote")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	quote := decodeJSON[quoteResponse](t, resp)
	if quote.Subtotal != 1299 {
		t.Errorf("subtotal: got %v, want 1299", quote.Subtotal)
	}
	if quote.Discount != 0 {
		t.Errorf("discount: got %v, want 0", quote.Discount)
	}
	if quote.CODFee != 0 {
		t.Errorf("codFee: got %v, want 0", quote.CODFee)
	}
	if quote.GrandTotal != 1299 {
		t.Errorf("grandTotal: got %v, want 1299", quote.GrandTotal)
	}
}

func TestQuote_CouponAndCODFee(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "led-name-lamp", "", 1)

	resp := doPost(t, "/api/carts/"+cartID+"/coupon", applyCouponRequest{Code: "FLAT150"})
	applied := decodeJSON[appliedCouponResponse](t, resp)
	resp.Body.Close()
	if applied.Discount != 150 {
		t.Errorf("applied discount: got %v, want 150", applied.Discount)
	}

	resp = doGet(t, "/api/carts/"+cartID+"/quote?payment_method=cod")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	quote := decodeJSON[quoteResponse](t, resp)
	if quote.Subtotal != 1299 {
		t.Errorf("subtotal: got %v, want 1299", quote.Subtotal)
	}
	if quote.Discount != 150 {
		t.Errorf("discount: got %v, want 150", quote.Discount)
	}
	if quote.CODFee != 70 {
		t.Errorf("codFee: got %v, want 70", quote.CODFee)
	}
	if quote.GrandTotal != 1219 {
		t.Errorf("grandTotal: got %v, want 1219", quote.GrandTotal)
	}
}

func TestQuote_UnknownPaymentMethod(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "engraved-pen", "", 1)

	resp := doGet(t, "/api/carts/"+cartID+"/quote?payment_method=crypto")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestApplyCoupon_Buy2Get1(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "keychain-metal", "", 3)

	resp := doPost(t, "/api/carts/"+cartID+"/coupon", applyCouponRequest{Code: "GIFT3"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	applied := decodeJSON[appliedCouponResponse](t, resp)
	if applied.Discount != 199 {
		t.Errorf("discount: got %v, want 199 (one free keychain)", applied.Discount)
	}
}

func TestApplyCoupon_WelcomeCapped(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "photo-frame-a4", "collage-9", 5)

	// 20% of 4995 is 999, capped at the rule's maxDiscount of 500.
	resp := doPost(t, "/api/carts/"+cartID+"/coupon", applyCouponRequest{Code: "WELCOME26"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	applied := decodeJSON[appliedCouponResponse](t, resp)
	if applied.RawAmount != 999 {
		t.Errorf("raw amount: got %v, want 999", applied.RawAmount)
	}
	if applied.Discount != 500 {
		t.Errorf("discount: got %v, want 500", applied.Discount)
	}
}

func TestApplyCoupon_WelcomeBelowFloor(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "led-name-lamp", "", 1)

	// 1299 is below the welcome floor of 1500.
	resp := doPost(t, "/api/carts/"+cartID+"/coupon", applyCouponRequest{Code: "WELCOME26"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Reason != "BelowMinimum" {
		t.Errorf("reason: got %q, want BelowMinimum", errResp.Reason)
	}
}

func TestApplyCoupon_ComboConflict(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "anniversary-combo", "", 1)

	resp := doPost(t, "/api/carts/"+cartID+"/coupon", applyCouponRequest{Code: "SAVE10"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Reason != "ComboOfferConflict" {
		t.Errorf("reason: got %q, want ComboOfferConflict", errResp.Reason)
	}
}

func TestApplyCoupon_Unknown(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "engraved-pen", "", 1)

	resp := doPost(t, "/api/carts/"+cartID+"/coupon", applyCouponRequest{Code: "NOPE404"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Reason != "NotFound" {
		t.Errorf("reason: got %q, want NotFound", errResp.Reason)
	}
}

func TestRemoveCoupon(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "led-name-lamp", "", 1)

	resp := doPost(t, "/api/carts/"+cartID+"/coupon", applyCouponRequest{Code: "SAVE10"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply: expected 200, got %d", resp.StatusCode)
	}

	if c := getCart(t, cartID); c.CouponCode != "SAVE10" {
		t.Errorf("couponCode: got %q, want SAVE10", c.CouponCode)
	}

	resp = doDelete(t, "/api/carts/"+cartID+"/coupon")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("remove coupon: expected 204, got %d", resp.StatusCode)
	}

	if c := getCart(t, cartID); c.CouponCode != "" {
		t.Errorf("couponCode after remove: got %q, want empty", c.CouponCode)
	}
}

// An applied coupon is not re-validated when the cart shrinks below its
// minimum purchase afterwards; the discount keeps pricing.
func TestQuote_CouponSurvivesCartEdit(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "led-name-lamp", "", 1)
	addItem(t, cartID, "keychain-metal", "", 1)

	resp := doPost(t, "/api/carts/"+cartID+"/coupon", applyCouponRequest{Code: "FLAT150"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply: expected 200, got %d", resp.StatusCode)
	}

	// Remove the lamp: subtotal drops to 199, far below FLAT150's minimum.
	c := getCart(t, cartID)
	resp = doDelete(t, "/api/carts/"+cartID+"/items/"+c.Items[0].ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("remove item: expected 204, got %d", resp.StatusCode)
	}

	resp = doGet(t, "/api/carts/"+cartID+"/quote")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("quote: expected 200, got %d", resp.StatusCode)
	}

	quote := decodeJSON[quoteResponse](t, resp)
	if quote.Discount != 150 {
		t.Errorf("discount: got %v, want 150", quote.Discount)
	}
	if quote.GrandTotal != 49 {
		t.Errorf("grandTotal: got %v, want 49", quote.GrandTotal)
	}
}
