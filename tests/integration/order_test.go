//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

const testAPIKey = "integration-test-key"

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestPlaceOrder_NoAuth(t *testing.T) {
	resp := doPost(t, "/api/orders", placeOrderRequest{CartID: "whatever"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_InvalidKey(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/orders", placeOrderRequest{CartID: "whatever"}, "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_MissingCartID(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/orders", placeOrderRequest{}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_UnknownCart(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/orders", placeOrderRequest{CartID: "no-such-cart"}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	cartID := createCart(t)

	resp := do(t, http.MethodPost, "/api/orders", placeOrderRequest{CartID: cartID}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_NoCoupon(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "cushion-print", "", 1)

	resp := do(t, http.MethodPost, "/api/orders", placeOrderRequest{CartID: cartID}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if !uuidPattern.MatchString(order.ID) {
		t.Errorf("order ID %q is not a UUID", order.ID)
	}
	if order.Subtotal != 599 {
		t.Errorf("subtotal: got %v, want 599", order.Subtotal)
	}
	if order.Discount != 0 {
		t.Errorf("discount: got %v, want 0", order.Discount)
	}
	if order.GrandTotal != 599 {
		t.Errorf("grandTotal: got %v, want 599", order.GrandTotal)
	}
	if order.PaymentMethod != "upi" {
		t.Errorf("paymentMethod: got %q, want upi", order.PaymentMethod)
	}
}

func TestPlaceOrder_CouponAndCOD(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "led-name-lamp", "", 1)

	applyResp := doPost(t, "/api/carts/"+cartID+"/coupon", applyCouponRequest{Code: "FLAT150"})
	applyResp.Body.Close()
	if applyResp.StatusCode != http.StatusOK {
		t.Fatalf("apply coupon: expected 200, got %d", applyResp.StatusCode)
	}

	resp := do(t, http.MethodPost, "/api/orders",
		placeOrderRequest{CartID: cartID, PaymentMethod: "cod"}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if order.Discount != 150 {
		t.Errorf("discount: got %v, want 150", order.Discount)
	}
	if order.CODFee != 70 {
		t.Errorf("codFee: got %v, want 70", order.CODFee)
	}
	if order.GrandTotal != 1219 {
		t.Errorf("grandTotal: got %v, want 1219", order.GrandTotal)
	}
	if order.CouponCode != "FLAT150" {
		t.Errorf("couponCode: got %q, want FLAT150", order.CouponCode)
	}

	// Checkout consumes the cart.
	cartResp := doGet(t, "/api/carts/"+cartID)
	defer cartResp.Body.Close()
	c := decodeJSON[cartResponse](t, cartResp)
	if len(c.Items) != 0 {
		t.Errorf("cart items after checkout: got %d, want 0", len(c.Items))
	}
	if c.CouponCode != "" {
		t.Errorf("cart coupon after checkout: got %q, want empty", c.CouponCode)
	}
}

func TestPlaceOrder_FreeUnitsSnapshot(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "keychain-metal", "", 3)

	applyResp := doPost(t, "/api/carts/"+cartID+"/coupon", applyCouponRequest{Code: "GIFT3"})
	applyResp.Body.Close()
	if applyResp.StatusCode != http.StatusOK {
		t.Fatalf("apply coupon: expected 200, got %d", applyResp.StatusCode)
	}

	resp := do(t, http.MethodPost, "/api/orders", placeOrderRequest{CartID: cartID}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if len(order.Items) != 1 {
		t.Fatalf("items: got %d, want 1", len(order.Items))
	}
	if order.Items[0].FreeUnits != 1 {
		t.Errorf("freeUnits: got %d, want 1", order.Items[0].FreeUnits)
	}
	if order.GrandTotal != 398 {
		t.Errorf("grandTotal: got %v, want 398", order.GrandTotal)
	}
}

func TestGetOrder(t *testing.T) {
	cartID := createCart(t)
	addItem(t, cartID, "engraved-pen", "", 1)

	placeResp := do(t, http.MethodPost, "/api/orders", placeOrderRequest{CartID: cartID}, testAPIKey)
	placed := decodeJSON[orderResponse](t, placeResp)
	placeResp.Body.Close()

	resp := do(t, http.MethodGet, "/api/orders/"+placed.ID, nil, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if order.ID != placed.ID {
		t.Errorf("id: got %q, want %q", order.ID, placed.ID)
	}
	if order.GrandTotal != placed.GrandTotal {
		t.Errorf("grandTotal: got %v, want %v", order.GrandTotal, placed.GrandTotal)
	}
}

func TestGetOrder_NoAuth(t *testing.T) {
	resp := doGet(t, "/api/orders/some-order")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
