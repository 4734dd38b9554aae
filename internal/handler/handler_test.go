package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/varahajewels/storefront-api/internal/domain/coupon"
	"github.com/varahajewels/storefront-api/internal/domain/order"
	"github.com/varahajewels/storefront-api/internal/invoice"
	"github.com/varahajewels/storefront-api/internal/storage/jsonfile"
)

// --- Mock implementations ---

type mockGateway struct {
	session *order.PaymentSession
	err     error
	calls   int
}

func (m *mockGateway) CreatePaymentSession(_ context.Context, _ order.PaymentRequest) (*order.PaymentSession, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

// --- Helpers ---

// newTestHandler wires a Handler against real file-backed stores in a
// temporary directory, with only the payment gateway mocked out.
func newTestHandler(t *testing.T, gateway order.PaymentGateway) (*Handler, order.Store) {
	t.Helper()

	dir := t.TempDir()
	lg := zap.NewNop()

	orders := jsonfile.NewOrderStore(dir, lg)
	coupons := jsonfile.NewCouponStore(dir, lg)
	products := jsonfile.NewProductStore(dir, lg)

	svc := order.NewService(orders, coupon.NewRepoValidator(coupons), gateway, nil, "https://shop.example.com", lg)

	return NewHandler(svc, orders, coupons, products, invoice.NewRenderer(dir)), orders
}

func doRequest(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const checkoutBody = `{
	"productId": "prod_001",
	"variantId": "v1",
	"productName": "Premium Modern Necklace",
	"quantity": 1,
	"amount": 2499,
	"name": "Asha Rao",
	"email": "asha@example.com",
	"contact": "9876543210",
	"address": "12 MG Road",
	"city": "Bengaluru",
	"state": "Karnataka",
	"pincode": "560001"
}`

func withField(t *testing.T, body, key string, value any) string {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	m[key] = value
	out, err := json.Marshal(m)
	require.NoError(t, err)
	return string(out)
}

// --- Tests ---

func TestCreateCheckoutSession_Online(t *testing.T) {
	gateway := &mockGateway{session: &order.PaymentSession{ID: "plink_1", URL: "https://rzp.io/l/1"}}
	h, orders := newTestHandler(t, gateway)

	rec := doRequest(t, h, http.MethodPost, "/create-checkout-session", checkoutBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeResponse(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "https://rzp.io/l/1", body["checkoutUrl"])
	assert.Equal(t, "plink_1", body["sessionId"])
	assert.Equal(t, 1, gateway.calls)

	orderID, _ := body["orderId"].(string)
	require.True(t, strings.HasPrefix(orderID, "ORD-"), "orderId = %q", orderID)

	o, err := orders.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.PendingPaymentRef, o.PaymentID)
}

func TestCreateCheckoutSession_TestCoupon(t *testing.T) {
	gateway := &mockGateway{}
	h, orders := newTestHandler(t, gateway)

	rec := doRequest(t, h, http.MethodPost, "/create-checkout-session",
		withField(t, checkoutBody, "couponCode", "TESTADI"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeResponse(t, rec)
	url, _ := body["checkoutUrl"].(string)
	assert.Contains(t, url, "https://shop.example.com/payment-success")
	assert.Contains(t, url, "amount=1")
	assert.Equal(t, 0, gateway.calls, "test coupon bypasses the gateway")

	o, err := orders.GetByID(context.Background(), body["orderId"].(string))
	require.NoError(t, err)
	assert.Equal(t, "1", o.Amount.String())
	assert.Equal(t, "2499", o.Discount.OriginalAmount.String())
}

func TestCreateCheckoutSession_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"bad contact", withFieldStatic(checkoutBody, "contact", "123"), "please enter a valid 10-digit mobile number"},
		{"bad pincode", withFieldStatic(checkoutBody, "pincode", "12345"), "please enter a valid 6-digit pincode"},
		{"bad email", withFieldStatic(checkoutBody, "email", "nope"), "please enter a valid email address"},
		{"empty name", withFieldStatic(checkoutBody, "name", ""), "please fill all required fields"},
		{"unknown coupon", withFieldStatic(checkoutBody, "couponCode", "NOSUCH"), "invalid coupon code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, &mockGateway{session: &order.PaymentSession{}})

			rec := doRequest(t, h, http.MethodPost, "/create-checkout-session", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.msg, decodeResponse(t, rec)["error"])
		})
	}
}

func TestCreateCheckoutSession_InvalidJSON(t *testing.T) {
	h, _ := newTestHandler(t, &mockGateway{})

	rec := doRequest(t, h, http.MethodPost, "/create-checkout-session", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid json body", decodeResponse(t, rec)["error"])
}

func TestCreateCheckoutSession_GatewayDown(t *testing.T) {
	gateway := &mockGateway{err: assert.AnError}
	h, orders := newTestHandler(t, gateway)

	rec := doRequest(t, h, http.MethodPost, "/create-checkout-session", checkoutBody)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "failed to create checkout session", decodeResponse(t, rec)["error"])

	// The order exists and was marked failed.
	all, err := orders.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, order.StatusFailed, all[0].Status)
}

func TestCreateCODOrder(t *testing.T) {
	gateway := &mockGateway{}
	h, orders := newTestHandler(t, gateway)

	body := withFieldStatic(checkoutBody, "paymentMethod", "cod")
	body = withFieldStatic(body, "amount", 10999)

	rec := doRequest(t, h, http.MethodPost, "/create-cod-order", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeResponse(t, rec)
	assert.Equal(t, "COD order placed successfully", resp["message"])
	orderID, _ := resp["orderId"].(string)
	require.True(t, strings.HasPrefix(orderID, "COD-"), "orderId = %q", orderID)
	assert.Equal(t, 0, gateway.calls)

	o, err := orders.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, "11058", o.Amount.String(), "COD surcharge applied")
	assert.Equal(t, order.MethodCOD, o.PaymentMethod)
}

func TestCreateCODOrder_WrongMethod(t *testing.T) {
	h, _ := newTestHandler(t, &mockGateway{})

	rec := doRequest(t, h, http.MethodPost, "/create-cod-order", checkoutBody)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid payment method for COD order", decodeResponse(t, rec)["error"])
}

func TestGetOrders(t *testing.T) {
	h, _ := newTestHandler(t, &mockGateway{session: &order.PaymentSession{}})

	// Empty ledger.
	rec := doRequest(t, h, http.MethodGet, "/get-orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.EqualValues(t, 0, resp["count"])

	rec = doRequest(t, h, http.MethodPost, "/create-checkout-session", checkoutBody)
	require.Equal(t, http.StatusOK, rec.Code)
	orderID := decodeResponse(t, rec)["orderId"].(string)

	// Full ledger.
	rec = doRequest(t, h, http.MethodGet, "/get-orders", "")
	resp = decodeResponse(t, rec)
	assert.EqualValues(t, 1, resp["count"])

	// By id.
	rec = doRequest(t, h, http.MethodGet, "/get-orders?orderId="+orderID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeResponse(t, rec)
	assert.EqualValues(t, 1, resp["count"])

	// By email.
	rec = doRequest(t, h, http.MethodGet, "/get-orders?email=asha@example.com", "")
	resp = decodeResponse(t, rec)
	assert.EqualValues(t, 1, resp["count"])

	rec = doRequest(t, h, http.MethodGet, "/get-orders?email=nobody@example.com", "")
	resp = decodeResponse(t, rec)
	assert.EqualValues(t, 0, resp["count"])
}

func TestGetOrders_UnknownID(t *testing.T) {
	h, _ := newTestHandler(t, &mockGateway{})

	rec := doRequest(t, h, http.MethodGet, "/get-orders?orderId=ORD-missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order not found", decodeResponse(t, rec)["error"])
}

func TestUpdateOrderStatus(t *testing.T) {
	h, _ := newTestHandler(t, &mockGateway{session: &order.PaymentSession{}})

	rec := doRequest(t, h, http.MethodPost, "/create-checkout-session", checkoutBody)
	require.Equal(t, http.StatusOK, rec.Code)
	orderID := decodeResponse(t, rec)["orderId"].(string)

	rec = doRequest(t, h, http.MethodPost, "/update-order-status",
		`{"orderId":"`+orderID+`","status":"completed","paymentId":"pay_123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeResponse(t, rec)
	updated, ok := resp["order"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "completed", updated["status"])
	assert.Equal(t, "pay_123", updated["paymentId"])
}

func TestUpdateOrderStatus_Errors(t *testing.T) {
	h, _ := newTestHandler(t, &mockGateway{})

	rec := doRequest(t, h, http.MethodPost, "/update-order-status", `{"orderId":"ORD-1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing required fields: orderId, status", decodeResponse(t, rec)["error"])

	rec = doRequest(t, h, http.MethodPost, "/update-order-status",
		`{"orderId":"ORD-missing","status":"completed"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadInvoice(t *testing.T) {
	h, _ := newTestHandler(t, &mockGateway{session: &order.PaymentSession{}})

	rec := doRequest(t, h, http.MethodPost, "/create-checkout-session", checkoutBody)
	require.Equal(t, http.StatusOK, rec.Code)
	orderID := decodeResponse(t, rec)["orderId"].(string)

	rec = doRequest(t, h, http.MethodGet, "/orders/"+orderID+"/invoice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Varaha_Invoice_"+orderID)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestDownloadInvoice_NotFound(t *testing.T) {
	h, _ := newTestHandler(t, &mockGateway{})

	rec := doRequest(t, h, http.MethodGet, "/orders/ORD-missing/invoice", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// withFieldStatic is withField for table literals, panicking on malformed
// fixtures instead of failing the test.
func withFieldStatic(body, key string, value any) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		panic(err)
	}
	m[key] = value
	out, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return string(out)
}
