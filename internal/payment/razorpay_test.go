package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varahajewels/storefront-api/internal/domain/order"
)

func paymentRequest() order.PaymentRequest {
	return order.PaymentRequest{
		Amount:      decimal.NewFromInt(2499),
		Currency:    "INR",
		Description: "Order for prod_001 (Variant: v1) - Qty: 1",
		Customer: order.Customer{
			Name:    "Asha Rao",
			Email:   "asha@example.com",
			Contact: "9876543210",
		},
		CallbackURL: "https://shop.example.com/payment-success?orderId=ORD-1",
		Notes:       map[string]string{"orderId": "ORD-1"},
	}
}

func TestCreatePaymentSession(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_links", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"plink_abc","short_url":"https://rzp.io/l/abc"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{KeyID: "key_id", KeySecret: "key_secret", BaseURL: srv.URL})

	session, err := c.CreatePaymentSession(context.Background(), paymentRequest())
	require.NoError(t, err)
	assert.Equal(t, "plink_abc", session.ID)
	assert.Equal(t, "https://rzp.io/l/abc", session.URL)

	// Rupees converted to paise on the wire.
	assert.EqualValues(t, 249900, got["amount"])
	assert.Equal(t, "INR", got["currency"])
	assert.Equal(t, "get", got["callback_method"])
	customer, ok := got["customer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "9876543210", customer["contact"])
}

func TestCreatePaymentSession_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"description":"amount must be at least 100"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{KeyID: "key_id", KeySecret: "key_secret", BaseURL: srv.URL})

	_, err := c.CreatePaymentSession(context.Background(), paymentRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount must be at least 100")
}

func TestCreatePaymentSession_ErrorWithoutDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(Config{KeyID: "key_id", KeySecret: "key_secret", BaseURL: srv.URL})

	_, err := c.CreatePaymentSession(context.Background(), paymentRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestCreatePaymentSession_MissingCredentials(t *testing.T) {
	c := NewClient(Config{})

	_, err := c.CreatePaymentSession(context.Background(), paymentRequest())
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{KeyID: "k", KeySecret: "s"})
	assert.Equal(t, DefaultBaseURL, c.cfg.BaseURL)
	assert.NotZero(t, c.cfg.Timeout)
}
