package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/varahajewels/storefront-api/internal/domain/coupon"
)

// --- Mock implementations ---

type mockStore struct {
	orders  map[string]*Order
	saveErr error

	saved          []Order
	statusUpdates  []string
	updatedStatus  Status
	updatedPayment string
}

func newMockStore() *mockStore {
	return &mockStore{orders: make(map[string]*Order)}
}

func (m *mockStore) GetAll(_ context.Context) ([]Order, error) { return nil, nil }

func (m *mockStore) Save(_ context.Context, in SaveInput) (*Order, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	o := NewRecord(in, time.Now())
	m.orders[o.ID] = &o
	m.saved = append(m.saved, o)
	return &o, nil
}

func (m *mockStore) UpdateStatus(_ context.Context, id string, status Status, paymentID string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = status
	if paymentID != "" {
		o.PaymentID = paymentID
	}
	m.statusUpdates = append(m.statusUpdates, id)
	m.updatedStatus = status
	m.updatedPayment = paymentID
	return o, nil
}

func (m *mockStore) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockStore) GetByEmail(_ context.Context, _ string) ([]Order, error) { return nil, nil }

type mockValidator struct {
	err   error
	calls []string
}

func (m *mockValidator) Redeem(_ context.Context, code string) (*coupon.Coupon, error) {
	m.calls = append(m.calls, code)
	if m.err != nil {
		return nil, m.err
	}
	return &coupon.Coupon{Code: code, Status: coupon.StatusActive}, nil
}

type mockGateway struct {
	session *PaymentSession
	err     error
	calls   []PaymentRequest
}

func (m *mockGateway) CreatePaymentSession(_ context.Context, req PaymentRequest) (*PaymentSession, error) {
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

type mockPublisher struct {
	events []Event
}

func (m *mockPublisher) Publish(_ context.Context, e Event) error {
	m.events = append(m.events, e)
	return nil
}

// --- Helpers ---

func newTestService(store *mockStore, coupons coupon.Validator, gateway PaymentGateway, events Publisher) *Service {
	svc := NewService(store, coupons, gateway, events, "https://shop.example.com/", zap.NewNop())
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	svc.idSuffix = func() string { return "ABCDEF123" }
	return svc
}

func validRequest() CheckoutRequest {
	return CheckoutRequest{
		Name:        "Asha Rao",
		Email:       "asha@example.com",
		Contact:     "9876543210",
		Address:     "12 MG Road",
		City:        "Bengaluru",
		State:       "Karnataka",
		Pincode:     "560001",
		ProductID:   "prod_001",
		VariantID:   "v1",
		ProductName: "Premium Modern Necklace",
		Quantity:    1,
		Amount:      decimal.NewFromInt(2499),
	}
}

// --- Tests ---

func TestCheckout_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CheckoutRequest)
		msg    string
	}{
		{"missing name", func(r *CheckoutRequest) { r.Name = "" }, "please fill all required fields"},
		{"missing city", func(r *CheckoutRequest) { r.City = "" }, "please fill all required fields"},
		{"short contact", func(r *CheckoutRequest) { r.Contact = "123" }, "please enter a valid 10-digit mobile number"},
		{"alpha contact", func(r *CheckoutRequest) { r.Contact = "98765abcde" }, "please enter a valid 10-digit mobile number"},
		{"bad email", func(r *CheckoutRequest) { r.Email = "not-an-email" }, "please enter a valid email address"},
		{"short pincode", func(r *CheckoutRequest) { r.Pincode = "12345" }, "please enter a valid 6-digit pincode"},
		{"long pincode", func(r *CheckoutRequest) { r.Pincode = "1234567" }, "please enter a valid 6-digit pincode"},
		{"zero amount", func(r *CheckoutRequest) { r.Amount = decimal.Zero }, "amount is invalid"},
		{"zero quantity", func(r *CheckoutRequest) { r.Quantity = 0 }, "quantity must be greater than 0"},
		{"missing variant", func(r *CheckoutRequest) { r.VariantID = "" }, "missing required product fields"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			svc := newTestService(store, &mockValidator{}, &mockGateway{}, nil)

			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Checkout(context.Background(), req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Msg)
			assert.Empty(t, store.saved, "nothing is persisted on rejection")
		})
	}
}

func TestCheckout_TestCouponBypassesGateway(t *testing.T) {
	store := newMockStore()
	gateway := &mockGateway{}
	events := &mockPublisher{}
	svc := newTestService(store, &mockValidator{}, gateway, events)

	req := validRequest()
	req.CouponCode = TestCoupon

	res, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, res.Bypassed)
	assert.Equal(t, "ORD-1700000000000", res.OrderID)
	assert.Contains(t, res.CheckoutURL, "https://shop.example.com/payment-success?orderId=ORD-1700000000000")
	assert.Contains(t, res.CheckoutURL, "amount=1")
	assert.Empty(t, gateway.calls, "gateway must not be contacted")

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	assert.True(t, saved.Amount.Equal(decimal.NewFromInt(1)))
	assert.True(t, saved.Discount.OriginalAmount.Equal(decimal.NewFromInt(2499)))
	assert.True(t, saved.Discount.Amount.Equal(decimal.NewFromInt(2498)))
	assert.Equal(t, StatusPending, saved.Status)

	require.Len(t, events.events, 1)
	assert.Equal(t, EventCreated, events.events[0].Type)
}

func TestCheckout_TestCouponSkipsRedemption(t *testing.T) {
	validator := &mockValidator{err: coupon.ErrNotFound}
	svc := newTestService(newMockStore(), validator, &mockGateway{}, nil)

	req := validRequest()
	req.CouponCode = TestCoupon

	_, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, validator.calls, "test coupon never hits the coupon collection")
}

func TestCheckout_InvalidCoupon(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockValidator{err: coupon.ErrNotFound}, &mockGateway{}, nil)

	req := validRequest()
	req.CouponCode = "NOSUCH"

	_, err := svc.Checkout(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid coupon code", verr.Msg)
	assert.Empty(t, store.saved)
}

func TestCheckout_CouponRedeemedUppercase(t *testing.T) {
	validator := &mockValidator{}
	gateway := &mockGateway{session: &PaymentSession{ID: "plink_1", URL: "https://rzp.io/l/abc"}}
	svc := newTestService(newMockStore(), validator, gateway, nil)

	req := validRequest()
	req.CouponCode = "welcome10"

	_, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, validator.calls, 1)
	assert.Equal(t, "WELCOME10", validator.calls[0])
}

func TestCheckout_CODOrder(t *testing.T) {
	store := newMockStore()
	gateway := &mockGateway{}
	svc := newTestService(store, &mockValidator{}, gateway, nil)

	req := validRequest()
	req.Amount = decimal.NewFromInt(10999)
	req.PaymentMethod = MethodCOD

	res, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "COD-1700000000000-ABCDEF123", res.OrderID)
	assert.Equal(t, "COD order placed successfully", res.Message)
	assert.Empty(t, res.CheckoutURL)
	assert.Empty(t, gateway.calls)

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	assert.True(t, saved.Amount.Equal(decimal.NewFromInt(11058)), "amount = %s", saved.Amount)
	assert.True(t, saved.CODCharges.Equal(decimal.NewFromInt(59)))
	assert.Equal(t, MethodCOD, saved.PaymentMethod)
	assert.Equal(t, "COD-1700000000000", saved.PaymentID)
}

func TestCheckout_OnlineCreatesSession(t *testing.T) {
	store := newMockStore()
	gateway := &mockGateway{session: &PaymentSession{ID: "plink_xyz", URL: "https://rzp.io/l/xyz"}}
	svc := newTestService(store, &mockValidator{}, gateway, nil)

	res, err := svc.Checkout(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "ORD-1700000000000", res.OrderID)
	assert.Equal(t, "https://rzp.io/l/xyz", res.CheckoutURL)
	assert.Equal(t, "plink_xyz", res.SessionID)
	assert.False(t, res.Bypassed)

	require.Len(t, gateway.calls, 1)
	call := gateway.calls[0]
	assert.True(t, call.Amount.Equal(decimal.NewFromInt(2499)))
	assert.Equal(t, "INR", call.Currency)
	assert.Equal(t, "ORD-1700000000000", call.Notes["orderId"])
	assert.Equal(t, "None", call.Notes["couponCode"])
	assert.Contains(t, call.CallbackURL, "payment-success?orderId=ORD-1700000000000")

	// Order is persisted before the gateway call, with the sentinel ref.
	require.Len(t, store.saved, 1)
	assert.Equal(t, PendingPaymentRef, store.saved[0].PaymentID)
}

func TestCheckout_GatewayFailureMarksOrderFailed(t *testing.T) {
	store := newMockStore()
	gateway := &mockGateway{err: errors.New("connection refused")}
	svc := newTestService(store, &mockValidator{}, gateway, nil)

	_, err := svc.Checkout(context.Background(), validRequest())

	var gerr *GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "ORD-1700000000000", gerr.OrderID)

	// The record exists and has been flipped to failed.
	require.Len(t, store.saved, 1)
	require.Len(t, store.statusUpdates, 1)
	assert.Equal(t, StatusFailed, store.updatedStatus)
	o, err := store.GetByID(context.Background(), gerr.OrderID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, o.Status)
}

func TestCheckout_CartItems(t *testing.T) {
	store := newMockStore()
	gateway := &mockGateway{session: &PaymentSession{ID: "plink_1", URL: "https://rzp.io/l/1"}}
	svc := newTestService(store, &mockValidator{}, gateway, nil)

	req := validRequest()
	req.ProductID = ""
	req.VariantID = ""
	req.Quantity = 0
	req.Items = []CartItem{
		{ProductID: "prod_001", VariantID: "v1", Name: "Necklace", Quantity: 2, UnitPrice: decimal.NewFromInt(2499)},
		{ProductID: "prod_002", VariantID: "v1", Name: "Earrings", Quantity: 1, UnitPrice: decimal.NewFromInt(1999)},
	}
	req.Amount = decimal.NewFromInt(6997)

	_, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	require.Len(t, saved.Items, 2)
	assert.Equal(t, "2 items", saved.Product.Name)
	assert.Equal(t, 3, saved.Product.Quantity)

	require.Len(t, gateway.calls, 1)
	assert.Equal(t, "Order of 2 items", gateway.calls[0].Description)
}

func TestCheckout_DefaultsToOnlineMethod(t *testing.T) {
	gateway := &mockGateway{session: &PaymentSession{ID: "plink_1", URL: "https://rzp.io/l/1"}}
	svc := newTestService(newMockStore(), &mockValidator{}, gateway, nil)

	req := validRequest()
	req.PaymentMethod = ""

	_, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, gateway.calls, 1)
}

func TestCheckout_AddressComposition(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockValidator{}, &mockGateway{session: &PaymentSession{}}, nil)

	_, err := svc.Checkout(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.Equal(t, "12 MG Road, Bengaluru, Karnataka - 560001", store.saved[0].Customer.Address)
	assert.Equal(t, store.saved[0].Customer.Address, store.saved[0].Notes["address"])
}

func TestUpdateStatus_PublishesEvent(t *testing.T) {
	store := newMockStore()
	events := &mockPublisher{}
	svc := newTestService(store, &mockValidator{}, &mockGateway{session: &PaymentSession{}}, events)

	res, err := svc.Checkout(context.Background(), validRequest())
	require.NoError(t, err)

	o, err := svc.UpdateStatus(context.Background(), res.OrderID, StatusCompleted, "pay_123")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, o.Status)
	assert.Equal(t, "pay_123", o.PaymentID)

	require.Len(t, events.events, 2)
	assert.Equal(t, EventStatusUpdated, events.events[1].Type)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc := newTestService(newMockStore(), &mockValidator{}, &mockGateway{}, nil)

	_, err := svc.UpdateStatus(context.Background(), "ORD-missing", StatusCompleted, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRandomSuffix(t *testing.T) {
	s := randomSuffix()
	assert.Len(t, s, 9)
	assert.Equal(t, strings.ToUpper(s), s)
}
