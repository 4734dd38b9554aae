package order

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/varahajewels/storefront-api/internal/domain/coupon"
)

var (
	contactPattern = regexp.MustCompile(`^[0-9]{10}$`)
	pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidationError is a user-facing rejection of checkout input. Nothing is
// persisted and no external call is made when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// GatewayError wraps a hosted payment session failure. The pending order was
// already persisted when this is returned.
type GatewayError struct {
	OrderID string
	Err     error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("create payment session for order %s: %v", e.OrderID, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// PaymentRequest describes the hosted payment session to create.
type PaymentRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	Customer    Customer
	CallbackURL string
	Notes       map[string]string
}

// PaymentSession is the gateway's hosted checkout handle.
type PaymentSession struct {
	ID  string
	URL string
}

// PaymentGateway creates hosted payment sessions at the external provider.
type PaymentGateway interface {
	CreatePaymentSession(ctx context.Context, req PaymentRequest) (*PaymentSession, error)
}

// Event is emitted after an order is created or its status changes.
type Event struct {
	Type  string    `json:"type"`
	Order Order     `json:"order"`
	At    time.Time `json:"at"`
}

// Event types published by the service.
const (
	EventCreated       = "order.created"
	EventStatusUpdated = "order.status_updated"
)

// Publisher delivers order events to interested consumers. Publishing is
// best effort: a failure never fails the checkout.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// CartItem is one line of a multi-item cart checkout.
type CartItem struct {
	ProductID string          `json:"productId"`
	VariantID string          `json:"variantId"`
	Name      string          `json:"productName"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

// CheckoutRequest is the validated shopper input for one checkout submission.
type CheckoutRequest struct {
	Name    string
	Email   string
	Contact string
	Address string
	City    string
	State   string
	Pincode string

	ProductID   string
	VariantID   string
	ProductName string
	Quantity    int
	Items       []CartItem

	Amount          decimal.Decimal
	CouponCode      string
	DiscountPercent decimal.Decimal
	PaymentMethod   Method
}

// cartCheckout reports whether the request carries a multi-item cart.
func (r *CheckoutRequest) cartCheckout() bool { return len(r.Items) > 0 }

// CheckoutResult is the outcome of a successful checkout.
type CheckoutResult struct {
	OrderID     string
	CheckoutURL string
	SessionID   string
	// Bypassed is true when the test coupon skipped the gateway and the
	// shopper goes straight to the success confirmation.
	Bypassed bool
	Message  string
}

// Service validates shopper input, prices the order, persists it, and drives
// the payment path. It also flips order status once the payment outcome is
// known.
type Service struct {
	store    Store
	coupons  coupon.Validator
	gateway  PaymentGateway
	events   Publisher
	siteURL  string
	lg       *zap.Logger
	now      func() time.Time
	idSuffix func() string
}

// NewService creates a Service. siteURL is the public storefront base used
// for gateway callbacks and bypass redirects.
func NewService(store Store, coupons coupon.Validator, gateway PaymentGateway, events Publisher, siteURL string, lg *zap.Logger) *Service {
	return &Service{
		store:    store,
		coupons:  coupons,
		gateway:  gateway,
		events:   events,
		siteURL:  strings.TrimRight(siteURL, "/"),
		lg:       lg,
		now:      time.Now,
		idSuffix: randomSuffix,
	}
}

func randomSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:9])
}

// Checkout turns shopper input into a persisted, payable order. Exactly one
// order record is appended per successful call.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	// Non-test coupon codes are redeemed against the coupon collection
	// before any persistence, so exhausted or disabled codes are rejected
	// up front.
	if req.CouponCode != "" && req.CouponCode != TestCoupon {
		if _, err := s.coupons.Redeem(ctx, strings.ToUpper(req.CouponCode)); err != nil {
			switch {
			case errors.Is(err, coupon.ErrNotFound):
				return nil, &ValidationError{Msg: "invalid coupon code"}
			case errors.Is(err, coupon.ErrInactive), errors.Is(err, coupon.ErrUsageLimitReached):
				return nil, &ValidationError{Msg: err.Error()}
			default:
				return nil, errors.Wrap(err, "redeem coupon")
			}
		}
	}

	quote := Price(req.Amount, req.CouponCode, req.DiscountPercent, req.PaymentMethod)
	now := s.now()

	in := SaveInput{
		Amount:        quote.FinalAmount,
		Status:        StatusPending,
		PaymentMethod: req.PaymentMethod,
		CODCharges:    quote.CODCharges,
		Customer: Customer{
			Name:    req.Name,
			Email:   req.Email,
			Contact: req.Contact,
			Address: s.fullAddress(&req),
		},
		Discount: Discount{
			CouponCode:     req.CouponCode,
			Percent:        req.DiscountPercent,
			Amount:         quote.DiscountAmount,
			OriginalAmount: quote.OriginalAmount,
		},
		Notes: map[string]string{
			"address": s.fullAddress(&req),
		},
	}

	if req.cartCheckout() {
		in.Items = make([]LineItem, len(req.Items))
		qty := 0
		for i, it := range req.Items {
			in.Items[i] = LineItem(it)
			qty += it.Quantity
		}
		in.Product = LineItem{
			Name:     fmt.Sprintf("%d items", len(req.Items)),
			Quantity: qty,
		}
	} else {
		name := req.ProductName
		if name == "" {
			name = fmt.Sprintf("Product %s", req.ProductID)
		}
		in.Product = LineItem{
			ProductID: req.ProductID,
			VariantID: req.VariantID,
			Name:      name,
			Quantity:  req.Quantity,
		}
		in.Notes["variantId"] = req.VariantID
	}

	switch {
	case req.CouponCode == TestCoupon:
		return s.checkoutBypass(ctx, in, now)
	case req.PaymentMethod == MethodCOD:
		return s.checkoutCOD(ctx, in, now)
	default:
		return s.checkoutOnline(ctx, in, &req, now)
	}
}

// checkoutBypass persists a pending order and routes the shopper straight to
// the success confirmation with a synthetic payment reference. The gateway is
// never contacted.
func (s *Service) checkoutBypass(ctx context.Context, in SaveInput, now time.Time) (*CheckoutResult, error) {
	in.ID = fmt.Sprintf("ORD-%d", now.UnixMilli())

	o, err := s.store.Save(ctx, in)
	if err != nil {
		return nil, errors.Wrap(err, "save order")
	}
	s.publish(ctx, EventCreated, *o)

	sessionID := fmt.Sprintf("TEST-%d", now.UnixMilli())
	return &CheckoutResult{
		OrderID:   o.ID,
		SessionID: sessionID,
		CheckoutURL: fmt.Sprintf("%s/payment-success?orderId=%s&amount=%s&paymentId=%s",
			s.siteURL, o.ID, o.Amount.String(), sessionID),
		Bypassed: true,
	}, nil
}

// checkoutCOD persists a pending order tagged with the cod payment method.
// Payment is deferred to physical delivery, so no external call is made.
func (s *Service) checkoutCOD(ctx context.Context, in SaveInput, now time.Time) (*CheckoutResult, error) {
	in.ID = fmt.Sprintf("COD-%d-%s", now.UnixMilli(), s.idSuffix())
	in.PaymentID = fmt.Sprintf("COD-%d", now.UnixMilli())

	o, err := s.store.Save(ctx, in)
	if err != nil {
		return nil, errors.Wrap(err, "save order")
	}
	s.publish(ctx, EventCreated, *o)

	return &CheckoutResult{
		OrderID: o.ID,
		Message: "COD order placed successfully",
	}, nil
}

// checkoutOnline persists a pending order, then requests a hosted payment
// session. When the gateway call fails the already-persisted record is marked
// failed (best effort) rather than left as a silent orphan.
func (s *Service) checkoutOnline(ctx context.Context, in SaveInput, req *CheckoutRequest, now time.Time) (*CheckoutResult, error) {
	in.ID = fmt.Sprintf("ORD-%d", now.UnixMilli())

	o, err := s.store.Save(ctx, in)
	if err != nil {
		return nil, errors.Wrap(err, "save order")
	}
	s.publish(ctx, EventCreated, *o)

	session, err := s.gateway.CreatePaymentSession(ctx, PaymentRequest{
		Amount:      o.Amount,
		Currency:    o.Currency,
		Description: s.describeOrder(req),
		Customer:    o.Customer,
		CallbackURL: fmt.Sprintf("%s/payment-success?orderId=%s&amount=%s", s.siteURL, o.ID, o.Amount.String()),
		Notes: map[string]string{
			"orderId":    o.ID,
			"couponCode": orNone(req.CouponCode),
		},
	})
	if err != nil {
		if _, uerr := s.store.UpdateStatus(ctx, o.ID, StatusFailed, ""); uerr != nil {
			s.lg.Error("mark order failed after gateway error",
				zap.String("order_id", o.ID), zap.Error(uerr))
		}
		return nil, &GatewayError{OrderID: o.ID, Err: err}
	}

	return &CheckoutResult{
		OrderID:     o.ID,
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	}, nil
}

// UpdateStatus transitions a persisted order, refreshing the payment
// reference when one is supplied. There is no transition guard: any status
// may be written over any other.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status, paymentID string) (*Order, error) {
	o, err := s.store.UpdateStatus(ctx, id, status, paymentID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventStatusUpdated, *o)
	return o, nil
}

func (s *Service) publish(ctx context.Context, typ string, o Order) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, Event{Type: typ, Order: o, At: s.now().UTC()}); err != nil {
		s.lg.Warn("publish order event",
			zap.String("type", typ), zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *Service) validate(req *CheckoutRequest) error {
	if req.Name == "" || req.Email == "" || req.Contact == "" || req.Address == "" ||
		req.City == "" || req.State == "" || req.Pincode == "" {
		return &ValidationError{Msg: "please fill all required fields"}
	}
	if !contactPattern.MatchString(req.Contact) {
		return &ValidationError{Msg: "please enter a valid 10-digit mobile number"}
	}
	if !emailPattern.MatchString(req.Email) {
		return &ValidationError{Msg: "please enter a valid email address"}
	}
	if !pincodePattern.MatchString(req.Pincode) {
		return &ValidationError{Msg: "please enter a valid 6-digit pincode"}
	}
	if !req.Amount.IsPositive() {
		return &ValidationError{Msg: "amount is invalid"}
	}
	if req.cartCheckout() {
		for _, it := range req.Items {
			if it.Quantity <= 0 {
				return &ValidationError{Msg: "quantity must be greater than 0"}
			}
		}
	} else {
		if req.ProductID == "" || req.VariantID == "" {
			return &ValidationError{Msg: "missing required product fields"}
		}
		if req.Quantity <= 0 {
			return &ValidationError{Msg: "quantity must be greater than 0"}
		}
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = MethodOnline
	}
	return nil
}

func (s *Service) fullAddress(req *CheckoutRequest) string {
	return fmt.Sprintf("%s, %s, %s - %s", req.Address, req.City, req.State, req.Pincode)
}

func (s *Service) describeOrder(req *CheckoutRequest) string {
	if req.cartCheckout() {
		return fmt.Sprintf("Order of %d items", len(req.Items))
	}
	return fmt.Sprintf("Order for %s (Variant: %s) - Qty: %d", req.ProductID, req.VariantID, req.Quantity)
}

func orNone(v string) string {
	if v == "" {
		return "None"
	}
	return v
}
