// Package order holds the order record, the pricing rules applied at
// checkout, and the service that turns validated shopper input into a
// persisted, payable order.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	// StatusPending marks an order that is persisted but not yet paid
	// (or, for COD, not yet delivered).
	StatusPending Status = "pending"
	// StatusCompleted marks an order whose payment has been confirmed.
	StatusCompleted Status = "completed"
	// StatusFailed marks an order whose hosted payment session could not
	// be created after the record was already persisted.
	StatusFailed Status = "failed"
)

// Method is the payment method chosen at checkout.
type Method string

const (
	// MethodOnline pays through the hosted gateway redirect.
	MethodOnline Method = "online"
	// MethodCOD defers payment to physical delivery.
	MethodCOD Method = "cod"
)

// PendingPaymentRef is the sentinel payment reference assigned at creation,
// overwritten once a real payment or COD reference exists.
const PendingPaymentRef = "pending"

// ErrNotFound is returned when no order matches the requested id.
var ErrNotFound = errors.New("order not found")

// Customer is the contact snapshot captured at order time. There is no live
// customer entity; every order embeds its own copy.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

// LineItem is one product/variant/quantity triple.
type LineItem struct {
	ProductID string          `json:"productId"`
	VariantID string          `json:"variantId"`
	Name      string          `json:"productName"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Discount records how the final amount relates to the quoted price.
type Discount struct {
	CouponCode     string          `json:"couponCode"`
	Percent        decimal.Decimal `json:"discountPercent"`
	Amount         decimal.Decimal `json:"discountAmount"`
	OriginalAmount decimal.Decimal `json:"originalAmount"`
}

// Order is the persisted representation of one purchase attempt.
type Order struct {
	ID            string            `json:"id"`
	PaymentID     string            `json:"paymentId"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	Status        Status            `json:"status"`
	PaymentMethod Method            `json:"paymentMethod,omitempty"`
	CODCharges    decimal.Decimal   `json:"codCharges"`
	Customer      Customer          `json:"customer"`
	Product       LineItem          `json:"product"`
	Items         []LineItem        `json:"items,omitempty"`
	Discount      Discount          `json:"discount"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	Notes         map[string]string `json:"notes,omitempty"`
}

// SaveInput carries the fields for a new order record. Zero values are
// defaulted by NewRecord.
type SaveInput struct {
	ID            string
	PaymentID     string
	Amount        decimal.Decimal
	Currency      string
	Status        Status
	PaymentMethod Method
	CODCharges    decimal.Decimal
	Customer      Customer
	Product       LineItem
	Items         []LineItem
	Discount      Discount
	Notes         map[string]string
}

// NewRecord builds a complete order record from input, assigning an id when
// absent and stamping both timestamps to now. The id is assigned exactly once
// and never reassigned afterwards.
func NewRecord(in SaveInput, now time.Time) Order {
	o := Order{
		ID:            in.ID,
		PaymentID:     in.PaymentID,
		Amount:        in.Amount,
		Currency:      in.Currency,
		Status:        in.Status,
		PaymentMethod: in.PaymentMethod,
		CODCharges:    in.CODCharges,
		Customer:      in.Customer,
		Product:       in.Product,
		Items:         in.Items,
		Discount:      in.Discount,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
		Notes:         in.Notes,
	}
	if o.ID == "" {
		o.ID = fmt.Sprintf("ORD-%d", now.UnixMilli())
	}
	if o.PaymentID == "" {
		o.PaymentID = PendingPaymentRef
	}
	if o.Currency == "" {
		o.Currency = "INR"
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.Discount.OriginalAmount.IsZero() {
		o.Discount.OriginalAmount = in.Amount
	}
	if o.Notes == nil {
		o.Notes = map[string]string{}
	}
	return o
}

// Store defines the durable order collection. Records are append-only from
// the checkout path: updates mutate status and payment reference in place,
// nothing ever deletes an order.
type Store interface {
	GetAll(ctx context.Context) ([]Order, error)
	Save(ctx context.Context, in SaveInput) (*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status, paymentID string) (*Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByEmail(ctx context.Context, email string) ([]Order, error)
}
