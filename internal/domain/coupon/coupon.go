// Package coupon defines the marketing-configured coupon collection and
// its validation rules.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage discounts a percentage of the quoted price.
	TypePercentage Type = "percentage"
	// TypeFixed discounts a fixed monetary value.
	TypeFixed Type = "fixed"
)

// Status of a coupon in the collection.
type Status string

const (
	// StatusActive means the coupon may be redeemed.
	StatusActive Status = "active"
	// StatusInactive means the coupon exists but cannot be redeemed.
	StatusInactive Status = "inactive"
)

var (
	// ErrNotFound is returned when no coupon matches the requested code.
	ErrNotFound = errors.New("coupon not found")
	// ErrAlreadyExists is returned when creating a coupon whose code is taken.
	ErrAlreadyExists = errors.New("coupon code already exists")
	// ErrInactive is returned when redeeming a coupon that is not active.
	ErrInactive = errors.New("coupon is not active")
	// ErrUsageLimitReached is returned when a coupon has exhausted its uses.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
)

// Coupon is one entry in the coupon collection. Codes are stored uppercase
// and act as the collection key.
type Coupon struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Type        Type            `json:"type"`
	Discount    decimal.Decimal `json:"discount"`
	Description string          `json:"description"`
	Status      Status          `json:"status"`
	UsageLimit  *int            `json:"usageLimit"`
	UsageCount  int             `json:"usageCount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Repository provides lookup and administration of the coupon collection.
type Repository interface {
	List(ctx context.Context) ([]Coupon, error)
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Create(ctx context.Context, c Coupon) (*Coupon, error)
	Update(ctx context.Context, c Coupon) (*Coupon, error)
	Delete(ctx context.Context, code string) error
	IncrementUses(ctx context.Context, code string) error
}
