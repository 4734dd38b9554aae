// Package product defines the jewelry catalog consumed by the storefront and
// administered through the admin API.
package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrAlreadyExists is returned when creating a product whose id is taken.
	ErrAlreadyExists = errors.New("product already exists")
)

// Variant is one purchasable configuration of a product.
type Variant struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Color     string          `json:"color,omitempty"`
	Size      string          `json:"size,omitempty"`
	SKU       string          `json:"sku,omitempty"`
	Price     decimal.Decimal `json:"price"`
	CompareAt decimal.Decimal `json:"compareAt"`
	InStock   bool            `json:"inStock"`
	Stock     int             `json:"stock"`
}

// Product is one catalog entry.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CompareAt   decimal.Decimal `json:"compareAt"`
	Category    string          `json:"category"`
	Images      []string        `json:"images"`
	Variants    []Variant       `json:"variants"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Repository provides catalog reads plus the admin mutation surface.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p Product) (*Product, error)
	Update(ctx context.Context, p Product) (*Product, error)
	Delete(ctx context.Context, id string) error
}
