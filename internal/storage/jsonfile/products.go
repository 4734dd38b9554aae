package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/varahajewels/storefront-api/internal/domain/product"
)

var _ product.Repository = (*ProductStore)(nil)

// ProductStore is the file-backed jewelry catalog. On first use it is seeded
// with the flagship necklace so the storefront has something to sell.
type ProductStore struct {
	path string
	lg   *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewProductStore creates a ProductStore writing to dir/products.json.
func NewProductStore(dir string, lg *zap.Logger) *ProductStore {
	return &ProductStore{
		path: filepath.Join(dir, "products.json"),
		lg:   lg,
		now:  time.Now,
	}
}

func (s *ProductStore) seed() []product.Product {
	return []product.Product{{
		ID:          "prod_001",
		Name:        "Premium Modern Necklace",
		Description: "Handcrafted elegance for every occasion",
		Price:       decimal.NewFromInt(2499),
		CompareAt:   decimal.NewFromInt(2999),
		Category:    "necklaces",
		Variants: []product.Variant{{
			ID:        "v1",
			Title:     "One Size",
			Color:     "Silver",
			Size:      "One Size",
			SKU:       "NCL-SLV-001",
			Price:     decimal.NewFromInt(2499),
			CompareAt: decimal.NewFromInt(2999),
			InStock:   true,
			Stock:     50,
		}},
		Status:    "active",
		CreatedAt: s.now().UTC(),
	}}
}

func (s *ProductStore) load() []product.Product {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.lg.Error("create data directory", zap.Error(err))
		return nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		seeded := s.seed()
		if werr := writeFile(s.path, seeded); werr != nil {
			s.lg.Error("initialize products file", zap.Error(werr))
		}
		return seeded
	}
	if err != nil {
		s.lg.Error("read products file", zap.Error(err))
		return nil
	}

	var products []product.Product
	if err := json.Unmarshal(data, &products); err != nil {
		s.lg.Error("parse products file", zap.String("path", s.path), zap.Error(err))
		return nil
	}
	return products
}

// List returns every product in the catalog.
func (s *ProductStore) List(_ context.Context) ([]product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

// GetByID returns the product with the given id, or product.ErrNotFound.
func (s *ProductStore) GetByID(_ context.Context, id string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.load() {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

// Create adds a new product to the catalog.
func (s *ProductStore) Create(_ context.Context, p product.Product) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Status == "" {
		p.Status = "active"
	}
	p.CreatedAt = s.now().UTC()

	products := s.load()
	for _, existing := range products {
		if existing.ID == p.ID {
			return nil, product.ErrAlreadyExists
		}
	}
	products = append(products, p)

	if err := writeFile(s.path, products); err != nil {
		return nil, errors.Wrap(err, "write products file")
	}
	return &p, nil
}

// Update replaces the stored product matching p.ID.
func (s *ProductStore) Update(_ context.Context, p product.Product) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := s.load()
	for i := range products {
		if products[i].ID == p.ID {
			p.CreatedAt = products[i].CreatedAt
			products[i] = p
			if err := writeFile(s.path, products); err != nil {
				return nil, errors.Wrap(err, "write products file")
			}
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

// Delete removes the product with the given id.
func (s *ProductStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := s.load()
	for i := range products {
		if products[i].ID == id {
			products = append(products[:i], products[i+1:]...)
			if err := writeFile(s.path, products); err != nil {
				return errors.Wrap(err, "write products file")
			}
			return nil
		}
	}
	return product.ErrNotFound
}
