package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/varahajewels/storefront-api/internal/domain/coupon"
)

var _ coupon.Repository = (*CouponStore)(nil)

// CouponStore is the file-backed coupon collection. On first use the file is
// seeded with the reserved test coupon so a fresh deployment can exercise the
// full checkout flow.
type CouponStore struct {
	path string
	lg   *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewCouponStore creates a CouponStore writing to dir/coupons.json.
func NewCouponStore(dir string, lg *zap.Logger) *CouponStore {
	return &CouponStore{
		path: filepath.Join(dir, "coupons.json"),
		lg:   lg,
		now:  time.Now,
	}
}

func (s *CouponStore) seed() []coupon.Coupon {
	return []coupon.Coupon{{
		ID:          "TESTADI",
		Code:        "TESTADI",
		Type:        coupon.TypeFixed,
		Discount:    decimal.NewFromInt(1),
		Description: "Test coupon - sets final price to Rs. 1",
		Status:      coupon.StatusActive,
		UsageLimit:  nil,
		UsageCount:  0,
		CreatedAt:   s.now().UTC(),
	}}
}

// load reads the collection, seeding defaults on first use. Callers must
// hold s.mu.
func (s *CouponStore) load() []coupon.Coupon {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.lg.Error("create data directory", zap.Error(err))
		return nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		seeded := s.seed()
		if werr := writeFile(s.path, seeded); werr != nil {
			s.lg.Error("initialize coupons file", zap.Error(werr))
		}
		return seeded
	}
	if err != nil {
		s.lg.Error("read coupons file", zap.Error(err))
		return nil
	}

	var coupons []coupon.Coupon
	if err := json.Unmarshal(data, &coupons); err != nil {
		s.lg.Error("parse coupons file", zap.String("path", s.path), zap.Error(err))
		return nil
	}
	return coupons
}

// List returns every coupon in the collection.
func (s *CouponStore) List(_ context.Context) ([]coupon.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

// FindByCode looks up a coupon by code, case-insensitively.
func (s *CouponStore) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.load() {
		if strings.EqualFold(c.Code, code) {
			return &c, nil
		}
	}
	return nil, coupon.ErrNotFound
}

// Create adds a new coupon. Codes are normalized to uppercase and must be
// unique within the collection.
func (s *CouponStore) Create(_ context.Context, c coupon.Coupon) (*coupon.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.Code = strings.ToUpper(c.Code)
	c.ID = c.Code
	if c.Status == "" {
		c.Status = coupon.StatusActive
	}
	c.CreatedAt = s.now().UTC()

	coupons := s.load()
	for _, existing := range coupons {
		if strings.EqualFold(existing.Code, c.Code) {
			return nil, coupon.ErrAlreadyExists
		}
	}
	coupons = append(coupons, c)

	if err := writeFile(s.path, coupons); err != nil {
		return nil, errors.Wrap(err, "write coupons file")
	}
	return &c, nil
}

// Update replaces the stored coupon matching c.Code.
func (s *CouponStore) Update(_ context.Context, c coupon.Coupon) (*coupon.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coupons := s.load()
	for i := range coupons {
		if strings.EqualFold(coupons[i].Code, c.Code) {
			c.Code = coupons[i].Code
			c.ID = coupons[i].ID
			c.CreatedAt = coupons[i].CreatedAt
			coupons[i] = c
			if err := writeFile(s.path, coupons); err != nil {
				return nil, errors.Wrap(err, "write coupons file")
			}
			return &c, nil
		}
	}
	return nil, coupon.ErrNotFound
}

// Delete removes the coupon with the given code.
func (s *CouponStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coupons := s.load()
	for i := range coupons {
		if strings.EqualFold(coupons[i].Code, code) {
			coupons = append(coupons[:i], coupons[i+1:]...)
			if err := writeFile(s.path, coupons); err != nil {
				return errors.Wrap(err, "write coupons file")
			}
			return nil
		}
	}
	return coupon.ErrNotFound
}

// IncrementUses bumps the usage counter for the given code.
func (s *CouponStore) IncrementUses(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coupons := s.load()
	for i := range coupons {
		if strings.EqualFold(coupons[i].Code, code) {
			coupons[i].UsageCount++
			if err := writeFile(s.path, coupons); err != nil {
				return errors.Wrap(err, "write coupons file")
			}
			return nil
		}
	}
	return coupon.ErrNotFound
}
