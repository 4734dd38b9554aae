// Package jsonfile persists the storefront collections as single JSON array
// files, one file per collection. Reads are fail-open: a missing or corrupt
// file degrades to an empty collection with a logged fault. Writes go through
// a temp file and rename, and a mutex serializes mutations so concurrent
// writers cannot discard each other's updates.
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
	"go.uber.org/zap"

	"github.com/varahajewels/storefront-api/internal/domain/order"
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore is the file-backed order ledger.
type OrderStore struct {
	path string
	lg   *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewOrderStore creates an OrderStore writing to dir/orders.json.
func NewOrderStore(dir string, lg *zap.Logger) *OrderStore {
	return &OrderStore{
		path: filepath.Join(dir, "orders.json"),
		lg:   lg,
		now:  time.Now,
	}
}

// load reads the whole collection, creating an empty file on first use.
// Read and parse faults are logged and degrade to an empty collection.
// Callers must hold s.mu.
func (s *OrderStore) load() []order.Order {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.lg.Error("create data directory", zap.Error(err))
		return nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		if werr := writeFile(s.path, []order.Order{}); werr != nil {
			s.lg.Error("initialize orders file", zap.Error(werr))
		}
		return nil
	}
	if err != nil {
		s.lg.Error("read orders file", zap.Error(err))
		return nil
	}

	var orders []order.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		s.lg.Error("parse orders file", zap.String("path", s.path), zap.Error(err))
		return nil
	}
	return orders
}

// GetAll returns every record in the ledger.
func (s *OrderStore) GetAll(_ context.Context) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

// Save builds a new record from in and appends it to the ledger, rewriting
// the whole file. The order is not durable until Save returns nil.
func (s *OrderStore) Save(_ context.Context, in order.SaveInput) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.load()
	rec := order.NewRecord(in, s.now())
	orders = append(orders, rec)

	if err := writeFile(s.path, orders); err != nil {
		return nil, errors.Wrap(err, "write orders file")
	}
	return &rec, nil
}

// UpdateStatus mutates status, payment reference (when non-empty), and the
// updated-at stamp of the record with the given id.
func (s *OrderStore) UpdateStatus(_ context.Context, id string, status order.Status, paymentID string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.load()
	idx := -1
	for i := range orders {
		if orders[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, order.ErrNotFound
	}

	orders[idx].Status = status
	orders[idx].UpdatedAt = s.now().UTC()
	if paymentID != "" {
		orders[idx].PaymentID = paymentID
	}

	if err := writeFile(s.path, orders); err != nil {
		return nil, errors.Wrap(err, "write orders file")
	}
	rec := orders[idx]
	return &rec, nil
}

// GetByID returns the record with the given id, or order.ErrNotFound.
func (s *OrderStore) GetByID(_ context.Context, id string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.load() {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, order.ErrNotFound
}

// GetByEmail returns every record whose customer email matches.
func (s *OrderStore) GetByEmail(_ context.Context, email string) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []order.Order
	for _, o := range s.load() {
		if strings.EqualFold(o.Customer.Email, email) {
			out = append(out, o)
		}
	}
	return out, nil
}

// writeFile marshals v and atomically replaces path via temp file + rename.
func writeFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "rename")
	}
	return nil
}
