package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/varahajewels/storefront-api/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
	(id, payment_id, amount, currency, status, payment_method, cod_charges,
	 customer, product, items, discount, notes, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	selectOrderSQL = `SELECT id, payment_id, amount, currency, status, payment_method,
	 cod_charges, customer, product, items, discount, notes, created_at, updated_at
	FROM orders`

	updateStatusSQL = `UPDATE orders
	SET status = $2,
	    payment_id = CASE WHEN $3 <> '' THEN $3 ELSE payment_id END,
	    updated_at = $4
	WHERE id = $1
	RETURNING id, payment_id, amount, currency, status, payment_method,
	 cod_charges, customer, product, items, discount, notes, created_at, updated_at`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL. Status updates are
// single-row UPDATEs, so concurrent writers cannot discard each other's
// changes the way full-collection rewrites can.
type OrderStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool, now: time.Now}
}

// Save builds a new record from in and inserts it. The embedded sub-objects
// (customer, line items, discount, notes) live in JSONB columns.
func (s *OrderStore) Save(ctx context.Context, in order.SaveInput) (*order.Order, error) {
	rec := order.NewRecord(in, s.now())

	customer, err := json.Marshal(rec.Customer)
	if err != nil {
		return nil, errors.Wrap(err, "marshal customer")
	}
	productJSON, err := json.Marshal(rec.Product)
	if err != nil {
		return nil, errors.Wrap(err, "marshal product")
	}
	var items []byte
	if rec.Items != nil {
		if items, err = json.Marshal(rec.Items); err != nil {
			return nil, errors.Wrap(err, "marshal items")
		}
	}
	discount, err := json.Marshal(rec.Discount)
	if err != nil {
		return nil, errors.Wrap(err, "marshal discount")
	}
	notes, err := json.Marshal(rec.Notes)
	if err != nil {
		return nil, errors.Wrap(err, "marshal notes")
	}

	_, err = s.pool.Exec(ctx, insertOrderSQL,
		rec.ID, rec.PaymentID, rec.Amount, rec.Currency, string(rec.Status),
		string(rec.PaymentMethod), rec.CODCharges,
		customer, productJSON, items, discount, notes,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "insert order %q", rec.ID)
	}
	return &rec, nil
}

// UpdateStatus performs a single-row status update, refreshing the payment
// reference when one is supplied.
func (s *OrderStore) UpdateStatus(ctx context.Context, id string, status order.Status, paymentID string) (*order.Order, error) {
	row := s.pool.QueryRow(ctx, updateStatusSQL, id, string(status), paymentID, s.now().UTC())
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "update order %q", id)
	}
	return o, nil
}

// GetByID returns the record with the given id, or order.ErrNotFound.
func (s *OrderStore) GetByID(ctx context.Context, id string) (*order.Order, error) {
	row := s.pool.QueryRow(ctx, selectOrderSQL+` WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return o, nil
}

// GetByEmail returns every record whose customer email matches.
func (s *OrderStore) GetByEmail(ctx context.Context, email string) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, selectOrderSQL+` WHERE lower(customer->>'email') = lower($1) ORDER BY created_at`, email)
	if err != nil {
		return nil, errors.Wrap(err, "query orders by email")
	}
	defer rows.Close()
	return scanOrders(rows)
}

// GetAll returns every record, oldest first.
func (s *OrderStore) GetAll(ctx context.Context) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, selectOrderSQL+` ORDER BY created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer rows.Close()
	return scanOrders(rows)
}

func scanOrders(rows pgx.Rows) ([]order.Order, error) {
	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, *o)
	}
	return out, errors.Wrap(rows.Err(), "iterate orders")
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o                                 order.Order
		status, method                    string
		amount, codCharges                decimal.Decimal
		customer, product, items          []byte
		discount, notes                   []byte
	)
	err := row.Scan(&o.ID, &o.PaymentID, &amount, &o.Currency, &status, &method,
		&codCharges, &customer, &product, &items, &discount, &notes,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	o.Amount = amount
	o.CODCharges = codCharges
	o.Status = order.Status(status)
	o.PaymentMethod = order.Method(method)

	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, errors.Wrap(err, "unmarshal customer")
	}
	if err := json.Unmarshal(product, &o.Product); err != nil {
		return nil, errors.Wrap(err, "unmarshal product")
	}
	if items != nil {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, errors.Wrap(err, "unmarshal items")
		}
	}
	if err := json.Unmarshal(discount, &o.Discount); err != nil {
		return nil, errors.Wrap(err, "unmarshal discount")
	}
	if err := json.Unmarshal(notes, &o.Notes); err != nil {
		return nil, errors.Wrap(err, "unmarshal notes")
	}
	return &o, nil
}
