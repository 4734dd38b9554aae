// Package handler exposes the storefront API over HTTP: checkout, order
// lookup and status updates, invoice downloads, and the admin CRUD surface
// for products and coupons.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/varahajewels/storefront-api/internal/domain/coupon"
	"github.com/varahajewels/storefront-api/internal/domain/order"
	"github.com/varahajewels/storefront-api/internal/domain/product"
	"github.com/varahajewels/storefront-api/internal/invoice"
)

// Handler routes storefront API requests to the domain services.
type Handler struct {
	checkout *order.Service
	orders   order.Store
	coupons  coupon.Repository
	products product.Repository
	invoices *invoice.Renderer
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	checkout *order.Service,
	orders order.Store,
	coupons coupon.Repository,
	products product.Repository,
	invoices *invoice.Renderer,
) *Handler {
	return &Handler{
		checkout: checkout,
		orders:   orders,
		coupons:  coupons,
		products: products,
		invoices: invoices,
	}
}

// Routes mounts every API route under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/create-checkout-session", h.createCheckoutSession)
	r.Post("/create-cod-order", h.createCODOrder)
	r.Get("/get-orders", h.getOrders)
	r.Post("/update-order-status", h.updateOrderStatus)
	r.Get("/orders/{orderId}/invoice", h.downloadInvoice)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/coupons", h.listCoupons)
		r.Post("/coupons", h.createCoupon)
		r.Put("/coupons/{code}", h.updateCoupon)
		r.Delete("/coupons/{code}", h.deleteCoupon)

		r.Get("/products", h.listProducts)
		r.Post("/products", h.createProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)
	})

	return r
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// logError records a handler failure with the request-scoped logger.
func logError(r *http.Request, msg string, err error) {
	zctx.From(r.Context()).Error(msg, zap.Error(err))
}
