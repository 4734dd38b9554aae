package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/varahajewels/storefront-api/internal/domain/order"
)

// getOrders handles GET /api/get-orders with optional email or orderId query
// filters. Without a filter it returns the whole ledger (admin view).
func (h *Handler) getOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []order.Order
		err    error
	)

	switch {
	case r.URL.Query().Get("orderId") != "":
		var o *order.Order
		o, err = h.orders.GetByID(r.Context(), r.URL.Query().Get("orderId"))
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		if o != nil {
			orders = []order.Order{*o}
		}
	case r.URL.Query().Get("email") != "":
		orders, err = h.orders.GetByEmail(r.Context(), r.URL.Query().Get("email"))
	default:
		orders, err = h.orders.GetAll(r.Context())
	}

	if err != nil {
		logError(r, "fetch orders", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(orders),
		"orders":  orders,
	})
}

type updateStatusRequest struct {
	OrderID   string `json:"orderId"`
	Status    string `json:"status"`
	PaymentID string `json:"paymentId"`
}

// updateOrderStatus handles POST /api/update-order-status, flipping a
// persisted order once the payment outcome is known.
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.OrderID == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "missing required fields: orderId, status")
		return
	}

	o, err := h.checkout.UpdateStatus(r.Context(), req.OrderID, order.Status(req.Status), req.PaymentID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		logError(r, "update order status", err)
		writeError(w, http.StatusInternalServerError, "failed to update order status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order":   o,
	})
}

// downloadInvoice handles GET /api/orders/{orderId}/invoice, rendering the
// PDF for a persisted order and serving the file.
func (h *Handler) downloadInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderId")

	o, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		logError(r, "fetch order for invoice", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch order")
		return
	}

	path, err := h.invoices.Render(*o)
	if err != nil {
		logError(r, "render invoice", err)
		writeError(w, http.StatusUnprocessableEntity, "failed to generate invoice")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="Varaha_Invoice_`+o.ID+`.pdf"`)
	http.ServeFile(w, r, path)
}
