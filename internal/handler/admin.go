package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/varahajewels/storefront-api/internal/domain/coupon"
	"github.com/varahajewels/storefront-api/internal/domain/product"
)

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		logError(r, "list coupons", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch coupons")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "coupons": coupons})
}

type couponRequest struct {
	Code        string          `json:"code"`
	Type        string          `json:"type"`
	Discount    decimal.Decimal `json:"discount"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	UsageLimit  *int            `json:"usageLimit"`
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Code == "" || req.Type == "" || req.Discount.IsZero() {
		writeError(w, http.StatusBadRequest, "missing required fields: code, type, discount")
		return
	}

	c, err := h.coupons.Create(r.Context(), coupon.Coupon{
		Code:        req.Code,
		Type:        coupon.Type(req.Type),
		Discount:    req.Discount,
		Description: req.Description,
		UsageLimit:  req.UsageLimit,
	})
	if err != nil {
		if errors.Is(err, coupon.ErrAlreadyExists) {
			writeError(w, http.StatusBadRequest, "coupon code already exists")
			return
		}
		logError(r, "create coupon", err)
		writeError(w, http.StatusInternalServerError, "failed to create coupon")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "coupon": c})
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	existing, err := h.coupons.FindByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			writeError(w, http.StatusNotFound, "coupon not found")
			return
		}
		logError(r, "lookup coupon", err)
		writeError(w, http.StatusInternalServerError, "failed to update coupon")
		return
	}

	// Fields absent from the request keep their stored values; the usage
	// counter is never writable through this endpoint.
	status := existing.Status
	if req.Status != "" {
		status = coupon.Status(req.Status)
	}

	c, err := h.coupons.Update(r.Context(), coupon.Coupon{
		Code:        existing.Code,
		Type:        coupon.Type(req.Type),
		Discount:    req.Discount,
		Description: req.Description,
		Status:      status,
		UsageLimit:  req.UsageLimit,
		UsageCount:  existing.UsageCount,
	})
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			writeError(w, http.StatusNotFound, "coupon not found")
			return
		}
		logError(r, "update coupon", err)
		writeError(w, http.StatusInternalServerError, "failed to update coupon")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "coupon": c})
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	err := h.coupons.Delete(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			writeError(w, http.StatusNotFound, "coupon not found")
			return
		}
		logError(r, "delete coupon", err)
		writeError(w, http.StatusInternalServerError, "failed to delete coupon")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		logError(r, "list products", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "products": products})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var p product.Product
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if p.ID == "" || p.Name == "" || p.Price.IsZero() {
		writeError(w, http.StatusBadRequest, "missing required fields: id, name, price")
		return
	}

	created, err := h.products.Create(r.Context(), p)
	if err != nil {
		if errors.Is(err, product.ErrAlreadyExists) {
			writeError(w, http.StatusBadRequest, "product already exists")
			return
		}
		logError(r, "create product", err)
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "product": created})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var p product.Product
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	p.ID = chi.URLParam(r, "id")

	updated, err := h.products.Update(r.Context(), p)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		logError(r, "update product", err)
		writeError(w, http.StatusInternalServerError, "failed to update product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": updated})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.products.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		logError(r, "delete product", err)
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
