package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/varahajewels/storefront-api/internal/domain/order"
	"github.com/varahajewels/storefront-api/internal/payment"
)

// checkoutRequest is the wire shape shared by both checkout endpoints. It
// carries either a single product/variant/quantity or a cart items list.
type checkoutRequest struct {
	ProductID   string `json:"productId"`
	VariantID   string `json:"variantId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`

	Items          []order.CartItem `json:"items"`
	IsCartCheckout bool             `json:"isCartCheckout"`

	Amount  decimal.Decimal `json:"amount"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Contact string          `json:"contact"`
	Address string          `json:"address"`
	City    string          `json:"city"`
	State   string          `json:"state"`
	Pincode string          `json:"pincode"`

	CouponCode    string          `json:"couponCode"`
	Discount      decimal.Decimal `json:"discount"`
	PaymentMethod string          `json:"paymentMethod"`
}

func (req *checkoutRequest) toDomain() order.CheckoutRequest {
	return order.CheckoutRequest{
		Name:            req.Name,
		Email:           req.Email,
		Contact:         req.Contact,
		Address:         req.Address,
		City:            req.City,
		State:           req.State,
		Pincode:         req.Pincode,
		ProductID:       req.ProductID,
		VariantID:       req.VariantID,
		ProductName:     req.ProductName,
		Quantity:        req.Quantity,
		Items:           req.Items,
		Amount:          req.Amount,
		CouponCode:      req.CouponCode,
		DiscountPercent: req.Discount,
		PaymentMethod:   order.Method(req.PaymentMethod),
	}
}

// createCheckoutSession handles POST /api/create-checkout-session: the online
// payment path. The response carries the hosted checkout redirect (or, for
// the test coupon, the direct success-page URL).
func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCheckout(w, r)
	if !ok {
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = string(order.MethodOnline)
	}

	result, err := h.checkout.Checkout(r.Context(), req.toDomain())
	if err != nil {
		respondCheckoutError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"checkoutUrl": result.CheckoutURL,
		"sessionId":   result.SessionID,
		"orderId":     result.OrderID,
	})
}

// createCODOrder handles POST /api/create-cod-order: payment deferred to
// physical delivery, no gateway involved.
func (h *Handler) createCODOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCheckout(w, r)
	if !ok {
		return
	}
	if req.PaymentMethod != string(order.MethodCOD) {
		writeError(w, http.StatusBadRequest, "invalid payment method for COD order")
		return
	}

	result, err := h.checkout.Checkout(r.Context(), req.toDomain())
	if err != nil {
		respondCheckoutError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"orderId": result.OrderID,
		"message": result.Message,
	})
}

func decodeCheckout(w http.ResponseWriter, r *http.Request) (*checkoutRequest, bool) {
	var req checkoutRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return nil, false
	}
	return &req, true
}

func respondCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *order.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Msg)
		return
	}

	if errors.Is(err, payment.ErrMissingCredentials) {
		logError(r, "checkout failed", err)
		writeError(w, http.StatusInternalServerError, "payment gateway keys missing on server")
		return
	}

	var gErr *order.GatewayError
	if errors.As(err, &gErr) {
		logError(r, "payment session creation failed", err)
		writeError(w, http.StatusBadGateway, "failed to create checkout session")
		return
	}

	logError(r, "checkout failed", err)
	writeError(w, http.StatusInternalServerError, "failed to place order")
}
