// Package payment implements the hosted payment gateway client. Checkout
// redirects the shopper to a payment link created here; settlement and the
// gateway's own UI are entirely outside this service's control.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/varahajewels/storefront-api/internal/domain/order"
)

// DefaultBaseURL is the production gateway endpoint.
const DefaultBaseURL = "https://api.razorpay.com"

// ErrMissingCredentials is returned when the gateway key pair is not
// configured on the server.
var ErrMissingCredentials = errors.New("payment gateway credentials missing")

var _ order.PaymentGateway = (*Client)(nil)

// paisePerRupee converts rupees to the gateway's minor unit.
var paisePerRupee = decimal.NewFromInt(100)

// Config holds the gateway credentials and transport settings.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	// Timeout bounds the whole payment-link request. A hung gateway call
	// must not block a checkout request indefinitely.
	Timeout time.Duration
}

// Client creates hosted payment links over the gateway's REST API.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client from cfg, applying defaults for base URL and
// timeout.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type linkRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Description    string            `json:"description"`
	Customer       linkCustomer      `json:"customer"`
	Notify         linkNotify        `json:"notify"`
	ReminderEnable bool              `json:"reminder_enable"`
	CallbackURL    string            `json:"callback_url"`
	CallbackMethod string            `json:"callback_method"`
	Notes          map[string]string `json:"notes,omitempty"`
}

type linkCustomer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type linkNotify struct {
	SMS   bool `json:"sms"`
	Email bool `json:"email"`
}

type linkResponse struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
	Error    struct {
		Description string `json:"description"`
	} `json:"error"`
}

// CreatePaymentSession creates a hosted payment link for the given request
// and returns its redirect URL and id. The amount is converted to the
// currency's minor unit (paise).
func (c *Client) CreatePaymentSession(ctx context.Context, req order.PaymentRequest) (*order.PaymentSession, error) {
	if c.cfg.KeyID == "" || c.cfg.KeySecret == "" {
		return nil, ErrMissingCredentials
	}

	body := linkRequest{
		Amount:         req.Amount.Mul(paisePerRupee).IntPart(),
		Currency:       req.Currency,
		Description:    req.Description,
		Customer: linkCustomer{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Contact: req.Customer.Contact,
		},
		Notify:         linkNotify{SMS: true, Email: true},
		ReminderEnable: true,
		CallbackURL:    req.CallbackURL,
		CallbackMethod: "get",
		Notes:          req.Notes,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payment link request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/payment_links", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "build payment link request")
	}
	httpReq.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "call payment gateway")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read gateway response")
	}

	var link linkResponse
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, errors.Wrapf(err, "parse gateway response (status %d)", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := link.Error.Description
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return nil, errors.Errorf("payment gateway: %s", msg)
	}

	return &order.PaymentSession{ID: link.ID, URL: link.ShortURL}, nil
}
