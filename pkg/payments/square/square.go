// Package square is a payments.Gateway backed by the Square Orders and Payments REST APIs.
package square

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chris/store-credit-checkout/pkg/metrics"
	"github.com/chris/store-credit-checkout/pkg/payments"
)

const (
	DefaultBaseURL    = "https://connect.squareup.com"
	DefaultAPIVersion = "2024-07-17"
	DefaultTimeout    = 15 * time.Second
)

// Config configures the Square client.
type Config struct {
	BaseURL     string
	AccessToken string
	LocationID  string
	APIVersion  string
	Timeout     time.Duration
}

// Client implements payments.Gateway.
type Client struct {
	baseURL     string
	accessToken string
	locationID  string
	apiVersion  string
	http        *http.Client
}

var _ payments.Gateway = (*Client)(nil)

// New creates a Client, filling unset fields with defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("square access token is required")
	}
	if strings.TrimSpace(cfg.LocationID) == "" {
		return nil, errors.New("square location id is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: strings.TrimSpace(cfg.AccessToken),
		locationID:  strings.TrimSpace(cfg.LocationID),
		apiVersion:  cfg.APIVersion,
		http:        &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type lineItem struct {
	Name           string `json:"name"`
	Quantity       string `json:"quantity"`
	BasePriceMoney money  `json:"base_price_money"`
}

type order struct {
	ID          string     `json:"id,omitempty"`
	LocationID  string     `json:"location_id"`
	ReferenceID string     `json:"reference_id,omitempty"`
	LineItems   []lineItem `json:"line_items,omitempty"`
	Version     int64      `json:"version,omitempty"`
	State       string     `json:"state,omitempty"`
}

type orderRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	Order          order  `json:"order"`
}

type orderResponse struct {
	Order order `json:"order"`
}

type paymentRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	SourceID       string `json:"source_id"`
	AmountMoney    money  `json:"amount_money"`
	OrderID        string `json:"order_id,omitempty"`
	ReferenceID    string `json:"reference_id,omitempty"`
	LocationID     string `json:"location_id"`
	Autocomplete   bool   `json:"autocomplete"`
}

type payment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ReceiptURL  string `json:"receipt_url"`
	CardDetails struct {
		Card struct {
			Last4 string `json:"last_4"`
		} `json:"card"`
	} `json:"card_details"`
}

type paymentResponse struct {
	Payment payment `json:"payment"`
}

type squareError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

type errorResponse struct {
	Errors []squareError `json:"errors"`
}

// CreateOrder opens an order for the remaining balance.
func (c *Client) CreateOrder(ctx context.Context, req payments.CreateOrderRequest) (*payments.ProviderOrder, error) {
	note := req.Note
	if note == "" {
		note = "Order " + req.ReferenceID
	}
	body := orderRequest{
		IdempotencyKey: req.ReferenceID + "-order",
		Order: order{
			LocationID:  c.locationID,
			ReferenceID: req.ReferenceID,
			LineItems: []lineItem{{
				Name:           note,
				Quantity:       "1",
				BasePriceMoney: money{Amount: req.Amount, Currency: req.Currency},
			}},
		},
	}

	var out orderResponse
	if err := c.do(ctx, "create_order", http.MethodPost, "/v2/orders", body, &out); err != nil {
		return nil, err
	}
	if out.Order.ID == "" {
		return nil, fmt.Errorf("square returned an order without id: %w", payments.ErrProcessorUnavailable)
	}
	return &payments.ProviderOrder{ID: out.Order.ID, Version: out.Order.Version}, nil
}

// Charge captures req.Amount from the card nonce against the provider order.
func (c *Client) Charge(ctx context.Context, req payments.ChargeRequest) (*payments.ChargeResult, error) {
	body := paymentRequest{
		IdempotencyKey: req.ReferenceID + "-payment",
		SourceID:       req.Nonce,
		AmountMoney:    money{Amount: req.Amount, Currency: req.Currency},
		OrderID:        req.OrderID,
		ReferenceID:    req.ReferenceID,
		LocationID:     c.locationID,
		Autocomplete:   true,
	}

	var out paymentResponse
	err := c.do(ctx, "charge", http.MethodPost, "/v2/payments", body, &out)
	var decline *payments.DeclineError
	if errors.As(err, &decline) {
		return &payments.ChargeResult{
			Outcome:       payments.DECLINED,
			DeclineReason: decline.Code,
			Detail:        decline.Detail,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	switch out.Payment.Status {
	case "COMPLETED", "APPROVED":
		return &payments.ChargeResult{
			Outcome:    payments.APPROVED,
			PaymentID:  out.Payment.ID,
			ReceiptURL: out.Payment.ReceiptURL,
			Last4:      out.Payment.CardDetails.Card.Last4,
		}, nil
	default:
		detail, _ := json.Marshal(out)
		return &payments.ChargeResult{
			Outcome:       payments.DECLINED,
			PaymentID:     out.Payment.ID,
			DeclineReason: out.Payment.Status,
			Detail:        detail,
		}, nil
	}
}

// CancelOrder moves an unpaid order to CANCELED.
func (c *Client) CancelOrder(ctx context.Context, orderID string, version int64) error {
	body := orderRequest{
		IdempotencyKey: orderID + "-cancel",
		Order: order{
			LocationID: c.locationID,
			Version:    version,
			State:      "CANCELED",
		},
	}
	return c.do(ctx, "cancel_order", http.MethodPut, "/v2/orders/"+orderID, body, &orderResponse{})
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.GatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
		metrics.GatewayRequests.WithLabelValues(op, resultLabel(err)).Inc()
	}()

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal square request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build square request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Square-Version", c.apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", payments.ErrProcessorUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", payments.ErrProcessorUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: square returned status %d", payments.ErrProcessorUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		decline := &payments.DeclineError{StatusCode: resp.StatusCode, Detail: json.RawMessage(raw)}
		var errResp errorResponse
		if json.Unmarshal(raw, &errResp) == nil && len(errResp.Errors) > 0 {
			decline.Code = errResp.Errors[0].Code
		}
		if !json.Valid(raw) {
			decline.Detail, _ = json.Marshal(map[string]string{"error": strings.TrimSpace(string(raw))})
		}
		return decline
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", payments.ErrProcessorUnavailable, err)
	}
	return nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, payments.ErrProcessorDeclined):
		return "declined"
	default:
		return "unavailable"
	}
}
