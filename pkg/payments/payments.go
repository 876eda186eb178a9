// Package payments defines the card-processor boundary used by checkout.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrProcessorDeclined marks a request the processor refused.
	ErrProcessorDeclined = errors.New("payment processor declined the request")
	// ErrProcessorUnavailable marks transport failures, timeouts and server errors.
	// The outcome of the request at the processor is unknown.
	ErrProcessorUnavailable = errors.New("payment processor unavailable")
)

// DeclineError carries the processor's error payload verbatim.
type DeclineError struct {
	StatusCode int
	Code       string
	Detail     json.RawMessage
}

func (e *DeclineError) Error() string {
	return fmt.Sprintf("payment processor declined the request (status %d, code %s)", e.StatusCode, e.Code)
}

func (e *DeclineError) Is(target error) bool {
	return target == ErrProcessorDeclined
}

// Outcome of a charge.
type Outcome string

const (
	APPROVED Outcome = "APPROVED"
	DECLINED Outcome = "DECLINED"
)

type CreateOrderRequest struct {
	ReferenceID string
	Amount      int64
	Currency    string
	Note        string
}

// ProviderOrder identifies an order at the processor. Version is needed to cancel it.
type ProviderOrder struct {
	ID      string
	Version int64
}

type ChargeRequest struct {
	Nonce       string
	Amount      int64
	Currency    string
	ReferenceID string
	OrderID     string
}

type ChargeResult struct {
	Outcome       Outcome
	PaymentID     string
	ReceiptURL    string
	Last4         string
	DeclineReason string
	Detail        json.RawMessage
}

// Gateway is a card processor. Implementations derive idempotency keys from
// the reference id so retried calls do not double-charge.
type Gateway interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*ProviderOrder, error)
	// Charge returns a DECLINED result, not an error, when the card is refused.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	CancelOrder(ctx context.Context, orderID string, version int64) error
}
