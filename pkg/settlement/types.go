package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/chris/store-credit-checkout/pkg/locktoken"
	"github.com/chris/store-credit-checkout/pkg/notify"
)

var (
	// ErrInvalidOrder is returned for orders rejected before any money moves.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrCompensationFailed means a declined order's credit could not be refunded.
	ErrCompensationFailed = errors.New("compensation failed")
)

// Kind tags the outcome of a settlement.
type Kind string

const (
	Paid              Kind = "paid"
	CreditDebitFailed Kind = "credit_debit_failed"
	Declined          Kind = "declined"
	Failed            Kind = "failed"
)

// CreditPayment is the store-credit part of an order.
type CreditPayment struct {
	Code   string
	Amount int64
	Lock   locktoken.Token
}

// Request is a submitted order.
type Request struct {
	TotalAmount   int64
	Currency      string
	Credit        *CreditPayment
	CardNonce     string
	Customer      notify.Customer
	FulfillmentAt *time.Time
	Fulfillment   json.RawMessage
}

// Decline carries the processor's reason for refusing the card step.
type Decline struct {
	Reason string
	Detail json.RawMessage
}

// Result is the outcome of Settle. Callers switch on Kind.
type Result struct {
	Kind          Kind
	ReferenceID   string
	Paid          bool
	CreditAmount  int64
	ChargedAmount int64
	Last4         string
	ReceiptURL    string
	Decline       *Decline
	Err           error
}

// Settler settles orders.
type Settler interface {
	Settle(ctx context.Context, req Request) Result
}

// Dispatcher fans a paid order out to the notifiers.
type Dispatcher interface {
	Dispatch(ctx context.Context, n notify.Notification) error
}
