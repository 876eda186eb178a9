// Package notify delivers the side effects of a paid order: customer and
// operations emails and the fulfilment calendar record.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chris/store-credit-checkout/pkg/models"
)

// Customer is who placed the order.
type Customer struct {
	Name  string
	Email string
}

// Notification describes a paid order.
type Notification struct {
	ReferenceID   string
	Total         models.Money
	CreditCode    string
	CreditAmount  int64
	ChargedAmount int64
	Last4         string
	ReceiptURL    string
	Customer      Customer
	FulfillmentAt *time.Time
	Fulfillment   json.RawMessage
	PaidAt        time.Time
}

// Notifier delivers a Notification over one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// NoOpNotifier is a notifier that does nothing.
type NoOpNotifier struct{}

func (NoOpNotifier) Name() string { return "noop" }

// Notify does nothing.
func (NoOpNotifier) Notify(ctx context.Context, n Notification) error {
	return nil
}
