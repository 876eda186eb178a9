package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chris/store-credit-checkout/pkg/models"
	"github.com/chris/store-credit-checkout/pkg/storage"
)

func formatMoney(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, currency)
}

func summary(n Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order: %s\n", n.ReferenceID)
	fmt.Fprintf(&b, "Total: %s\n", formatMoney(n.Total.Amount, n.Total.Currency))
	if n.CreditAmount > 0 {
		fmt.Fprintf(&b, "Store credit (%s): %s\n", n.CreditCode, formatMoney(n.CreditAmount, n.Total.Currency))
	}
	if n.ChargedAmount > 0 {
		fmt.Fprintf(&b, "Card ending %s: %s\n", n.Last4, formatMoney(n.ChargedAmount, n.Total.Currency))
	}
	if n.ReceiptURL != "" {
		fmt.Fprintf(&b, "Receipt: %s\n", n.ReceiptURL)
	}
	if n.FulfillmentAt != nil {
		fmt.Fprintf(&b, "Scheduled for: %s\n", n.FulfillmentAt.Format(time.RFC1123))
	}
	return b.String()
}

// CustomerNotifier sends the order acknowledgment to the customer.
type CustomerNotifier struct {
	Mailer Mailer
}

func (c *CustomerNotifier) Name() string { return "customer_email" }

// Notify is a no-op when the order carries no customer email.
func (c *CustomerNotifier) Notify(ctx context.Context, n Notification) error {
	if n.Customer.Email == "" {
		return nil
	}
	greeting := "Hi,"
	if n.Customer.Name != "" {
		greeting = fmt.Sprintf("Hi %s,", n.Customer.Name)
	}
	body := fmt.Sprintf("%s\n\nThanks for your order. We've received your payment.\n\n%s", greeting, summary(n))
	return c.Mailer.Send(ctx, []string{n.Customer.Email}, "Your order "+n.ReferenceID, body)
}

// OpsNotifier sends the internal operational summary.
type OpsNotifier struct {
	Mailer Mailer
	To     []string
}

func (o *OpsNotifier) Name() string { return "ops_email" }

func (o *OpsNotifier) Notify(ctx context.Context, n Notification) error {
	var b strings.Builder
	b.WriteString(summary(n))
	if n.Customer.Name != "" || n.Customer.Email != "" {
		fmt.Fprintf(&b, "Customer: %s <%s>\n", n.Customer.Name, n.Customer.Email)
	}
	if len(n.Fulfillment) > 0 {
		fmt.Fprintf(&b, "Fulfillment: %s\n", n.Fulfillment)
	}
	return o.Mailer.Send(ctx, o.To, "New order "+n.ReferenceID, b.String())
}

// CalendarNotifier records the fulfilment slot for the order.
type CalendarNotifier struct {
	Store storage.CalendarStore
}

func (c *CalendarNotifier) Name() string { return "calendar" }

func (c *CalendarNotifier) Notify(ctx context.Context, n Notification) error {
	startsAt := n.PaidAt
	if n.FulfillmentAt != nil {
		startsAt = *n.FulfillmentAt
	}
	event := &models.CalendarEvent{
		ReferenceID:   n.ReferenceID,
		StartsAt:      startsAt.UTC(),
		Summary:       summary(n),
		CustomerName:  n.Customer.Name,
		CustomerEmail: n.Customer.Email,
		Fulfillment:   n.Fulfillment,
		CreatedAt:     time.Now().UTC(),
	}
	if err := c.Store.PutCalendarEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to record calendar event: %w", err)
	}
	return nil
}
