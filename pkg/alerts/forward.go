package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chris/store-credit-checkout/pkg/notify"
)

// Forwarder relays queued alerts to the operations mailbox.
type Forwarder struct {
	Mailer notify.Mailer
	To     []string
}

func NewForwarder(mailer notify.Mailer, to []string) *Forwarder {
	return &Forwarder{Mailer: mailer, To: to}
}

// Forward decodes one queued alert and emails it.
func (f *Forwarder) Forward(ctx context.Context, body []byte) error {
	var alert Alert
	if err := json.Unmarshal(body, &alert); err != nil {
		return fmt.Errorf("failed to unmarshal alert: %w", err)
	}

	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(alert.Severity)), alert.Subject)
	if alert.ReferenceID != "" {
		subject += " (" + alert.ReferenceID + ")"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Severity: %s\n", alert.Severity)
	fmt.Fprintf(&b, "Raised at: %s\n", alert.At.UTC().Format(time.RFC3339))
	if alert.ReferenceID != "" {
		fmt.Fprintf(&b, "Order: %s\n", alert.ReferenceID)
	}
	if alert.Detail != "" {
		fmt.Fprintf(&b, "\n%s\n", alert.Detail)
	}

	if err := f.Mailer.Send(ctx, f.To, subject, b.String()); err != nil {
		return fmt.Errorf("failed to forward alert: %w", err)
	}
	return nil
}
