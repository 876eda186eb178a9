package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chris/store-credit-checkout/pkg/metrics"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a whole notification fan-out.
const DefaultTimeout = 10 * time.Second

// Dispatcher runs every notifier in parallel.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
}

// NewDispatcher creates a Dispatcher. A non-positive timeout selects DefaultTimeout.
func NewDispatcher(timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{notifiers: notifiers, timeout: timeout}
}

// Dispatch delivers n on every channel and returns the combined failures.
// It is detached from ctx cancellation so an aborted request cannot cut
// deliveries short, and one failing notifier never stops its siblings.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	for _, notifier := range d.notifiers {
		notifier := notifier
		g.Go(func() error {
			err := notifier.Notify(ctx, n)
			metrics.Notifications.WithLabelValues(notifier.Name(), metrics.Result(err)).Inc()
			if err != nil {
				slog.Warn("notification failed", "channel", notifier.Name(), "reference_id", n.ReferenceID, "error", err)
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errs
}
