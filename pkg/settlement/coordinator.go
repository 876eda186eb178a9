// Package settlement drives an order through store-credit debit, card charge
// and notification, compensating the credit when the card step fails.
package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/chris/store-credit-checkout/pkg/alerts"
	"github.com/chris/store-credit-checkout/pkg/ledger"
	"github.com/chris/store-credit-checkout/pkg/metrics"
	"github.com/chris/store-credit-checkout/pkg/models"
	"github.com/chris/store-credit-checkout/pkg/notify"
	"github.com/chris/store-credit-checkout/pkg/payments"
	"github.com/chris/store-credit-checkout/pkg/storage"
)

const (
	stepCancelOrder  = "cancel_order"
	stepRefundCredit = "refund_credit"

	defaultActor = "checkout"
)

// Coordinator implements Settler.
type Coordinator struct {
	ledger     ledger.CreditLedger
	gateway    payments.Gateway
	sagas      storage.SagaLog
	dispatcher Dispatcher
	alerter    alerts.Alerter
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger saga events are written to.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithClock overrides the clock used for saga timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithIDGenerator overrides how order reference ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(c *Coordinator) { c.newID = newID }
}

// New creates a Coordinator.
func New(l ledger.CreditLedger, g payments.Gateway, sagas storage.SagaLog, d Dispatcher, a alerts.Alerter, opts ...Option) *Coordinator {
	c := &Coordinator{
		ledger:     l,
		gateway:    g,
		sagas:      sagas,
		dispatcher: d,
		alerter:    a,
		logger:     slog.Default(),
		now:        time.Now,
		newID:      NewReferenceID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Settler = (*Coordinator)(nil)

// run tracks one saga. stored is the last state known to be persisted, which
// conditions the next write even if an intermediate write failed.
type run struct {
	rec    *models.SagaRecord
	stored models.SagaState
	log    *slog.Logger
}

func (r *run) applied(step string) bool {
	return slices.Contains(r.rec.CompensationsApplied, step)
}

// failure is why the card step did not approve.
type failure struct {
	reason string
	detail json.RawMessage
	cause  error
}

// Settle runs the saga for req. Every path returns a Result; Err is set for
// anything other than Paid.
func (c *Coordinator) Settle(ctx context.Context, req Request) Result {
	res := c.settle(ctx, req)
	metrics.SettlementOutcomes.WithLabelValues(string(res.Kind)).Inc()
	return res
}

func (c *Coordinator) settle(ctx context.Context, req Request) Result {
	if err := validate(req); err != nil {
		return Result{Kind: Failed, Err: err}
	}

	now := c.now().UTC()
	rec := &models.SagaRecord{
		ReferenceID:      c.newID(),
		State:            models.PROPOSED,
		RequestedTotal:   models.Money{Amount: req.TotalAmount, Currency: req.Currency},
		RemainingBalance: req.TotalAmount,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	r := &run{rec: rec, stored: models.PROPOSED, log: c.logger.With("reference_id", rec.ReferenceID)}

	if err := c.sagas.BeginSaga(ctx, rec); err != nil {
		r.log.Error("failed to record settlement, rejecting order", "error", err)
		return Result{Kind: Failed, ReferenceID: rec.ReferenceID, Err: fmt.Errorf("failed to record settlement: %w", err)}
	}

	if req.Credit != nil {
		rec.CreditCode = req.Credit.Code
		receipt, err := c.ledger.Spend(ctx, ledger.SpendRequest{
			Code:        req.Credit.Code,
			Lock:        req.Credit.Lock,
			Amount:      req.Credit.Amount,
			Currency:    req.Currency,
			Actor:       actor(req),
			ReferenceID: rec.ReferenceID,
		})
		if err != nil {
			r.log.Info("store credit debit failed", "code", req.Credit.Code, "error", err)
			c.transition(ctx, r, models.CREDIT_DEBIT_FAILED, err)
			return Result{Kind: CreditDebitFailed, ReferenceID: rec.ReferenceID, Err: err}
		}
		rec.CreditAmount = receipt.Spent
		rec.CreditSnapshot = receipt.Snapshot
		rec.RemainingBalance -= receipt.Spent
		c.transition(ctx, r, models.CREDIT_RESERVED, nil)
	}

	var charge *payments.ChargeResult
	if rec.RemainingBalance > 0 {
		var fail *failure
		charge, fail = c.charge(ctx, r, req)
		if fail != nil {
			return c.decline(ctx, r, fail)
		}
		rec.PaymentID = charge.PaymentID
	}

	rec.Paid = true
	c.transition(ctx, r, models.PAID, nil)

	res := Result{
		Kind:         Paid,
		ReferenceID:  rec.ReferenceID,
		Paid:         true,
		CreditAmount: rec.CreditAmount,
	}
	if charge != nil {
		res.ChargedAmount = rec.RemainingBalance
		res.Last4 = charge.Last4
		res.ReceiptURL = charge.ReceiptURL
	}

	c.notify(ctx, r, req, res)
	return res
}

func validate(req Request) error {
	if req.TotalAmount <= 0 {
		return fmt.Errorf("%w: total must be positive", ErrInvalidOrder)
	}
	if req.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidOrder)
	}
	if req.Credit != nil && req.Credit.Amount > req.TotalAmount {
		return fmt.Errorf("%w: credit amount exceeds order total", ErrInvalidOrder)
	}
	return nil
}

func actor(req Request) string {
	if req.Customer.Email != "" {
		return req.Customer.Email
	}
	if req.Customer.Name != "" {
		return req.Customer.Name
	}
	return defaultActor
}

// charge opens a provider order for the remaining balance and charges the card against it.
func (c *Coordinator) charge(ctx context.Context, r *run, req Request) (*payments.ChargeResult, *failure) {
	rec := r.rec
	if req.CardNonce == "" {
		return nil, &failure{reason: "missing card nonce"}
	}

	order, err := c.gateway.CreateOrder(ctx, payments.CreateOrderRequest{
		ReferenceID: rec.ReferenceID,
		Amount:      rec.RemainingBalance,
		Currency:    rec.RequestedTotal.Currency,
		Note:        "Order " + rec.ReferenceID,
	})
	if err != nil {
		return nil, gatewayFailure(err)
	}
	rec.ProviderOrderID = order.ID
	rec.ProviderOrderVersion = order.Version
	c.transition(ctx, r, models.CHARGING, nil)

	result, err := c.gateway.Charge(ctx, payments.ChargeRequest{
		Nonce:       req.CardNonce,
		Amount:      rec.RemainingBalance,
		Currency:    rec.RequestedTotal.Currency,
		ReferenceID: rec.ReferenceID,
		OrderID:     order.ID,
	})
	if err != nil {
		return nil, gatewayFailure(err)
	}
	if result.Outcome != payments.APPROVED {
		return nil, &failure{reason: result.DeclineReason, detail: result.Detail}
	}
	return result, nil
}

func gatewayFailure(err error) *failure {
	f := &failure{reason: err.Error(), cause: err}
	var decline *payments.DeclineError
	if errors.As(err, &decline) {
		f.reason = decline.Code
		f.detail = decline.Detail
	}
	return f
}

// decline compensates a failed card step and reports the decline.
func (c *Coordinator) decline(ctx context.Context, r *run, f *failure) Result {
	rec := r.rec
	reason := f.reason
	if reason == "" {
		reason = "card declined"
	}
	r.log.Info("card step failed, compensating", "reason", reason, "error", f.cause)

	if f.cause != nil && errors.Is(f.cause, payments.ErrProcessorUnavailable) {
		c.raise(ctx, r, alerts.Warning, "card outcome unknown, store credit refunded",
			fmt.Sprintf("processor unavailable while charging order %s: %v", rec.ProviderOrderID, f.cause))
	}

	if err := c.compensate(ctx, r, errors.New(reason)); err != nil {
		return Result{Kind: Failed, ReferenceID: rec.ReferenceID, Err: err}
	}

	return Result{
		Kind:        Declined,
		ReferenceID: rec.ReferenceID,
		Decline:     &Decline{Reason: reason, Detail: f.detail},
		Err:         fmt.Errorf("payment declined: %s", reason),
	}
}

// compensate cancels the provider order and refunds the credit, skipping
// steps already applied. A refund failure leaves the saga in
// COMPENSATION_FAILED and pages an operator.
func (c *Coordinator) compensate(ctx context.Context, r *run, cause error) error {
	ctx = context.WithoutCancel(ctx)
	rec := r.rec

	if rec.State != models.DECLINED {
		c.transition(ctx, r, models.DECLINED, cause)
	}

	if rec.ProviderOrderID != "" && !r.applied(stepCancelOrder) {
		err := c.gateway.CancelOrder(ctx, rec.ProviderOrderID, rec.ProviderOrderVersion)
		metrics.Compensations.WithLabelValues(stepCancelOrder, metrics.Result(err)).Inc()
		if err != nil {
			r.log.Warn("failed to cancel provider order", "order_id", rec.ProviderOrderID, "error", err)
			c.raise(ctx, r, alerts.Warning, "provider order left open",
				fmt.Sprintf("cancel of order %s failed: %v", rec.ProviderOrderID, err))
		} else {
			rec.CompensationsApplied = append(rec.CompensationsApplied, stepCancelOrder)
		}
	}

	if rec.CreditSnapshot != nil && rec.CreditAmount > 0 && !r.applied(stepRefundCredit) {
		err := c.ledger.Refund(ctx, rec.CreditSnapshot, rec.CreditAmount, rec.ReferenceID)
		if errors.Is(err, ledger.ErrAlreadyRefunded) {
			r.log.Info("store credit already refunded", "code", rec.CreditCode)
			err = nil
		}
		metrics.Compensations.WithLabelValues(stepRefundCredit, metrics.Result(err)).Inc()
		if err != nil {
			r.log.Error("CRITICAL: store credit refund failed, credit stranded",
				"code", rec.CreditCode, "amount", rec.CreditAmount, "error", err)
			c.transition(ctx, r, models.COMPENSATION_FAILED, err)
			c.raise(ctx, r, alerts.Page, "store credit refund failed",
				fmt.Sprintf("refund of %d to credit %s failed: %v", rec.CreditAmount, rec.CreditCode, err))
			return fmt.Errorf("%w: %v", ErrCompensationFailed, err)
		}
		rec.CompensationsApplied = append(rec.CompensationsApplied, stepRefundCredit)
		c.transition(ctx, r, models.REFUNDED, nil)
	}

	c.transition(ctx, r, models.DONE, nil)
	return nil
}

// notify runs the notification fan-out for a paid saga. Failures never
// change the outcome; they raise one warning alert.
func (c *Coordinator) notify(ctx context.Context, r *run, req Request, res Result) {
	rec := r.rec
	n := notify.Notification{
		ReferenceID:   rec.ReferenceID,
		Total:         rec.RequestedTotal,
		CreditCode:    rec.CreditCode,
		CreditAmount:  rec.CreditAmount,
		ChargedAmount: res.ChargedAmount,
		Last4:         res.Last4,
		ReceiptURL:    res.ReceiptURL,
		Customer:      req.Customer,
		FulfillmentAt: req.FulfillmentAt,
		Fulfillment:   req.Fulfillment,
		PaidAt:        c.now().UTC(),
	}

	if err := c.dispatcher.Dispatch(ctx, n); err != nil {
		r.log.Warn("notifications failed for paid order", "error", err)
		c.raise(ctx, r, alerts.Warning, "order notifications failed", err.Error())
	}

	ctx = context.WithoutCancel(ctx)
	c.transition(ctx, r, models.NOTIFIED, nil)
	c.transition(ctx, r, models.DONE, nil)
}

// transition moves the saga to next and persists it. Persistence failures
// are logged and do not stop the saga.
func (c *Coordinator) transition(ctx context.Context, r *run, next models.SagaState, cause error) {
	rec := r.rec
	rec.State = next
	rec.UpdatedAt = c.now().UTC()
	if cause != nil {
		rec.Errors = append(rec.Errors, cause.Error())
	}

	if err := c.sagas.SaveSaga(ctx, rec, r.stored); err != nil {
		r.log.Error("failed to persist saga state", "state", next, "error", err)
		return
	}
	r.stored = next
}

func (c *Coordinator) raise(ctx context.Context, r *run, severity alerts.Severity, subject, detail string) {
	err := c.alerter.Alert(context.WithoutCancel(ctx), alerts.Alert{
		Severity:    severity,
		Subject:     subject,
		ReferenceID: r.rec.ReferenceID,
		Detail:      detail,
		At:          c.now().UTC(),
	})
	if err != nil {
		r.log.Error("failed to raise operator alert", "severity", severity, "subject", subject, "error", err)
	}
}
