package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/chris/store-credit-checkout/pkg/alerts"
	alertmocks "github.com/chris/store-credit-checkout/pkg/alerts/mocks"
	"github.com/chris/store-credit-checkout/pkg/ledger"
	ledgermocks "github.com/chris/store-credit-checkout/pkg/ledger/mocks"
	"github.com/chris/store-credit-checkout/pkg/locktoken"
	"github.com/chris/store-credit-checkout/pkg/models"
	"github.com/chris/store-credit-checkout/pkg/notify"
	notifymocks "github.com/chris/store-credit-checkout/pkg/notify/mocks"
	"github.com/chris/store-credit-checkout/pkg/payments"
	paymentmocks "github.com/chris/store-credit-checkout/pkg/payments/mocks"
	"github.com/chris/store-credit-checkout/pkg/storage"
	"github.com/chris/store-credit-checkout/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testRef = "01JREF"

type harness struct {
	coordinator *Coordinator
	ledger      *ledger.Ledger
	store       *memory.Store
	gateway     *paymentmocks.Gateway
	alerter     *alertmocks.Alerter
	notifier    *notifymocks.Notifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sealer, err := locktoken.NewSealer("test-secret", 0)
	require.NoError(t, err)

	h := &harness{
		store:    memory.New(),
		gateway:  paymentmocks.NewGateway(t),
		alerter:  alertmocks.NewAlerter(t),
		notifier: notifymocks.NewNotifier(t),
	}
	h.notifier.On("Name").Return("customer_email").Maybe()
	h.ledger = ledger.New(h.store, sealer)
	h.coordinator = New(h.ledger, h.gateway, h.store, notify.NewDispatcher(time.Second, h.notifier), h.alerter,
		WithIDGenerator(func() string { return testRef }))
	return h
}

func (h *harness) issue(t *testing.T, code string, amount int64) locktoken.Token {
	t.Helper()
	ctx := context.Background()
	_, err := h.ledger.Issue(ctx, ledger.IssueRequest{Code: code, Type: models.MONEY, Amount: amount, Currency: "USD"})
	require.NoError(t, err)
	v, err := h.ledger.ValidateAndLock(ctx, code)
	require.NoError(t, err)
	return v.Lock
}

func (h *harness) credit(t *testing.T, code string) *models.CreditEntry {
	t.Helper()
	entry, err := h.ledger.Get(context.Background(), code)
	require.NoError(t, err)
	return entry
}

func (h *harness) saga(t *testing.T, ref string) *models.SagaRecord {
	t.Helper()
	rec, err := h.store.GetSaga(context.Background(), ref)
	require.NoError(t, err)
	return rec
}

func severity(s alerts.Severity) any {
	return mock.MatchedBy(func(a alerts.Alert) bool { return a.Severity == s && a.ReferenceID != "" })
}

func splitOrder(lock locktoken.Token) Request {
	return Request{
		TotalAmount: 2500,
		Currency:    "USD",
		Credit:      &CreditPayment{Code: "GIFT-2000", Amount: 1000, Lock: lock},
		CardNonce:   "cnon:card-nonce-ok",
		Customer:    notify.Customer{Name: "Ada", Email: "ada@example.com"},
	}
}

func TestSettle(t *testing.T) {
	ctx := context.Background()

	t.Run("Credit And Card Paid", func(t *testing.T) {
		h := newHarness(t)
		lock := h.issue(t, "GIFT-2000", 2000)

		h.gateway.On("CreateOrder", mock.Anything, payments.CreateOrderRequest{
			ReferenceID: testRef, Amount: 1500, Currency: "USD", Note: "Order " + testRef,
		}).Return(&payments.ProviderOrder{ID: "sq-order-1", Version: 1}, nil).Once()
		h.gateway.On("Charge", mock.Anything, payments.ChargeRequest{
			Nonce: "cnon:card-nonce-ok", Amount: 1500, Currency: "USD", ReferenceID: testRef, OrderID: "sq-order-1",
		}).Return(&payments.ChargeResult{Outcome: payments.APPROVED, PaymentID: "pay-1", Last4: "4242", ReceiptURL: "https://receipt"}, nil).Once()
		h.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n notify.Notification) bool {
			return n.ReferenceID == testRef && n.CreditAmount == 1000 && n.ChargedAmount == 1500 && n.Last4 == "4242"
		})).Return(nil).Once()

		res := h.coordinator.Settle(ctx, splitOrder(lock))

		require.NoError(t, res.Err)
		assert.Equal(t, Paid, res.Kind)
		assert.True(t, res.Paid)
		assert.Equal(t, int64(1000), res.CreditAmount)
		assert.Equal(t, int64(1500), res.ChargedAmount)
		assert.Equal(t, "4242", res.Last4)
		assert.Equal(t, "https://receipt", res.ReceiptURL)

		assert.Equal(t, int64(1000), h.credit(t, "GIFT-2000").Balance.Amount)
		rec := h.saga(t, testRef)
		assert.Equal(t, models.DONE, rec.State)
		assert.True(t, rec.Paid)
		assert.Equal(t, "pay-1", rec.PaymentID)
		assert.Equal(t, int64(1500), rec.RemainingBalance)
	})

	t.Run("Card Only", func(t *testing.T) {
		h := newHarness(t)
		h.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(&payments.ProviderOrder{ID: "sq-order-1", Version: 1}, nil).Once()
		h.gateway.On("Charge", mock.Anything, mock.Anything).Return(&payments.ChargeResult{Outcome: payments.APPROVED, Last4: "1111"}, nil).Once()
		h.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Once()

		res := h.coordinator.Settle(ctx, Request{TotalAmount: 1000, Currency: "USD", CardNonce: "cnon:ok"})

		assert.Equal(t, Paid, res.Kind)
		assert.Equal(t, int64(1000), res.ChargedAmount)
		assert.Zero(t, res.CreditAmount)
	})

	t.Run("Full Credit Coverage Skips Card", func(t *testing.T) {
		h := newHarness(t)
		lock := h.issue(t, "GIFT-1800", 1800)
		h.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Once()

		res := h.coordinator.Settle(ctx, Request{
			TotalAmount: 1800,
			Currency:    "USD",
			Credit:      &CreditPayment{Code: "GIFT-1800", Amount: 1800, Lock: lock},
		})

		assert.Equal(t, Paid, res.Kind)
		assert.Zero(t, res.ChargedAmount)
		assert.Equal(t, int64(1800), res.CreditAmount)
		assert.Zero(t, h.credit(t, "GIFT-1800").Balance.Amount)
		h.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
		h.gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
	})

	t.Run("Card Declined Restores Credit", func(t *testing.T) {
		h := newHarness(t)
		lock := h.issue(t, "GIFT-2000", 2000)
		detail := json.RawMessage(`{"errors":[{"code":"CARD_DECLINED"}]}`)

		h.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(&payments.ProviderOrder{ID: "sq-order-1", Version: 3}, nil).Once()
		h.gateway.On("Charge", mock.Anything, mock.Anything).Return(&payments.ChargeResult{
			Outcome: payments.DECLINED, DeclineReason: "CARD_DECLINED", Detail: detail,
		}, nil).Once()
		h.gateway.On("CancelOrder", mock.Anything, "sq-order-1", int64(3)).Return(nil).Once()

		res := h.coordinator.Settle(ctx, splitOrder(lock))

		assert.Equal(t, Declined, res.Kind)
		assert.False(t, res.Paid)
		require.NotNil(t, res.Decline)
		assert.Equal(t, "CARD_DECLINED", res.Decline.Reason)
		assert.JSONEq(t, string(detail), string(res.Decline.Detail))

		entry := h.credit(t, "GIFT-2000")
		assert.Equal(t, int64(2000), entry.Balance.Amount)
		assert.Empty(t, entry.AssociatedOrders)

		rec := h.saga(t, testRef)
		assert.Equal(t, models.DONE, rec.State)
		assert.Equal(t, []string{stepCancelOrder, stepRefundCredit}, rec.CompensationsApplied)
		h.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("Create Order Rejected", func(t *testing.T) {
		h := newHarness(t)
		lock := h.issue(t, "GIFT-2000", 2000)
		detail := json.RawMessage(`{"errors":[{"code":"INVALID_LOCATION"}]}`)
		h.gateway.On("CreateOrder", mock.Anything, mock.Anything).
			Return(nil, &payments.DeclineError{StatusCode: 400, Code: "INVALID_LOCATION", Detail: detail}).Once()

		res := h.coordinator.Settle(ctx, splitOrder(lock))

		assert.Equal(t, Declined, res.Kind)
		assert.Equal(t, "INVALID_LOCATION", res.Decline.Reason)
		assert.JSONEq(t, string(detail), string(res.Decline.Detail))
		assert.Equal(t, int64(2000), h.credit(t, "GIFT-2000").Balance.Amount)
		h.gateway.AssertNotCalled(t, "CancelOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing Card Nonce", func(t *testing.T) {
		h := newHarness(t)
		lock := h.issue(t, "GIFT-2000", 2000)
		req := splitOrder(lock)
		req.CardNonce = ""

		res := h.coordinator.Settle(ctx, req)

		assert.Equal(t, Declined, res.Kind)
		assert.Equal(t, "missing card nonce", res.Decline.Reason)
		assert.Equal(t, int64(2000), h.credit(t, "GIFT-2000").Balance.Amount)
	})

	t.Run("Processor Unavailable Warns", func(t *testing.T) {
		h := newHarness(t)
		lock := h.issue(t, "GIFT-2000", 2000)
		h.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(&payments.ProviderOrder{ID: "sq-order-1", Version: 1}, nil).Once()
		h.gateway.On("Charge", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("charge timed out: %w", payments.ErrProcessorUnavailable)).Once()
		h.gateway.On("CancelOrder", mock.Anything, "sq-order-1", int64(1)).Return(nil).Once()
		h.alerter.On("Alert", mock.Anything, severity(alerts.Warning)).Return(nil).Once()

		res := h.coordinator.Settle(ctx, splitOrder(lock))

		assert.Equal(t, Declined, res.Kind)
		assert.Equal(t, int64(2000), h.credit(t, "GIFT-2000").Balance.Amount)
	})

	t.Run("Cancel Failure Warns And Still Refunds", func(t *testing.T) {
		h := newHarness(t)
		lock := h.issue(t, "GIFT-2000", 2000)
		h.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(&payments.ProviderOrder{ID: "sq-order-1", Version: 1}, nil).Once()
		h.gateway.On("Charge", mock.Anything, mock.Anything).Return(&payments.ChargeResult{Outcome: payments.DECLINED}, nil).Once()
		h.gateway.On("CancelOrder", mock.Anything, "sq-order-1", int64(1)).
			Return(fmt.Errorf("cancel: %w", payments.ErrProcessorUnavailable)).Once()
		h.alerter.On("Alert", mock.Anything, severity(alerts.Warning)).Return(nil).Once()

		res := h.coordinator.Settle(ctx, splitOrder(lock))

		assert.Equal(t, Declined, res.Kind)
		assert.Equal(t, "card declined", res.Decline.Reason)
		assert.Equal(t, int64(2000), h.credit(t, "GIFT-2000").Balance.Amount)
		assert.Equal(t, []string{stepRefundCredit}, h.saga(t, testRef).CompensationsApplied)
	})

	t.Run("Credit Debit Failed", func(t *testing.T) {
		h := newHarness(t)
		lock := h.issue(t, "GIFT-2000", 2000)
		lock.Auth = "AAAAAAAAAAAAAAAAAAAAAA"

		res := h.coordinator.Settle(ctx, splitOrder(lock))

		assert.Equal(t, CreditDebitFailed, res.Kind)
		assert.ErrorIs(t, res.Err, ledger.ErrInvalidLock)
		assert.Equal(t, int64(2000), h.credit(t, "GIFT-2000").Balance.Amount)
		assert.Equal(t, models.CREDIT_DEBIT_FAILED, h.saga(t, testRef).State)
	})

	t.Run("Credit In Another Currency", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.ledger.Issue(ctx, ledger.IssueRequest{Code: "YEN-1000", Type: models.MONEY, Amount: 1000, Currency: "JPY"})
		require.NoError(t, err)
		v, err := h.ledger.ValidateAndLock(ctx, "YEN-1000")
		require.NoError(t, err)

		res := h.coordinator.Settle(ctx, Request{
			TotalAmount: 1000,
			Currency:    "USD",
			Credit:      &CreditPayment{Code: "YEN-1000", Amount: 1000, Lock: v.Lock},
		})

		assert.Equal(t, CreditDebitFailed, res.Kind)
		assert.False(t, res.Paid)
		assert.ErrorIs(t, res.Err, ledger.ErrCurrencyMismatch)
		assert.Equal(t, int64(1000), h.credit(t, "YEN-1000").Balance.Amount)
		assert.Equal(t, models.CREDIT_DEBIT_FAILED, h.saga(t, testRef).State)
		h.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("Stale Lock Is A Debit Failure", func(t *testing.T) {
		h := newHarness(t)
		lock := h.issue(t, "GIFT-2000", 2000)
		_, err := h.ledger.Spend(ctx, ledger.SpendRequest{Code: "GIFT-2000", Lock: lock, Amount: 100, Currency: "USD", ReferenceID: "other"})
		require.NoError(t, err)

		res := h.coordinator.Settle(ctx, splitOrder(lock))

		assert.Equal(t, CreditDebitFailed, res.Kind)
		assert.ErrorIs(t, res.Err, ledger.ErrBalanceMismatch)
		assert.Equal(t, int64(1900), h.credit(t, "GIFT-2000").Balance.Amount)
	})

	t.Run("Notification Failure Warns Once", func(t *testing.T) {
		h := newHarness(t)
		ops := notifymocks.NewNotifier(t)
		ops.On("Name").Return("ops_email").Maybe()
		ops.On("Notify", mock.Anything, mock.Anything).Return(errors.New("ses down")).Once()
		h.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("mailbox full")).Once()
		h.coordinator.dispatcher = notify.NewDispatcher(time.Second, h.notifier, ops)

		h.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(&payments.ProviderOrder{ID: "sq-order-1"}, nil).Once()
		h.gateway.On("Charge", mock.Anything, mock.Anything).Return(&payments.ChargeResult{Outcome: payments.APPROVED}, nil).Once()
		h.alerter.On("Alert", mock.Anything, severity(alerts.Warning)).Return(nil).Once()

		res := h.coordinator.Settle(ctx, Request{TotalAmount: 1000, Currency: "USD", CardNonce: "cnon:ok"})

		assert.Equal(t, Paid, res.Kind)
		assert.NoError(t, res.Err)
		assert.Equal(t, models.DONE, h.saga(t, testRef).State)
	})

	t.Run("Invalid Order", func(t *testing.T) {
		h := newHarness(t)

		for _, req := range []Request{
			{TotalAmount: 0, Currency: "USD"},
			{TotalAmount: 100},
			{TotalAmount: 100, Currency: "USD", Credit: &CreditPayment{Code: "GIFT", Amount: 200}},
		} {
			res := h.coordinator.Settle(ctx, req)
			assert.Equal(t, Failed, res.Kind)
			assert.ErrorIs(t, res.Err, ErrInvalidOrder)
		}
	})
}

type unavailableSagaLog struct {
	storage.SagaLog
}

func (unavailableSagaLog) BeginSaga(context.Context, *models.SagaRecord) error {
	return errors.New("dynamodb unavailable")
}

func TestSettleSagaLogUnavailable(t *testing.T) {
	credits := ledgermocks.NewCreditLedger(t)
	gateway := paymentmocks.NewGateway(t)
	c := New(credits, gateway, unavailableSagaLog{}, notify.NewDispatcher(0), alertmocks.NewAlerter(t))

	res := c.Settle(context.Background(), Request{
		TotalAmount: 1000,
		Currency:    "USD",
		Credit:      &CreditPayment{Code: "GIFT", Amount: 500},
		CardNonce:   "cnon:ok",
	})

	assert.Equal(t, Failed, res.Kind)
	assert.ErrorContains(t, res.Err, "failed to record settlement")
	credits.AssertNotCalled(t, "Spend", mock.Anything, mock.Anything)
}

func TestSettleCompensationFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	credits := ledgermocks.NewCreditLedger(t)
	gateway := paymentmocks.NewGateway(t)
	alerter := alertmocks.NewAlerter(t)
	c := New(credits, gateway, store, notify.NewDispatcher(0), alerter, WithIDGenerator(func() string { return testRef }))

	snapshot := &models.CreditEntry{Code: "GIFT-2000", Balance: models.Money{Amount: 2000, Currency: "USD"}}
	credits.On("Spend", mock.Anything, mock.MatchedBy(func(req ledger.SpendRequest) bool {
		return req.ReferenceID == testRef && req.Actor == "ada@example.com"
	})).Return(&ledger.SpendReceipt{Snapshot: snapshot, Spent: 1000, NewBalance: 1000}, nil).Once()
	credits.On("Refund", mock.Anything, snapshot, int64(1000), testRef).Return(errors.New("throttled")).Once()
	gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(&payments.ProviderOrder{ID: "sq-order-1"}, nil).Once()
	gateway.On("Charge", mock.Anything, mock.Anything).Return(&payments.ChargeResult{Outcome: payments.DECLINED}, nil).Once()
	gateway.On("CancelOrder", mock.Anything, "sq-order-1", int64(0)).Return(nil).Once()
	alerter.On("Alert", mock.Anything, severity(alerts.Page)).Return(nil).Once()

	res := c.Settle(ctx, splitOrder(locktoken.Token{}))

	assert.Equal(t, Failed, res.Kind)
	assert.ErrorIs(t, res.Err, ErrCompensationFailed)

	rec, err := store.GetSaga(ctx, testRef)
	require.NoError(t, err)
	assert.Equal(t, models.COMPENSATION_FAILED, rec.State)
	assert.Equal(t, []string{stepCancelOrder}, rec.CompensationsApplied)
}

func TestSettleCompensationDetachedFromCaller(t *testing.T) {
	h := newHarness(t)
	lock := h.issue(t, "GIFT-2000", 2000)
	ctx, cancel := context.WithCancel(context.Background())

	h.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(&payments.ProviderOrder{ID: "sq-order-1"}, nil).Once()
	h.gateway.On("Charge", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).
		Return(nil, fmt.Errorf("%w: %w", payments.ErrProcessorUnavailable, context.Canceled)).Once()
	live := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
	h.gateway.On("CancelOrder", live, "sq-order-1", int64(0)).Return(nil).Once()
	h.alerter.On("Alert", live, severity(alerts.Warning)).Return(nil).Once()

	res := h.coordinator.Settle(ctx, splitOrder(lock))

	assert.Equal(t, Declined, res.Kind)
	assert.Equal(t, int64(2000), h.credit(t, "GIFT-2000").Balance.Amount)
	assert.Equal(t, models.DONE, h.saga(t, testRef).State)
}
