// Package ledger owns store-credit balances. Balances only move through
// Spend, which requires a lock token minted by ValidateAndLock, and Refund.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chris/store-credit-checkout/pkg/locktoken"
	"github.com/chris/store-credit-checkout/pkg/metrics"
	"github.com/chris/store-credit-checkout/pkg/models"
	"github.com/chris/store-credit-checkout/pkg/storage"
	"github.com/google/uuid"
)

const refundAttempts = 3

// CreditLedger is the store-credit API used by checkout and the credit endpoints.
type CreditLedger interface {
	Issue(ctx context.Context, req IssueRequest) (*models.CreditEntry, error)
	Get(ctx context.Context, code string) (*models.CreditEntry, error)
	Activity(ctx context.Context, code string, limit int32) ([]models.CreditActivity, error)
	ValidateAndLock(ctx context.Context, code string) (*Validation, error)
	Spend(ctx context.Context, req SpendRequest) (*SpendReceipt, error)
	Refund(ctx context.Context, snapshot *models.CreditEntry, amount int64, referenceID string) error
}

// IssueRequest creates a new credit. An empty Code is generated.
type IssueRequest struct {
	Code     string
	Type     models.CreditType
	Amount   int64
	Currency string
	Names    []string
}

// Validation is the result of ValidateAndLock.
type Validation struct {
	Code    string
	Balance models.Money
	Type    models.CreditType
	Lock    locktoken.Token
}

// SpendRequest debits Amount from the credit identified by Code. Currency is
// the currency of the order the credit pays for and must match the credit's.
type SpendRequest struct {
	Code        string
	Lock        locktoken.Token
	Amount      int64
	Currency    string
	Actor       string
	ReferenceID string
}

// SpendReceipt describes a committed spend. Snapshot is the entry as it was
// before the debit and is what Refund needs to compensate it.
type SpendReceipt struct {
	Snapshot   *models.CreditEntry
	Spent      int64
	NewBalance int64
}

// Ledger implements CreditLedger over a CreditStore.
type Ledger struct {
	store  storage.CreditStore
	sealer *locktoken.Sealer
	now    func() time.Time
}

// New creates a Ledger.
func New(store storage.CreditStore, sealer *locktoken.Sealer) *Ledger {
	return &Ledger{store: store, sealer: sealer, now: time.Now}
}

var _ CreditLedger = (*Ledger)(nil)

func newCode() string {
	return "SC-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

func (l *Ledger) Issue(ctx context.Context, req IssueRequest) (*models.CreditEntry, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !req.Type.Valid() || req.Currency == "" {
		return nil, ErrInvalidCredit
	}
	code := req.Code
	if code == "" {
		code = newCode()
	}

	entry := &models.CreditEntry{
		Code:             code,
		Type:             req.Type,
		InitialValue:     models.Money{Amount: req.Amount, Currency: req.Currency},
		Balance:          models.Money{Amount: req.Amount, Currency: req.Currency},
		Names:            append([]string{}, req.Names...),
		AssociatedOrders: []string{},
		CreatedAt:        l.now().UTC(),
		Version:          1,
	}
	err := l.store.CreateCredit(ctx, entry)
	metrics.LedgerOperations.WithLabelValues("issue", metrics.Result(err)).Inc()
	if err != nil {
		if errors.Is(err, storage.ErrCreditExists) {
			return nil, ErrCodeExists
		}
		return nil, fmt.Errorf("failed to issue credit: %w", err)
	}
	return entry, nil
}

func (l *Ledger) Get(ctx context.Context, code string) (*models.CreditEntry, error) {
	entry, err := l.store.GetCredit(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrCreditNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get credit: %w", err)
	}
	return entry, nil
}

func (l *Ledger) Activity(ctx context.Context, code string, limit int32) ([]models.CreditActivity, error) {
	if _, err := l.Get(ctx, code); err != nil {
		return nil, err
	}
	rows, err := l.store.ListCreditActivity(ctx, code, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit activity: %w", err)
	}
	return rows, nil
}

// ValidateAndLock reports a credit's spendable balance together with a lock
// token binding that balance. It does not modify the credit.
func (l *Ledger) ValidateAndLock(ctx context.Context, code string) (*Validation, error) {
	entry, err := l.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if entry.Balance.Amount <= 0 {
		return nil, ErrNoBalance
	}

	lock, err := l.sealer.Seal(entry.Code, entry.Balance.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to seal credit lock: %w", err)
	}
	metrics.LedgerOperations.WithLabelValues("validate", "ok").Inc()

	return &Validation{
		Code:    entry.Code,
		Balance: entry.Balance,
		Type:    entry.Type,
		Lock:    lock,
	}, nil
}

// Spend debits a credit against the balance sealed into req.Lock.
func (l *Ledger) Spend(ctx context.Context, req SpendRequest) (*SpendReceipt, error) {
	receipt, err := l.spend(ctx, req)
	metrics.LedgerOperations.WithLabelValues("spend", metrics.Result(err)).Inc()
	return receipt, err
}

func (l *Ledger) spend(ctx context.Context, req SpendRequest) (*SpendReceipt, error) {
	claims, err := l.sealer.Open(req.Lock)
	if err != nil {
		return nil, ErrInvalidLock
	}
	if claims.Code != req.Code {
		return nil, ErrInvalidLock
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	current, err := l.Get(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if current.Balance.Currency != req.Currency {
		return nil, ErrCurrencyMismatch
	}
	if current.Balance.Amount != claims.Balance {
		return nil, ErrBalanceMismatch
	}
	if req.Amount > claims.Balance {
		return nil, ErrInsufficientFunds
	}

	activity, err := l.store.DebitCredit(ctx, storage.DebitRequest{
		Code:            req.Code,
		ReferenceID:     req.ReferenceID,
		Amount:          req.Amount,
		ExpectedBalance: claims.Balance,
		Actor:           req.Actor,
		At:              l.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrBalanceConflict) {
			return nil, ErrBalanceMismatch
		}
		return nil, fmt.Errorf("failed to debit credit: %w", err)
	}

	return &SpendReceipt{
		Snapshot:   current,
		Spent:      activity.Amount,
		NewBalance: activity.BalanceAfter,
	}, nil
}

// Refund returns amount to the credit in snapshot on behalf of referenceID.
// The balance is incremented rather than restored from the snapshot, so
// unrelated spends made in the meantime are preserved.
func (l *Ledger) Refund(ctx context.Context, snapshot *models.CreditEntry, amount int64, referenceID string) error {
	err := l.refund(ctx, snapshot, amount, referenceID)
	metrics.LedgerOperations.WithLabelValues("refund", metrics.Result(err)).Inc()
	return err
}

func (l *Ledger) refund(ctx context.Context, snapshot *models.CreditEntry, amount int64, referenceID string) error {
	if snapshot == nil || amount <= 0 {
		return ErrInvalidAmount
	}

	req := storage.RefundRequest{
		Code:        snapshot.Code,
		ReferenceID: referenceID,
		Amount:      amount,
		Ceiling:     snapshot.InitialValue.Amount,
	}

	var err error
	for attempt := 1; attempt <= refundAttempts; attempt++ {
		req.At = l.now().UTC()
		_, err = l.store.RefundCredit(ctx, req)
		if !errors.Is(err, storage.ErrBalanceConflict) {
			break
		}
		// The entry moved between the store's read and its conditional write.
		slog.Warn("credit refund raced with another write, retrying",
			"code", snapshot.Code, "reference_id", referenceID, "attempt", attempt)
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrAlreadyRefunded):
		return ErrAlreadyRefunded
	case errors.Is(err, storage.ErrNothingToRefund):
		return ErrNothingToRefund
	case errors.Is(err, storage.ErrCreditNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("failed to refund credit: %w", err)
	}
}
