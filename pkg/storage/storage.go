package storage

import (
	"context"
	"time"

	"github.com/chris/store-credit-checkout/pkg/models"
)

// DebitRequest describes a conditional decrement of a credit's balance.
// The write only applies while the stored balance still equals ExpectedBalance.
type DebitRequest struct {
	Code            string
	ReferenceID     string
	Amount          int64
	ExpectedBalance int64
	Actor           string
	At              time.Time
}

// RefundRequest describes a compensating increment of a credit's balance.
type RefundRequest struct {
	Code        string
	ReferenceID string
	Amount      int64
	// Ceiling is the highest balance the refund may produce.
	Ceiling int64
	At      time.Time
}

// CreditStore persists store-credit entries and their activity log.
type CreditStore interface {
	GetCredit(ctx context.Context, code string) (*models.CreditEntry, error)
	CreateCredit(ctx context.Context, entry *models.CreditEntry) error
	// DebitCredit applies req atomically with a DEBIT activity row and returns that row.
	DebitCredit(ctx context.Context, req DebitRequest) (*models.CreditActivity, error)
	// RefundCredit applies req atomically with a REFUND activity row keyed by (code, reference).
	RefundCredit(ctx context.Context, req RefundRequest) (*models.CreditActivity, error)
	ListCreditActivity(ctx context.Context, code string, limit int32) ([]models.CreditActivity, error)
}

// SagaLog persists the state of order settlements.
type SagaLog interface {
	// BeginSaga stores a new record and fails if the reference id is already taken.
	BeginSaga(ctx context.Context, rec *models.SagaRecord) error
	// SaveSaga overwrites rec only while the stored state equals expected.
	SaveSaga(ctx context.Context, rec *models.SagaRecord, expected models.SagaState) error
	GetSaga(ctx context.Context, referenceID string) (*models.SagaRecord, error)
	// ListStaleSagas returns sagas in any of states whose last update is older than olderThan.
	ListStaleSagas(ctx context.Context, states []models.SagaState, olderThan time.Duration) ([]models.SagaRecord, error)
}

// CalendarStore records scheduled fulfilment events for paid orders.
type CalendarStore interface {
	PutCalendarEvent(ctx context.Context, event *models.CalendarEvent) error
}

// Storage composes every storage operation. Components should depend on the
// granular interfaces instead of this one.
type Storage interface {
	CreditStore
	SagaLog
	CalendarStore
}
