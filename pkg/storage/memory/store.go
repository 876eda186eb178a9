// Package memory is an in-process implementation of the storage interfaces,
// used for local development and tests. It honours the same conditional-write
// semantics as the DynamoDB store.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/chris/store-credit-checkout/pkg/models"
	"github.com/chris/store-credit-checkout/pkg/storage"
)

type activityKey struct {
	code    string
	entryID string
}

// Store keeps every table in maps guarded by a single mutex.
type Store struct {
	mu       sync.Mutex
	credits  map[string]*models.CreditEntry
	activity map[activityKey]models.CreditActivity
	sagas    map[string]*models.SagaRecord
	calendar map[string]models.CalendarEvent
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		credits:  make(map[string]*models.CreditEntry),
		activity: make(map[activityKey]models.CreditActivity),
		sagas:    make(map[string]*models.SagaRecord),
		calendar: make(map[string]models.CalendarEvent),
	}
}

var _ storage.Storage = (*Store)(nil)

func (s *Store) CreateCredit(_ context.Context, entry *models.CreditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.credits[entry.Code]; ok {
		return fmt.Errorf("credit %s: %w", entry.Code, storage.ErrCreditExists)
	}
	s.credits[entry.Code] = entry.Clone()
	return nil
}

func (s *Store) GetCredit(_ context.Context, code string) (*models.CreditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.credits[code]
	if !ok {
		return nil, fmt.Errorf("credit %s: %w", code, storage.ErrCreditNotFound)
	}
	return entry.Clone(), nil
}

func (s *Store) DebitCredit(_ context.Context, req storage.DebitRequest) (*models.CreditActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.credits[req.Code]
	if !ok || entry.Balance.Amount != req.ExpectedBalance {
		return nil, fmt.Errorf("credit %s: %w", req.Code, storage.ErrBalanceConflict)
	}
	key := activityKey{req.Code, string(models.DEBIT) + "#" + req.ReferenceID}
	if _, dup := s.activity[key]; dup {
		return nil, fmt.Errorf("credit %s already debited for %s: %w", req.Code, req.ReferenceID, storage.ErrBalanceConflict)
	}

	at := req.At
	entry.Balance.Amount -= req.Amount
	entry.AssociatedOrders = append(entry.AssociatedOrders, req.ReferenceID)
	if req.Actor != "" {
		entry.Names = append(entry.Names, req.Actor)
	}
	entry.LastUsedAt = &at
	entry.Version++

	activity := models.CreditActivity{
		EntryID:      key.entryID,
		Code:         req.Code,
		ReferenceID:  req.ReferenceID,
		Kind:         models.DEBIT,
		Amount:       req.Amount,
		BalanceAfter: entry.Balance.Amount,
		Actor:        req.Actor,
		Timestamp:    req.At,
	}
	s.activity[key] = activity
	return &activity, nil
}

func (s *Store) RefundCredit(_ context.Context, req storage.RefundRequest) (*models.CreditActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.credits[req.Code]
	if !ok {
		return nil, fmt.Errorf("credit %s: %w", req.Code, storage.ErrCreditNotFound)
	}
	key := activityKey{req.Code, string(models.REFUND) + "#" + req.ReferenceID}
	if _, done := s.activity[key]; done {
		return nil, fmt.Errorf("credit %s for %s: %w", req.Code, req.ReferenceID, storage.ErrAlreadyRefunded)
	}
	idx := slices.Index(entry.AssociatedOrders, req.ReferenceID)
	if idx < 0 || entry.Balance.Amount+req.Amount > req.Ceiling {
		return nil, fmt.Errorf("credit %s for %s: %w", req.Code, req.ReferenceID, storage.ErrNothingToRefund)
	}

	entry.Balance.Amount += req.Amount
	entry.AssociatedOrders = slices.Delete(entry.AssociatedOrders, idx, idx+1)
	entry.Version++

	activity := models.CreditActivity{
		EntryID:      key.entryID,
		Code:         req.Code,
		ReferenceID:  req.ReferenceID,
		Kind:         models.REFUND,
		Amount:       req.Amount,
		BalanceAfter: entry.Balance.Amount,
		Timestamp:    req.At,
	}
	s.activity[key] = activity
	return &activity, nil
}

func (s *Store) ListCreditActivity(_ context.Context, code string, limit int32) ([]models.CreditActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := []models.CreditActivity{}
	for k, row := range s.activity {
		if k.code == code {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].EntryID > rows[j].EntryID
		}
		return rows[i].Timestamp.After(rows[j].Timestamp)
	})
	if limit > 0 && int(limit) < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) BeginSaga(_ context.Context, rec *models.SagaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sagas[rec.ReferenceID]; ok {
		return fmt.Errorf("saga %s already exists: %w", rec.ReferenceID, storage.ErrSagaStateConflict)
	}
	s.sagas[rec.ReferenceID] = cloneSaga(rec)
	return nil
}

func (s *Store) SaveSaga(_ context.Context, rec *models.SagaRecord, expected models.SagaState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sagas[rec.ReferenceID]
	if !ok || current.State != expected {
		return fmt.Errorf("saga %s not in state %s: %w", rec.ReferenceID, expected, storage.ErrSagaStateConflict)
	}
	s.sagas[rec.ReferenceID] = cloneSaga(rec)
	return nil
}

func (s *Store) GetSaga(_ context.Context, referenceID string) (*models.SagaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sagas[referenceID]
	if !ok {
		return nil, fmt.Errorf("saga %s: %w", referenceID, storage.ErrSagaNotFound)
	}
	return cloneSaga(rec), nil
}

func (s *Store) ListStaleSagas(_ context.Context, states []models.SagaState, olderThan time.Duration) ([]models.SagaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var out []models.SagaRecord
	for _, rec := range s.sagas {
		if slices.Contains(states, rec.State) && rec.UpdatedAt.Before(cutoff) {
			out = append(out, *cloneSaga(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReferenceID < out[j].ReferenceID })
	return out, nil
}

func (s *Store) PutCalendarEvent(_ context.Context, event *models.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.calendar[event.ReferenceID]; !ok {
		s.calendar[event.ReferenceID] = *event
	}
	return nil
}

// CalendarEvent returns the recorded event for a reference, if any.
func (s *Store) CalendarEvent(referenceID string) (models.CalendarEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.calendar[referenceID]
	return event, ok
}

func cloneSaga(rec *models.SagaRecord) *models.SagaRecord {
	c := *rec
	c.CreditSnapshot = rec.CreditSnapshot.Clone()
	c.CompensationsApplied = slices.Clone(rec.CompensationsApplied)
	c.Errors = slices.Clone(rec.Errors)
	return &c
}
