package storage

import "errors"

// ErrCreditNotFound is returned when no credit entry exists for a code.
var ErrCreditNotFound = errors.New("credit not found")

// ErrCreditExists is returned when creating a credit whose code is already taken.
var ErrCreditExists = errors.New("credit already exists")

// ErrBalanceConflict is returned when a debit's expected balance no longer matches the stored one.
var ErrBalanceConflict = errors.New("credit balance changed")

// ErrAlreadyRefunded is returned when a refund for the same code and reference was already applied.
var ErrAlreadyRefunded = errors.New("credit already refunded for reference")

// ErrNothingToRefund is returned when the reference never debited the credit, or the refund would exceed the ceiling.
var ErrNothingToRefund = errors.New("no debit to refund for reference")

// ErrSagaNotFound is returned when no saga exists for a reference id.
var ErrSagaNotFound = errors.New("saga not found")

// ErrSagaStateConflict is returned when a saga write races with another writer.
var ErrSagaStateConflict = errors.New("saga state conflict")
