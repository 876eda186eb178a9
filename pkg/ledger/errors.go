package ledger

import "errors"

var (
	// ErrNotFound is returned when no credit exists for a code.
	ErrNotFound = errors.New("credit not found")
	// ErrNoBalance is returned when validating a credit that has nothing left to spend.
	ErrNoBalance = errors.New("credit has no balance")
	// ErrInvalidLock is returned when a lock token fails authentication, has expired or names another code.
	ErrInvalidLock = errors.New("invalid credit lock")
	// ErrBalanceMismatch is returned when the balance moved since the lock was issued.
	ErrBalanceMismatch = errors.New("credit balance changed since lock was issued")
	// ErrCurrencyMismatch is returned when a credit is spent on an order in another currency.
	ErrCurrencyMismatch = errors.New("credit currency does not match order currency")
	// ErrInsufficientFunds is returned when the spend exceeds the locked balance.
	ErrInsufficientFunds = errors.New("insufficient credit balance")
	// ErrInvalidAmount is returned for non-positive amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidCredit is returned when issuing a credit with an unknown type or no currency.
	ErrInvalidCredit = errors.New("invalid credit")
	// ErrCodeExists is returned when issuing a credit under a code that is already taken.
	ErrCodeExists = errors.New("credit code already exists")
	// ErrAlreadyRefunded is returned when the reference was already refunded to the credit.
	ErrAlreadyRefunded = errors.New("credit already refunded for reference")
	// ErrNothingToRefund is returned when the reference never debited the credit.
	ErrNothingToRefund = errors.New("nothing to refund for reference")
)
