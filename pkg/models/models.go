package models

import (
	"encoding/json"
	"slices"
	"time"
)

// CreditType defines how a store credit is redeemed.
type CreditType string

const (
	// MONEY credits are redeemable like cash.
	MONEY CreditType = "MONEY"
	// DISCOUNT credits are deducted before tax.
	DISCOUNT CreditType = "DISCOUNT"
)

// Valid reports whether t is a known credit type.
func (t CreditType) Valid() bool {
	return t == MONEY || t == DISCOUNT
}

// Money is an amount in minor units of a currency.
type Money struct {
	Amount   int64  `json:"amount" dynamodbav:"amount"`
	Currency string `json:"currency" dynamodbav:"currency"`
}

// CreditEntry is a persisted store-credit voucher.
// Balance only changes through the ledger's Spend and Refund.
type CreditEntry struct {
	Code             string     `dynamodbav:"code"`
	Type             CreditType `dynamodbav:"type"`
	InitialValue     Money      `dynamodbav:"initial_value"`
	Balance          Money      `dynamodbav:"balance"`
	Names            []string   `dynamodbav:"names"`
	AssociatedOrders []string   `dynamodbav:"associated_orders"`
	CreatedAt        time.Time  `dynamodbav:"created_at"`
	LastUsedAt       *time.Time `dynamodbav:"last_used_at,omitempty"`
	Version          int64      `dynamodbav:"version"`
}

// Clone returns a deep copy so snapshots are not aliased by later mutation.
func (e *CreditEntry) Clone() *CreditEntry {
	if e == nil {
		return nil
	}
	c := *e
	c.Names = slices.Clone(e.Names)
	c.AssociatedOrders = slices.Clone(e.AssociatedOrders)
	if e.LastUsedAt != nil {
		t := *e.LastUsedAt
		c.LastUsedAt = &t
	}
	return &c
}

// HasOrder reports whether referenceID has debited this entry.
func (e *CreditEntry) HasOrder(referenceID string) bool {
	return slices.Contains(e.AssociatedOrders, referenceID)
}

// ActivityKind distinguishes debits from compensating refunds in the credit log.
type ActivityKind string

const (
	DEBIT  ActivityKind = "DEBIT"
	REFUND ActivityKind = "REFUND"
)

// CreditActivity is one row of a credit's transaction log.
type CreditActivity struct {
	EntryID      string       `dynamodbav:"entry_id"`
	Code         string       `dynamodbav:"code"`
	ReferenceID  string       `dynamodbav:"reference_id"`
	Kind         ActivityKind `dynamodbav:"kind"`
	Amount       int64        `dynamodbav:"amount"`
	BalanceAfter int64        `dynamodbav:"balance_after"`
	Actor        string       `dynamodbav:"actor,omitempty"`
	Timestamp    time.Time    `dynamodbav:"timestamp"`
}

// SagaState is the lifecycle state of one order settlement.
type SagaState string

const (
	PROPOSED            SagaState = "PROPOSED"
	CREDIT_RESERVED     SagaState = "CREDIT_RESERVED"
	CHARGING            SagaState = "CHARGING"
	PAID                SagaState = "PAID"
	DECLINED            SagaState = "DECLINED"
	REFUNDED            SagaState = "REFUNDED"
	CREDIT_DEBIT_FAILED SagaState = "CREDIT_DEBIT_FAILED"
	COMPENSATION_FAILED SagaState = "COMPENSATION_FAILED"
	NOTIFIED            SagaState = "NOTIFIED"
	DONE                SagaState = "DONE"
)

// Terminal reports whether no further transition is expected from s.
func (s SagaState) Terminal() bool {
	switch s {
	case DONE, CREDIT_DEBIT_FAILED, COMPENSATION_FAILED:
		return true
	}
	return false
}

// SagaRecord is the durable trace of an order settlement, written before each external call.
type SagaRecord struct {
	ReferenceID          string       `dynamodbav:"reference_id"`
	State                SagaState    `dynamodbav:"state"`
	RequestedTotal       Money        `dynamodbav:"requested_total"`
	RemainingBalance     int64        `dynamodbav:"remaining_balance"`
	CreditCode           string       `dynamodbav:"credit_code,omitempty"`
	CreditAmount         int64        `dynamodbav:"credit_amount,omitempty"`
	CreditSnapshot       *CreditEntry `dynamodbav:"credit_snapshot,omitempty"`
	ProviderOrderID      string       `dynamodbav:"provider_order_id,omitempty"`
	ProviderOrderVersion int64        `dynamodbav:"provider_order_version,omitempty"`
	PaymentID            string       `dynamodbav:"payment_id,omitempty"`
	Paid                 bool         `dynamodbav:"paid"`
	CompensationsApplied []string     `dynamodbav:"compensations_applied,omitempty"`
	Errors               []string     `dynamodbav:"errors,omitempty"`
	CreatedAt            time.Time    `dynamodbav:"created_at"`
	UpdatedAt            time.Time    `dynamodbav:"updated_at"`
	TTL                  int64        `dynamodbav:"ttl,omitempty"`
}

// CalendarEvent is the scheduling record written for a paid order.
type CalendarEvent struct {
	ReferenceID   string          `dynamodbav:"reference_id"`
	StartsAt      time.Time       `dynamodbav:"starts_at"`
	Summary       string          `dynamodbav:"summary"`
	CustomerName  string          `dynamodbav:"customer_name,omitempty"`
	CustomerEmail string          `dynamodbav:"customer_email,omitempty"`
	Fulfillment   json.RawMessage `dynamodbav:"fulfillment,omitempty"`
	CreatedAt     time.Time       `dynamodbav:"created_at"`
}
