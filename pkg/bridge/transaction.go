// Package bridge holds the domain model for cross-chain bridge transactions
// and the status state machine that governs their lifecycle.
package bridge

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a bridge transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusInitiated Status = "initiated"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists all known statuses, in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInitiated, StatusCompleted, StatusFailed, StatusCancelled}
}

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInitiated, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits s -> next.
// pending -> initiated | cancelled; initiated -> completed | failed | cancelled.
// Terminal states permit nothing.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusInitiated || next == StatusCancelled
	case StatusInitiated:
		return next == StatusCompleted || next == StatusFailed || next == StatusCancelled
	}
	return false
}

// Cancellable reports whether a transaction in this status may still be
// cancelled by its owner.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusInitiated
}

// Transaction is the central record of a bridge request. Identity, amounts
// and routing are immutable after creation; only Status, SubmissionRef and
// the cancellation fields change over the lifecycle.
type Transaction struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"ownerId"`
	TokenAddress  string          `json:"tokenAddress"`
	Amount        decimal.Decimal `json:"amount"`
	SourceChain   int64           `json:"sourceChain"`
	TargetChain   int64           `json:"targetChain"`
	TargetAddress string          `json:"targetAddress"`
	Status        Status          `json:"status"`
	BridgeFee     decimal.Decimal `json:"bridgeFee"`
	GasEstimate   decimal.Decimal `json:"gasEstimate"`
	// SubmissionRef is the chain-client handle (transaction hash) obtained on
	// successful submission. Empty until the record reaches initiated.
	SubmissionRef      string     `json:"submissionRef,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
}

// New creates a pending transaction with a fresh id.
func New(ownerID, tokenAddress string, amount decimal.Decimal, sourceChain, targetChain int64, targetAddress string, fee, gasEstimate decimal.Decimal) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		TokenAddress:  tokenAddress,
		Amount:        amount,
		SourceChain:   sourceChain,
		TargetChain:   targetChain,
		TargetAddress: targetAddress,
		Status:        StatusPending,
		BridgeFee:     fee,
		GasEstimate:   gasEstimate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
