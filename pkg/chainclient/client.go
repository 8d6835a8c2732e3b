// Package chainclient defines the capability interface the bridge
// orchestrator needs from the external chain infrastructure. Concrete
// implementations (and test fakes) satisfy Client; the orchestrator never
// depends on a specific chain technology.
package chainclient

import (
	"context"

	"github.com/shopspring/decimal"
)

// TransferStatus is the settlement state of a submitted transfer as
// reported by the chain.
type TransferStatus string

const (
	// TransferPending means the chain has not yet settled the transfer.
	TransferPending TransferStatus = "pending"
	// TransferConfirmed means the transfer settled successfully.
	TransferConfirmed TransferStatus = "confirmed"
	// TransferReverted means the transfer settled but failed on-chain.
	TransferReverted TransferStatus = "reverted"
)

// TransferRequest carries everything the chain side needs to move funds.
type TransferRequest struct {
	TransactionID string          `json:"transactionId"`
	OwnerID       string          `json:"ownerId"`
	TokenAddress  string          `json:"token"`
	Amount        decimal.Decimal `json:"amount"`
	SourceChain   int64           `json:"sourceChain"`
	TargetChain   int64           `json:"targetChain"`
	TargetAddress string          `json:"targetAddress"`
}

// Client is the external chain capability surface.
//
// TokenBalance and SubmitTransfer are the only calls on the initiate path
// that wait on chain infrastructure; both respect ctx deadlines.
type Client interface {
	// TokenBalance returns the owner's balance of token on the given chain,
	// in token units.
	TokenBalance(ctx context.Context, owner, token string, chainID int64) (decimal.Decimal, error)
	// SubmitTransfer hands the transfer to the chain side and returns an
	// opaque submission reference (transaction hash).
	SubmitTransfer(ctx context.Context, req TransferRequest) (string, error)
	// TransferStatus queries settlement state for a submission reference.
	TransferStatus(ctx context.Context, ref string, chainID int64) (TransferStatus, error)
	// CancelTransfer asks the chain side to cancel or reverse an in-flight
	// transfer. Best-effort: the transfer may already be irreversible.
	CancelTransfer(ctx context.Context, ref, reason string) error
}
