package bridge

import (
	"github.com/shopspring/decimal"
)

// InitiateRequest is a validated request to move tokens across chains.
// SourceChain is optional and defaults to the configured source chain.
type InitiateRequest struct {
	Token         string          `json:"token" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	SourceChain   int64           `json:"sourceChain,omitempty"`
	TargetChain   int64           `json:"targetChain" validate:"required,gt=0"`
	TargetAddress string          `json:"targetAddress" validate:"required"`
}

// InitiateResponse is returned on a successful bridge initiation.
type InitiateResponse struct {
	TransactionID string `json:"transactionId"`
	SubmissionRef string `json:"submissionRef"`
	EstimatedTime string `json:"estimatedTime"`
	BridgeFee     string `json:"bridgeFee"`
	GasEstimate   string `json:"gasEstimate"`
}

// TransactionView is a stored record plus, when reachable, the live chain
// status observed at query time. LiveStatus never mutates the stored record.
type TransactionView struct {
	*Transaction
	LiveStatus string `json:"liveStatus,omitempty"`
}

// Pagination describes one page of a history query.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// HistoryPage is one reverse-chronological page of an owner's transactions.
type HistoryPage struct {
	Transactions []*Transaction `json:"transactions"`
	Pagination   Pagination     `json:"pagination"`
}
