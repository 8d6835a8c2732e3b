package bridgestore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/chainsafe/crosschain-middleware/pkg/bridge"
)

// TransactionDao is a data access object that maps directly to the
// 'bridge_transactions' table in PostgreSQL.
type TransactionDao struct {
	bun.BaseModel      `bun:"table:bridge_transactions,alias:bt"`
	ID                 string     `bun:"id,pk,type:varchar(36)"`
	OwnerID            string     `bun:"owner_id,notnull,type:varchar(128)"`
	TokenAddress       string     `bun:"token_address,notnull,type:varchar(42)"`
	Amount             string     `bun:"amount,notnull,type:numeric(38,18)"`
	SourceChain        int64      `bun:"source_chain,notnull"`
	TargetChain        int64      `bun:"target_chain,notnull"`
	TargetAddress      string     `bun:"target_address,notnull,type:varchar(64)"`
	Status             string     `bun:"status,notnull,type:varchar(20)"`
	BridgeFee          string     `bun:"bridge_fee,notnull,type:numeric(38,18)"`
	GasEstimate        string     `bun:"gas_estimate,notnull,type:numeric(38,18)"`
	SubmissionRef      *string    `bun:"submission_ref,type:varchar(66)"`
	CancellationReason *string    `bun:"cancellation_reason,type:varchar(500)"`
	CreatedAt          time.Time  `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt          time.Time  `bun:"updated_at,nullzero,default:current_timestamp"`
	CancelledAt        *time.Time `bun:"cancelled_at"`
}

// toTransactionDao converts a bridge.Transaction to TransactionDao.
func toTransactionDao(tx *bridge.Transaction) *TransactionDao {
	dao := &TransactionDao{
		ID:            tx.ID,
		OwnerID:       tx.OwnerID,
		TokenAddress:  tx.TokenAddress,
		Amount:        tx.Amount.String(),
		SourceChain:   tx.SourceChain,
		TargetChain:   tx.TargetChain,
		TargetAddress: tx.TargetAddress,
		Status:        string(tx.Status),
		BridgeFee:     tx.BridgeFee.String(),
		GasEstimate:   tx.GasEstimate.String(),
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}

	if tx.SubmissionRef != "" {
		dao.SubmissionRef = &tx.SubmissionRef
	}
	if tx.CancellationReason != "" {
		dao.CancellationReason = &tx.CancellationReason
	}
	if tx.CancelledAt != nil {
		dao.CancelledAt = tx.CancelledAt
	}

	return dao
}

// toTransaction converts a TransactionDao to bridge.Transaction.
func toTransaction(dao *TransactionDao) (*bridge.Transaction, error) {
	amount, err := decimal.NewFromString(dao.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount for %s: %w", dao.ID, err)
	}
	fee, err := decimal.NewFromString(dao.BridgeFee)
	if err != nil {
		return nil, fmt.Errorf("parse bridge_fee for %s: %w", dao.ID, err)
	}
	gas, err := decimal.NewFromString(dao.GasEstimate)
	if err != nil {
		return nil, fmt.Errorf("parse gas_estimate for %s: %w", dao.ID, err)
	}

	tx := &bridge.Transaction{
		ID:            dao.ID,
		OwnerID:       dao.OwnerID,
		TokenAddress:  dao.TokenAddress,
		Amount:        amount,
		SourceChain:   dao.SourceChain,
		TargetChain:   dao.TargetChain,
		TargetAddress: dao.TargetAddress,
		Status:        bridge.Status(dao.Status),
		BridgeFee:     fee,
		GasEstimate:   gas,
		CreatedAt:     dao.CreatedAt,
		UpdatedAt:     dao.UpdatedAt,
	}

	if dao.SubmissionRef != nil {
		tx.SubmissionRef = *dao.SubmissionRef
	}
	if dao.CancellationReason != nil {
		tx.CancellationReason = *dao.CancellationReason
	}
	if dao.CancelledAt != nil {
		tx.CancelledAt = dao.CancelledAt
	}

	return tx, nil
}
