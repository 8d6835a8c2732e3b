// Package service implements the bridge orchestrator: it validates and
// admits bridge requests, owns the transaction state machine, and
// coordinates the transaction store, chain client, catalog and fee
// estimator.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-middleware/internal/metrics"
	apperrors "github.com/chainsafe/crosschain-middleware/pkg/app/errors"
	"github.com/chainsafe/crosschain-middleware/pkg/bridge"
	"github.com/chainsafe/crosschain-middleware/pkg/bridgestore"
	"github.com/chainsafe/crosschain-middleware/pkg/catalog"
	"github.com/chainsafe/crosschain-middleware/pkg/chainclient"
	"github.com/chainsafe/crosschain-middleware/pkg/fees"
)

const (
	// sweepBatchSize bounds how many stale records one sweep pass touches.
	sweepBatchSize = 50
)

var (
	ErrUnsupportedChain    = errors.New("target chain not supported")
	ErrUnsupportedAsset    = errors.New("token not bridgeable to target chain")
	ErrSameChain           = errors.New("source and target chain must differ")
	ErrInvalidAmount       = errors.New("amount out of range")
	ErrInvalidAddress      = errors.New("invalid target address")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotCancellable      = errors.New("transaction not cancellable")
)

// Service defines the interface for the bridge orchestration business logic
type Service interface {
	Initiate(ctx context.Context, ownerID string, req *bridge.InitiateRequest) (*bridge.InitiateResponse, error)
	Get(ctx context.Context, id, ownerID string) (*bridge.TransactionView, error)
	List(ctx context.Context, ownerID string, status *bridge.Status, page, limit int) (*bridge.HistoryPage, error)
	Cancel(ctx context.Context, id, ownerID, reason string) (*bridge.Transaction, error)
	Reconcile(ctx context.Context, id string) error
	SweepStale(ctx context.Context) error
}

// Config carries the orchestration policy knobs.
type Config struct {
	// FeeRate and MaxAmount govern the initiate validation and quote.
	MaxAmount decimal.Decimal
	// DefaultSourceChain is assumed when the request omits sourceChain.
	DefaultSourceChain int64
	// StaleAfter is how long an initiated record may go untouched before
	// the sweep re-reconciles it.
	StaleAfter time.Duration
}

type bridgeService struct {
	store     bridgestore.Store
	chain     chainclient.Client
	catalog   *catalog.Catalog
	estimator *fees.Estimator
	cfg       Config
	logger    *zap.Logger
	// schedule arms the delayed reconciliation pass for a transaction id.
	schedule func(id string)
}

// NewService creates a new bridge orchestrator service. schedule is invoked
// after each successful submission to arm the delayed reconciliation pass.
func NewService(
	store bridgestore.Store,
	chain chainclient.Client,
	cat *catalog.Catalog,
	estimator *fees.Estimator,
	cfg Config,
	logger *zap.Logger,
	schedule func(id string),
) Service {
	if schedule == nil {
		schedule = func(string) {}
	}
	return &bridgeService{
		store:     store,
		chain:     chain,
		catalog:   cat,
		estimator: estimator,
		cfg:       cfg,
		logger:    logger,
		schedule:  schedule,
	}
}

// Initiate runs the ordered validation pipeline, persists a pending record,
// submits the transfer and schedules the delayed status reconciliation.
//
// The validation steps short-circuit in a fixed order so every rejection has
// a deterministic, specific cause: catalog, amount range, address format,
// balance, then fee quote. Nothing is written to the store before all checks
// pass.
//
// A submission failure is reported to the caller but the pending record is
// kept: the user can still query or cancel it, and a later reconciliation
// can pick it up.
func (s *bridgeService) Initiate(
	ctx context.Context,
	ownerID string,
	req *bridge.InitiateRequest,
) (*bridge.InitiateResponse, error) {
	start := time.Now()
	defer func() { metrics.InitiateDuration.Observe(time.Since(start).Seconds()) }()

	sourceChain := req.SourceChain
	if sourceChain == 0 {
		sourceChain = s.cfg.DefaultSourceChain
	}

	// Step 1: catalog membership.
	if !s.catalog.SupportedChain(req.TargetChain) {
		return nil, apperrors.NotSupportedError(ErrUnsupportedChain, "Target chain not supported", map[string]any{
			"supportedChains": s.catalog.ChainIDs(),
		})
	}
	if !s.catalog.SupportedChain(sourceChain) {
		return nil, apperrors.NotSupportedError(ErrUnsupportedChain, "Source chain not supported", map[string]any{
			"supportedChains": s.catalog.ChainIDs(),
		})
	}
	if sourceChain == req.TargetChain {
		return nil, apperrors.BadRequestError(ErrSameChain, "Source and target chain must differ")
	}
	if !s.catalog.Bridgeable(req.Token, req.TargetChain) {
		return nil, apperrors.NotSupportedError(ErrUnsupportedAsset, "Token not supported on target chain", map[string]any{
			"token": req.Token,
		})
	}

	// Step 2: amount range.
	if !req.Amount.IsPositive() || req.Amount.GreaterThan(s.cfg.MaxAmount) {
		return nil, apperrors.BadRequestError(ErrInvalidAmount,
			fmt.Sprintf("Valid amount is required (0 < amount <= %s)", s.cfg.MaxAmount))
	}

	// Step 3: target address format.
	if !common.IsHexAddress(req.TargetAddress) || len(req.TargetAddress) != 42 {
		return nil, apperrors.BadRequestError(ErrInvalidAddress, "Valid target address is required")
	}

	// Step 4: source-chain balance.
	available, err := s.chain.TokenBalance(ctx, ownerID, req.Token, sourceChain)
	if err != nil {
		metrics.ChainClientErrors.WithLabelValues("balance").Inc()
		return nil, apperrors.DependencyError(err, "Failed to check balance")
	}
	if available.LessThan(req.Amount) {
		return nil, apperrors.InsufficientBalanceError(ErrInsufficientBalance,
			req.Amount.String(), available.String())
	}

	// Step 5: fee quote.
	quote := s.estimator.Quote(req.Amount, req.TargetChain)

	tx := bridge.New(ownerID, req.Token, req.Amount, sourceChain, req.TargetChain,
		req.TargetAddress, quote.BridgeFee, quote.GasEstimate)

	if err := s.store.Create(ctx, tx); err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("create transaction: %w", err))
	}
	metrics.TransactionsTotal.WithLabelValues(string(bridge.StatusPending)).Inc()
	amountF, _ := req.Amount.Float64()
	metrics.TransactionAmount.WithLabelValues(req.Token).Observe(amountF)

	ref, err := s.chain.SubmitTransfer(ctx, chainclient.TransferRequest{
		TransactionID: tx.ID,
		OwnerID:       ownerID,
		TokenAddress:  req.Token,
		Amount:        req.Amount,
		SourceChain:   sourceChain,
		TargetChain:   req.TargetChain,
		TargetAddress: req.TargetAddress,
	})
	if err != nil {
		metrics.ChainClientErrors.WithLabelValues("submit").Inc()
		// The pending record stays queryable; this is deliberate so the
		// user can retry a status check or cancel instead of losing the
		// request without a trace.
		s.logger.Error("Bridge submission failed, record kept pending",
			zap.String("transaction_id", tx.ID),
			zap.Error(err))
		return nil, &apperrors.ServiceError{
			Category: apperrors.CategoryDependencyFailure,
			Message:  "Failed to initiate bridge transaction",
			Details:  map[string]any{"transactionId": tx.ID},
			Err:      err,
		}
	}

	updated, err := s.store.UpdateStatusIf(ctx, tx.ID,
		[]bridge.Status{bridge.StatusPending},
		bridgestore.Update{Status: bridge.StatusInitiated, SubmissionRef: &ref})
	if err != nil {
		if errors.Is(err, bridgestore.ErrStatusConflict) {
			// Cancelled between create and submission settling. The local
			// record reflects the user's intent; report the submission ref
			// anyway so the caller can follow the on-chain transfer.
			s.logger.Warn("Transaction left pending state before submission recorded",
				zap.String("transaction_id", tx.ID),
				zap.String("submission_ref", ref))
		} else {
			return nil, apperrors.GeneralError(fmt.Errorf("record submission: %w", err))
		}
	} else {
		tx = updated
	}
	metrics.TransactionsTotal.WithLabelValues(string(bridge.StatusInitiated)).Inc()

	s.schedule(tx.ID)

	return &bridge.InitiateResponse{
		TransactionID: tx.ID,
		SubmissionRef: ref,
		EstimatedTime: quote.EstimatedTime,
		BridgeFee:     quote.BridgeFee.String(),
		GasEstimate:   quote.GasEstimate.String(),
	}, nil
}

// Get returns the caller's transaction, augmented with the live chain status
// when a submission reference exists and the chain is reachable. A lookup
// miss and a foreign record are indistinguishable.
func (s *bridgeService) Get(ctx context.Context, id, ownerID string) (*bridge.TransactionView, error) {
	tx, err := s.store.GetByOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, bridgestore.ErrTransactionNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "Transaction not found")
		}
		return nil, apperrors.GeneralError(err)
	}

	view := &bridge.TransactionView{Transaction: tx}

	if tx.SubmissionRef != "" {
		live, liveErr := s.chain.TransferStatus(ctx, tx.SubmissionRef, tx.SourceChain)
		if liveErr != nil {
			// Non-fatal: the stored status is still authoritative here.
			metrics.ChainClientErrors.WithLabelValues("status").Inc()
			s.logger.Warn("Failed to get live chain status",
				zap.String("transaction_id", id),
				zap.String("submission_ref", tx.SubmissionRef),
				zap.Error(liveErr))
		} else {
			view.LiveStatus = string(live)
		}
	}

	return view, nil
}

// List returns one page of the owner's history, newest first. Side-effect
// free.
func (s *bridgeService) List(ctx context.Context, ownerID string, status *bridge.Status, page, limit int) (*bridge.HistoryPage, error) {
	txs, total, err := s.store.List(ctx, ownerID, bridgestore.ListFilter{Status: status}, page, limit)
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &bridge.HistoryPage{
		Transactions: txs,
		Pagination: bridge.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// Cancel transitions the caller's pending or initiated transaction to
// cancelled. The external cancel request is best-effort: its failure is
// logged and never blocks the local transition, because the record reflects
// the user's intent even when the transfer is already irreversible on-chain.
func (s *bridgeService) Cancel(ctx context.Context, id, ownerID, reason string) (*bridge.Transaction, error) {
	tx, err := s.store.GetByOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, bridgestore.ErrTransactionNotFound) {
			return nil, apperrors.NotCancellableError(err)
		}
		return nil, apperrors.GeneralError(err)
	}

	if !tx.Status.Cancellable() {
		return nil, apperrors.NotCancellableError(ErrNotCancellable)
	}

	if tx.SubmissionRef != "" {
		if cancelErr := s.chain.CancelTransfer(ctx, tx.SubmissionRef, reason); cancelErr != nil {
			metrics.ChainClientErrors.WithLabelValues("cancel").Inc()
			s.logger.Warn("Failed to cancel chain transfer",
				zap.String("transaction_id", id),
				zap.String("submission_ref", tx.SubmissionRef),
				zap.Error(cancelErr))
		}
	}

	now := time.Now().UTC()
	cancelled, err := s.store.UpdateStatusIf(ctx, id,
		[]bridge.Status{bridge.StatusPending, bridge.StatusInitiated},
		bridgestore.Update{
			Status:             bridge.StatusCancelled,
			CancellationReason: &reason,
			CancelledAt:        &now,
		})
	if err != nil {
		if errors.Is(err, bridgestore.ErrStatusConflict) {
			// Reached a terminal state between the read and the write.
			return nil, apperrors.NotCancellableError(err)
		}
		if errors.Is(err, bridgestore.ErrTransactionNotFound) {
			return nil, apperrors.NotCancellableError(err)
		}
		return nil, apperrors.GeneralError(err)
	}

	metrics.TransactionsTotal.WithLabelValues(string(bridge.StatusCancelled)).Inc()
	s.logger.Info("Bridge transaction cancelled",
		zap.String("transaction_id", id),
		zap.String("owner_id", ownerID))

	return cancelled, nil
}
