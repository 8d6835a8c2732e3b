package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-middleware/internal/metrics"
	"github.com/chainsafe/crosschain-middleware/pkg/bridge"
	"github.com/chainsafe/crosschain-middleware/pkg/bridgestore"
	"github.com/chainsafe/crosschain-middleware/pkg/chainclient"
)

const (
	// statusQueryBackoff is the initial backoff for the external settlement
	// query; retries are capped, reconciliation stays best-effort.
	statusQueryBackoff = 500 * time.Millisecond
	statusQueryRetries = 3
)

// Reconcile advances an initiated transaction to completed or failed based
// on the chain's settlement status. It is idempotent and a strict no-op on
// records that already reached a terminal state — a cancellation that lands
// between submission and this pass always wins. External query failures are
// logged and swallowed; a later pass or an explicit status request retries.
func (s *bridgeService) Reconcile(ctx context.Context, id string) error {
	tx, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bridgestore.ErrTransactionNotFound) {
			s.logger.Warn("Reconciliation for unknown transaction", zap.String("transaction_id", id))
			return nil
		}
		return fmt.Errorf("load transaction %s: %w", id, err)
	}

	if tx.Status != bridge.StatusInitiated || tx.SubmissionRef == "" {
		metrics.ReconcilePasses.WithLabelValues("noop").Inc()
		return nil
	}

	live, err := s.queryTransferStatus(ctx, tx.SubmissionRef, tx.SourceChain)
	if err != nil {
		metrics.ReconcilePasses.WithLabelValues("query_failed").Inc()
		metrics.ChainClientErrors.WithLabelValues("status").Inc()
		s.logger.Warn("Reconciliation status query failed",
			zap.String("transaction_id", id),
			zap.String("submission_ref", tx.SubmissionRef),
			zap.Error(err))
		return nil
	}

	var next bridge.Status
	switch live {
	case chainclient.TransferConfirmed:
		next = bridge.StatusCompleted
	case chainclient.TransferReverted:
		next = bridge.StatusFailed
	default:
		// Still settling; leave the record alone.
		metrics.ReconcilePasses.WithLabelValues("pending").Inc()
		return nil
	}

	_, err = s.store.UpdateStatusIf(ctx, id,
		[]bridge.Status{bridge.StatusInitiated},
		bridgestore.Update{Status: next})
	if err != nil {
		if errors.Is(err, bridgestore.ErrStatusConflict) {
			// A concurrent cancellation (or another pass) got there first.
			metrics.ReconcilePasses.WithLabelValues("conflict").Inc()
			s.logger.Debug("Reconciliation lost the write race",
				zap.String("transaction_id", id),
				zap.String("target_status", string(next)))
			return nil
		}
		return fmt.Errorf("persist reconciliation for %s: %w", id, err)
	}

	metrics.ReconcilePasses.WithLabelValues("advanced").Inc()
	metrics.TransactionsTotal.WithLabelValues(string(next)).Inc()
	s.logger.Info("Reconciled bridge transaction",
		zap.String("transaction_id", id),
		zap.String("status", string(next)))

	return nil
}

// SweepStale re-reconciles initiated records that have not been touched
// within the staleness threshold. This backstops scheduled passes lost to a
// process restart.
func (s *bridgeService) SweepStale(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.cfg.StaleAfter)

	stale, err := s.store.ListStaleInitiated(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return fmt.Errorf("list stale transactions: %w", err)
	}

	for _, tx := range stale {
		if err := s.Reconcile(ctx, tx.ID); err != nil {
			s.logger.Warn("Stale sweep reconciliation failed",
				zap.String("transaction_id", tx.ID),
				zap.Error(err))
		}
	}

	if len(stale) > 0 {
		s.logger.Info("Reconciliation sweep finished", zap.Int("stale_records", len(stale)))
	}

	return nil
}

// queryTransferStatus wraps the external settlement query in a capped
// exponential backoff.
func (s *bridgeService) queryTransferStatus(ctx context.Context, ref string, chainID int64) (chainclient.TransferStatus, error) {
	var status chainclient.TransferStatus

	backoff := retry.WithMaxRetries(statusQueryRetries, retry.NewExponential(statusQueryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		live, queryErr := s.chain.TransferStatus(ctx, ref, chainID)
		if queryErr != nil {
			return retry.RetryableError(queryErr)
		}
		status = live
		return nil
	})

	return status, err
}
