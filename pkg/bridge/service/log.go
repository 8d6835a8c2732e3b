package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-middleware/pkg/bridge"
)

const serviceName = "BridgeService"

const reasonLogMaxLen = 80

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the bridge Service.
// It logs method entry/exit, duration and errors.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

// Initiate wraps the service method with logging
func (ls *logService) Initiate(
	ctx context.Context,
	ownerID string,
	req *bridge.InitiateRequest,
) (resp *bridge.InitiateResponse, err error) {
	start := time.Now()

	ls.logger.Info("Initiate started",
		zap.String("service", serviceName),
		zap.String("method", "Initiate"),
		zap.String("owner_id", ownerID),
		zap.String("token", req.Token),
		zap.String("amount", req.Amount.String()),
		zap.Int64("source_chain", req.SourceChain),
		zap.Int64("target_chain", req.TargetChain),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("Initiate failed",
				zap.String("service", serviceName),
				zap.String("method", "Initiate"),
				zap.String("owner_id", ownerID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Initiate completed",
				zap.String("service", serviceName),
				zap.String("method", "Initiate"),
				zap.String("owner_id", ownerID),
				zap.String("transaction_id", resp.TransactionID),
				zap.String("submission_ref", resp.SubmissionRef),
				zap.String("bridge_fee", resp.BridgeFee),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.Initiate(ctx, ownerID, req)
}

// Get wraps the service method with logging
func (ls *logService) Get(ctx context.Context, id, ownerID string) (view *bridge.TransactionView, err error) {
	start := time.Now()

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Warn("Get failed",
				zap.String("service", serviceName),
				zap.String("method", "Get"),
				zap.String("transaction_id", id),
				zap.String("owner_id", ownerID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Debug("Get completed",
				zap.String("service", serviceName),
				zap.String("method", "Get"),
				zap.String("transaction_id", id),
				zap.String("status", string(view.Status)),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.Get(ctx, id, ownerID)
}

// List wraps the service method with logging
func (ls *logService) List(
	ctx context.Context,
	ownerID string,
	status *bridge.Status,
	page, limit int,
) (result *bridge.HistoryPage, err error) {
	start := time.Now()

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Warn("List failed",
				zap.String("service", serviceName),
				zap.String("method", "List"),
				zap.String("owner_id", ownerID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Debug("List completed",
				zap.String("service", serviceName),
				zap.String("method", "List"),
				zap.String("owner_id", ownerID),
				zap.Int("page", page),
				zap.Int("returned", len(result.Transactions)),
				zap.Int("total", result.Pagination.Total),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.List(ctx, ownerID, status, page, limit)
}

// Cancel wraps the service method with logging
func (ls *logService) Cancel(ctx context.Context, id, ownerID, reason string) (tx *bridge.Transaction, err error) {
	start := time.Now()

	ls.logger.Info("Cancel started",
		zap.String("service", serviceName),
		zap.String("method", "Cancel"),
		zap.String("transaction_id", id),
		zap.String("owner_id", ownerID),
		zap.String("reason", truncateString(reason, reasonLogMaxLen)),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("Cancel failed",
				zap.String("service", serviceName),
				zap.String("method", "Cancel"),
				zap.String("transaction_id", id),
				zap.String("owner_id", ownerID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Cancel completed",
				zap.String("service", serviceName),
				zap.String("method", "Cancel"),
				zap.String("transaction_id", id),
				zap.String("owner_id", ownerID),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.Cancel(ctx, id, ownerID, reason)
}

// Reconcile wraps the service method with logging
func (ls *logService) Reconcile(ctx context.Context, id string) (err error) {
	start := time.Now()

	defer func() {
		if err != nil {
			ls.logger.Error("Reconcile failed",
				zap.String("service", serviceName),
				zap.String("method", "Reconcile"),
				zap.String("transaction_id", id),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
	}()

	return ls.svc.Reconcile(ctx, id)
}

// SweepStale wraps the service method with logging
func (ls *logService) SweepStale(ctx context.Context) (err error) {
	start := time.Now()

	defer func() {
		if err != nil {
			ls.logger.Error("SweepStale failed",
				zap.String("service", serviceName),
				zap.String("method", "SweepStale"),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
	}()

	return ls.svc.SweepStale(ctx)
}

// truncateString limits string length for logging to prevent log spam
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
