package bridgestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/chainsafe/crosschain-middleware/pkg/bridge"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the bridge transaction store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Create(ctx context.Context, tx *bridge.Transaction) error {
	dao := toTransactionDao(tx)

	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bridge transaction: %w", err)
	}

	return nil
}

func (s *pgStore) GetByID(ctx context.Context, id string) (*bridge.Transaction, error) {
	dao := new(TransactionDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get bridge transaction: %w", err)
	}

	return toTransaction(dao)
}

func (s *pgStore) GetByOwner(ctx context.Context, id, ownerID string) (*bridge.Transaction, error) {
	dao := new(TransactionDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get bridge transaction: %w", err)
	}

	return toTransaction(dao)
}

func (s *pgStore) List(ctx context.Context, ownerID string, filter ListFilter, page, limit int) ([]*bridge.Transaction, int, error) {
	var daos []TransactionDao

	query := s.db.NewSelect().
		Model(&daos).
		Where("owner_id = ?", ownerID)

	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	total, err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bridge transactions: %w", err)
	}

	txs := make([]*bridge.Transaction, 0, len(daos))
	for i := range daos {
		tx, convErr := toTransaction(&daos[i])
		if convErr != nil {
			return nil, 0, convErr
		}
		txs = append(txs, tx)
	}

	return txs, total, nil
}

func (s *pgStore) ListStaleInitiated(ctx context.Context, cutoff time.Time, limit int) ([]*bridge.Transaction, error) {
	var daos []TransactionDao

	err := s.db.NewSelect().
		Model(&daos).
		Where("status = ?", string(bridge.StatusInitiated)).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale transactions: %w", err)
	}

	txs := make([]*bridge.Transaction, 0, len(daos))
	for i := range daos {
		tx, convErr := toTransaction(&daos[i])
		if convErr != nil {
			return nil, convErr
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// UpdateStatusIf performs the conditional write that serializes concurrent
// submission, reconciliation and cancellation updates. The WHERE clause on
// the prior status makes the read-modify-write atomic per record; a row that
// already left the expected set is reported as ErrStatusConflict and never
// overwritten.
func (s *pgStore) UpdateStatusIf(ctx context.Context, id string, from []bridge.Status, upd Update) (*bridge.Transaction, error) {
	if len(from) == 0 {
		return nil, fmt.Errorf("expected status set must not be empty")
	}

	fromStrs := make([]string, 0, len(from))
	for _, st := range from {
		fromStrs = append(fromStrs, string(st))
	}

	query := s.db.NewUpdate().
		Model((*TransactionDao)(nil)).
		Set("status = ?", string(upd.Status)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("status IN (?)", bun.In(fromStrs))

	if upd.SubmissionRef != nil {
		query = query.Set("submission_ref = ?", *upd.SubmissionRef)
	}
	if upd.CancellationReason != nil {
		query = query.Set("cancellation_reason = ?", *upd.CancellationReason)
	}
	if upd.CancelledAt != nil {
		query = query.Set("cancelled_at = ?", *upd.CancelledAt)
	}

	res, err := query.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update bridge transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}

	if affected == 0 {
		// Distinguish a lost race from a missing record.
		exists, exErr := s.db.NewSelect().
			Model((*TransactionDao)(nil)).
			Where("id = ?", id).
			Exists(ctx)
		if exErr != nil {
			return nil, fmt.Errorf("failed to check bridge transaction exists: %w", exErr)
		}
		if !exists {
			return nil, ErrTransactionNotFound
		}
		return nil, ErrStatusConflict
	}

	return s.GetByID(ctx, id)
}
