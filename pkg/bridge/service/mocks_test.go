package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainsafe/crosschain-middleware/pkg/bridge"
	"github.com/chainsafe/crosschain-middleware/pkg/bridgestore"
	"github.com/chainsafe/crosschain-middleware/pkg/chainclient"
)

// MockStore is a mock implementation of bridgestore.Store
type MockStore struct {
	CreateFunc             func(ctx context.Context, tx *bridge.Transaction) error
	GetByIDFunc            func(ctx context.Context, id string) (*bridge.Transaction, error)
	GetByOwnerFunc         func(ctx context.Context, id, ownerID string) (*bridge.Transaction, error)
	ListFunc               func(ctx context.Context, ownerID string, filter bridgestore.ListFilter, page, limit int) ([]*bridge.Transaction, int, error)
	ListStaleInitiatedFunc func(ctx context.Context, cutoff time.Time, limit int) ([]*bridge.Transaction, error)
	UpdateStatusIfFunc     func(ctx context.Context, id string, from []bridge.Status, upd bridgestore.Update) (*bridge.Transaction, error)
}

func (m *MockStore) Create(ctx context.Context, tx *bridge.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx)
	}
	return nil
}

func (m *MockStore) GetByID(ctx context.Context, id string) (*bridge.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, bridgestore.ErrTransactionNotFound
}

func (m *MockStore) GetByOwner(ctx context.Context, id, ownerID string) (*bridge.Transaction, error) {
	if m.GetByOwnerFunc != nil {
		return m.GetByOwnerFunc(ctx, id, ownerID)
	}
	return nil, bridgestore.ErrTransactionNotFound
}

func (m *MockStore) List(
	ctx context.Context,
	ownerID string,
	filter bridgestore.ListFilter,
	page, limit int,
) ([]*bridge.Transaction, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, ownerID, filter, page, limit)
	}
	return nil, 0, nil
}

func (m *MockStore) ListStaleInitiated(ctx context.Context, cutoff time.Time, limit int) ([]*bridge.Transaction, error) {
	if m.ListStaleInitiatedFunc != nil {
		return m.ListStaleInitiatedFunc(ctx, cutoff, limit)
	}
	return nil, nil
}

func (m *MockStore) UpdateStatusIf(
	ctx context.Context,
	id string,
	from []bridge.Status,
	upd bridgestore.Update,
) (*bridge.Transaction, error) {
	if m.UpdateStatusIfFunc != nil {
		return m.UpdateStatusIfFunc(ctx, id, from, upd)
	}
	return nil, bridgestore.ErrTransactionNotFound
}

// MockChainClient is a mock implementation of chainclient.Client
type MockChainClient struct {
	TokenBalanceFunc   func(ctx context.Context, owner, token string, chainID int64) (decimal.Decimal, error)
	SubmitTransferFunc func(ctx context.Context, req chainclient.TransferRequest) (string, error)
	TransferStatusFunc func(ctx context.Context, ref string, chainID int64) (chainclient.TransferStatus, error)
	CancelTransferFunc func(ctx context.Context, ref, reason string) error
}

func (m *MockChainClient) TokenBalance(ctx context.Context, owner, token string, chainID int64) (decimal.Decimal, error) {
	if m.TokenBalanceFunc != nil {
		return m.TokenBalanceFunc(ctx, owner, token, chainID)
	}
	return decimal.Zero, nil
}

func (m *MockChainClient) SubmitTransfer(ctx context.Context, req chainclient.TransferRequest) (string, error) {
	if m.SubmitTransferFunc != nil {
		return m.SubmitTransferFunc(ctx, req)
	}
	return "0xmockref", nil
}

func (m *MockChainClient) TransferStatus(ctx context.Context, ref string, chainID int64) (chainclient.TransferStatus, error) {
	if m.TransferStatusFunc != nil {
		return m.TransferStatusFunc(ctx, ref, chainID)
	}
	return chainclient.TransferPending, nil
}

func (m *MockChainClient) CancelTransfer(ctx context.Context, ref, reason string) error {
	if m.CancelTransferFunc != nil {
		return m.CancelTransferFunc(ctx, ref, reason)
	}
	return nil
}

// memStore is an in-memory bridgestore.Store with real conditional-update
// semantics, used by the end-to-end handler tests.
type memStore struct {
	mu   sync.Mutex
	rows map[string]*bridge.Transaction
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]*bridge.Transaction)}
}

func (s *memStore) Create(_ context.Context, tx *bridge.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *tx
	s.rows[tx.ID] = &cp
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*bridge.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, bridgestore.ErrTransactionNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *memStore) GetByOwner(_ context.Context, id, ownerID string) (*bridge.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || row.OwnerID != ownerID {
		return nil, bridgestore.ErrTransactionNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *memStore) List(
	_ context.Context,
	ownerID string,
	filter bridgestore.ListFilter,
	page, limit int,
) ([]*bridge.Transaction, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*bridge.Transaction
	for _, row := range s.rows {
		if row.OwnerID != ownerID {
			continue
		}
		if filter.Status != nil && row.Status != *filter.Status {
			continue
		}
		cp := *row
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	offset := (page - 1) * limit
	if offset >= total {
		return []*bridge.Transaction{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (s *memStore) ListStaleInitiated(_ context.Context, cutoff time.Time, limit int) ([]*bridge.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []*bridge.Transaction
	for _, row := range s.rows {
		if row.Status != bridge.StatusInitiated || row.UpdatedAt.After(cutoff) {
			continue
		}
		cp := *row
		stale = append(stale, &cp)
		if len(stale) == limit {
			break
		}
	}
	return stale, nil
}

func (s *memStore) UpdateStatusIf(
	_ context.Context,
	id string,
	from []bridge.Status,
	upd bridgestore.Update,
) (*bridge.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, bridgestore.ErrTransactionNotFound
	}

	matched := false
	for _, st := range from {
		if row.Status == st {
			matched = true
			break
		}
	}
	if !matched {
		return nil, bridgestore.ErrStatusConflict
	}

	row.Status = upd.Status
	if upd.SubmissionRef != nil {
		row.SubmissionRef = *upd.SubmissionRef
	}
	if upd.CancellationReason != nil {
		row.CancellationReason = *upd.CancellationReason
	}
	if upd.CancelledAt != nil {
		t := *upd.CancelledAt
		row.CancelledAt = &t
	}
	row.UpdatedAt = time.Now().UTC()

	cp := *row
	return &cp, nil
}
