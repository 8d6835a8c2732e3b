// Package bridgestore persists bridge transactions. The conditional update
// is the serialization point for concurrent submission, reconciliation and
// cancellation writes against the same record.
package bridgestore

import (
	"context"
	"errors"
	"time"

	"github.com/chainsafe/crosschain-middleware/pkg/bridge"
)

// ErrTransactionNotFound is returned when a lookup finds no matching record.
var ErrTransactionNotFound = errors.New("bridge transaction not found")

// ErrStatusConflict is returned by UpdateStatusIf when the stored status is
// no longer in the expected set, typically because a concurrent writer got
// there first or the record reached a terminal state.
var ErrStatusConflict = errors.New("bridge transaction status changed concurrently")

// ListFilter narrows history queries.
type ListFilter struct {
	Status *bridge.Status
}

// Update describes the mutable fields applied by a conditional update.
// Zero-valued optional fields are left untouched.
type Update struct {
	Status             bridge.Status
	SubmissionRef      *string
	CancellationReason *string
	CancelledAt        *time.Time
}

// Store defines the interface for bridge transaction persistence.
// Records are never deleted; terminal rows are retained for history queries.
type Store interface {
	// Create persists a new transaction row.
	Create(ctx context.Context, tx *bridge.Transaction) error
	// GetByID returns the record regardless of owner. Internal use only
	// (reconciliation); user-facing paths go through GetByOwner.
	GetByID(ctx context.Context, id string) (*bridge.Transaction, error)
	// GetByOwner returns the record only when ownerID matches; otherwise
	// ErrTransactionNotFound — absence and foreign ownership are
	// indistinguishable to callers.
	GetByOwner(ctx context.Context, id, ownerID string) (*bridge.Transaction, error)
	// List returns one reverse-chronological page of the owner's
	// transactions plus the total match count.
	List(ctx context.Context, ownerID string, filter ListFilter, page, limit int) ([]*bridge.Transaction, int, error)
	// ListStaleInitiated returns initiated transactions not updated since
	// the cutoff. Feeds the reconciliation sweep.
	ListStaleInitiated(ctx context.Context, cutoff time.Time, limit int) ([]*bridge.Transaction, error)
	// UpdateStatusIf atomically applies upd to the record iff its current
	// status is in from. Returns the updated record, ErrStatusConflict on a
	// lost race, or ErrTransactionNotFound.
	UpdateStatusIf(ctx context.Context, id string, from []bridge.Status, upd Update) (*bridge.Transaction, error)
}
