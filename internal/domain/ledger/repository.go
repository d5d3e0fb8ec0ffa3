package ledger

import (
	"context"

	"github.com/classbank/classbank/internal/types"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for ledger persistence operations
type Repository interface {
	// Create appends a new immutable entry
	Create(ctx context.Context, entry *Entry) error

	// Get retrieves an entry by its ID within the tenant scope
	Get(ctx context.Context, id string) (*Entry, error)

	// GetForUpdate retrieves an entry with a row lock. Must be called inside
	// a transaction; the void flag read this way is guaranteed current at
	// commit time.
	GetForUpdate(ctx context.Context, id string) (*Entry, error)

	// Void sets the void flag exactly once. A second void attempt is an
	// error, never a silent no-op, so that reversal attempts stay auditable.
	Void(ctx context.Context, id string, actor string) error

	// GetBalance sums the non-void entries for a subject's bucket
	GetBalance(ctx context.Context, subjectID string, bucket types.AccountBucket) (decimal.Decimal, error)

	List(ctx context.Context, filter *types.LedgerEntryFilter) ([]*Entry, error)
	Count(ctx context.Context, filter *types.LedgerEntryFilter) (int, error)
}
