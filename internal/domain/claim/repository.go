package claim

import (
	"context"
	"time"

	"github.com/classbank/classbank/internal/types"
)

// Repository defines the interface for claim persistence operations.
//
// The one-claim-per-ledger-entry invariant is enforced by the storage
// layer: a partial unique index on (ledger_entry_id) over non-rejected
// claims. Create translates that conflict into an already-exists error;
// callers map it to the transaction_already_claimed failure code.
type Repository interface {
	Create(ctx context.Context, c *Claim) error
	Get(ctx context.Context, id string) (*Claim, error)

	// GetForUpdate retrieves a claim with a row lock for the decision
	// transaction
	GetForUpdate(ctx context.Context, id string) (*Claim, error)

	Update(ctx context.Context, c *Claim) error
	List(ctx context.Context, filter *types.ClaimFilter) ([]*Claim, error)
	Count(ctx context.Context, filter *types.ClaimFilter) (int, error)

	// CountActiveForEntry counts non-rejected claims referencing a ledger
	// entry. This backs the advisory fast-feedback check in file(); the
	// unique index remains the authoritative enforcement.
	CountActiveForEntry(ctx context.Context, ledgerEntryID string) (int, error)

	// CountDecidedInPeriod counts a subject's approved and paid claims for a
	// policy within [periodStart, periodEnd)
	CountDecidedInPeriod(ctx context.Context, subjectID, policyID string, periodStart, periodEnd time.Time) (int, error)

	// CountByPolicy counts all claims ever filed against a policy; the
	// catalog uses this to freeze policies once claims exist
	CountByPolicy(ctx context.Context, policyID string) (int, error)
}
