package ledger

import (
	"time"

	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/types"
	"github.com/shopspring/decimal"
)

// Entry is a single immutable balance-affecting record in the append-only
// ledger. Once created, only the void flag (and its audit columns) may
// change; amount, subject and tenant are immutable. Entries are never
// deleted; a reversal voids the entry and leaves it in place.
type Entry struct {
	ID          string                `db:"id" json:"id"`
	SubjectID   string                `db:"subject_id" json:"subject_id"`
	Bucket      types.AccountBucket   `db:"bucket" json:"bucket"`
	Kind        types.LedgerEntryKind `db:"kind" json:"kind"`
	Amount      decimal.Decimal       `db:"amount" json:"amount"`
	Description string                `db:"description" json:"description"`
	Metadata    types.Metadata        `db:"metadata" json:"metadata,omitempty"`
	// AvailableAt is the instant from which the entry counts towards the
	// spendable balance (payroll posted for a future date, delayed deposits).
	AvailableAt time.Time  `db:"available_at" json:"available_at"`
	Voided      bool       `db:"voided" json:"voided"`
	VoidedAt    *time.Time `db:"voided_at" json:"voided_at,omitempty"`
	VoidedBy    *string    `db:"voided_by" json:"voided_by,omitempty"`

	types.BaseModel
}

func (e *Entry) TableName() string {
	return "ledger_entries"
}

func (e *Entry) Validate() error {
	if e.SubjectID == "" {
		return ierr.NewError("subject_id is required").
			WithHint("Ledger entries must identify a student").
			Mark(ierr.ErrValidation)
	}
	if err := e.Bucket.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Account bucket is invalid").
			Mark(ierr.ErrValidation)
	}
	if err := e.Kind.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Ledger entry kind is invalid").
			Mark(ierr.ErrValidation)
	}
	if e.Kind.RequiresNonZeroAmount() && e.Amount.IsZero() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must be non-zero for this entry kind").
			WithReportableDetails(map[string]any{
				"kind": e.Kind,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
