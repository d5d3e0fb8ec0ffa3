package claim

import (
	"time"

	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/types"
	"github.com/shopspring/decimal"
)

// Claim is a request to be paid out against a policy. Monetary claims
// reference exactly one ledger entry; in-kind claims carry a description
// instead. Claims are never deleted and only a reviewer transition mutates
// them after filing.
type Claim struct {
	ID              string `db:"id" json:"id"`
	ReferenceNumber string `db:"reference_number" json:"reference_number"`

	EnrollmentID string `db:"enrollment_id" json:"enrollment_id"`
	PolicyID     string `db:"policy_id" json:"policy_id"`
	SubjectID    string `db:"subject_id" json:"subject_id"`

	// Variant discriminates the tagged union: monetary claims carry
	// LedgerEntryID and RequestedAmount, in-kind claims carry
	// InKindDescription. The unused fields stay empty.
	Variant           types.ClaimVariant `db:"variant" json:"variant"`
	LedgerEntryID     *string            `db:"ledger_entry_id" json:"ledger_entry_id,omitempty"`
	RequestedAmount   decimal.Decimal    `db:"requested_amount" json:"requested_amount"`
	InKindDescription string             `db:"in_kind_description" json:"in_kind_description,omitempty"`

	IncidentDate time.Time `db:"incident_date" json:"incident_date"`
	FiledAt      time.Time `db:"filed_at" json:"filed_at"`

	ClaimStatus types.ClaimStatus `db:"claim_status" json:"claim_status"`

	// Decision fields, set by the reviewer transition
	ApprovedAmount *decimal.Decimal `db:"approved_amount" json:"approved_amount,omitempty"`
	DecidedAt      *time.Time       `db:"decided_at" json:"decided_at,omitempty"`
	ReviewerID     *string          `db:"reviewer_id" json:"reviewer_id,omitempty"`
	ReviewNotes    string           `db:"review_notes" json:"review_notes,omitempty"`

	// PayoutEntryID links the payout ledger entry appended on approval
	PayoutEntryID *string `db:"payout_entry_id" json:"payout_entry_id,omitempty"`

	types.BaseModel
}

func (c *Claim) TableName() string {
	return "claims"
}

func (c *Claim) Validate() error {
	if c.EnrollmentID == "" {
		return ierr.NewError("enrollment_id is required").
			WithHint("Claim must reference an enrollment").
			Mark(ierr.ErrValidation)
	}
	if c.SubjectID == "" {
		return ierr.NewError("subject_id is required").
			WithHint("Claim must identify a student").
			Mark(ierr.ErrValidation)
	}
	if err := c.Variant.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Claim variant is invalid").
			Mark(ierr.ErrValidation)
	}
	switch c.Variant {
	case types.ClaimVariantMonetary:
		if c.LedgerEntryID == nil || *c.LedgerEntryID == "" {
			return ierr.NewError("ledger_entry_id is required for monetary claims").
				WithHint("Monetary claims must reference a ledger entry").
				Mark(ierr.ErrValidation)
		}
		if c.RequestedAmount.LessThanOrEqual(decimal.Zero) {
			return ierr.NewError("invalid requested amount").
				WithHint("Requested amount must be greater than 0").
				Mark(ierr.ErrValidation)
		}
	case types.ClaimVariantInKind:
		if c.InKindDescription == "" {
			return ierr.NewError("in_kind_description is required for in-kind claims").
				WithHint("In-kind claims must describe the benefit requested").
				Mark(ierr.ErrValidation)
		}
		if c.LedgerEntryID != nil {
			return ierr.NewError("ledger_entry_id is not allowed for in-kind claims").
				WithHint("In-kind claims do not reference ledger entries").
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// IsMonetary reports whether the claim references a ledger entry
func (c *Claim) IsMonetary() bool {
	return c.Variant == types.ClaimVariantMonetary
}

// TransitionTo moves the claim through the settlement state machine,
// rejecting any transition the table does not permit
func (c *Claim) TransitionTo(target types.ClaimStatus) error {
	if !c.ClaimStatus.CanTransitionTo(target) {
		return ierr.NewError("invalid claim status transition").
			WithHint("The claim cannot move to the requested status").
			WithReportableDetails(map[string]any{
				"claim_id": c.ID,
				"from":     c.ClaimStatus,
				"to":       target,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	c.ClaimStatus = target
	return nil
}
