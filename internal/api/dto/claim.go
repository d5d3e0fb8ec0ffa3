package dto

import (
	"time"

	"github.com/classbank/classbank/internal/domain/claim"
	"github.com/classbank/classbank/internal/types"
	"github.com/classbank/classbank/internal/validator"
	"github.com/shopspring/decimal"
)

// FileClaimRequest represents the request payload for filing a claim
type FileClaimRequest struct {
	SubjectID    string `json:"subject_id" binding:"required" example:"stu_01JF9X2M"`
	EnrollmentID string `json:"enrollment_id" binding:"required" example:"enr_01JF9X2M"`

	// LedgerEntryID is required for monetary policies and forbidden for
	// in-kind ones
	LedgerEntryID     *string         `json:"ledger_entry_id,omitempty" example:"ledg_01JF9X2M"`
	RequestedAmount   decimal.Decimal `json:"requested_amount"`
	InKindDescription string          `json:"in_kind_description,omitempty"`

	IncidentDate time.Time `json:"incident_date" binding:"required"`
}

func (r *FileClaimRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// DecideClaimRequest represents the reviewer's decision payload
type DecideClaimRequest struct {
	Decision types.ClaimDecision `json:"decision" binding:"required" example:"APPROVE"`
	// ApprovedAmount defaults to the requested amount for monetary claims
	ApprovedAmount *decimal.Decimal `json:"approved_amount,omitempty"`
	Notes          string           `json:"notes,omitempty"`
}

func (r *DecideClaimRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Decision.Validate()
}

// ClaimResponse represents a claim in API responses
type ClaimResponse struct {
	ID              string `json:"id"`
	ReferenceNumber string `json:"reference_number"`

	EnrollmentID string `json:"enrollment_id"`
	PolicyID     string `json:"policy_id"`
	SubjectID    string `json:"subject_id"`

	Variant           types.ClaimVariant `json:"variant"`
	LedgerEntryID     *string            `json:"ledger_entry_id,omitempty"`
	RequestedAmount   decimal.Decimal    `json:"requested_amount"`
	InKindDescription string             `json:"in_kind_description,omitempty"`

	IncidentDate time.Time `json:"incident_date"`
	FiledAt      time.Time `json:"filed_at"`

	ClaimStatus types.ClaimStatus `json:"claim_status"`

	ApprovedAmount *decimal.Decimal `json:"approved_amount,omitempty"`
	DecidedAt      *time.Time       `json:"decided_at,omitempty"`
	ReviewerID     *string          `json:"reviewer_id,omitempty"`
	ReviewNotes    string           `json:"review_notes,omitempty"`
	PayoutEntryID  *string          `json:"payout_entry_id,omitempty"`

	TenantID  string    `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToClaimResponse converts a domain claim to its response shape
func ToClaimResponse(c *claim.Claim) *ClaimResponse {
	return &ClaimResponse{
		ID:                c.ID,
		ReferenceNumber:   c.ReferenceNumber,
		EnrollmentID:      c.EnrollmentID,
		PolicyID:          c.PolicyID,
		SubjectID:         c.SubjectID,
		Variant:           c.Variant,
		LedgerEntryID:     c.LedgerEntryID,
		RequestedAmount:   c.RequestedAmount,
		InKindDescription: c.InKindDescription,
		IncidentDate:      c.IncidentDate,
		FiledAt:           c.FiledAt,
		ClaimStatus:       c.ClaimStatus,
		ApprovedAmount:    c.ApprovedAmount,
		DecidedAt:         c.DecidedAt,
		ReviewerID:        c.ReviewerID,
		ReviewNotes:       c.ReviewNotes,
		PayoutEntryID:     c.PayoutEntryID,
		TenantID:          c.TenantID,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// DecideClaimResponse carries either the decided claim or the structured
// list of reasons the decision could not proceed. Failures leave the claim
// pending; the reviewer sees every reason at once.
type DecideClaimResponse struct {
	Claim    *ClaimResponse         `json:"claim,omitempty"`
	Failures claim.DecisionFailures `json:"failures,omitempty"`
}

// Succeeded reports whether the decision was applied
func (r *DecideClaimResponse) Succeeded() bool {
	return r.Failures.IsEmpty()
}

// ListClaimsResponse represents a paginated list of claims
type ListClaimsResponse = types.ListResponse[*ClaimResponse]
