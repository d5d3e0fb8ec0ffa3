package dto

import (
	"context"
	"time"

	"github.com/classbank/classbank/internal/domain/policy"
	"github.com/classbank/classbank/internal/types"
	"github.com/classbank/classbank/internal/validator"
	"github.com/shopspring/decimal"
)

// CreatePolicyRequest represents the request payload for creating a policy
type CreatePolicyRequest struct {
	Name            string                      `json:"name" binding:"required" example:"Desk Damage Cover"`
	Description     string                      `json:"description"`
	Premium         decimal.Decimal             `json:"premium"`
	ChargeFrequency types.PolicyChargeFrequency `json:"charge_frequency" binding:"required" example:"MONTHLY"`
	Autopay         bool                        `json:"autopay"`

	Variant            types.ClaimVariant `json:"variant" binding:"required" example:"MONETARY"`
	WaitingPeriodDays  int                `json:"waiting_period_days" validate:"min=0"`
	ClaimWindowDays    int                `json:"claim_window_days" validate:"min=0"`
	MaxClaimsPerPeriod int                `json:"max_claims_per_period" validate:"min=0"`
	MaxClaimAmount     decimal.Decimal    `json:"max_claim_amount"`

	RepurchaseCooldownDays int             `json:"repurchase_cooldown_days" validate:"min=0"`
	BundlePolicyID         *string         `json:"bundle_policy_id,omitempty"`
	BundleDiscountPercent  decimal.Decimal `json:"bundle_discount_percent"`
}

func (r *CreatePolicyRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ToPolicy converts the request to a domain policy
func (r *CreatePolicyRequest) ToPolicy(ctx context.Context) *policy.Policy {
	return &policy.Policy{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_POLICY),
		Name:                   r.Name,
		Description:            r.Description,
		Premium:                r.Premium,
		ChargeFrequency:        r.ChargeFrequency,
		Autopay:                r.Autopay,
		Variant:                r.Variant,
		WaitingPeriodDays:      r.WaitingPeriodDays,
		ClaimWindowDays:        r.ClaimWindowDays,
		MaxClaimsPerPeriod:     r.MaxClaimsPerPeriod,
		MaxClaimAmount:         r.MaxClaimAmount,
		RepurchaseCooldownDays: r.RepurchaseCooldownDays,
		BundlePolicyID:         r.BundlePolicyID,
		BundleDiscountPercent:  r.BundleDiscountPercent,
		Active:                 true,
		BaseModel:              types.GetDefaultBaseModel(ctx),
	}
}

// UpdatePolicyRequest represents the request payload for updating a policy.
// Updates are rejected once claims exist against the policy; only
// deactivation remains possible from then on.
type UpdatePolicyRequest struct {
	Name               *string          `json:"name,omitempty"`
	Description        *string          `json:"description,omitempty"`
	Premium            *decimal.Decimal `json:"premium,omitempty"`
	Autopay            *bool            `json:"autopay,omitempty"`
	WaitingPeriodDays  *int             `json:"waiting_period_days,omitempty" validate:"omitempty,min=0"`
	ClaimWindowDays    *int             `json:"claim_window_days,omitempty" validate:"omitempty,min=0"`
	MaxClaimsPerPeriod *int             `json:"max_claims_per_period,omitempty" validate:"omitempty,min=0"`
	MaxClaimAmount     *decimal.Decimal `json:"max_claim_amount,omitempty"`
}

func (r *UpdatePolicyRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// PolicyResponse represents a policy in API responses
type PolicyResponse struct {
	ID              string                      `json:"id"`
	Name            string                      `json:"name"`
	Description     string                      `json:"description,omitempty"`
	Premium         decimal.Decimal             `json:"premium"`
	ChargeFrequency types.PolicyChargeFrequency `json:"charge_frequency"`
	Autopay         bool                        `json:"autopay"`

	Variant            types.ClaimVariant `json:"variant"`
	WaitingPeriodDays  int                `json:"waiting_period_days"`
	ClaimWindowDays    int                `json:"claim_window_days"`
	MaxClaimsPerPeriod int                `json:"max_claims_per_period"`
	MaxClaimAmount     decimal.Decimal    `json:"max_claim_amount"`

	RepurchaseCooldownDays int             `json:"repurchase_cooldown_days"`
	BundlePolicyID         *string         `json:"bundle_policy_id,omitempty"`
	BundleDiscountPercent  decimal.Decimal `json:"bundle_discount_percent"`

	Active    bool      `json:"active"`
	TenantID  string    `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToPolicyResponse converts a domain policy to its response shape
func ToPolicyResponse(p *policy.Policy) *PolicyResponse {
	return &PolicyResponse{
		ID:                     p.ID,
		Name:                   p.Name,
		Description:            p.Description,
		Premium:                p.Premium,
		ChargeFrequency:        p.ChargeFrequency,
		Autopay:                p.Autopay,
		Variant:                p.Variant,
		WaitingPeriodDays:      p.WaitingPeriodDays,
		ClaimWindowDays:        p.ClaimWindowDays,
		MaxClaimsPerPeriod:     p.MaxClaimsPerPeriod,
		MaxClaimAmount:         p.MaxClaimAmount,
		RepurchaseCooldownDays: p.RepurchaseCooldownDays,
		BundlePolicyID:         p.BundlePolicyID,
		BundleDiscountPercent:  p.BundleDiscountPercent,
		Active:                 p.Active,
		TenantID:               p.TenantID,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

// ListPoliciesResponse represents the policy catalog listing
type ListPoliciesResponse = types.ListResponse[*PolicyResponse]
