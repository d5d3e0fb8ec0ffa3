package policy

import (
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/types"
	"github.com/shopspring/decimal"
)

// Policy is a static insurance offering in the catalog. Once claims exist
// against a policy it is immutable except for deactivation.
type Policy struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`

	// Premium billing
	Premium         decimal.Decimal             `db:"premium" json:"premium"`
	ChargeFrequency types.PolicyChargeFrequency `db:"charge_frequency" json:"charge_frequency"`
	Autopay         bool                        `db:"autopay" json:"autopay"`

	// Coverage rules
	Variant            types.ClaimVariant `db:"variant" json:"variant"`
	WaitingPeriodDays  int                `db:"waiting_period_days" json:"waiting_period_days"`
	ClaimWindowDays    int                `db:"claim_window_days" json:"claim_window_days"`
	MaxClaimsPerPeriod int                `db:"max_claims_per_period" json:"max_claims_per_period"`
	MaxClaimAmount     decimal.Decimal    `db:"max_claim_amount" json:"max_claim_amount"`

	// Repurchase and bundling
	RepurchaseCooldownDays int              `db:"repurchase_cooldown_days" json:"repurchase_cooldown_days"`
	BundlePolicyID         *string          `db:"bundle_policy_id" json:"bundle_policy_id,omitempty"`
	BundleDiscountPercent  decimal.Decimal  `db:"bundle_discount_percent" json:"bundle_discount_percent"`

	Active bool `db:"active" json:"active"`

	types.BaseModel
}

func (p *Policy) TableName() string {
	return "policies"
}

func (p *Policy) Validate() error {
	if p.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Policy name is required").
			Mark(ierr.ErrValidation)
	}
	if p.Premium.IsNegative() {
		return ierr.NewError("invalid premium").
			WithHint("Premium must not be negative").
			Mark(ierr.ErrValidation)
	}
	if err := p.ChargeFrequency.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Charge frequency is invalid").
			Mark(ierr.ErrValidation)
	}
	if err := p.Variant.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Claim variant is invalid").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ValidateForClaims applies the claim-time sanity checks the catalog does
// not enforce at write time.
func (p *Policy) ValidateForClaims() error {
	if p.WaitingPeriodDays < 0 {
		return ierr.NewError("invalid waiting period").
			WithHint("Waiting period must not be negative").
			WithReportableDetails(map[string]any{
				"policy_id": p.ID,
			}).
			Mark(ierr.ErrValidation)
	}
	if p.MaxClaimAmount.IsNegative() {
		return ierr.NewError("invalid max claim amount").
			WithHint("Max claim amount must not be negative").
			WithReportableDetails(map[string]any{
				"policy_id": p.ID,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsMonetary reports whether claims against this policy must reference a
// ledger entry
func (p *Policy) IsMonetary() bool {
	return p.Variant == types.ClaimVariantMonetary
}

// EffectivePremium applies the bundle discount when the subject also holds
// an active enrollment in the linked policy.
func (p *Policy) EffectivePremium(hasBundlePolicy bool) decimal.Decimal {
	if !hasBundlePolicy || p.BundlePolicyID == nil || p.BundleDiscountPercent.IsZero() {
		return p.Premium
	}
	discount := p.Premium.Mul(p.BundleDiscountPercent).Div(decimal.NewFromInt(100))
	return p.Premium.Sub(discount)
}
