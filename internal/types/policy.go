package types

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

// PolicyChargeFrequency represents how often an enrollment is billed its premium
type PolicyChargeFrequency string

const (
	PolicyChargeFrequencyDaily   PolicyChargeFrequency = "DAILY"
	PolicyChargeFrequencyWeekly  PolicyChargeFrequency = "WEEKLY"
	PolicyChargeFrequencyMonthly PolicyChargeFrequency = "MONTHLY"
	PolicyChargeFrequencyOnce    PolicyChargeFrequency = "ONCE"
)

func (f PolicyChargeFrequency) String() string {
	return string(f)
}

func (f PolicyChargeFrequency) Validate() error {
	allowed := []PolicyChargeFrequency{
		PolicyChargeFrequencyDaily,
		PolicyChargeFrequencyWeekly,
		PolicyChargeFrequencyMonthly,
		PolicyChargeFrequencyOnce,
	}
	if !lo.Contains(allowed, f) {
		return fmt.Errorf("invalid policy charge frequency: %s", f)
	}
	return nil
}

// NextDue returns the next premium due date after from, or nil for
// one-time charges
func (f PolicyChargeFrequency) NextDue(from time.Time) *time.Time {
	var next time.Time
	switch f {
	case PolicyChargeFrequencyDaily:
		next = from.AddDate(0, 0, 1)
	case PolicyChargeFrequencyWeekly:
		next = from.AddDate(0, 0, 7)
	case PolicyChargeFrequencyMonthly:
		next = from.AddDate(0, 1, 0)
	default:
		return nil
	}
	return &next
}

// ClaimVariant discriminates what a policy pays out: money against a ledger
// entry, or an in-kind benefit (e.g. a homework pass replacement)
type ClaimVariant string

const (
	ClaimVariantMonetary ClaimVariant = "MONETARY"
	ClaimVariantInKind   ClaimVariant = "IN_KIND"
)

func (v ClaimVariant) String() string {
	return string(v)
}

func (v ClaimVariant) Validate() error {
	allowed := []ClaimVariant{
		ClaimVariantMonetary,
		ClaimVariantInKind,
	}
	if !lo.Contains(allowed, v) {
		return fmt.Errorf("invalid claim variant: %s", v)
	}
	return nil
}
