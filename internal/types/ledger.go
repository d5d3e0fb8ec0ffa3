package types

import (
	"fmt"

	"github.com/samber/lo"
)

// LedgerEntryKind tags what produced a balance-affecting ledger entry
type LedgerEntryKind string

const (
	LedgerEntryKindDeposit  LedgerEntryKind = "DEPOSIT"
	LedgerEntryKindPayroll  LedgerEntryKind = "PAYROLL"
	LedgerEntryKindBonus    LedgerEntryKind = "BONUS"
	LedgerEntryKindPurchase LedgerEntryKind = "PURCHASE"
	LedgerEntryKindFee      LedgerEntryKind = "FEE"
	LedgerEntryKindPremium  LedgerEntryKind = "PREMIUM"
	LedgerEntryKindPayout   LedgerEntryKind = "PAYOUT"
	LedgerEntryKindTransfer LedgerEntryKind = "TRANSFER"
)

func (k LedgerEntryKind) String() string {
	return string(k)
}

func (k LedgerEntryKind) Validate() error {
	allowed := []LedgerEntryKind{
		LedgerEntryKindDeposit,
		LedgerEntryKindPayroll,
		LedgerEntryKindBonus,
		LedgerEntryKindPurchase,
		LedgerEntryKindFee,
		LedgerEntryKindPremium,
		LedgerEntryKindPayout,
		LedgerEntryKindTransfer,
	}
	if !lo.Contains(allowed, k) {
		return fmt.Errorf("invalid ledger entry kind: %s", k)
	}
	return nil
}

// RequiresNonZeroAmount reports whether the kind must carry a non-zero amount.
// Transfers of zero are meaningless but every monetary kind must move money.
func (k LedgerEntryKind) RequiresNonZeroAmount() bool {
	return true
}

// AccountBucket identifies which account a ledger entry belongs to
type AccountBucket string

const (
	AccountBucketChecking AccountBucket = "CHECKING"
	AccountBucketSavings  AccountBucket = "SAVINGS"
)

func (b AccountBucket) String() string {
	return string(b)
}

func (b AccountBucket) Validate() error {
	allowed := []AccountBucket{
		AccountBucketChecking,
		AccountBucketSavings,
	}
	if !lo.Contains(allowed, b) {
		return fmt.Errorf("invalid account bucket: %s", b)
	}
	return nil
}
