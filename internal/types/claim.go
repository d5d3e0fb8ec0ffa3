package types

import (
	"fmt"

	"github.com/samber/lo"
)

// ClaimStatus represents the state of a claim in its settlement lifecycle
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "PENDING"
	ClaimStatusApproved ClaimStatus = "APPROVED"
	ClaimStatusRejected ClaimStatus = "REJECTED"
	ClaimStatusPaid     ClaimStatus = "PAID"
)

func (s ClaimStatus) String() string {
	return string(s)
}

func (s ClaimStatus) Validate() error {
	allowed := []ClaimStatus{
		ClaimStatusPending,
		ClaimStatusApproved,
		ClaimStatusRejected,
		ClaimStatusPaid,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid claim status: %s", s)
	}
	return nil
}

// claimTransitions is the validated transition table for the claim state
// machine. No transition ever returns to PENDING; REJECTED and PAID are
// terminal.
var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimStatusPending:  {ClaimStatusApproved, ClaimStatusRejected},
	ClaimStatusApproved: {ClaimStatusPaid},
	ClaimStatusRejected: {},
	ClaimStatusPaid:     {},
}

// CanTransitionTo reports whether the state machine permits moving from s to target
func (s ClaimStatus) CanTransitionTo(target ClaimStatus) bool {
	return lo.Contains(claimTransitions[s], target)
}

// IsTerminal reports whether no further transitions are permitted from s
func (s ClaimStatus) IsTerminal() bool {
	return len(claimTransitions[s]) == 0
}

// CountsAgainstEntry reports whether a claim in this status holds the
// one-claim-per-ledger-entry slot. Only rejected claims release the entry.
func (s ClaimStatus) CountsAgainstEntry() bool {
	return s != ClaimStatusRejected
}

// ClaimDecision is the outcome a reviewer selects for a pending claim
type ClaimDecision string

const (
	ClaimDecisionApprove ClaimDecision = "APPROVE"
	ClaimDecisionReject  ClaimDecision = "REJECT"
)

func (d ClaimDecision) String() string {
	return string(d)
}

func (d ClaimDecision) Validate() error {
	allowed := []ClaimDecision{
		ClaimDecisionApprove,
		ClaimDecisionReject,
	}
	if !lo.Contains(allowed, d) {
		return fmt.Errorf("invalid claim decision: %s", d)
	}
	return nil
}
