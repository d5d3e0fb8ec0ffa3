package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimStatusTransitions(t *testing.T) {
	testCases := []struct {
		from    ClaimStatus
		to      ClaimStatus
		allowed bool
	}{
		{ClaimStatusPending, ClaimStatusApproved, true},
		{ClaimStatusPending, ClaimStatusRejected, true},
		{ClaimStatusPending, ClaimStatusPaid, false},
		{ClaimStatusApproved, ClaimStatusPaid, true},
		{ClaimStatusApproved, ClaimStatusRejected, false},
		{ClaimStatusApproved, ClaimStatusPending, false},
		{ClaimStatusRejected, ClaimStatusPending, false},
		{ClaimStatusRejected, ClaimStatusApproved, false},
		{ClaimStatusPaid, ClaimStatusPending, false},
		{ClaimStatusPaid, ClaimStatusRejected, false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestClaimStatusTerminal(t *testing.T) {
	assert.False(t, ClaimStatusPending.IsTerminal())
	assert.False(t, ClaimStatusApproved.IsTerminal())
	assert.True(t, ClaimStatusRejected.IsTerminal())
	assert.True(t, ClaimStatusPaid.IsTerminal())
}

func TestClaimStatusCountsAgainstEntry(t *testing.T) {
	assert.True(t, ClaimStatusPending.CountsAgainstEntry())
	assert.True(t, ClaimStatusApproved.CountsAgainstEntry())
	assert.True(t, ClaimStatusPaid.CountsAgainstEntry())
	assert.False(t, ClaimStatusRejected.CountsAgainstEntry())
}
