package types

import (
	"fmt"

	"github.com/samber/lo"
)

// EnrollmentStatus represents the lifecycle state of a subject's enrollment in a policy
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusSuspended EnrollmentStatus = "SUSPENDED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

func (s EnrollmentStatus) String() string {
	return string(s)
}

func (s EnrollmentStatus) Validate() error {
	allowed := []EnrollmentStatus{
		EnrollmentStatusActive,
		EnrollmentStatusSuspended,
		EnrollmentStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid enrollment status: %s", s)
	}
	return nil
}

// IsTerminal reports whether the status permits no further transitions.
// Cancellation is one-way; there is no un-cancel.
func (s EnrollmentStatus) IsTerminal() bool {
	return s == EnrollmentStatusCancelled
}
