package enrollment

import (
	"time"

	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/types"
)

// Enrollment tracks a subject's relationship to a policy. Enrollments are
// kept for audit and never destroyed; termination is a status change.
type Enrollment struct {
	ID        string `db:"id" json:"id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
	PolicyID  string `db:"policy_id" json:"policy_id"`

	EnrollmentStatus types.EnrollmentStatus `db:"enrollment_status" json:"enrollment_status"`

	PurchasedAt time.Time `db:"purchased_at" json:"purchased_at"`
	// CoverageStartAt = purchase date + the policy's waiting period. Claims
	// filed before this instant are rejected.
	CoverageStartAt time.Time `db:"coverage_start_at" json:"coverage_start_at"`

	// Billing state, mutated by the external billing producer
	PaymentCurrent   bool       `db:"payment_current" json:"payment_current"`
	LastPaymentAt    *time.Time `db:"last_payment_at" json:"last_payment_at,omitempty"`
	NextPaymentDueAt *time.Time `db:"next_payment_due_at" json:"next_payment_due_at,omitempty"`
	UnpaidDays       int        `db:"unpaid_days" json:"unpaid_days"`

	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`

	types.BaseModel
}

func (e *Enrollment) TableName() string {
	return "enrollments"
}

func (e *Enrollment) Validate() error {
	if e.SubjectID == "" {
		return ierr.NewError("subject_id is required").
			WithHint("Enrollment must identify a student").
			Mark(ierr.ErrValidation)
	}
	if e.PolicyID == "" {
		return ierr.NewError("policy_id is required").
			WithHint("Enrollment must identify a policy").
			Mark(ierr.ErrValidation)
	}
	if err := e.EnrollmentStatus.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Enrollment status is invalid").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsActive reports whether the enrollment can back new claims
func (e *Enrollment) IsActive() bool {
	return e.EnrollmentStatus == types.EnrollmentStatusActive
}

// CoverageStarted reports whether the waiting period has elapsed at t
func (e *Enrollment) CoverageStarted(t time.Time) bool {
	return !t.Before(e.CoverageStartAt)
}
