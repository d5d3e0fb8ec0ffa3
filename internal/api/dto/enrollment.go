package dto

import (
	"time"

	"github.com/classbank/classbank/internal/domain/enrollment"
	"github.com/classbank/classbank/internal/types"
	"github.com/classbank/classbank/internal/validator"
)

// EnrollRequest represents the request payload for enrolling a subject in a policy
type EnrollRequest struct {
	SubjectID string `json:"subject_id" binding:"required" example:"stu_01JF9X2M"`
	PolicyID  string `json:"policy_id" binding:"required" example:"pol_01JF9X2M"`
}

func (r *EnrollRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// RecordPaymentRequest represents a premium payment reported by the billing producer
type RecordPaymentRequest struct {
	// PaidAt defaults to now when omitted
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

// EnrollmentResponse represents an enrollment in API responses
type EnrollmentResponse struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id"`
	PolicyID  string `json:"policy_id"`

	EnrollmentStatus types.EnrollmentStatus `json:"enrollment_status"`

	PurchasedAt     time.Time `json:"purchased_at"`
	CoverageStartAt time.Time `json:"coverage_start_at"`

	PaymentCurrent   bool       `json:"payment_current"`
	LastPaymentAt    *time.Time `json:"last_payment_at,omitempty"`
	NextPaymentDueAt *time.Time `json:"next_payment_due_at,omitempty"`
	UnpaidDays       int        `json:"unpaid_days"`

	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	TenantID  string    `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToEnrollmentResponse converts a domain enrollment to its response shape
func ToEnrollmentResponse(e *enrollment.Enrollment) *EnrollmentResponse {
	return &EnrollmentResponse{
		ID:               e.ID,
		SubjectID:        e.SubjectID,
		PolicyID:         e.PolicyID,
		EnrollmentStatus: e.EnrollmentStatus,
		PurchasedAt:      e.PurchasedAt,
		CoverageStartAt:  e.CoverageStartAt,
		PaymentCurrent:   e.PaymentCurrent,
		LastPaymentAt:    e.LastPaymentAt,
		NextPaymentDueAt: e.NextPaymentDueAt,
		UnpaidDays:       e.UnpaidDays,
		CancelledAt:      e.CancelledAt,
		TenantID:         e.TenantID,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

// ListEnrollmentsResponse represents a paginated list of enrollments
type ListEnrollmentsResponse = types.ListResponse[*EnrollmentResponse]
