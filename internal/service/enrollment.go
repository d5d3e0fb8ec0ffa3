package service

import (
	"context"
	"time"

	"github.com/classbank/classbank/internal/api/dto"
	"github.com/classbank/classbank/internal/domain/enrollment"
	"github.com/classbank/classbank/internal/domain/ledger"
	"github.com/classbank/classbank/internal/domain/policy"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/types"
	"github.com/samber/lo"
)

// EnrollmentService tracks a subject's relationship to a policy. Billing
// state is mutated through RecordPayment/MarkUnpaid by the external
// billing producer; the claims engine only reads it.
type EnrollmentService interface {
	Enroll(ctx context.Context, req *dto.EnrollRequest) (*dto.EnrollmentResponse, error)
	RecordPayment(ctx context.Context, enrollmentID string, req *dto.RecordPaymentRequest) (*dto.EnrollmentResponse, error)
	MarkUnpaid(ctx context.Context, enrollmentID string) (*dto.EnrollmentResponse, error)
	Cancel(ctx context.Context, enrollmentID string) error
	Suspend(ctx context.Context, enrollmentID string) error
	Resume(ctx context.Context, enrollmentID string) error
	Get(ctx context.Context, enrollmentID string) (*dto.EnrollmentResponse, error)
	ListBySubject(ctx context.Context, subjectID string) (*dto.ListEnrollmentsResponse, error)
}

type enrollmentService struct {
	ServiceParams
}

func NewEnrollmentService(params ServiceParams) EnrollmentService {
	return &enrollmentService{
		ServiceParams: params,
	}
}

// Enroll purchases coverage for a subject. Coverage starts after the
// policy's waiting period; the first premium is charged immediately,
// with the bundle discount applied when the subject already holds the
// linked policy.
func (s *enrollmentService) Enroll(ctx context.Context, req *dto.EnrollRequest) (*dto.EnrollmentResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PolicyRepo.Get(ctx, req.PolicyID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.Check(ctx, "policy", p.ID, p.TenantID); err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ierr.NewError("policy is not active").
			WithHint("This policy is no longer offered").
			WithReportableDetails(map[string]any{
				"policy_id": p.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if existing, err := s.EnrollmentRepo.FindActive(ctx, req.SubjectID, req.PolicyID); err == nil && existing != nil {
		return nil, ierr.NewError("already enrolled").
			WithHint("An active enrollment for this policy already exists").
			WithReportableDetails(map[string]any{
				"enrollment_id": existing.ID,
				"policy_id":     req.PolicyID,
			}).
			Mark(ierr.ErrAlreadyExists)
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()

	if p.RepurchaseCooldownDays > 0 {
		latest, err := s.EnrollmentRepo.FindLatest(ctx, req.SubjectID, req.PolicyID)
		if err != nil && !ierr.IsNotFound(err) {
			return nil, err
		}
		if latest != nil && latest.CancelledAt != nil {
			cooldownEnds := latest.CancelledAt.AddDate(0, 0, p.RepurchaseCooldownDays)
			if now.Before(cooldownEnds) {
				return nil, ierr.NewError("repurchase cooldown in effect").
					WithHint("This policy cannot be repurchased yet").
					WithReportableDetails(map[string]any{
						"policy_id":      req.PolicyID,
						"cooldown_until": cooldownEnds,
					}).
					Mark(ierr.ErrInvalidOperation)
			}
		}
	}

	e := &enrollment.Enrollment{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ENROLLMENT),
		SubjectID:        req.SubjectID,
		PolicyID:         req.PolicyID,
		EnrollmentStatus: types.EnrollmentStatusActive,
		PurchasedAt:      now,
		CoverageStartAt:  now.AddDate(0, 0, p.WaitingPeriodDays),
		PaymentCurrent:   true,
		LastPaymentAt:    &now,
		NextPaymentDueAt: p.ChargeFrequency.NextDue(now),
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.EnrollmentRepo.Create(ctx, e); err != nil {
			return err
		}
		return s.chargePremium(ctx, e, p, now)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("enrolled subject",
		"enrollment_id", e.ID,
		"subject_id", e.SubjectID,
		"policy_id", e.PolicyID,
		"coverage_start_at", e.CoverageStartAt,
	)
	return dto.ToEnrollmentResponse(e), nil
}

// chargePremium appends the premium charge to the ledger. Must run inside
// the caller's transaction so an enrollment never persists without its
// charge.
func (s *enrollmentService) chargePremium(ctx context.Context, e *enrollment.Enrollment, p *policy.Policy, now time.Time) error {
	hasBundle := false
	if p.BundlePolicyID != nil {
		if _, err := s.EnrollmentRepo.FindActive(ctx, e.SubjectID, *p.BundlePolicyID); err == nil {
			hasBundle = true
		} else if !ierr.IsNotFound(err) {
			return err
		}
	}

	premium := p.EffectivePremium(hasBundle)
	if premium.IsZero() {
		return nil
	}

	entry := &ledger.Entry{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		SubjectID:   e.SubjectID,
		Bucket:      types.AccountBucketChecking,
		Kind:        types.LedgerEntryKindPremium,
		Amount:      premium.Neg(),
		Description: "Insurance premium: " + p.Name,
		Metadata: types.Metadata{
			"enrollment_id": e.ID,
			"policy_id":     p.ID,
		},
		AvailableAt: now,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
	return s.LedgerRepo.Create(ctx, entry)
}

// RecordPayment is called by the billing producer when a premium payment
// clears. It resets the unpaid counter, advances the due date, and charges
// the premium to the ledger in the same transaction.
func (s *enrollmentService) RecordPayment(ctx context.Context, enrollmentID string, req *dto.RecordPaymentRequest) (*dto.EnrollmentResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}

	e, err := s.EnrollmentRepo.Get(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.Check(ctx, "enrollment", e.ID, e.TenantID); err != nil {
		return nil, err
	}
	if e.EnrollmentStatus.IsTerminal() {
		return nil, ierr.NewError("enrollment is cancelled").
			WithHint("Payments cannot be recorded on a cancelled enrollment").
			WithReportableDetails(map[string]any{
				"enrollment_id": enrollmentID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	p, err := s.PolicyRepo.Get(ctx, e.PolicyID)
	if err != nil {
		return nil, err
	}

	paidAt := time.Now().UTC()
	if req != nil && req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}

	e.PaymentCurrent = true
	e.UnpaidDays = 0
	e.LastPaymentAt = &paidAt
	e.NextPaymentDueAt = p.ChargeFrequency.NextDue(paidAt)

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.EnrollmentRepo.Update(ctx, e); err != nil {
			return err
		}
		return s.chargePremium(ctx, e, p, paidAt)
	})
	if err != nil {
		return nil, err
	}

	return dto.ToEnrollmentResponse(e), nil
}

// MarkUnpaid is called by the billing producer for each day a premium is
// overdue. It clears the payment-current flag and bumps the consecutive
// unpaid counter; the producer decides when to suspend.
func (s *enrollmentService) MarkUnpaid(ctx context.Context, enrollmentID string) (*dto.EnrollmentResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}

	e, err := s.EnrollmentRepo.Get(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.Check(ctx, "enrollment", e.ID, e.TenantID); err != nil {
		return nil, err
	}
	if e.EnrollmentStatus.IsTerminal() {
		return nil, ierr.NewError("enrollment is cancelled").
			WithHint("A cancelled enrollment has no billing state").
			WithReportableDetails(map[string]any{
				"enrollment_id": enrollmentID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	e.PaymentCurrent = false
	e.UnpaidDays++

	if err := s.EnrollmentRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	return dto.ToEnrollmentResponse(e), nil
}

// Cancel terminates the enrollment. Cancellation is one-way; a second
// cancel is an error.
func (s *enrollmentService) Cancel(ctx context.Context, enrollmentID string) error {
	if err := s.Guard.Verify(ctx); err != nil {
		return err
	}

	e, err := s.EnrollmentRepo.Get(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if err := s.Guard.Check(ctx, "enrollment", e.ID, e.TenantID); err != nil {
		return err
	}
	if e.EnrollmentStatus.IsTerminal() {
		return ierr.NewError("enrollment already cancelled").
			WithHint("Cancellation is terminal; there is no un-cancel").
			WithReportableDetails(map[string]any{
				"enrollment_id": enrollmentID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	e.EnrollmentStatus = types.EnrollmentStatusCancelled
	e.CancelledAt = &now

	if err := s.EnrollmentRepo.Update(ctx, e); err != nil {
		return err
	}

	s.Logger.Infow("cancelled enrollment",
		"enrollment_id", enrollmentID,
		"subject_id", e.SubjectID,
	)
	return nil
}

// Suspend pauses coverage, typically after the unpaid threshold
func (s *enrollmentService) Suspend(ctx context.Context, enrollmentID string) error {
	return s.setStatus(ctx, enrollmentID, types.EnrollmentStatusActive, types.EnrollmentStatusSuspended)
}

// Resume reinstates suspended coverage
func (s *enrollmentService) Resume(ctx context.Context, enrollmentID string) error {
	return s.setStatus(ctx, enrollmentID, types.EnrollmentStatusSuspended, types.EnrollmentStatusActive)
}

func (s *enrollmentService) setStatus(ctx context.Context, enrollmentID string, from, to types.EnrollmentStatus) error {
	if err := s.Guard.Verify(ctx); err != nil {
		return err
	}

	e, err := s.EnrollmentRepo.Get(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if err := s.Guard.Check(ctx, "enrollment", e.ID, e.TenantID); err != nil {
		return err
	}
	if e.EnrollmentStatus != from {
		return ierr.NewError("invalid enrollment status transition").
			WithHint("The enrollment is not in the required state").
			WithReportableDetails(map[string]any{
				"enrollment_id": enrollmentID,
				"current":       e.EnrollmentStatus,
				"target":        to,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	e.EnrollmentStatus = to
	return s.EnrollmentRepo.Update(ctx, e)
}

func (s *enrollmentService) Get(ctx context.Context, enrollmentID string) (*dto.EnrollmentResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}

	e, err := s.EnrollmentRepo.Get(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.Check(ctx, "enrollment", e.ID, e.TenantID); err != nil {
		return nil, err
	}
	return dto.ToEnrollmentResponse(e), nil
}

func (s *enrollmentService) ListBySubject(ctx context.Context, subjectID string) (*dto.ListEnrollmentsResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}
	if subjectID == "" {
		return nil, ierr.NewError("subject_id is required").
			WithHint("Subject ID is required").
			Mark(ierr.ErrValidation)
	}

	filter := types.NewEnrollmentFilter()
	filter.SubjectID = subjectID

	enrollments, err := s.EnrollmentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(enrollments, func(e *enrollment.Enrollment, _ int) *dto.EnrollmentResponse {
		return dto.ToEnrollmentResponse(e)
	})

	response := types.NewListResponse(items, len(items), filter.GetLimit(), filter.GetOffset())
	return &response, nil
}
