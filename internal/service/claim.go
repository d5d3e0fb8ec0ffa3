package service

import (
	"context"
	"time"

	"github.com/classbank/classbank/internal/api/dto"
	"github.com/classbank/classbank/internal/domain/claim"
	"github.com/classbank/classbank/internal/domain/enrollment"
	"github.com/classbank/classbank/internal/domain/ledger"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ClaimService is the claims settlement state machine. Filing runs the
// eligibility checks and creates a pending claim; deciding re-validates
// everything fresh inside one transaction and, on approval, appends the
// payout ledger entry atomically with the transition to paid.
type ClaimService interface {
	File(ctx context.Context, req *dto.FileClaimRequest) (*dto.ClaimResponse, error)
	Decide(ctx context.Context, claimID string, req *dto.DecideClaimRequest) (*dto.DecideClaimResponse, error)
	Get(ctx context.Context, claimID string) (*dto.ClaimResponse, error)
	List(ctx context.Context, filter *types.ClaimFilter) (*dto.ListClaimsResponse, error)
}

type claimService struct {
	ServiceParams
}

func NewClaimService(params ServiceParams) ClaimService {
	return &claimService{
		ServiceParams: params,
	}
}

// File creates a pending claim after the eligibility checks. The
// already-claimed check here is advisory fast feedback only; the partial
// unique index on non-rejected claims is authoritative, and a conflicting
// concurrent insert surfaces from Create as an already-exists error.
func (s *claimService) File(ctx context.Context, req *dto.FileClaimRequest) (*dto.ClaimResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e, err := s.EnrollmentRepo.Get(ctx, req.EnrollmentID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.Check(ctx, "enrollment", e.ID, e.TenantID); err != nil {
		return nil, err
	}
	if e.SubjectID != req.SubjectID {
		return nil, ierr.NewError("enrollment does not belong to subject").
			WithHint("Claims can only be filed against your own enrollment").
			WithReportableDetails(map[string]any{
				"enrollment_id": req.EnrollmentID,
			}).
			Mark(ierr.ErrPermissionDenied)
	}
	if !e.IsActive() {
		return nil, ierr.NewError("enrollment is not active").
			WithHint("Claims require an active enrollment").
			WithReportableDetails(map[string]any{
				"enrollment_id":     e.ID,
				"enrollment_status": e.EnrollmentStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	p, err := s.PolicyRepo.Get(ctx, e.PolicyID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.CheckSame(ctx, "enrollment", e.ID, e.TenantID, p.TenantID); err != nil {
		return nil, err
	}
	if err := p.ValidateForClaims(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if p.IsMonetary() {
		if err := s.checkLinkedEntry(ctx, req, e); err != nil {
			return nil, err
		}
	} else if req.LedgerEntryID != nil {
		return nil, ierr.NewError("ledger_entry_id is not allowed for in-kind policies").
			WithHint("This policy pays out in kind, not against a transaction").
			Mark(ierr.ErrValidation)
	}

	if !e.CoverageStarted(now) {
		return nil, ierr.NewError("coverage not started").
			WithHint("The waiting period has not elapsed yet").
			WithReportableDetails(map[string]any{
				"coverage_start_at": e.CoverageStartAt,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if p.ClaimWindowDays > 0 && now.Sub(req.IncidentDate) > time.Duration(p.ClaimWindowDays)*24*time.Hour {
		return nil, ierr.NewError("claim window expired").
			WithHint("The incident is too old to claim under this policy").
			WithReportableDetails(map[string]any{
				"incident_date":     req.IncidentDate,
				"claim_window_days": p.ClaimWindowDays,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if p.MaxClaimsPerPeriod > 0 {
		periodStart, periodEnd := rollingPeriod(now)
		decided, err := s.ClaimRepo.CountDecidedInPeriod(ctx, req.SubjectID, p.ID, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
		if decided >= p.MaxClaimsPerPeriod {
			return nil, ierr.NewError("claim limit exceeded").
				WithHint("The claim limit for this period has been reached").
				WithReportableDetails(map[string]any{
					"max_claims_per_period": p.MaxClaimsPerPeriod,
					"claims_this_period":    decided,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
	}

	c := &claim.Claim{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLAIM),
		ReferenceNumber:   types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_CLAIM),
		EnrollmentID:      e.ID,
		PolicyID:          p.ID,
		SubjectID:         req.SubjectID,
		Variant:           p.Variant,
		LedgerEntryID:     req.LedgerEntryID,
		RequestedAmount:   req.RequestedAmount,
		InKindDescription: req.InKindDescription,
		IncidentDate:      req.IncidentDate.UTC(),
		FiledAt:           now,
		ClaimStatus:       types.ClaimStatusPending,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		return s.ClaimRepo.Create(ctx, c)
	})
	if err != nil {
		if ierr.IsAlreadyExists(err) {
			// Two concurrent filings raced past the advisory check; the
			// storage constraint decided the winner. Audit-logged because
			// repeated conflicts outside a race indicate tampering.
			s.Logger.Warnw("transaction already claimed",
				"ledger_entry_id", c.LedgerEntryID,
				"subject_id", c.SubjectID,
				"tenant_id", c.TenantID,
			)
		}
		return nil, err
	}

	s.Logger.Infow("filed claim",
		"claim_id", c.ID,
		"reference_number", c.ReferenceNumber,
		"subject_id", c.SubjectID,
		"policy_id", c.PolicyID,
	)
	return dto.ToClaimResponse(c), nil
}

// checkLinkedEntry runs the filing-time checks on the referenced ledger
// entry for monetary policies
func (s *claimService) checkLinkedEntry(ctx context.Context, req *dto.FileClaimRequest, e *enrollment.Enrollment) error {
	if req.LedgerEntryID == nil || *req.LedgerEntryID == "" {
		return ierr.NewError("ledger_entry_id is required").
			WithHint("This policy pays out against a specific transaction").
			Mark(ierr.ErrValidation)
	}

	entry, err := s.LedgerRepo.Get(ctx, *req.LedgerEntryID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return ierr.NewError("transaction not found").
				WithHint("The referenced transaction does not exist").
				WithReportableDetails(map[string]any{
					"ledger_entry_id": *req.LedgerEntryID,
				}).
				Mark(ierr.ErrNotFound)
		}
		return err
	}
	if err := s.Guard.CheckSame(ctx, "ledger_entry", entry.ID, entry.TenantID, e.TenantID); err != nil {
		return err
	}
	if entry.SubjectID != req.SubjectID {
		return ierr.NewError("transaction does not belong to subject").
			WithHint("Claims can only reference your own transactions").
			WithReportableDetails(map[string]any{
				"ledger_entry_id": entry.ID,
			}).
			Mark(ierr.ErrPermissionDenied)
	}
	if entry.Voided {
		return ierr.NewError("linked transaction voided").
			WithHint("A voided transaction cannot be claimed").
			WithReportableDetails(map[string]any{
				"ledger_entry_id": entry.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	// Advisory only; the unique index decides races
	active, err := s.ClaimRepo.CountActiveForEntry(ctx, entry.ID)
	if err != nil {
		return err
	}
	if active > 0 {
		return ierr.NewError("transaction already claimed").
			WithHint("This transaction already has an active claim against it").
			WithReportableDetails(map[string]any{
				"ledger_entry_id": entry.ID,
			}).
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

// Decide applies a reviewer's outcome to a pending claim. The whole
// decision runs in one transaction: the claim row is locked, the linked
// entry and enrollment are re-read fresh with row locks, and on approval
// the payout append commits atomically with the transition to paid. A void
// committed even microseconds before our commit is therefore observed.
//
// Business-rule failures are accumulated and returned together; the claim
// stays pending. Integrity and not-found errors short-circuit.
func (s *claimService) Decide(ctx context.Context, claimID string, req *dto.DecideClaimRequest) (*dto.DecideClaimResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var response *dto.DecideClaimResponse
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		c, err := s.ClaimRepo.GetForUpdate(ctx, claimID)
		if err != nil {
			return err
		}
		if err := s.Guard.Check(ctx, "claim", c.ID, c.TenantID); err != nil {
			return err
		}
		if c.ClaimStatus != types.ClaimStatusPending {
			return ierr.NewError("claim not pending").
				WithHint("Only pending claims can be decided").
				WithReportableDetails(map[string]any{
					"claim_id":     c.ID,
					"claim_status": c.ClaimStatus,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		now := time.Now().UTC()
		reviewer := types.GetUserID(ctx)

		if req.Decision == types.ClaimDecisionReject {
			if err := c.TransitionTo(types.ClaimStatusRejected); err != nil {
				return err
			}
			c.DecidedAt = &now
			c.ReviewerID = &reviewer
			c.ReviewNotes = req.Notes
			if err := s.ClaimRepo.Update(ctx, c); err != nil {
				return err
			}
			response = &dto.DecideClaimResponse{Claim: dto.ToClaimResponse(c)}
			return nil
		}

		approved := c.RequestedAmount
		if req.ApprovedAmount != nil {
			approved = *req.ApprovedAmount
		}

		failures, entry, err := s.revalidate(ctx, c, approved)
		if err != nil {
			return err
		}
		if !failures.IsEmpty() {
			// Claim stays pending; the transaction has nothing to commit
			response = &dto.DecideClaimResponse{Failures: failures}
			return nil
		}

		// Approved and paid in one atomic unit with the payout append, so
		// an approved-but-unpaid claim is never observable
		if err := c.TransitionTo(types.ClaimStatusApproved); err != nil {
			return err
		}
		c.ApprovedAmount = &approved
		c.DecidedAt = &now
		c.ReviewerID = &reviewer
		c.ReviewNotes = req.Notes

		if approved.IsPositive() {
			payout := s.buildPayoutEntry(ctx, c, entry, approved, now)
			if err := s.LedgerRepo.Create(ctx, payout); err != nil {
				return err
			}
			c.PayoutEntryID = &payout.ID
		}
		if err := c.TransitionTo(types.ClaimStatusPaid); err != nil {
			return err
		}

		if err := s.ClaimRepo.Update(ctx, c); err != nil {
			return err
		}
		response = &dto.DecideClaimResponse{Claim: dto.ToClaimResponse(c)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if response.Succeeded() {
		s.Logger.Infow("decided claim",
			"claim_id", claimID,
			"decision", req.Decision,
			"claim_status", response.Claim.ClaimStatus,
		)
	} else {
		s.Logger.Infow("claim decision blocked",
			"claim_id", claimID,
			"failure_count", len(response.Failures),
		)
	}
	return response, nil
}

// revalidate re-runs the approval checks with fresh, locked reads. All
// business-rule failures are collected; integrity errors return
// immediately.
func (s *claimService) revalidate(ctx context.Context, c *claim.Claim, approved decimal.Decimal) (claim.DecisionFailures, *ledger.Entry, error) {
	failures := claim.DecisionFailures{}

	p, err := s.PolicyRepo.Get(ctx, c.PolicyID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Guard.CheckSame(ctx, "claim", c.ID, c.TenantID, p.TenantID); err != nil {
		return nil, nil, err
	}

	// Fresh read: a concurrent billing update committed before our commit
	// must be observed, never a value cached from filing time
	e, err := s.EnrollmentRepo.GetForUpdate(ctx, c.EnrollmentID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Guard.CheckSame(ctx, "claim", c.ID, c.TenantID, e.TenantID); err != nil {
		return nil, nil, err
	}
	if !e.PaymentCurrent {
		failures = append(failures, claim.DecisionFailure{
			Code:    claim.FailureCodePaymentNotCurrent,
			Message: "premium payments are not current on this enrollment",
		})
	}
	if !e.IsActive() {
		failures = append(failures, claim.DecisionFailure{
			Code:    claim.FailureCodeEnrollmentNotActive,
			Message: "the enrollment backing this claim is no longer active",
		})
	}

	var entry *ledger.Entry
	if c.IsMonetary() {
		entry, err = s.LedgerRepo.GetForUpdate(ctx, *c.LedgerEntryID)
		if err != nil {
			if ierr.IsNotFound(err) {
				failures = append(failures, claim.DecisionFailure{
					Code:    claim.FailureCodeTransactionNotFound,
					Message: "the linked transaction no longer exists",
				})
				return failures, nil, nil
			}
			return nil, nil, err
		}
		if err := s.Guard.CheckSame(ctx, "claim", c.ID, c.TenantID, entry.TenantID); err != nil {
			return nil, nil, err
		}
		if entry.Voided {
			failures = append(failures, claim.DecisionFailure{
				Code:    claim.FailureCodeLinkedTransactionVoided,
				Message: "the linked transaction has been voided",
			})
		}
		if entry.SubjectID != c.SubjectID {
			failures = append(failures, claim.DecisionFailure{
				Code:    claim.FailureCodeOwnershipMismatch,
				Message: "the linked transaction does not belong to the claimant",
			})
		}
		if approved.GreaterThan(entry.Amount.Abs()) {
			failures = append(failures, claim.DecisionFailure{
				Code:    claim.FailureCodePayoutCapExceeded,
				Message: "approved amount exceeds the linked transaction amount",
			})
		}
	}

	if p.MaxClaimAmount.IsPositive() && approved.GreaterThan(p.MaxClaimAmount) {
		failures = append(failures, claim.DecisionFailure{
			Code:    claim.FailureCodePayoutCapExceeded,
			Message: "approved amount exceeds the policy payout cap",
		})
	}

	return failures, entry, nil
}

func (s *claimService) buildPayoutEntry(ctx context.Context, c *claim.Claim, linked *ledger.Entry, approved decimal.Decimal, now time.Time) *ledger.Entry {
	bucket := types.AccountBucketChecking
	if linked != nil {
		bucket = linked.Bucket
	}
	return &ledger.Entry{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		SubjectID:   c.SubjectID,
		Bucket:      bucket,
		Kind:        types.LedgerEntryKindPayout,
		Amount:      approved,
		Description: "Insurance payout for claim " + c.ReferenceNumber,
		Metadata: types.Metadata{
			"claim_id":  c.ID,
			"policy_id": c.PolicyID,
		},
		AvailableAt: now,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
}

func (s *claimService) Get(ctx context.Context, claimID string) (*dto.ClaimResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}

	c, err := s.ClaimRepo.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.Check(ctx, "claim", c.ID, c.TenantID); err != nil {
		return nil, err
	}
	return dto.ToClaimResponse(c), nil
}

func (s *claimService) List(ctx context.Context, filter *types.ClaimFilter) (*dto.ListClaimsResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = types.NewClaimFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid filter").
			Mark(ierr.ErrValidation)
	}

	claims, err := s.ClaimRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.ClaimRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(claims, func(c *claim.Claim, _ int) *dto.ClaimResponse {
		return dto.ToClaimResponse(c)
	})

	response := types.NewListResponse(items, total, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

// rollingPeriod returns the bounds of the claim-limit period containing t.
// The period is the calendar month, matching the classroom billing cycle.
func rollingPeriod(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
