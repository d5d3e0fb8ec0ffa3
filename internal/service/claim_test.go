package service

import (
	"sync"
	"testing"
	"time"

	"github.com/classbank/classbank/internal/api/dto"
	"github.com/classbank/classbank/internal/domain/claim"
	"github.com/classbank/classbank/internal/domain/enrollment"
	"github.com/classbank/classbank/internal/domain/ledger"
	"github.com/classbank/classbank/internal/domain/policy"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/testutil"
	"github.com/classbank/classbank/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ClaimServiceSuite struct {
	testutil.BaseServiceTestSuite
	service       ClaimService
	ledgerService LedgerService

	testData struct {
		policy     *policy.Policy
		enrollment *enrollment.Enrollment
		entry      *ledger.Entry
	}
}

func TestClaimService(t *testing.T) {
	suite.Run(t, new(ClaimServiceSuite))
}

func (s *ClaimServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		DB:             s.GetDB(),
		Guard:          s.GetGuard(),
		LedgerRepo:     s.GetStores().LedgerRepo,
		PolicyRepo:     s.GetStores().PolicyRepo,
		EnrollmentRepo: s.GetStores().EnrollmentRepo,
		ClaimRepo:      s.GetStores().ClaimRepo,
	}
	s.service = NewClaimService(params)
	s.ledgerService = NewLedgerService(params)
	s.setupTestData()
}

// setupTestData seeds a monetary policy, an active enrollment whose
// coverage started 10 days ago (7 day waiting period), and a $50 entry
func (s *ClaimServiceSuite) setupTestData() {
	ctx := s.GetContext()
	now := time.Now().UTC()

	s.testData.policy = &policy.Policy{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_POLICY),
		Name:               "Purchase Protection",
		Premium:            decimal.NewFromInt(5),
		ChargeFrequency:    types.PolicyChargeFrequencyMonthly,
		Variant:            types.ClaimVariantMonetary,
		WaitingPeriodDays:  7,
		ClaimWindowDays:    30,
		MaxClaimsPerPeriod: 2,
		MaxClaimAmount:     decimal.NewFromInt(100),
		Active:             true,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PolicyRepo.Create(ctx, s.testData.policy))

	purchased := now.AddDate(0, 0, -17)
	s.testData.enrollment = &enrollment.Enrollment{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ENROLLMENT),
		SubjectID:        "stu_1",
		PolicyID:         s.testData.policy.ID,
		EnrollmentStatus: types.EnrollmentStatusActive,
		PurchasedAt:      purchased,
		CoverageStartAt:  purchased.AddDate(0, 0, 7),
		PaymentCurrent:   true,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().EnrollmentRepo.Create(ctx, s.testData.enrollment))

	s.testData.entry = &ledger.Entry{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		SubjectID:   "stu_1",
		Bucket:      types.AccountBucketChecking,
		Kind:        types.LedgerEntryKindPurchase,
		Amount:      decimal.NewFromInt(-50),
		AvailableAt: now.AddDate(0, 0, -2),
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().LedgerRepo.Create(ctx, s.testData.entry))
}

func (s *ClaimServiceSuite) fileRequest() *dto.FileClaimRequest {
	return &dto.FileClaimRequest{
		SubjectID:       "stu_1",
		EnrollmentID:    s.testData.enrollment.ID,
		LedgerEntryID:   lo.ToPtr(s.testData.entry.ID),
		RequestedAmount: decimal.NewFromInt(50),
		IncidentDate:    time.Now().UTC().AddDate(0, 0, -1),
	}
}

func (s *ClaimServiceSuite) TestFileClaim() {
	resp, err := s.service.File(s.GetContext(), s.fileRequest())
	s.NoError(err)
	s.Equal(types.ClaimStatusPending, resp.ClaimStatus)
	s.Equal(s.testData.policy.ID, resp.PolicyID)
	s.NotEmpty(resp.ReferenceNumber)

	stored, err := s.GetStores().ClaimRepo.Get(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.ClaimStatusPending, stored.ClaimStatus)
}

func (s *ClaimServiceSuite) TestFileClaimConcurrent() {
	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.File(s.GetContext(), s.fileRequest())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.True(ierr.IsAlreadyExists(err), "losers must see transaction already claimed, got: %v", err)
	}
	s.Equal(1, succeeded, "exactly one concurrent filing may win")

	active, err := s.GetStores().ClaimRepo.CountActiveForEntry(s.GetContext(), s.testData.entry.ID)
	s.NoError(err)
	s.Equal(1, active)
}

func (s *ClaimServiceSuite) TestFileClaimAgainstRejectedIsAllowed() {
	resp, err := s.service.File(s.GetContext(), s.fileRequest())
	s.NoError(err)

	decided, err := s.service.Decide(s.GetContext(), resp.ID, &dto.DecideClaimRequest{
		Decision: types.ClaimDecisionReject,
		Notes:    "not covered",
	})
	s.NoError(err)
	s.True(decided.Succeeded())
	s.Equal(types.ClaimStatusRejected, decided.Claim.ClaimStatus)

	// A rejected claim releases the entry
	again, err := s.service.File(s.GetContext(), s.fileRequest())
	s.NoError(err)
	s.Equal(types.ClaimStatusPending, again.ClaimStatus)
}

func (s *ClaimServiceSuite) TestFileClaimCoverageNotStarted() {
	ctx := s.GetContext()
	now := time.Now().UTC()

	e := &enrollment.Enrollment{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ENROLLMENT),
		SubjectID:        "stu_2",
		PolicyID:         s.testData.policy.ID,
		EnrollmentStatus: types.EnrollmentStatusActive,
		PurchasedAt:      now.AddDate(0, 0, -2),
		CoverageStartAt:  now.AddDate(0, 0, 5),
		PaymentCurrent:   true,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().EnrollmentRepo.Create(ctx, e))

	entry := &ledger.Entry{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		SubjectID:   "stu_2",
		Bucket:      types.AccountBucketChecking,
		Kind:        types.LedgerEntryKindPurchase,
		Amount:      decimal.NewFromInt(-10),
		AvailableAt: now,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().LedgerRepo.Create(ctx, entry))

	_, err := s.service.File(ctx, &dto.FileClaimRequest{
		SubjectID:       "stu_2",
		EnrollmentID:    e.ID,
		LedgerEntryID:   lo.ToPtr(entry.ID),
		RequestedAmount: decimal.NewFromInt(10),
		IncidentDate:    now,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *ClaimServiceSuite) TestFileClaimWindowExpired() {
	req := s.fileRequest()
	req.IncidentDate = time.Now().UTC().AddDate(0, 0, -31)

	_, err := s.service.File(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *ClaimServiceSuite) TestFileClaimLimitExceeded() {
	ctx := s.GetContext()
	now := time.Now().UTC()

	// Two approved claims already decided this period
	for i := 0; i < 2; i++ {
		decidedAt := now.AddDate(0, 0, -1)
		c := &claim.Claim{
			ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLAIM),
			ReferenceNumber: types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_CLAIM),
			EnrollmentID:    s.testData.enrollment.ID,
			PolicyID:        s.testData.policy.ID,
			SubjectID:       "stu_1",
			Variant:         types.ClaimVariantMonetary,
			LedgerEntryID:   lo.ToPtr(types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY)),
			RequestedAmount: decimal.NewFromInt(10),
			IncidentDate:    now.AddDate(0, 0, -3),
			FiledAt:         now.AddDate(0, 0, -2),
			ClaimStatus:     types.ClaimStatusApproved,
			DecidedAt:       &decidedAt,
			BaseModel:       types.GetDefaultBaseModel(ctx),
		}
		s.NoError(s.GetStores().ClaimRepo.Create(ctx, c))
	}

	if time.Now().UTC().Day() == 1 {
		s.T().Skip("seeded decisions fall into the previous calendar month")
	}

	_, err := s.service.File(ctx, s.fileRequest())
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *ClaimServiceSuite) TestDecideApprove() {
	resp, err := s.service.File(s.GetContext(), s.fileRequest())
	s.NoError(err)

	decided, err := s.service.Decide(s.GetContext(), resp.ID, &dto.DecideClaimRequest{
		Decision: types.ClaimDecisionApprove,
		Notes:    "verified with receipt",
	})
	s.NoError(err)
	s.True(decided.Succeeded())
	s.Equal(types.ClaimStatusPaid, decided.Claim.ClaimStatus)
	s.NotNil(decided.Claim.PayoutEntryID)
	s.True(decided.Claim.ApprovedAmount.Equal(decimal.NewFromInt(50)))

	payout, err := s.GetStores().LedgerRepo.Get(s.GetContext(), *decided.Claim.PayoutEntryID)
	s.NoError(err)
	s.Equal(types.LedgerEntryKindPayout, payout.Kind)
	s.True(payout.Amount.Equal(decimal.NewFromInt(50)))
	s.Equal("stu_1", payout.SubjectID)
}

func (s *ClaimServiceSuite) TestDecideVoidedEntry() {
	resp, err := s.service.File(s.GetContext(), s.fileRequest())
	s.NoError(err)

	s.NoError(s.ledgerService.Void(s.GetContext(), s.testData.entry.ID))

	decided, err := s.service.Decide(s.GetContext(), resp.ID, &dto.DecideClaimRequest{
		Decision: types.ClaimDecisionApprove,
	})
	s.NoError(err)
	s.False(decided.Succeeded())
	s.True(decided.Failures.HasCode(claim.FailureCodeLinkedTransactionVoided))

	// The claim stays pending and no payout exists
	stored, err := s.GetStores().ClaimRepo.Get(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.ClaimStatusPending, stored.ClaimStatus)
	s.Nil(stored.PayoutEntryID)
}

func (s *ClaimServiceSuite) TestDecidePayoutCapExceeded() {
	ctx := s.GetContext()
	s.testData.policy.MaxClaimAmount = decimal.NewFromInt(30)
	s.NoError(s.GetStores().PolicyRepo.Update(ctx, s.testData.policy))

	resp, err := s.service.File(ctx, s.fileRequest())
	s.NoError(err)

	decided, err := s.service.Decide(ctx, resp.ID, &dto.DecideClaimRequest{
		Decision:       types.ClaimDecisionApprove,
		ApprovedAmount: lo.ToPtr(decimal.NewFromInt(40)),
	})
	s.NoError(err)
	s.False(decided.Succeeded())
	s.True(decided.Failures.HasCode(claim.FailureCodePayoutCapExceeded))

	stored, err := s.GetStores().ClaimRepo.Get(ctx, resp.ID)
	s.NoError(err)
	s.Equal(types.ClaimStatusPending, stored.ClaimStatus)

	filter := types.NewLedgerEntryFilter()
	filter.SubjectID = "stu_1"
	filter.Kind = lo.ToPtr(types.LedgerEntryKindPayout)
	payouts, err := s.GetStores().LedgerRepo.List(ctx, filter)
	s.NoError(err)
	s.Empty(payouts)
}

func (s *ClaimServiceSuite) TestDecideAccumulatesFailures() {
	ctx := s.GetContext()
	resp, err := s.service.File(ctx, s.fileRequest())
	s.NoError(err)

	// Void the entry and lapse the premium before deciding
	s.NoError(s.ledgerService.Void(ctx, s.testData.entry.ID))
	s.testData.enrollment.PaymentCurrent = false
	s.NoError(s.GetStores().EnrollmentRepo.Update(ctx, s.testData.enrollment))

	decided, err := s.service.Decide(ctx, resp.ID, &dto.DecideClaimRequest{
		Decision: types.ClaimDecisionApprove,
	})
	s.NoError(err)
	s.False(decided.Succeeded())
	s.True(decided.Failures.HasCode(claim.FailureCodeLinkedTransactionVoided))
	s.True(decided.Failures.HasCode(claim.FailureCodePaymentNotCurrent))
	s.GreaterOrEqual(len(decided.Failures), 2)
}

func (s *ClaimServiceSuite) TestDecidePaymentNotCurrentReadFresh() {
	ctx := s.GetContext()
	resp, err := s.service.File(ctx, s.fileRequest())
	s.NoError(err)

	// Billing producer lapses the enrollment after filing
	s.testData.enrollment.PaymentCurrent = false
	s.NoError(s.GetStores().EnrollmentRepo.Update(ctx, s.testData.enrollment))

	decided, err := s.service.Decide(ctx, resp.ID, &dto.DecideClaimRequest{
		Decision: types.ClaimDecisionApprove,
	})
	s.NoError(err)
	s.False(decided.Succeeded())
	s.True(decided.Failures.HasCode(claim.FailureCodePaymentNotCurrent))
}

func (s *ClaimServiceSuite) TestDecideClaimNotPending() {
	ctx := s.GetContext()
	resp, err := s.service.File(ctx, s.fileRequest())
	s.NoError(err)

	decided, err := s.service.Decide(ctx, resp.ID, &dto.DecideClaimRequest{
		Decision: types.ClaimDecisionApprove,
	})
	s.NoError(err)
	s.True(decided.Succeeded())

	_, err = s.service.Decide(ctx, resp.ID, &dto.DecideClaimRequest{
		Decision: types.ClaimDecisionReject,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *ClaimServiceSuite) TestDecideRejectDespiteVoidedEntry() {
	ctx := s.GetContext()
	resp, err := s.service.File(ctx, s.fileRequest())
	s.NoError(err)

	s.NoError(s.ledgerService.Void(ctx, s.testData.entry.ID))

	// Rejection never needs the payout checks
	decided, err := s.service.Decide(ctx, resp.ID, &dto.DecideClaimRequest{
		Decision: types.ClaimDecisionReject,
		Notes:    "entry reversed",
	})
	s.NoError(err)
	s.True(decided.Succeeded())
	s.Equal(types.ClaimStatusRejected, decided.Claim.ClaimStatus)
}

func (s *ClaimServiceSuite) TestFileClaimCrossTenant() {
	otherCtx := testutil.SetupContextForTenant("tenant_other")

	_, err := s.service.File(otherCtx, s.fileRequest())
	s.Error(err)
	// The other tenant cannot even see the enrollment
	s.True(ierr.IsNotFound(err))
}

func (s *ClaimServiceSuite) TestFileClaimForeignEntry() {
	ctx := s.GetContext()
	now := time.Now().UTC()

	foreign := &ledger.Entry{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		SubjectID:   "stu_other",
		Bucket:      types.AccountBucketChecking,
		Kind:        types.LedgerEntryKindPurchase,
		Amount:      decimal.NewFromInt(-20),
		AvailableAt: now,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().LedgerRepo.Create(ctx, foreign))

	req := s.fileRequest()
	req.LedgerEntryID = lo.ToPtr(foreign.ID)

	_, err := s.service.File(ctx, req)
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *ClaimServiceSuite) TestFileClaimMissingEntry() {
	req := s.fileRequest()
	req.LedgerEntryID = lo.ToPtr("ledg_does_not_exist")

	_, err := s.service.File(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *ClaimServiceSuite) TestFileClaimVoidedEntry() {
	ctx := s.GetContext()
	s.NoError(s.ledgerService.Void(ctx, s.testData.entry.ID))

	_, err := s.service.File(ctx, s.fileRequest())
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *ClaimServiceSuite) TestDecideOwnershipMismatch() {
	ctx := s.GetContext()
	now := time.Now().UTC()

	foreign := &ledger.Entry{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		SubjectID:   "stu_other",
		Bucket:      types.AccountBucketChecking,
		Kind:        types.LedgerEntryKindPurchase,
		Amount:      decimal.NewFromInt(-20),
		AvailableAt: now,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().LedgerRepo.Create(ctx, foreign))

	// A claim whose reference was re-pointed at someone else's entry after
	// filing; the decision-time re-validation must catch what filing missed
	c := &claim.Claim{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLAIM),
		ReferenceNumber: types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_CLAIM),
		EnrollmentID:    s.testData.enrollment.ID,
		PolicyID:        s.testData.policy.ID,
		SubjectID:       "stu_1",
		Variant:         types.ClaimVariantMonetary,
		LedgerEntryID:   lo.ToPtr(foreign.ID),
		RequestedAmount: decimal.NewFromInt(20),
		IncidentDate:    now.AddDate(0, 0, -1),
		FiledAt:         now,
		ClaimStatus:     types.ClaimStatusPending,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().ClaimRepo.Create(ctx, c))

	decided, err := s.service.Decide(ctx, c.ID, &dto.DecideClaimRequest{
		Decision: types.ClaimDecisionApprove,
	})
	s.NoError(err)
	s.False(decided.Succeeded())
	s.True(decided.Failures.HasCode(claim.FailureCodeOwnershipMismatch))

	stored, err := s.GetStores().ClaimRepo.Get(ctx, c.ID)
	s.NoError(err)
	s.Equal(types.ClaimStatusPending, stored.ClaimStatus)
	s.Nil(stored.PayoutEntryID)
}

func (s *ClaimServiceSuite) TestInKindClaim() {
	ctx := s.GetContext()
	now := time.Now().UTC()

	inKind := &policy.Policy{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_POLICY),
		Name:            "Homework Pass Cover",
		Premium:         decimal.NewFromInt(2),
		ChargeFrequency: types.PolicyChargeFrequencyMonthly,
		Variant:         types.ClaimVariantInKind,
		Active:          true,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PolicyRepo.Create(ctx, inKind))

	e := &enrollment.Enrollment{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ENROLLMENT),
		SubjectID:        "stu_1",
		PolicyID:         inKind.ID,
		EnrollmentStatus: types.EnrollmentStatusActive,
		PurchasedAt:      now.AddDate(0, 0, -1),
		CoverageStartAt:  now.AddDate(0, 0, -1),
		PaymentCurrent:   true,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().EnrollmentRepo.Create(ctx, e))

	resp, err := s.service.File(ctx, &dto.FileClaimRequest{
		SubjectID:         "stu_1",
		EnrollmentID:      e.ID,
		InKindDescription: "lost homework pass",
		IncidentDate:      now,
	})
	s.NoError(err)
	s.Equal(types.ClaimVariantInKind, resp.Variant)
	s.Nil(resp.LedgerEntryID)

	decided, err := s.service.Decide(ctx, resp.ID, &dto.DecideClaimRequest{
		Decision: types.ClaimDecisionApprove,
	})
	s.NoError(err)
	s.True(decided.Succeeded())
	s.Equal(types.ClaimStatusPaid, decided.Claim.ClaimStatus)
	// No monetary value assigned, so no ledger mutation
	s.Nil(decided.Claim.PayoutEntryID)
}
