package service

import (
	"testing"
	"time"

	"github.com/classbank/classbank/internal/api/dto"
	"github.com/classbank/classbank/internal/domain/policy"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/testutil"
	"github.com/classbank/classbank/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type EnrollmentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service EnrollmentService
	policy  *policy.Policy
}

func TestEnrollmentService(t *testing.T) {
	suite.Run(t, new(EnrollmentServiceSuite))
}

func (s *EnrollmentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewEnrollmentService(ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		DB:             s.GetDB(),
		Guard:          s.GetGuard(),
		LedgerRepo:     s.GetStores().LedgerRepo,
		PolicyRepo:     s.GetStores().PolicyRepo,
		EnrollmentRepo: s.GetStores().EnrollmentRepo,
		ClaimRepo:      s.GetStores().ClaimRepo,
	})

	s.policy = &policy.Policy{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_POLICY),
		Name:                   "Purchase Protection",
		Premium:                decimal.NewFromInt(5),
		ChargeFrequency:        types.PolicyChargeFrequencyMonthly,
		Variant:                types.ClaimVariantMonetary,
		WaitingPeriodDays:      7,
		RepurchaseCooldownDays: 14,
		Active:                 true,
		BaseModel:              types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PolicyRepo.Create(s.GetContext(), s.policy))
}

func (s *EnrollmentServiceSuite) enroll(subjectID string) *dto.EnrollmentResponse {
	resp, err := s.service.Enroll(s.GetContext(), &dto.EnrollRequest{
		SubjectID: subjectID,
		PolicyID:  s.policy.ID,
	})
	s.NoError(err)
	return resp
}

func (s *EnrollmentServiceSuite) TestEnroll() {
	resp := s.enroll("stu_1")
	s.Equal(types.EnrollmentStatusActive, resp.EnrollmentStatus)
	s.True(resp.PaymentCurrent)
	s.NotNil(resp.NextPaymentDueAt)

	// Coverage starts after the waiting period
	expected := resp.PurchasedAt.AddDate(0, 0, 7)
	s.WithinDuration(expected, resp.CoverageStartAt, time.Second)

	// The first premium is charged to the ledger
	balance, err := s.GetStores().LedgerRepo.GetBalance(s.GetContext(), "stu_1", types.AccountBucketChecking)
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(-5)), "expected premium charge, got %s", balance)
}

func (s *EnrollmentServiceSuite) TestEnrollAlreadyEnrolled() {
	s.enroll("stu_1")

	_, err := s.service.Enroll(s.GetContext(), &dto.EnrollRequest{
		SubjectID: "stu_1",
		PolicyID:  s.policy.ID,
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *EnrollmentServiceSuite) TestEnrollInactivePolicy() {
	s.policy.Active = false
	s.NoError(s.GetStores().PolicyRepo.Update(s.GetContext(), s.policy))

	_, err := s.service.Enroll(s.GetContext(), &dto.EnrollRequest{
		SubjectID: "stu_1",
		PolicyID:  s.policy.ID,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *EnrollmentServiceSuite) TestRepurchaseCooldown() {
	resp := s.enroll("stu_1")
	s.NoError(s.service.Cancel(s.GetContext(), resp.ID))

	// Cancelled moments ago; the 14 day cooldown blocks re-enrollment
	_, err := s.service.Enroll(s.GetContext(), &dto.EnrollRequest{
		SubjectID: "stu_1",
		PolicyID:  s.policy.ID,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *EnrollmentServiceSuite) TestRecordPayment() {
	resp := s.enroll("stu_1")

	// Lapse then pay
	_, err := s.service.MarkUnpaid(s.GetContext(), resp.ID)
	s.NoError(err)
	_, err = s.service.MarkUnpaid(s.GetContext(), resp.ID)
	s.NoError(err)

	e, err := s.service.Get(s.GetContext(), resp.ID)
	s.NoError(err)
	s.False(e.PaymentCurrent)
	s.Equal(2, e.UnpaidDays)

	paid, err := s.service.RecordPayment(s.GetContext(), resp.ID, nil)
	s.NoError(err)
	s.True(paid.PaymentCurrent)
	s.Equal(0, paid.UnpaidDays)
	s.NotNil(paid.LastPaymentAt)

	// Enrollment premium plus the recorded payment's charge
	balance, err := s.GetStores().LedgerRepo.GetBalance(s.GetContext(), "stu_1", types.AccountBucketChecking)
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(-10)))
}

func (s *EnrollmentServiceSuite) TestCancelTerminal() {
	resp := s.enroll("stu_1")

	s.NoError(s.service.Cancel(s.GetContext(), resp.ID))

	e, err := s.service.Get(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.EnrollmentStatusCancelled, e.EnrollmentStatus)
	s.NotNil(e.CancelledAt)

	// No un-cancel, and no second cancel
	err = s.service.Cancel(s.GetContext(), resp.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	_, err = s.service.RecordPayment(s.GetContext(), resp.ID, nil)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *EnrollmentServiceSuite) TestSuspendResume() {
	resp := s.enroll("stu_1")

	s.NoError(s.service.Suspend(s.GetContext(), resp.ID))
	e, err := s.service.Get(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.EnrollmentStatusSuspended, e.EnrollmentStatus)

	// Suspending twice is invalid
	err = s.service.Suspend(s.GetContext(), resp.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	s.NoError(s.service.Resume(s.GetContext(), resp.ID))
	e, err = s.service.Get(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.EnrollmentStatusActive, e.EnrollmentStatus)
}

func (s *EnrollmentServiceSuite) TestBundleDiscount() {
	bundled := &policy.Policy{
		ID:                    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_POLICY),
		Name:                  "Locker Cover",
		Premium:               decimal.NewFromInt(10),
		ChargeFrequency:       types.PolicyChargeFrequencyMonthly,
		Variant:               types.ClaimVariantMonetary,
		BundlePolicyID:        lo.ToPtr(s.policy.ID),
		BundleDiscountPercent: decimal.NewFromInt(20),
		Active:                true,
		BaseModel:             types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PolicyRepo.Create(s.GetContext(), bundled))

	s.enroll("stu_1")

	_, err := s.service.Enroll(s.GetContext(), &dto.EnrollRequest{
		SubjectID: "stu_1",
		PolicyID:  bundled.ID,
	})
	s.NoError(err)

	// 5 for the base policy, 8 for the bundled one (10 less 20%)
	balance, err := s.GetStores().LedgerRepo.GetBalance(s.GetContext(), "stu_1", types.AccountBucketChecking)
	s.NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(-13)), "expected bundle discount applied, got %s", balance)
}

func (s *EnrollmentServiceSuite) TestListBySubject() {
	s.enroll("stu_1")
	s.enroll("stu_2")

	resp, err := s.service.ListBySubject(s.GetContext(), "stu_1")
	s.NoError(err)
	s.Len(resp.Items, 1)
	s.Equal("stu_1", resp.Items[0].SubjectID)
}
