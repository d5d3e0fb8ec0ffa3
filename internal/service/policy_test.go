package service

import (
	"testing"
	"time"

	"github.com/classbank/classbank/internal/api/dto"
	"github.com/classbank/classbank/internal/domain/claim"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/testutil"
	"github.com/classbank/classbank/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PolicyServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PolicyService
}

func TestPolicyService(t *testing.T) {
	suite.Run(t, new(PolicyServiceSuite))
}

func (s *PolicyServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPolicyService(ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		DB:             s.GetDB(),
		Guard:          s.GetGuard(),
		LedgerRepo:     s.GetStores().LedgerRepo,
		PolicyRepo:     s.GetStores().PolicyRepo,
		EnrollmentRepo: s.GetStores().EnrollmentRepo,
		ClaimRepo:      s.GetStores().ClaimRepo,
	})
}

func (s *PolicyServiceSuite) create() *dto.PolicyResponse {
	resp, err := s.service.Create(s.GetContext(), &dto.CreatePolicyRequest{
		Name:               "Purchase Protection",
		Premium:            decimal.NewFromInt(5),
		ChargeFrequency:    types.PolicyChargeFrequencyMonthly,
		Variant:            types.ClaimVariantMonetary,
		WaitingPeriodDays:  7,
		ClaimWindowDays:    30,
		MaxClaimsPerPeriod: 2,
		MaxClaimAmount:     decimal.NewFromInt(100),
	})
	s.NoError(err)
	return resp
}

func (s *PolicyServiceSuite) TestCreate() {
	resp := s.create()
	s.True(resp.Active)
	s.NotEmpty(resp.ID)

	stored, err := s.service.Get(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal("Purchase Protection", stored.Name)
}

func (s *PolicyServiceSuite) TestCreateMissingName() {
	_, err := s.service.Create(s.GetContext(), &dto.CreatePolicyRequest{
		ChargeFrequency: types.PolicyChargeFrequencyMonthly,
		Variant:         types.ClaimVariantMonetary,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PolicyServiceSuite) TestCreateWithUnknownBundlePolicy() {
	_, err := s.service.Create(s.GetContext(), &dto.CreatePolicyRequest{
		Name:            "Bundled",
		ChargeFrequency: types.PolicyChargeFrequencyMonthly,
		Variant:         types.ClaimVariantMonetary,
		BundlePolicyID:  lo.ToPtr("pol_missing"),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PolicyServiceSuite) TestGetMissing() {
	_, err := s.service.Get(s.GetContext(), "pol_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PolicyServiceSuite) TestListActiveOnly() {
	first := s.create()
	resp, err := s.service.Create(s.GetContext(), &dto.CreatePolicyRequest{
		Name:            "Retired Cover",
		ChargeFrequency: types.PolicyChargeFrequencyOnce,
		Variant:         types.ClaimVariantInKind,
	})
	s.NoError(err)
	s.NoError(s.service.Deactivate(s.GetContext(), resp.ID))

	all, err := s.service.List(s.GetContext(), false)
	s.NoError(err)
	s.Len(all.Items, 2)

	active, err := s.service.List(s.GetContext(), true)
	s.NoError(err)
	s.Len(active.Items, 1)
	s.Equal(first.ID, active.Items[0].ID)
}

func (s *PolicyServiceSuite) TestUpdate() {
	resp := s.create()

	updated, err := s.service.Update(s.GetContext(), resp.ID, &dto.UpdatePolicyRequest{
		Premium:         lo.ToPtr(decimal.NewFromInt(8)),
		ClaimWindowDays: lo.ToPtr(45),
	})
	s.NoError(err)
	s.True(updated.Premium.Equal(decimal.NewFromInt(8)))
	s.Equal(45, updated.ClaimWindowDays)
}

func (s *PolicyServiceSuite) TestUpdateFrozenOnceClaimsExist() {
	resp := s.create()

	c := &claim.Claim{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLAIM),
		ReferenceNumber: types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_CLAIM),
		EnrollmentID:    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ENROLLMENT),
		PolicyID:        resp.ID,
		SubjectID:       "stu_1",
		Variant:         types.ClaimVariantMonetary,
		LedgerEntryID:   lo.ToPtr(types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY)),
		RequestedAmount: decimal.NewFromInt(10),
		IncidentDate:    time.Now().UTC(),
		FiledAt:         time.Now().UTC(),
		ClaimStatus:     types.ClaimStatusPending,
		BaseModel:       types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().ClaimRepo.Create(s.GetContext(), c))

	_, err := s.service.Update(s.GetContext(), resp.ID, &dto.UpdatePolicyRequest{
		Premium: lo.ToPtr(decimal.NewFromInt(8)),
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	// Deactivation is still allowed
	s.NoError(s.service.Deactivate(s.GetContext(), resp.ID))
}

func (s *PolicyServiceSuite) TestDeactivateTwice() {
	resp := s.create()

	s.NoError(s.service.Deactivate(s.GetContext(), resp.ID))
	err := s.service.Deactivate(s.GetContext(), resp.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}
