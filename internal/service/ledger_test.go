package service

import (
	"context"
	"testing"
	"time"

	"github.com/classbank/classbank/internal/api/dto"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/testutil"
	"github.com/classbank/classbank/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceSuite struct {
	testutil.BaseServiceTestSuite
	service LedgerService
}

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewLedgerService(ServiceParams{
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

func (s *LedgerServiceSuite) append(subjectID string, kind types.LedgerEntryKind, amount int64) *dto.LedgerEntryResponse {
	resp, err := s.service.Append(s.GetContext(), &dto.AppendLedgerEntryRequest{
		SubjectID: subjectID,
		Bucket:    types.AccountBucketChecking,
		Kind:      kind,
		Amount:    decimal.NewFromInt(amount),
	})
	s.NoError(err)
	return resp
}

func (s *LedgerServiceSuite) TestAppend() {
	resp := s.append("stu_1", types.LedgerEntryKindDeposit, 50)
	s.NotEmpty(resp.ID)
	s.False(resp.Voided)
	s.Equal(types.DefaultTenantID, resp.TenantID)
}

func (s *LedgerServiceSuite) TestAppendZeroAmount() {
	_, err := s.service.Append(s.GetContext(), &dto.AppendLedgerEntryRequest{
		SubjectID: "stu_1",
		Bucket:    types.AccountBucketChecking,
		Kind:      types.LedgerEntryKindDeposit,
		Amount:    decimal.Zero,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *LedgerServiceSuite) TestVoidOnce() {
	resp := s.append("stu_1", types.LedgerEntryKindDeposit, 50)

	s.NoError(s.service.Void(s.GetContext(), resp.ID))

	entry, err := s.service.GetEntry(s.GetContext(), resp.ID)
	s.NoError(err)
	s.True(entry.Voided)
	s.NotNil(entry.VoidedAt)
	s.Equal(types.DefaultUserID, *entry.VoidedBy)

	// A second void is an error, never a silent no-op
	err = s.service.Void(s.GetContext(), resp.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *LedgerServiceSuite) TestVoidMissingEntry() {
	err := s.service.Void(s.GetContext(), "ledg_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *LedgerServiceSuite) TestGetBalance() {
	s.append("stu_1", types.LedgerEntryKindDeposit, 100)
	s.append("stu_1", types.LedgerEntryKindPurchase, -30)
	voided := s.append("stu_1", types.LedgerEntryKindFee, -10)
	s.append("stu_2", types.LedgerEntryKindDeposit, 500)

	s.NoError(s.service.Void(s.GetContext(), voided.ID))

	resp, err := s.service.GetBalance(s.GetContext(), "stu_1", types.AccountBucketChecking)
	s.NoError(err)
	s.True(resp.Balance.Equal(decimal.NewFromInt(70)), "voided entries must not count, got %s", resp.Balance)
}

func (s *LedgerServiceSuite) TestBalanceExcludesFutureEntries() {
	s.append("stu_1", types.LedgerEntryKindDeposit, 100)

	future := time.Now().UTC().AddDate(0, 0, 3)
	_, err := s.service.Append(s.GetContext(), &dto.AppendLedgerEntryRequest{
		SubjectID:   "stu_1",
		Bucket:      types.AccountBucketChecking,
		Kind:        types.LedgerEntryKindPayroll,
		Amount:      decimal.NewFromInt(25),
		AvailableAt: &future,
	})
	s.NoError(err)

	resp, err := s.service.GetBalance(s.GetContext(), "stu_1", types.AccountBucketChecking)
	s.NoError(err)
	s.True(resp.Balance.Equal(decimal.NewFromInt(100)))
}

func (s *LedgerServiceSuite) TestListEntries() {
	s.append("stu_1", types.LedgerEntryKindDeposit, 100)
	s.append("stu_1", types.LedgerEntryKindPurchase, -30)
	s.append("stu_2", types.LedgerEntryKindDeposit, 10)

	filter := types.NewLedgerEntryFilter()
	filter.SubjectID = "stu_1"
	resp, err := s.service.ListEntries(s.GetContext(), filter)
	s.NoError(err)
	s.Len(resp.Items, 2)
	s.Equal(2, resp.Pagination.Total)

	filter.Kind = lo.ToPtr(types.LedgerEntryKindPurchase)
	resp, err = s.service.ListEntries(s.GetContext(), filter)
	s.NoError(err)
	s.Len(resp.Items, 1)
}

func (s *LedgerServiceSuite) TestCrossTenantIsolation() {
	resp := s.append("stu_1", types.LedgerEntryKindDeposit, 50)

	otherCtx := testutil.SetupContextForTenant("tenant_other")
	_, err := s.service.GetEntry(otherCtx, resp.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	balance, err := s.service.GetBalance(otherCtx, "stu_1", types.AccountBucketChecking)
	s.NoError(err)
	s.True(balance.Balance.IsZero())
}

func (s *LedgerServiceSuite) TestMissingTenantScope() {
	_, err := s.service.GetBalance(context.Background(), "stu_1", types.AccountBucketChecking)
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
}
