package service

import (
	"context"

	"github.com/classbank/classbank/internal/api/dto"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/types"
	"github.com/samber/lo"

	"github.com/classbank/classbank/internal/domain/policy"
)

// PolicyService manages the insurance policy catalog. A policy becomes
// immutable once claims exist against it; only deactivation remains.
type PolicyService interface {
	Create(ctx context.Context, req *dto.CreatePolicyRequest) (*dto.PolicyResponse, error)
	Get(ctx context.Context, policyID string) (*dto.PolicyResponse, error)
	List(ctx context.Context, activeOnly bool) (*dto.ListPoliciesResponse, error)
	Update(ctx context.Context, policyID string, req *dto.UpdatePolicyRequest) (*dto.PolicyResponse, error)
	Deactivate(ctx context.Context, policyID string) error
}

type policyService struct {
	ServiceParams
}

func NewPolicyService(params ServiceParams) PolicyService {
	return &policyService{
		ServiceParams: params,
	}
}

func (s *policyService) Create(ctx context.Context, req *dto.CreatePolicyRequest) (*dto.PolicyResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := req.ToPolicy(ctx)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	// A bundle linkage must point at an existing policy in the same tenant
	if p.BundlePolicyID != nil {
		linked, err := s.PolicyRepo.Get(ctx, *p.BundlePolicyID)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Bundle policy does not exist").
				Mark(ierr.ErrValidation)
		}
		if err := s.Guard.CheckSame(ctx, "policy", p.ID, p.TenantID, linked.TenantID); err != nil {
			return nil, err
		}
	}

	if err := s.PolicyRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Infow("created policy",
		"policy_id", p.ID,
		"name", p.Name,
	)
	return dto.ToPolicyResponse(p), nil
}

func (s *policyService) Get(ctx context.Context, policyID string) (*dto.PolicyResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}

	p, err := s.PolicyRepo.Get(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.Check(ctx, "policy", p.ID, p.TenantID); err != nil {
		return nil, err
	}
	return dto.ToPolicyResponse(p), nil
}

func (s *policyService) List(ctx context.Context, activeOnly bool) (*dto.ListPoliciesResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}

	policies, err := s.PolicyRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	items := lo.Map(policies, func(p *policy.Policy, _ int) *dto.PolicyResponse {
		return dto.ToPolicyResponse(p)
	})

	response := types.NewListResponse(items, len(items), len(items), 0)
	return &response, nil
}

func (s *policyService) Update(ctx context.Context, policyID string, req *dto.UpdatePolicyRequest) (*dto.PolicyResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PolicyRepo.Get(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.Check(ctx, "policy", p.ID, p.TenantID); err != nil {
		return nil, err
	}

	claimCount, err := s.ClaimRepo.CountByPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if claimCount > 0 {
		return nil, ierr.NewError("policy has claims against it").
			WithHint("A policy with filed claims can only be deactivated").
			WithReportableDetails(map[string]any{
				"policy_id":   policyID,
				"claim_count": claimCount,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Premium != nil {
		p.Premium = *req.Premium
	}
	if req.Autopay != nil {
		p.Autopay = *req.Autopay
	}
	if req.WaitingPeriodDays != nil {
		p.WaitingPeriodDays = *req.WaitingPeriodDays
	}
	if req.ClaimWindowDays != nil {
		p.ClaimWindowDays = *req.ClaimWindowDays
	}
	if req.MaxClaimsPerPeriod != nil {
		p.MaxClaimsPerPeriod = *req.MaxClaimsPerPeriod
	}
	if req.MaxClaimAmount != nil {
		p.MaxClaimAmount = *req.MaxClaimAmount
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.PolicyRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return dto.ToPolicyResponse(p), nil
}

// Deactivate retires a policy from the catalog. Existing enrollments and
// claims keep working; new enrollments are blocked.
func (s *policyService) Deactivate(ctx context.Context, policyID string) error {
	if err := s.Guard.Verify(ctx); err != nil {
		return err
	}

	p, err := s.PolicyRepo.Get(ctx, policyID)
	if err != nil {
		return err
	}
	if err := s.Guard.Check(ctx, "policy", p.ID, p.TenantID); err != nil {
		return err
	}

	if !p.Active {
		return ierr.NewError("policy already inactive").
			WithHint("The policy has already been deactivated").
			WithReportableDetails(map[string]any{
				"policy_id": policyID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	p.Active = false
	if err := s.PolicyRepo.Update(ctx, p); err != nil {
		return err
	}

	s.Logger.Infow("deactivated policy",
		"policy_id", policyID,
	)
	return nil
}
