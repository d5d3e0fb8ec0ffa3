package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/classbank/classbank/internal/domain/claim"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/types"
)

// InMemoryClaimStore mirrors the postgres claim repository. Create
// enforces the one-claim-per-ledger-entry uniqueness under the mutex,
// exactly like the partial unique index does in postgres, so the
// concurrent-filing scenarios are testable without a database.
type InMemoryClaimStore struct {
	mu     sync.RWMutex
	claims map[string]*claim.Claim
}

func NewInMemoryClaimStore() *InMemoryClaimStore {
	return &InMemoryClaimStore{
		claims: make(map[string]*claim.Claim),
	}
}

func (s *InMemoryClaimStore) Create(ctx context.Context, c *claim.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		return ierr.NewError("claim ID cannot be empty").
			Mark(ierr.ErrValidation)
	}

	if c.LedgerEntryID != nil {
		for _, existing := range s.claims {
			if existing.LedgerEntryID == nil {
				continue
			}
			if *existing.LedgerEntryID == *c.LedgerEntryID && existing.ClaimStatus.CountsAgainstEntry() {
				return ierr.NewError("transaction already claimed").
					WithHint("This transaction already has an active claim against it").
					WithReportableDetails(map[string]any{
						"ledger_entry_id": *c.LedgerEntryID,
					}).
					Mark(ierr.ErrAlreadyExists)
			}
		}
	}

	copied := *c
	s.claims[c.ID] = &copied
	return nil
}

func (s *InMemoryClaimStore) Get(ctx context.Context, id string) (*claim.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.claims[id]
	if !exists || c.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("claim not found").
			WithHint("The claim does not exist").
			Mark(ierr.ErrNotFound)
	}
	copied := *c
	return &copied, nil
}

func (s *InMemoryClaimStore) GetForUpdate(ctx context.Context, id string) (*claim.Claim, error) {
	return s.Get(ctx, id)
}

func (s *InMemoryClaimStore) Update(ctx context.Context, c *claim.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.claims[c.ID]
	if !exists || existing.TenantID != types.GetTenantID(ctx) {
		return ierr.NewError("claim not found").
			WithHint("The claim does not exist").
			Mark(ierr.ErrNotFound)
	}

	copied := *c
	s.claims[c.ID] = &copied
	return nil
}

func (s *InMemoryClaimStore) List(ctx context.Context, filter *types.ClaimFilter) ([]*claim.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var claims []*claim.Claim
	for _, c := range s.claims {
		if !s.matches(ctx, c, filter) {
			continue
		}
		copied := *c
		claims = append(claims, &copied)
	}
	return claims, nil
}

func (s *InMemoryClaimStore) Count(ctx context.Context, filter *types.ClaimFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.claims {
		if s.matches(ctx, c, filter) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryClaimStore) CountActiveForEntry(ctx context.Context, ledgerEntryID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.claims {
		if c.TenantID != types.GetTenantID(ctx) {
			continue
		}
		if c.LedgerEntryID == nil || *c.LedgerEntryID != ledgerEntryID {
			continue
		}
		if c.ClaimStatus.CountsAgainstEntry() {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryClaimStore) CountDecidedInPeriod(ctx context.Context, subjectID, policyID string, periodStart, periodEnd time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.claims {
		if c.TenantID != types.GetTenantID(ctx) {
			continue
		}
		if c.SubjectID != subjectID || c.PolicyID != policyID {
			continue
		}
		if c.ClaimStatus != types.ClaimStatusApproved && c.ClaimStatus != types.ClaimStatusPaid {
			continue
		}
		if c.DecidedAt == nil || c.DecidedAt.Before(periodStart) || !c.DecidedAt.Before(periodEnd) {
			continue
		}
		count++
	}
	return count, nil
}

func (s *InMemoryClaimStore) CountByPolicy(ctx context.Context, policyID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.claims {
		if c.TenantID != types.GetTenantID(ctx) {
			continue
		}
		if c.PolicyID == policyID {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryClaimStore) matches(ctx context.Context, c *claim.Claim, filter *types.ClaimFilter) bool {
	if c.TenantID != types.GetTenantID(ctx) {
		return false
	}
	if filter.SubjectID != "" && c.SubjectID != filter.SubjectID {
		return false
	}
	if filter.EnrollmentID != "" && c.EnrollmentID != filter.EnrollmentID {
		return false
	}
	if filter.PolicyID != "" && c.PolicyID != filter.PolicyID {
		return false
	}
	if filter.LedgerEntryID != "" && (c.LedgerEntryID == nil || *c.LedgerEntryID != filter.LedgerEntryID) {
		return false
	}
	if filter.ClaimStatus != nil && c.ClaimStatus != *filter.ClaimStatus {
		return false
	}
	return true
}
