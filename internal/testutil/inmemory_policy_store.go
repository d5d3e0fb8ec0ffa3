package testutil

import (
	"context"
	"sync"

	"github.com/classbank/classbank/internal/domain/policy"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/types"
)

// InMemoryPolicyStore mirrors the postgres policy repository
type InMemoryPolicyStore struct {
	mu       sync.RWMutex
	policies map[string]*policy.Policy
}

func NewInMemoryPolicyStore() *InMemoryPolicyStore {
	return &InMemoryPolicyStore{
		policies: make(map[string]*policy.Policy),
	}
}

func (s *InMemoryPolicyStore) Create(ctx context.Context, p *policy.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		return ierr.NewError("policy ID cannot be empty").
			Mark(ierr.ErrValidation)
	}

	copied := *p
	s.policies[p.ID] = &copied
	return nil
}

func (s *InMemoryPolicyStore) Get(ctx context.Context, id string) (*policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.policies[id]
	if !exists || p.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("policy not found").
			WithHint("The policy does not exist").
			Mark(ierr.ErrNotFound)
	}
	copied := *p
	return &copied, nil
}

func (s *InMemoryPolicyStore) List(ctx context.Context, activeOnly bool) ([]*policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var policies []*policy.Policy
	for _, p := range s.policies {
		if p.TenantID != types.GetTenantID(ctx) {
			continue
		}
		if activeOnly && !p.Active {
			continue
		}
		copied := *p
		policies = append(policies, &copied)
	}
	return policies, nil
}

func (s *InMemoryPolicyStore) Update(ctx context.Context, p *policy.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.policies[p.ID]
	if !exists || existing.TenantID != types.GetTenantID(ctx) {
		return ierr.NewError("policy not found").
			WithHint("The policy does not exist").
			Mark(ierr.ErrNotFound)
	}

	copied := *p
	s.policies[p.ID] = &copied
	return nil
}
