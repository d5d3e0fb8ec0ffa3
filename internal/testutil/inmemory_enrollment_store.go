package testutil

import (
	"context"
	"sync"

	"github.com/classbank/classbank/internal/domain/enrollment"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/types"
)

// InMemoryEnrollmentStore mirrors the postgres enrollment repository
type InMemoryEnrollmentStore struct {
	mu          sync.RWMutex
	enrollments map[string]*enrollment.Enrollment
}

func NewInMemoryEnrollmentStore() *InMemoryEnrollmentStore {
	return &InMemoryEnrollmentStore{
		enrollments: make(map[string]*enrollment.Enrollment),
	}
}

func (s *InMemoryEnrollmentStore) Create(ctx context.Context, e *enrollment.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		return ierr.NewError("enrollment ID cannot be empty").
			Mark(ierr.ErrValidation)
	}

	copied := *e
	s.enrollments[e.ID] = &copied
	return nil
}

func (s *InMemoryEnrollmentStore) Get(ctx context.Context, id string) (*enrollment.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.enrollments[id]
	if !exists || e.TenantID != types.GetTenantID(ctx) {
		return nil, s.notFound()
	}
	copied := *e
	return &copied, nil
}

func (s *InMemoryEnrollmentStore) GetForUpdate(ctx context.Context, id string) (*enrollment.Enrollment, error) {
	return s.Get(ctx, id)
}

func (s *InMemoryEnrollmentStore) Update(ctx context.Context, e *enrollment.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.enrollments[e.ID]
	if !exists || existing.TenantID != types.GetTenantID(ctx) {
		return s.notFound()
	}

	copied := *e
	s.enrollments[e.ID] = &copied
	return nil
}

func (s *InMemoryEnrollmentStore) List(ctx context.Context, filter *types.EnrollmentFilter) ([]*enrollment.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var enrollments []*enrollment.Enrollment
	for _, e := range s.enrollments {
		if e.TenantID != types.GetTenantID(ctx) {
			continue
		}
		if filter.SubjectID != "" && e.SubjectID != filter.SubjectID {
			continue
		}
		if filter.PolicyID != "" && e.PolicyID != filter.PolicyID {
			continue
		}
		if filter.EnrollmentStatus != nil && e.EnrollmentStatus != *filter.EnrollmentStatus {
			continue
		}
		copied := *e
		enrollments = append(enrollments, &copied)
	}
	return enrollments, nil
}

func (s *InMemoryEnrollmentStore) FindActive(ctx context.Context, subjectID, policyID string) (*enrollment.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *enrollment.Enrollment
	for _, e := range s.enrollments {
		if e.TenantID != types.GetTenantID(ctx) {
			continue
		}
		if e.SubjectID != subjectID || e.PolicyID != policyID {
			continue
		}
		if e.EnrollmentStatus != types.EnrollmentStatusActive {
			continue
		}
		if latest == nil || e.PurchasedAt.After(latest.PurchasedAt) {
			latest = e
		}
	}
	if latest == nil {
		return nil, s.notFound()
	}
	copied := *latest
	return &copied, nil
}

func (s *InMemoryEnrollmentStore) FindLatest(ctx context.Context, subjectID, policyID string) (*enrollment.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *enrollment.Enrollment
	for _, e := range s.enrollments {
		if e.TenantID != types.GetTenantID(ctx) {
			continue
		}
		if e.SubjectID != subjectID || e.PolicyID != policyID {
			continue
		}
		if latest == nil || e.PurchasedAt.After(latest.PurchasedAt) {
			latest = e
		}
	}
	if latest == nil {
		return nil, s.notFound()
	}
	copied := *latest
	return &copied, nil
}

func (s *InMemoryEnrollmentStore) notFound() error {
	return ierr.NewError("enrollment not found").
		WithHint("No matching enrollment exists").
		Mark(ierr.ErrNotFound)
}
