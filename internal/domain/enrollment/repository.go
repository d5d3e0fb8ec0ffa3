package enrollment

import (
	"context"

	"github.com/classbank/classbank/internal/types"
)

// Repository defines the interface for enrollment persistence operations
type Repository interface {
	Create(ctx context.Context, e *Enrollment) error
	Get(ctx context.Context, id string) (*Enrollment, error)

	// GetForUpdate retrieves an enrollment with a row lock. The claims
	// engine reads payment state this way at decision time so a concurrent
	// billing update committed before our commit is always observed.
	GetForUpdate(ctx context.Context, id string) (*Enrollment, error)

	Update(ctx context.Context, e *Enrollment) error
	List(ctx context.Context, filter *types.EnrollmentFilter) ([]*Enrollment, error)

	// FindActive returns the active enrollment for (subject, policy), or a
	// not found error when none exists
	FindActive(ctx context.Context, subjectID, policyID string) (*Enrollment, error)

	// FindLatest returns the most recently purchased enrollment for
	// (subject, policy) in any status; used for repurchase cooldown checks
	FindLatest(ctx context.Context, subjectID, policyID string) (*Enrollment, error)
}
