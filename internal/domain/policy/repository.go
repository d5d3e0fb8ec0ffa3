package policy

import (
	"context"
)

// Repository defines the interface for policy catalog persistence operations
type Repository interface {
	Create(ctx context.Context, p *Policy) error
	Get(ctx context.Context, id string) (*Policy, error)
	List(ctx context.Context, activeOnly bool) ([]*Policy, error)
	Update(ctx context.Context, p *Policy) error
}
