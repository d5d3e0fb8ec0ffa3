package tenant

import (
	"context"

	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/logger"
	"github.com/classbank/classbank/internal/types"
)

// Guard enforces the tenant isolation boundary. Every service consults it
// before any other validation: an operation whose target entity carries a
// tenant different from the caller's scope is rejected with a cross tenant
// violation, and the attempt is logged for audit since it indicates either
// a bug or tampering. Repositories additionally scope every query by
// tenant_id, so the guard is a second, explicit line of defense rather
// than the only one.
type Guard struct {
	logger *logger.Logger
}

// NewGuard creates a new tenant guard
func NewGuard(logger *logger.Logger) *Guard {
	return &Guard{logger: logger}
}

// Verify checks that a tenant scope is present in the context at all
func (g *Guard) Verify(ctx context.Context) error {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return ierr.WithError(err).
			WithHint("Request is missing a tenant scope").
			Mark(ierr.ErrPermissionDenied)
	}
	return nil
}

// Check rejects the operation when the entity's stored tenant does not
// match the scope supplied on the context. No side effects beyond the
// rejection and the audit log line.
func (g *Guard) Check(ctx context.Context, entityType, entityID, entityTenantID string) error {
	if err := g.Verify(ctx); err != nil {
		return err
	}

	scope := types.GetTenantID(ctx)
	if entityTenantID != scope {
		g.logger.Warnw("cross tenant violation",
			"entity_type", entityType,
			"entity_id", entityID,
			"entity_tenant_id", entityTenantID,
			"scope_tenant_id", scope,
			"user_id", types.GetUserID(ctx),
			"request_id", types.GetRequestID(ctx),
		)
		return ierr.NewError("cross tenant violation").
			WithHint("The requested resource does not belong to this class").
			WithReportableDetails(map[string]any{
				"entity_type": entityType,
				"entity_id":   entityID,
			}).
			Mark(ierr.ErrCrossTenant)
	}

	return nil
}

// CheckSame verifies that two related entities carry the same tenant tag.
// A mismatch between related entities is a data-integrity defect, not a
// business error.
func (g *Guard) CheckSame(ctx context.Context, entityType, entityID, tenantA, tenantB string) error {
	if tenantA != tenantB {
		g.logger.Errorw("tenant mismatch between related entities",
			"entity_type", entityType,
			"entity_id", entityID,
			"tenant_a", tenantA,
			"tenant_b", tenantB,
			"request_id", types.GetRequestID(ctx),
		)
		return ierr.NewError("tenant mismatch between related entities").
			WithHint("Related resources belong to different classes").
			WithReportableDetails(map[string]any{
				"entity_type": entityType,
				"entity_id":   entityID,
			}).
			Mark(ierr.ErrCrossTenant)
	}
	return nil
}
