package postgres

import (
	"context"
	"time"

	"github.com/classbank/classbank/internal/domain/claim"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/logger"
	"github.com/classbank/classbank/internal/postgres"
	"github.com/classbank/classbank/internal/types"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

type claimRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewClaimRepository creates a new instance of claim repository
func NewClaimRepository(db postgres.IClient, logger *logger.Logger) claim.Repository {
	return &claimRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a claim. The partial unique index on (ledger_entry_id)
// over non-rejected claims is the authoritative guard against double
// claiming; a unique violation here surfaces as an already-exists error
// instead of a raw database error.
func (r *claimRepository) Create(ctx context.Context, c *claim.Claim) error {
	query := `
		INSERT INTO claims (
			id, reference_number, enrollment_id, policy_id, subject_id,
			variant, ledger_entry_id, requested_amount, in_kind_description,
			incident_date, filed_at, claim_status,
			approved_amount, decided_at, reviewer_id, review_notes, payout_entry_id,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :reference_number, :enrollment_id, :policy_id, :subject_id,
			:variant, :ledger_entry_id, :requested_amount, :in_kind_description,
			:incident_date, :filed_at, :claim_status,
			:approved_amount, :decided_at, :reviewer_id, :review_notes, :payout_entry_id,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating claim",
		"claim_id", c.ID,
		"enrollment_id", c.EnrollmentID,
		"subject_id", c.SubjectID,
		"variant", c.Variant,
		"tenant_id", c.TenantID,
	)

	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pgUniqueViolation {
			return ierr.WithError(err).
				WithHint("This transaction already has an active claim against it").
				WithReportableDetails(map[string]any{
					"ledger_entry_id": c.LedgerEntryID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create claim").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *claimRepository) Get(ctx context.Context, id string) (*claim.Claim, error) {
	return r.get(ctx, id, false)
}

func (r *claimRepository) GetForUpdate(ctx context.Context, id string) (*claim.Claim, error) {
	return r.get(ctx, id, true)
}

func (r *claimRepository) get(ctx context.Context, id string, forUpdate bool) (*claim.Claim, error) {
	query := `
		SELECT * FROM claims
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = :status`
	if forUpdate {
		query += `
		FOR UPDATE`
	}

	params := map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query claim").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("claim not found").
			WithHint("The claim does not exist").
			WithReportableDetails(map[string]any{
				"claim_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	var c claim.Claim
	if err := rows.StructScan(&c); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan claim").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *claimRepository) Update(ctx context.Context, c *claim.Claim) error {
	query := `
		UPDATE claims
		SET
			claim_status = :claim_status,
			approved_amount = :approved_amount,
			decided_at = :decided_at,
			reviewer_id = :reviewer_id,
			review_notes = :review_notes,
			payout_entry_id = :payout_entry_id,
			updated_at = NOW(),
			updated_by = :updated_by
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"id":              c.ID,
		"claim_status":    c.ClaimStatus,
		"approved_amount": c.ApprovedAmount,
		"decided_at":      c.DecidedAt,
		"reviewer_id":     c.ReviewerID,
		"review_notes":    c.ReviewNotes,
		"payout_entry_id": c.PayoutEntryID,
		"updated_by":      types.GetUserID(ctx),
		"tenant_id":       types.GetTenantID(ctx),
		"status":          types.StatusPublished,
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update claim").
			Mark(ierr.ErrDatabase)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to get rows affected").
			Mark(ierr.ErrDatabase)
	}

	if rowsAffected == 0 {
		return ierr.NewError("claim not found").
			WithHint("The claim does not exist").
			WithReportableDetails(map[string]any{
				"claim_id": c.ID,
			}).
			Mark(ierr.ErrNotFound)
	}

	return nil
}

func (r *claimRepository) List(ctx context.Context, filter *types.ClaimFilter) ([]*claim.Claim, error) {
	query := `
		SELECT * FROM claims
		WHERE tenant_id = :tenant_id
		AND status = :status`
	query += claimFilterClauses(filter)
	query += `
		ORDER BY filed_at DESC`
	if !filter.IsUnlimited() {
		query += `
		LIMIT :limit OFFSET :offset`
	}

	params := claimFilterParams(ctx, filter)

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query claims").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var claims []*claim.Claim
	for rows.Next() {
		var c claim.Claim
		if err := rows.StructScan(&c); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan claim").
				Mark(ierr.ErrDatabase)
		}
		claims = append(claims, &c)
	}

	if err = rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Error iterating claim rows").
			Mark(ierr.ErrDatabase)
	}

	return claims, nil
}

func (r *claimRepository) Count(ctx context.Context, filter *types.ClaimFilter) (int, error) {
	query := `
		SELECT COUNT(*) FROM claims
		WHERE tenant_id = :tenant_id
		AND status = :status`
	query += claimFilterClauses(filter)

	params := claimFilterParams(ctx, filter)
	return r.count(ctx, query, params)
}

func (r *claimRepository) CountActiveForEntry(ctx context.Context, ledgerEntryID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM claims
		WHERE ledger_entry_id = :ledger_entry_id
		AND claim_status != :rejected
		AND tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"ledger_entry_id": ledgerEntryID,
		"rejected":        types.ClaimStatusRejected,
		"tenant_id":       types.GetTenantID(ctx),
		"status":          types.StatusPublished,
	}
	return r.count(ctx, query, params)
}

func (r *claimRepository) CountDecidedInPeriod(ctx context.Context, subjectID, policyID string, periodStart, periodEnd time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM claims
		WHERE subject_id = :subject_id
		AND policy_id = :policy_id
		AND claim_status IN (:approved, :paid)
		AND decided_at >= :period_start
		AND decided_at < :period_end
		AND tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"subject_id":   subjectID,
		"policy_id":    policyID,
		"approved":     types.ClaimStatusApproved,
		"paid":         types.ClaimStatusPaid,
		"period_start": periodStart,
		"period_end":   periodEnd,
		"tenant_id":    types.GetTenantID(ctx),
		"status":       types.StatusPublished,
	}
	return r.count(ctx, query, params)
}

func (r *claimRepository) CountByPolicy(ctx context.Context, policyID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM claims
		WHERE policy_id = :policy_id
		AND tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"policy_id": policyID,
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}
	return r.count(ctx, query, params)
}

func (r *claimRepository) count(ctx context.Context, query string, params map[string]interface{}) (int, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count claims").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, ierr.WithError(err).
				WithHint("Failed to scan count").
				Mark(ierr.ErrDatabase)
		}
	}
	return count, nil
}

func claimFilterClauses(filter *types.ClaimFilter) string {
	var clauses string
	if filter.SubjectID != "" {
		clauses += `
		AND subject_id = :subject_id`
	}
	if filter.EnrollmentID != "" {
		clauses += `
		AND enrollment_id = :enrollment_id`
	}
	if filter.PolicyID != "" {
		clauses += `
		AND policy_id = :policy_id`
	}
	if filter.LedgerEntryID != "" {
		clauses += `
		AND ledger_entry_id = :ledger_entry_id`
	}
	if filter.ClaimStatus != nil {
		clauses += `
		AND claim_status = :claim_status`
	}
	return clauses
}

func claimFilterParams(ctx context.Context, filter *types.ClaimFilter) map[string]interface{} {
	params := map[string]interface{}{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
		"limit":     filter.GetLimit(),
		"offset":    filter.GetOffset(),
	}
	if filter.SubjectID != "" {
		params["subject_id"] = filter.SubjectID
	}
	if filter.EnrollmentID != "" {
		params["enrollment_id"] = filter.EnrollmentID
	}
	if filter.PolicyID != "" {
		params["policy_id"] = filter.PolicyID
	}
	if filter.LedgerEntryID != "" {
		params["ledger_entry_id"] = filter.LedgerEntryID
	}
	if filter.ClaimStatus != nil {
		params["claim_status"] = *filter.ClaimStatus
	}
	return params
}
