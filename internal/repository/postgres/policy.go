package postgres

import (
	"context"

	"github.com/classbank/classbank/internal/cache"
	"github.com/classbank/classbank/internal/domain/policy"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/logger"
	"github.com/classbank/classbank/internal/postgres"
	"github.com/classbank/classbank/internal/types"
)

type policyRepository struct {
	db     postgres.IClient
	logger *logger.Logger
	cache  cache.Cache
}

// NewPolicyRepository creates a new instance of policy repository. The
// catalog is read-mostly, so single-policy reads go through the cache.
func NewPolicyRepository(db postgres.IClient, logger *logger.Logger, cache cache.Cache) policy.Repository {
	return &policyRepository{
		db:     db,
		logger: logger,
		cache:  cache,
	}
}

func (r *policyRepository) Create(ctx context.Context, p *policy.Policy) error {
	query := `
		INSERT INTO policies (
			id, name, description, premium, charge_frequency, autopay,
			variant, waiting_period_days, claim_window_days,
			max_claims_per_period, max_claim_amount,
			repurchase_cooldown_days, bundle_policy_id, bundle_discount_percent,
			active, tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :name, :description, :premium, :charge_frequency, :autopay,
			:variant, :waiting_period_days, :claim_window_days,
			:max_claims_per_period, :max_claim_amount,
			:repurchase_cooldown_days, :bundle_policy_id, :bundle_discount_percent,
			:active, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating policy",
		"policy_id", p.ID,
		"name", p.Name,
		"tenant_id", p.TenantID,
	)

	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create policy").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *policyRepository) Get(ctx context.Context, id string) (*policy.Policy, error) {
	key := cache.GenerateKey(cache.PrefixPolicy, ctx, id)
	if cached, found := r.cache.Get(ctx, key); found {
		if p, ok := cached.(*policy.Policy); ok {
			return p, nil
		}
	}

	query := `
		SELECT * FROM policies
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query policy").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("policy not found").
			WithHint("The policy does not exist").
			WithReportableDetails(map[string]any{
				"policy_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	var p policy.Policy
	if err := rows.StructScan(&p); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan policy").
			Mark(ierr.ErrDatabase)
	}

	r.cache.Set(ctx, key, &p, cache.DefaultExpiration)
	return &p, nil
}

func (r *policyRepository) List(ctx context.Context, activeOnly bool) ([]*policy.Policy, error) {
	query := `
		SELECT * FROM policies
		WHERE tenant_id = :tenant_id
		AND status = :status`
	if activeOnly {
		query += `
		AND active = true`
	}
	query += `
		ORDER BY created_at DESC`

	params := map[string]interface{}{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query policies").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var policies []*policy.Policy
	for rows.Next() {
		var p policy.Policy
		if err := rows.StructScan(&p); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan policy").
				Mark(ierr.ErrDatabase)
		}
		policies = append(policies, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Error iterating policy rows").
			Mark(ierr.ErrDatabase)
	}

	return policies, nil
}

func (r *policyRepository) Update(ctx context.Context, p *policy.Policy) error {
	query := `
		UPDATE policies
		SET
			name = :name,
			description = :description,
			premium = :premium,
			charge_frequency = :charge_frequency,
			autopay = :autopay,
			waiting_period_days = :waiting_period_days,
			claim_window_days = :claim_window_days,
			max_claims_per_period = :max_claims_per_period,
			max_claim_amount = :max_claim_amount,
			repurchase_cooldown_days = :repurchase_cooldown_days,
			bundle_policy_id = :bundle_policy_id,
			bundle_discount_percent = :bundle_discount_percent,
			active = :active,
			updated_at = NOW(),
			updated_by = :updated_by
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"id":                       p.ID,
		"name":                     p.Name,
		"description":              p.Description,
		"premium":                  p.Premium,
		"charge_frequency":         p.ChargeFrequency,
		"autopay":                  p.Autopay,
		"waiting_period_days":      p.WaitingPeriodDays,
		"claim_window_days":        p.ClaimWindowDays,
		"max_claims_per_period":    p.MaxClaimsPerPeriod,
		"max_claim_amount":         p.MaxClaimAmount,
		"repurchase_cooldown_days": p.RepurchaseCooldownDays,
		"bundle_policy_id":         p.BundlePolicyID,
		"bundle_discount_percent":  p.BundleDiscountPercent,
		"active":                   p.Active,
		"updated_by":               types.GetUserID(ctx),
		"tenant_id":                types.GetTenantID(ctx),
		"status":                   types.StatusPublished,
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update policy").
			Mark(ierr.ErrDatabase)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to get rows affected").
			Mark(ierr.ErrDatabase)
	}

	if rowsAffected == 0 {
		return ierr.NewError("policy not found").
			WithHint("The policy does not exist").
			WithReportableDetails(map[string]any{
				"policy_id": p.ID,
			}).
			Mark(ierr.ErrNotFound)
	}

	r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixPolicy, ctx, p.ID))
	return nil
}
