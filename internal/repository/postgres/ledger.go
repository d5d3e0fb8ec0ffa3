package postgres

import (
	"context"

	"github.com/classbank/classbank/internal/domain/ledger"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/logger"
	"github.com/classbank/classbank/internal/postgres"
	"github.com/classbank/classbank/internal/types"
	"github.com/shopspring/decimal"
)

type ledgerRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewLedgerRepository creates a new instance of ledger repository
func NewLedgerRepository(db postgres.IClient, logger *logger.Logger) ledger.Repository {
	return &ledgerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ledgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (
			id, subject_id, bucket, kind, amount, description, metadata,
			available_at, voided, voided_at, voided_by,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :subject_id, :bucket, :kind, :amount, :description, :metadata,
			:available_at, :voided, :voided_at, :voided_by,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating ledger entry",
		"entry_id", entry.ID,
		"subject_id", entry.SubjectID,
		"kind", entry.Kind,
		"tenant_id", entry.TenantID,
	)

	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create ledger entry").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *ledgerRepository) Get(ctx context.Context, id string) (*ledger.Entry, error) {
	return r.get(ctx, id, false)
}

func (r *ledgerRepository) GetForUpdate(ctx context.Context, id string) (*ledger.Entry, error) {
	return r.get(ctx, id, true)
}

func (r *ledgerRepository) get(ctx context.Context, id string, forUpdate bool) (*ledger.Entry, error) {
	query := `
		SELECT * FROM ledger_entries
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
			WithHint("Failed to query ledger entry").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("ledger entry not found").
			WithHint("The referenced transaction does not exist").
			WithReportableDetails(map[string]any{
				"entry_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	var entry ledger.Entry
	if err := rows.StructScan(&entry); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan ledger entry").
			Mark(ierr.ErrDatabase)
	}
	return &entry, nil
}

// Void flips the void flag exactly once. The guard on voided = false makes a
// double void a zero-row update, which is reported as already voided rather
// than silently succeeding.
func (r *ledgerRepository) Void(ctx context.Context, id string, actor string) error {
	query := `
		UPDATE ledger_entries
		SET
			voided = true,
			voided_at = NOW(),
			voided_by = :voided_by,
			updated_at = NOW(),
			updated_by = :updated_by
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = :status
		AND voided = false`

	params := map[string]interface{}{
		"id":         id,
		"voided_by":  actor,
		"updated_by": types.GetUserID(ctx),
		"tenant_id":  types.GetTenantID(ctx),
		"status":     types.StatusPublished,
	}

	r.logger.Debugw("voiding ledger entry",
		"entry_id", id,
		"actor", actor,
		"tenant_id", types.GetTenantID(ctx),
	)

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to void ledger entry").
			Mark(ierr.ErrDatabase)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to get rows affected").
			Mark(ierr.ErrDatabase)
	}

	if rowsAffected == 0 {
		// Distinguish a missing entry from a double void
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ierr.NewError("ledger entry already voided").
			WithHint("This transaction has already been reversed").
			WithReportableDetails(map[string]any{
				"entry_id": id,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	return nil
}

func (r *ledgerRepository) GetBalance(ctx context.Context, subjectID string, bucket types.AccountBucket) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE subject_id = :subject_id
		AND bucket = :bucket
		AND voided = false
		AND available_at <= NOW()
		AND tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"subject_id": subjectID,
		"bucket":     bucket,
		"tenant_id":  types.GetTenantID(ctx),
		"status":     types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("Failed to query balance").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var balance decimal.Decimal
	if rows.Next() {
		if err := rows.Scan(&balance); err != nil {
			return decimal.Zero, ierr.WithError(err).
				WithHint("Failed to scan balance").
				Mark(ierr.ErrDatabase)
		}
	}
	return balance, nil
}

func (r *ledgerRepository) List(ctx context.Context, filter *types.LedgerEntryFilter) ([]*ledger.Entry, error) {
	query := `
		SELECT * FROM ledger_entries
		WHERE tenant_id = :tenant_id
		AND status = :status`
	query += ledgerFilterClauses(filter)
	query += `
		ORDER BY created_at DESC`
	if !filter.IsUnlimited() {
		query += `
		LIMIT :limit OFFSET :offset`
	}

	params := ledgerFilterParams(ctx, filter)

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query ledger entries").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		var entry ledger.Entry
		if err := rows.StructScan(&entry); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan ledger entry").
				Mark(ierr.ErrDatabase)
		}
		entries = append(entries, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Error iterating ledger entry rows").
			Mark(ierr.ErrDatabase)
	}

	return entries, nil
}

func (r *ledgerRepository) Count(ctx context.Context, filter *types.LedgerEntryFilter) (int, error) {
	query := `
		SELECT COUNT(*) FROM ledger_entries
		WHERE tenant_id = :tenant_id
		AND status = :status`
	query += ledgerFilterClauses(filter)

	params := ledgerFilterParams(ctx, filter)

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count ledger entries").
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

func ledgerFilterClauses(filter *types.LedgerEntryFilter) string {
	var clauses string
	if filter.SubjectID != "" {
		clauses += `
		AND subject_id = :subject_id`
	}
	if filter.Bucket != nil {
		clauses += `
		AND bucket = :bucket`
	}
	if filter.Kind != nil {
		clauses += `
		AND kind = :kind`
	}
	if !filter.IncludeVoided {
		clauses += `
		AND voided = false`
	}
	if filter.StartTime != nil {
		clauses += `
		AND created_at >= :start_time`
	}
	if filter.EndTime != nil {
		clauses += `
		AND created_at < :end_time`
	}
	return clauses
}

func ledgerFilterParams(ctx context.Context, filter *types.LedgerEntryFilter) map[string]interface{} {
	params := map[string]interface{}{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
		"limit":     filter.GetLimit(),
		"offset":    filter.GetOffset(),
	}
	if filter.SubjectID != "" {
		params["subject_id"] = filter.SubjectID
	}
	if filter.Bucket != nil {
		params["bucket"] = *filter.Bucket
	}
	if filter.Kind != nil {
		params["kind"] = *filter.Kind
	}
	if filter.StartTime != nil {
		params["start_time"] = *filter.StartTime
	}
	if filter.EndTime != nil {
		params["end_time"] = *filter.EndTime
	}
	return params
}
