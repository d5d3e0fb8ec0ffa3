package postgres

import (
	"context"

	"github.com/classbank/classbank/internal/domain/enrollment"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/logger"
	"github.com/classbank/classbank/internal/postgres"
	"github.com/classbank/classbank/internal/types"
)

type enrollmentRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewEnrollmentRepository creates a new instance of enrollment repository
func NewEnrollmentRepository(db postgres.IClient, logger *logger.Logger) enrollment.Repository {
	return &enrollmentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *enrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) error {
	query := `
		INSERT INTO enrollments (
			id, subject_id, policy_id, enrollment_status,
			purchased_at, coverage_start_at,
			payment_current, last_payment_at, next_payment_due_at, unpaid_days,
			cancelled_at,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :subject_id, :policy_id, :enrollment_status,
			:purchased_at, :coverage_start_at,
			:payment_current, :last_payment_at, :next_payment_due_at, :unpaid_days,
			:cancelled_at,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating enrollment",
		"enrollment_id", e.ID,
		"subject_id", e.SubjectID,
		"policy_id", e.PolicyID,
		"tenant_id", e.TenantID,
	)

	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create enrollment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *enrollmentRepository) Get(ctx context.Context, id string) (*enrollment.Enrollment, error) {
	return r.get(ctx, id, false)
}

func (r *enrollmentRepository) GetForUpdate(ctx context.Context, id string) (*enrollment.Enrollment, error) {
	return r.get(ctx, id, true)
}

func (r *enrollmentRepository) get(ctx context.Context, id string, forUpdate bool) (*enrollment.Enrollment, error) {
	query := `
		SELECT * FROM enrollments
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
			WithHint("Failed to query enrollment").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("enrollment not found").
			WithHint("The enrollment does not exist").
			WithReportableDetails(map[string]any{
				"enrollment_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	var e enrollment.Enrollment
	if err := rows.StructScan(&e); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan enrollment").
			Mark(ierr.ErrDatabase)
	}
	return &e, nil
}

func (r *enrollmentRepository) Update(ctx context.Context, e *enrollment.Enrollment) error {
	query := `
		UPDATE enrollments
		SET
			enrollment_status = :enrollment_status,
			payment_current = :payment_current,
			last_payment_at = :last_payment_at,
			next_payment_due_at = :next_payment_due_at,
			unpaid_days = :unpaid_days,
			cancelled_at = :cancelled_at,
			updated_at = NOW(),
			updated_by = :updated_by
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"id":                  e.ID,
		"enrollment_status":   e.EnrollmentStatus,
		"payment_current":     e.PaymentCurrent,
		"last_payment_at":     e.LastPaymentAt,
		"next_payment_due_at": e.NextPaymentDueAt,
		"unpaid_days":         e.UnpaidDays,
		"cancelled_at":        e.CancelledAt,
		"updated_by":          types.GetUserID(ctx),
		"tenant_id":           types.GetTenantID(ctx),
		"status":              types.StatusPublished,
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update enrollment").
			Mark(ierr.ErrDatabase)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to get rows affected").
			Mark(ierr.ErrDatabase)
	}

	if rowsAffected == 0 {
		return ierr.NewError("enrollment not found").
			WithHint("The enrollment does not exist").
			WithReportableDetails(map[string]any{
				"enrollment_id": e.ID,
			}).
			Mark(ierr.ErrNotFound)
	}

	return nil
}

func (r *enrollmentRepository) List(ctx context.Context, filter *types.EnrollmentFilter) ([]*enrollment.Enrollment, error) {
	query := `
		SELECT * FROM enrollments
		WHERE tenant_id = :tenant_id
		AND status = :status`
	if filter.SubjectID != "" {
		query += `
		AND subject_id = :subject_id`
	}
	if filter.PolicyID != "" {
		query += `
		AND policy_id = :policy_id`
	}
	if filter.EnrollmentStatus != nil {
		query += `
		AND enrollment_status = :enrollment_status`
	}
	query += `
		ORDER BY purchased_at DESC`
	if !filter.IsUnlimited() {
		query += `
		LIMIT :limit OFFSET :offset`
	}

	params := map[string]interface{}{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
		"limit":     filter.GetLimit(),
		"offset":    filter.GetOffset(),
	}
	if filter.SubjectID != "" {
		params["subject_id"] = filter.SubjectID
	}
	if filter.PolicyID != "" {
		params["policy_id"] = filter.PolicyID
	}
	if filter.EnrollmentStatus != nil {
		params["enrollment_status"] = *filter.EnrollmentStatus
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query enrollments").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var enrollments []*enrollment.Enrollment
	for rows.Next() {
		var e enrollment.Enrollment
		if err := rows.StructScan(&e); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan enrollment").
				Mark(ierr.ErrDatabase)
		}
		enrollments = append(enrollments, &e)
	}

	if err = rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Error iterating enrollment rows").
			Mark(ierr.ErrDatabase)
	}

	return enrollments, nil
}

func (r *enrollmentRepository) FindActive(ctx context.Context, subjectID, policyID string) (*enrollment.Enrollment, error) {
	query := `
		SELECT * FROM enrollments
		WHERE subject_id = :subject_id
		AND policy_id = :policy_id
		AND enrollment_status = :enrollment_status
		AND tenant_id = :tenant_id
		AND status = :status
		ORDER BY purchased_at DESC
		LIMIT 1`

	params := map[string]interface{}{
		"subject_id":        subjectID,
		"policy_id":         policyID,
		"enrollment_status": types.EnrollmentStatusActive,
		"tenant_id":         types.GetTenantID(ctx),
		"status":            types.StatusPublished,
	}

	return r.findOne(ctx, query, params)
}

func (r *enrollmentRepository) FindLatest(ctx context.Context, subjectID, policyID string) (*enrollment.Enrollment, error) {
	query := `
		SELECT * FROM enrollments
		WHERE subject_id = :subject_id
		AND policy_id = :policy_id
		AND tenant_id = :tenant_id
		AND status = :status
		ORDER BY purchased_at DESC
		LIMIT 1`

	params := map[string]interface{}{
		"subject_id": subjectID,
		"policy_id":  policyID,
		"tenant_id":  types.GetTenantID(ctx),
		"status":     types.StatusPublished,
	}

	return r.findOne(ctx, query, params)
}

func (r *enrollmentRepository) findOne(ctx context.Context, query string, params map[string]interface{}) (*enrollment.Enrollment, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query enrollment").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("enrollment not found").
			WithHint("No matching enrollment exists").
			Mark(ierr.ErrNotFound)
	}

	var e enrollment.Enrollment
	if err := rows.StructScan(&e); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan enrollment").
			Mark(ierr.ErrDatabase)
	}
	return &e, nil
}
