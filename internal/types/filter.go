package types

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

const (
	FILTER_DEFAULT_LIMIT = 50

	OrderDesc = "desc"
	OrderAsc  = "asc"
)

// BaseFilter defines common filtering capabilities
type BaseFilter interface {
	GetLimit() int
	GetOffset() int
	IsUnlimited() bool
	Validate() error
}

// QueryFilter represents a generic query filter with optional fields
type QueryFilter struct {
	Limit  *int    `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=1000"`
	Offset *int    `json:"offset,omitempty" form:"offset" validate:"omitempty,min=0"`
	Order  *string `json:"order,omitempty" form:"order" validate:"omitempty,oneof=asc desc"`
}

// NewDefaultQueryFilter defines default values for query filters
func NewDefaultQueryFilter() *QueryFilter {
	return &QueryFilter{
		Limit:  lo.ToPtr(FILTER_DEFAULT_LIMIT),
		Offset: lo.ToPtr(0),
		Order:  lo.ToPtr(OrderDesc),
	}
}

// NewNoLimitQueryFilter returns a filter that fetches every matching row
func NewNoLimitQueryFilter() *QueryFilter {
	return &QueryFilter{
		Offset: lo.ToPtr(0),
		Order:  lo.ToPtr(OrderDesc),
	}
}

// IsUnlimited returns true if this is an unlimited query
func (f QueryFilter) IsUnlimited() bool {
	return f.Limit == nil
}

// GetLimit returns the effective limit for the query
func (f QueryFilter) GetLimit() int {
	if f.IsUnlimited() {
		return 0
	}
	return *f.Limit
}

// GetOffset returns the effective offset for the query
func (f QueryFilter) GetOffset() int {
	if f.Offset == nil {
		return 0
	}
	return *f.Offset
}

// GetOrder returns the effective sort order for the query
func (f QueryFilter) GetOrder() string {
	if f.Order == nil {
		return OrderDesc
	}
	return *f.Order
}

func (f QueryFilter) Validate() error {
	return nil
}

// LedgerEntryFilter filters ledger entry listings
type LedgerEntryFilter struct {
	*QueryFilter

	SubjectID     string           `json:"subject_id,omitempty" form:"subject_id"`
	Bucket        *AccountBucket   `json:"bucket,omitempty" form:"bucket"`
	Kind          *LedgerEntryKind `json:"kind,omitempty" form:"kind"`
	IncludeVoided bool             `json:"include_voided,omitempty" form:"include_voided"`
	StartTime     *time.Time       `json:"start_time,omitempty" form:"start_time"`
	EndTime       *time.Time       `json:"end_time,omitempty" form:"end_time"`
}

func NewLedgerEntryFilter() *LedgerEntryFilter {
	return &LedgerEntryFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f *LedgerEntryFilter) Validate() error {
	if f.Bucket != nil {
		if err := f.Bucket.Validate(); err != nil {
			return err
		}
	}
	if f.Kind != nil {
		if err := f.Kind.Validate(); err != nil {
			return err
		}
	}
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return fmt.Errorf("end_time must not be before start_time")
	}
	return nil
}

// ClaimFilter filters claim listings
type ClaimFilter struct {
	*QueryFilter

	SubjectID     string       `json:"subject_id,omitempty" form:"subject_id"`
	EnrollmentID  string       `json:"enrollment_id,omitempty" form:"enrollment_id"`
	PolicyID      string       `json:"policy_id,omitempty" form:"policy_id"`
	LedgerEntryID string       `json:"ledger_entry_id,omitempty" form:"ledger_entry_id"`
	ClaimStatus   *ClaimStatus `json:"claim_status,omitempty" form:"claim_status"`
}

func NewClaimFilter() *ClaimFilter {
	return &ClaimFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f *ClaimFilter) Validate() error {
	if f.ClaimStatus != nil {
		if err := f.ClaimStatus.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// EnrollmentFilter filters enrollment listings
type EnrollmentFilter struct {
	*QueryFilter

	SubjectID        string            `json:"subject_id,omitempty" form:"subject_id"`
	PolicyID         string            `json:"policy_id,omitempty" form:"policy_id"`
	EnrollmentStatus *EnrollmentStatus `json:"enrollment_status,omitempty" form:"enrollment_status"`
}

func NewEnrollmentFilter() *EnrollmentFilter {
	return &EnrollmentFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f *EnrollmentFilter) Validate() error {
	if f.EnrollmentStatus != nil {
		if err := f.EnrollmentStatus.Validate(); err != nil {
			return err
		}
	}
	return nil
}
