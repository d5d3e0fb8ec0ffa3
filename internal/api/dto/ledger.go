package dto

import (
	"context"
	"time"

	"github.com/classbank/classbank/internal/domain/ledger"
	"github.com/classbank/classbank/internal/types"
	"github.com/classbank/classbank/internal/validator"
	"github.com/shopspring/decimal"
)

// AppendLedgerEntryRequest represents the request payload for appending a ledger entry
type AppendLedgerEntryRequest struct {
	SubjectID   string                `json:"subject_id" binding:"required" example:"stu_01JF9X2M"`
	Bucket      types.AccountBucket   `json:"bucket" binding:"required" example:"CHECKING"`
	Kind        types.LedgerEntryKind `json:"kind" binding:"required" example:"DEPOSIT"`
	Amount      decimal.Decimal       `json:"amount" binding:"required" example:"50"`
	Description string                `json:"description" example:"Weekly payroll"`
	Metadata    types.Metadata        `json:"metadata,omitempty"`
	// AvailableAt defaults to now when omitted
	AvailableAt *time.Time `json:"available_at,omitempty"`
}

func (r *AppendLedgerEntryRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ToEntry converts the request to a domain ledger entry
func (r *AppendLedgerEntryRequest) ToEntry(ctx context.Context) *ledger.Entry {
	availableAt := time.Now().UTC()
	if r.AvailableAt != nil {
		availableAt = r.AvailableAt.UTC()
	}
	return &ledger.Entry{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		SubjectID:   r.SubjectID,
		Bucket:      r.Bucket,
		Kind:        r.Kind,
		Amount:      r.Amount,
		Description: r.Description,
		Metadata:    r.Metadata,
		AvailableAt: availableAt,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
}

// LedgerEntryResponse represents a ledger entry in API responses
type LedgerEntryResponse struct {
	ID          string                `json:"id"`
	SubjectID   string                `json:"subject_id"`
	Bucket      types.AccountBucket   `json:"bucket"`
	Kind        types.LedgerEntryKind `json:"kind"`
	Amount      decimal.Decimal       `json:"amount"`
	Description string                `json:"description,omitempty"`
	Metadata    types.Metadata        `json:"metadata,omitempty"`
	AvailableAt time.Time             `json:"available_at"`
	Voided      bool                  `json:"voided"`
	VoidedAt    *time.Time            `json:"voided_at,omitempty"`
	VoidedBy    *string               `json:"voided_by,omitempty"`
	TenantID    string                `json:"tenant_id"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ToLedgerEntryResponse converts a domain entry to its response shape
func ToLedgerEntryResponse(e *ledger.Entry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:          e.ID,
		SubjectID:   e.SubjectID,
		Bucket:      e.Bucket,
		Kind:        e.Kind,
		Amount:      e.Amount,
		Description: e.Description,
		Metadata:    e.Metadata,
		AvailableAt: e.AvailableAt,
		Voided:      e.Voided,
		VoidedAt:    e.VoidedAt,
		VoidedBy:    e.VoidedBy,
		TenantID:    e.TenantID,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// BalanceResponse represents a subject's current balance in one bucket
type BalanceResponse struct {
	SubjectID string              `json:"subject_id"`
	Bucket    types.AccountBucket `json:"bucket"`
	Balance   decimal.Decimal     `json:"balance"`
	AsOf      time.Time           `json:"as_of"`
}

// ListLedgerEntriesResponse represents a paginated list of ledger entries
type ListLedgerEntriesResponse = types.ListResponse[*LedgerEntryResponse]
