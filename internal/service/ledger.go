package service

import (
	"context"
	"time"

	"github.com/classbank/classbank/internal/api/dto"
	"github.com/classbank/classbank/internal/domain/ledger"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/types"
	"github.com/samber/lo"
)

// LedgerService is the append-only balance ledger. Entries are immutable
// once appended; a reversal voids the entry in place.
type LedgerService interface {
	Append(ctx context.Context, req *dto.AppendLedgerEntryRequest) (*dto.LedgerEntryResponse, error)
	Void(ctx context.Context, entryID string) error
	GetEntry(ctx context.Context, entryID string) (*dto.LedgerEntryResponse, error)
	GetBalance(ctx context.Context, subjectID string, bucket types.AccountBucket) (*dto.BalanceResponse, error)
	ListEntries(ctx context.Context, filter *types.LedgerEntryFilter) (*dto.ListLedgerEntriesResponse, error)
}

type ledgerService struct {
	ServiceParams
}

func NewLedgerService(params ServiceParams) LedgerService {
	return &ledgerService{
		ServiceParams: params,
	}
}

func (s *ledgerService) Append(ctx context.Context, req *dto.AppendLedgerEntryRequest) (*dto.LedgerEntryResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entry := req.ToEntry(ctx)
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.LedgerRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.Logger.Infow("appended ledger entry",
		"entry_id", entry.ID,
		"subject_id", entry.SubjectID,
		"kind", entry.Kind,
		"amount", entry.Amount,
	)

	return dto.ToLedgerEntryResponse(entry), nil
}

// Void marks an entry as reversed exactly once. A second void attempt is
// an error, never a silent no-op, so reversal attempts stay auditable.
func (s *ledgerService) Void(ctx context.Context, entryID string) error {
	if err := s.Guard.Verify(ctx); err != nil {
		return err
	}
	if entryID == "" {
		return ierr.NewError("entry_id is required").
			WithHint("Ledger entry ID is required").
			Mark(ierr.ErrValidation)
	}

	entry, err := s.LedgerRepo.Get(ctx, entryID)
	if err != nil {
		return err
	}
	if err := s.Guard.Check(ctx, "ledger_entry", entry.ID, entry.TenantID); err != nil {
		return err
	}

	actor := types.GetUserID(ctx)
	if err := s.LedgerRepo.Void(ctx, entryID, actor); err != nil {
		return err
	}

	s.Logger.Infow("voided ledger entry",
		"entry_id", entryID,
		"actor", actor,
	)
	return nil
}

func (s *ledgerService) GetEntry(ctx context.Context, entryID string) (*dto.LedgerEntryResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}

	entry, err := s.LedgerRepo.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.Check(ctx, "ledger_entry", entry.ID, entry.TenantID); err != nil {
		return nil, err
	}
	return dto.ToLedgerEntryResponse(entry), nil
}

// GetBalance sums non-void entries. Balance is derivative state; nothing
// in the claims engine blocks on it, so no locking is needed here.
func (s *ledgerService) GetBalance(ctx context.Context, subjectID string, bucket types.AccountBucket) (*dto.BalanceResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}
	if subjectID == "" {
		return nil, ierr.NewError("subject_id is required").
			WithHint("Subject ID is required").
			Mark(ierr.ErrValidation)
	}
	if err := bucket.Validate(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Account bucket is invalid").
			Mark(ierr.ErrValidation)
	}

	balance, err := s.LedgerRepo.GetBalance(ctx, subjectID, bucket)
	if err != nil {
		return nil, err
	}

	return &dto.BalanceResponse{
		SubjectID: subjectID,
		Bucket:    bucket,
		Balance:   balance,
		AsOf:      time.Now().UTC(),
	}, nil
}

func (s *ledgerService) ListEntries(ctx context.Context, filter *types.LedgerEntryFilter) (*dto.ListLedgerEntriesResponse, error) {
	if err := s.Guard.Verify(ctx); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = types.NewLedgerEntryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid filter").
			Mark(ierr.ErrValidation)
	}

	entries, err := s.LedgerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.LedgerRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(entries, func(e *ledger.Entry, _ int) *dto.LedgerEntryResponse {
		return dto.ToLedgerEntryResponse(e)
	})

	response := types.NewListResponse(items, total, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}
