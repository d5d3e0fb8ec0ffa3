package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/classbank/classbank/internal/domain/ledger"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/types"
	"github.com/shopspring/decimal"
)

// InMemoryLedgerStore mirrors the postgres ledger repository, including
// tenant scoping and the single-shot void semantics
type InMemoryLedgerStore struct {
	mu      sync.RWMutex
	entries map[string]*ledger.Entry
}

func NewInMemoryLedgerStore() *InMemoryLedgerStore {
	return &InMemoryLedgerStore{
		entries: make(map[string]*ledger.Entry),
	}
}

func (s *InMemoryLedgerStore) Create(ctx context.Context, entry *ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		return ierr.NewError("entry ID cannot be empty").
			Mark(ierr.ErrValidation)
	}

	copied := *entry
	s.entries[entry.ID] = &copied
	return nil
}

func (s *InMemoryLedgerStore) Get(ctx context.Context, id string) (*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(ctx, id)
}

func (s *InMemoryLedgerStore) GetForUpdate(ctx context.Context, id string) (*ledger.Entry, error) {
	return s.Get(ctx, id)
}

func (s *InMemoryLedgerStore) getLocked(ctx context.Context, id string) (*ledger.Entry, error) {
	entry, exists := s.entries[id]
	if !exists || entry.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("ledger entry not found").
			WithHint("The referenced transaction does not exist").
			Mark(ierr.ErrNotFound)
	}
	copied := *entry
	return &copied, nil
}

func (s *InMemoryLedgerStore) Void(ctx context.Context, id string, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[id]
	if !exists || entry.TenantID != types.GetTenantID(ctx) {
		return ierr.NewError("ledger entry not found").
			WithHint("The referenced transaction does not exist").
			Mark(ierr.ErrNotFound)
	}
	if entry.Voided {
		return ierr.NewError("ledger entry already voided").
			WithHint("This transaction has already been reversed").
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	entry.Voided = true
	entry.VoidedAt = &now
	entry.VoidedBy = &actor
	return nil
}

func (s *InMemoryLedgerStore) GetBalance(ctx context.Context, subjectID string, bucket types.AccountBucket) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	balance := decimal.Zero
	for _, entry := range s.entries {
		if entry.TenantID != types.GetTenantID(ctx) {
			continue
		}
		if entry.SubjectID != subjectID || entry.Bucket != bucket {
			continue
		}
		if entry.Voided || entry.AvailableAt.After(now) {
			continue
		}
		balance = balance.Add(entry.Amount)
	}
	return balance, nil
}

func (s *InMemoryLedgerStore) List(ctx context.Context, filter *types.LedgerEntryFilter) ([]*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*ledger.Entry
	for _, entry := range s.entries {
		if !s.matches(ctx, entry, filter) {
			continue
		}
		copied := *entry
		entries = append(entries, &copied)
	}
	return entries, nil
}

func (s *InMemoryLedgerStore) Count(ctx context.Context, filter *types.LedgerEntryFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, entry := range s.entries {
		if s.matches(ctx, entry, filter) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryLedgerStore) matches(ctx context.Context, entry *ledger.Entry, filter *types.LedgerEntryFilter) bool {
	if entry.TenantID != types.GetTenantID(ctx) {
		return false
	}
	if filter.SubjectID != "" && entry.SubjectID != filter.SubjectID {
		return false
	}
	if filter.Bucket != nil && entry.Bucket != *filter.Bucket {
		return false
	}
	if filter.Kind != nil && entry.Kind != *filter.Kind {
		return false
	}
	if !filter.IncludeVoided && entry.Voided {
		return false
	}
	if filter.StartTime != nil && entry.CreatedAt.Before(*filter.StartTime) {
		return false
	}
	if filter.EndTime != nil && !entry.CreatedAt.Before(*filter.EndTime) {
		return false
	}
	return true
}
