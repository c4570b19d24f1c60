package identity

import (
	"context"
	"sync"
	"time"

	"github.com/bkoseoglu/mallhub/internal/models"
	"github.com/google/uuid"
)

// MemoryAccounts is an in-memory AccountStore for tests and DB-less runs.
type MemoryAccounts struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*models.Account
	byEmail  map[string]uuid.UUID
	failRead error // when set, read operations fail with this error
}

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{
		byID:    make(map[uuid.UUID]*models.Account),
		byEmail: make(map[string]uuid.UUID),
	}
}

// FailReads makes subsequent lookups return err; pass nil to restore.
func (s *MemoryAccounts) FailReads(err error) {
	s.mu.Lock()
	s.failRead = err
	s.mu.Unlock()
}

func (s *MemoryAccounts) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failRead != nil {
		return nil, s.failRead
	}
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	copied := *s.byID[id]
	return &copied, nil
}

func (s *MemoryAccounts) ByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failRead != nil {
		return nil, s.failRead
	}
	account, ok := s.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *MemoryAccounts) Create(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[account.Email]; ok {
		return ErrEmailTaken
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	copied := *account
	s.byID[copied.ID] = &copied
	s.byEmail[copied.Email] = copied.ID
	return nil
}

func (s *MemoryAccounts) UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	account.DisplayName = name
	account.UpdatedAt = time.Now()
	return nil
}
