package repository

import (
	"context"
	"sync"

	"auth-session-service/internal/account/domain"
)

// MemoryRepository is an in-process account directory used when no database
// is configured (local development) and in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Account
	byEmail map[string]*domain.Account
}

// NewMemoryRepository returns an empty in-memory account repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]*domain.Account),
	}
}

// GetByEmail returns the account for email, or nil if not found.
func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.byEmail[email]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

// GetByID returns the account for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.byID[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

// Create persists the account.
func (r *MemoryRepository) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.byID[cp.ID] = &cp
	r.byEmail[cp.Email] = &cp
	return nil
}
