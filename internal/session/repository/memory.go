package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"auth-session-service/internal/session/domain"
)

// MemoryRepository is an in-process session store used when no database is
// configured (local development) and in tests. All methods are safe for
// concurrent use.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Session
	byToken map[string]string // token -> session id
}

// NewMemoryRepository returns an empty in-memory session store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*domain.Session),
		byToken: make(map[string]string),
	}
}

// GetByToken returns the session whose token exactly matches, or nil.
func (r *MemoryRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byToken[token]; ok {
		cp := *r.byID[id]
		return &cp, nil
	}
	return nil, nil
}

// GetByAccountAndID returns the session matching both accountID and id, or nil.
func (r *MemoryRepository) GetByAccountAndID(ctx context.Context, accountID, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.byID[id]; ok && s.AccountID == accountID {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// ListByAccount returns all sessions for the account, newest first.
func (r *MemoryRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.Session{}
	for _, s := range r.byID {
		if s.AccountID == accountID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CountByAccount returns the number of active sessions for the account.
func (r *MemoryRepository) CountByAccount(ctx context.Context, accountID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.byID {
		if s.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

// Create persists the session.
func (r *MemoryRepository) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.byID[cp.ID] = &cp
	r.byToken[cp.Token] = cp.ID
	return nil
}

// Delete removes the session by id. Returns whether a session existed.
func (r *MemoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	delete(r.byToken, s.Token)
	delete(r.byID, id)
	return true, nil
}

// DeleteAllByAccount removes every session owned by the account and returns
// the number removed.
func (r *MemoryRepository) DeleteAllByAccount(ctx context.Context, accountID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.byID {
		if s.AccountID == accountID {
			delete(r.byToken, s.Token)
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

// Touch updates LastActivity for the given session id.
func (r *MemoryRepository) Touch(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		s.LastActivity = at
	}
	return nil
}
