package repository

import (
	"context"
	"time"

	"auth-session-service/internal/session/domain"
)

// Repository defines persistence for sessions. It is the sole owner of
// session existence and count truth.
//
// Deletions are idempotent from the caller's viewpoint: deleting an absent
// session reports (false, nil) / (0, nil) rather than an error.
type Repository interface {
	// GetByToken returns the session whose token exactly matches, or nil.
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	// GetByAccountAndID returns the session matching both accountID and id,
	// or nil. The double match is the ownership check.
	GetByAccountAndID(ctx context.Context, accountID, id string) (*domain.Session, error)
	// ListByAccount returns all sessions for the account ordered by
	// CreatedAt descending. Empty slice when none.
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Session, error)
	// CountByAccount returns the number of active sessions for the account.
	CountByAccount(ctx context.Context, accountID string) (int, error)
	// Create persists the session. The session must have ID and Token set.
	Create(ctx context.Context, s *domain.Session) error
	// Delete removes the session by id. Returns whether a session existed.
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteAllByAccount removes every session owned by the account and
	// returns the number removed (0 is a valid result).
	DeleteAllByAccount(ctx context.Context, accountID string) (int, error)
	// Touch updates LastActivity without loading the full session.
	Touch(ctx context.Context, id string, at time.Time) error
}
