package repository

import (
	"context"

	"auth-session-service/internal/account/domain"
)

// Repository defines persistence for accounts (the account directory).
type Repository interface {
	// GetByEmail returns the account for email, or nil if not found.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// GetByID returns the account for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// Create persists the account. The account must have ID and PasswordHash set.
	Create(ctx context.Context, a *domain.Account) error
}
