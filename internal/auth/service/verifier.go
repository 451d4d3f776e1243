package service

import (
	"context"
	"strings"

	"auth-session-service/internal/account/domain"
	"auth-session-service/internal/security"
)

// CredentialVerifier checks a submitted email/secret pair against the
// account directory's stored hash. It never logs or returns the secret or
// the hash.
type CredentialVerifier struct {
	accounts AccountRepo
	hasher   *security.Hasher
}

// NewCredentialVerifier returns a verifier over the given account directory.
func NewCredentialVerifier(accounts AccountRepo, hasher *security.Hasher) *CredentialVerifier {
	return &CredentialVerifier{accounts: accounts, hasher: hasher}
}

// Verify returns the account for email if secret matches its stored hash.
// Fails with ErrAccountNotFound for an unknown email and
// ErrInvalidCredentials on a mismatch.
func (v *CredentialVerifier) Verify(ctx context.Context, email, secret string) (*domain.Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, ErrAccountNotFound
	}
	acct, err := v.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrAccountNotFound
	}
	if err := v.hasher.Compare(acct.PasswordHash, []byte(secret)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return acct, nil
}
