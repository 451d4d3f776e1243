package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the session manager; the handler maps them to HTTP
// status codes.
var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidSession         = errors.New("invalid session")
	ErrSessionNotFound        = errors.New("session not found")
)

// SessionLimitError is returned when a login would exceed the per-account
// cap on concurrently active sessions. It carries the configured limit so
// the user-facing message can state it.
type SessionLimitError struct {
	Limit int
}

func (e *SessionLimitError) Error() string {
	return fmt.Sprintf("maximum of %d concurrent sessions reached; log out of another device to continue", e.Limit)
}
