// Package domain defines the account record owned by the account directory.
package domain

import "time"

// Account is a registered credential holder. PasswordHash is the bcrypt hash
// of the account secret and must never be serialized or logged.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
