// Package domain defines the session record binding an issued token to an account.
package domain

import "time"

// UnknownClientInfo is stored for DeviceInfo and IPAddress when the caller
// supplied nothing.
const UnknownClientInfo = "Unknown"

// Session binds an issued token to an account and a device context. It is
// revocable independently of the token's own expiry: a session that has been
// removed from the store is terminated even if its token is still
// cryptographically valid.
type Session struct {
	ID           string
	AccountID    string
	Token        string // signed session token; unique; immutable after creation
	DeviceInfo   string
	IPAddress    string
	CreatedAt    time.Time
	LastActivity time.Time
}
