// Package events carries session lifecycle notifications to and from Kafka.
//
// Delivery is at-least-once and best-effort from the caller's perspective:
// the session manager records publish failures but never fails a committed
// session mutation because of one.
package events

import "time"

// Event names carried in the "event" field of a message body. The topic
// alone does not identify the event: single-session and all-session logout
// share the logout topic.
const (
	EventUserLogin     = "user_login"
	EventUserLogout    = "user_logout"
	EventUserLogoutAll = "user_logout_all"
)

// LoginEvent is published on the login topic after a session is committed.
type LoginEvent struct {
	Event          string    `json:"event"`
	AccountID      string    `json:"account_id"`
	Email          string    `json:"email"`
	SessionID      string    `json:"session_id"`
	Token          string    `json:"token"`
	ActiveSessions int       `json:"active_sessions"`
	Timestamp      time.Time `json:"timestamp"`
}

// LogoutEvent is published on the logout topic after a single session is removed.
type LogoutEvent struct {
	Event     string    `json:"event"`
	AccountID string    `json:"account_id"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// LogoutAllEvent is published on the logout topic after a bulk removal; it
// carries the number of sessions terminated at the instant of commit.
type LogoutAllEvent struct {
	Event              string    `json:"event"`
	AccountID          string    `json:"account_id"`
	SessionsTerminated int       `json:"sessions_terminated"`
	Timestamp          time.Time `json:"timestamp"`
}
