package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	accountdomain "auth-session-service/internal/account/domain"
	"auth-session-service/internal/events"
	"auth-session-service/internal/security"
	sessiondomain "auth-session-service/internal/session/domain"
)

// AccountRepo is the minimal account directory needed by the session manager.
type AccountRepo interface {
	GetByEmail(ctx context.Context, email string) (*accountdomain.Account, error)
	Create(ctx context.Context, a *accountdomain.Account) error
}

// SessionRepo is the minimal session store needed by the session manager.
type SessionRepo interface {
	GetByToken(ctx context.Context, token string) (*sessiondomain.Session, error)
	GetByAccountAndID(ctx context.Context, accountID, id string) (*sessiondomain.Session, error)
	ListByAccount(ctx context.Context, accountID string) ([]*sessiondomain.Session, error)
	CountByAccount(ctx context.Context, accountID string) (int, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Delete(ctx context.Context, id string) (bool, error)
	DeleteAllByAccount(ctx context.Context, accountID string) (int, error)
	Touch(ctx context.Context, id string, at time.Time) error
}

// LoginResult holds the outcome of a successful login.
type LoginResult struct {
	Token          string
	SessionID      string
	ActiveSessions int
	ExpiresAt      time.Time
}

// RegisterResult holds the outcome of a successful registration. No session
// is created at registration time.
type RegisterResult struct {
	AccountID string
	Email     string
	Token     string
}

// SessionManager orchestrates credential verification, token issuance,
// session persistence, and lifecycle event emission.
//
// Per session the state machine is NONE → ACTIVE → TERMINATED; a terminated
// session is never resurrected, a new login creates a new session id.
type SessionManager struct {
	verifier    *CredentialVerifier
	accounts    AccountRepo
	sessions    SessionRepo
	codec       *security.TokenCodec
	hasher      *security.Hasher
	emitter     events.Emitter
	log         *slog.Logger
	maxSessions int
	loginTopic  string
	logoutTopic string

	accountLocks accountLocks

	loginCounter       metric.Int64Counter
	logoutCounter      metric.Int64Counter
	publishFailCounter metric.Int64Counter
}

// NewSessionManager returns a SessionManager with the given collaborators.
// maxSessions must be at least 1.
func NewSessionManager(
	accounts AccountRepo,
	sessions SessionRepo,
	codec *security.TokenCodec,
	hasher *security.Hasher,
	emitter events.Emitter,
	log *slog.Logger,
	maxSessions int,
	loginTopic, logoutTopic string,
) *SessionManager {
	meter := otel.Meter("auth-session-service/auth")
	logins, _ := meter.Int64Counter("auth.logins",
		metric.WithDescription("Successful logins"))
	logouts, _ := meter.Int64Counter("auth.logouts",
		metric.WithDescription("Sessions terminated by logout operations"))
	publishFails, _ := meter.Int64Counter("auth.event_publish_failures",
		metric.WithDescription("Lifecycle events that failed to publish"))

	return &SessionManager{
		verifier:           NewCredentialVerifier(accounts, hasher),
		accounts:           accounts,
		sessions:           sessions,
		codec:              codec,
		hasher:             hasher,
		emitter:            emitter,
		log:                log,
		maxSessions:        maxSessions,
		loginTopic:         loginTopic,
		logoutTopic:        logoutTopic,
		loginCounter:       logins,
		logoutCounter:      logouts,
		publishFailCounter: publishFails,
	}
}

// Register creates an account with the given email and secret and returns a
// signed token for it. No session is created and no event is emitted.
func (m *SessionManager) Register(ctx context.Context, email, secret string) (*RegisterResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	existing, err := m.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hash, err := m.hasher.Hash([]byte(secret))
	if err != nil {
		return nil, err
	}
	acct := &accountdomain.Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := m.accounts.Create(ctx, acct); err != nil {
		return nil, err
	}
	token, _, err := m.codec.Issue(acct.ID, acct.Email)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{AccountID: acct.ID, Email: acct.Email, Token: token}, nil
}

// Login authenticates the credentials, enforces the per-account session cap,
// creates and persists a new ACTIVE session, and emits a user_login event.
//
// The count check and the insert run under a per-account mutex: two
// concurrent logins for the same account each observing count = max-1 can
// never both insert.
func (m *SessionManager) Login(ctx context.Context, email, secret, deviceInfo, ipAddress string) (*LoginResult, error) {
	acct, err := m.verifier.Verify(ctx, email, secret)
	if err != nil {
		return nil, err
	}

	if deviceInfo == "" {
		deviceInfo = sessiondomain.UnknownClientInfo
	}
	if ipAddress == "" {
		ipAddress = sessiondomain.UnknownClientInfo
	}

	mu := m.accountLocks.lock(acct.ID)
	defer mu.Unlock()

	count, err := m.sessions.CountByAccount(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	if count >= m.maxSessions {
		return nil, &SessionLimitError{Limit: m.maxSessions}
	}

	token, expiresAt, err := m.codec.Issue(acct.ID, acct.Email)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &sessiondomain.Session{
		ID:           uuid.New().String(),
		AccountID:    acct.ID,
		Token:        token,
		DeviceInfo:   deviceInfo,
		IPAddress:    ipAddress,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := m.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	active := count + 1

	m.loginCounter.Add(ctx, 1)
	m.emit(ctx, m.loginTopic, events.LoginEvent{
		Event:          events.EventUserLogin,
		AccountID:      acct.ID,
		Email:          acct.Email,
		SessionID:      sess.ID,
		Token:          token,
		ActiveSessions: active,
		Timestamp:      now,
	})

	return &LoginResult{Token: token, SessionID: sess.ID, ActiveSessions: active, ExpiresAt: expiresAt}, nil
}

// Logout removes the session whose token exactly matches and emits a
// user_logout event. A token whose session was already removed fails with
// ErrInvalidSession even if it is still cryptographically valid.
func (m *SessionManager) Logout(ctx context.Context, token string) error {
	sess, err := m.sessions.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrInvalidSession
	}
	if _, err := m.sessions.Delete(ctx, sess.ID); err != nil {
		return err
	}
	m.logoutCounter.Add(ctx, 1)
	m.emit(ctx, m.logoutTopic, events.LogoutEvent{
		Event:     events.EventUserLogout,
		AccountID: sess.AccountID,
		SessionID: sess.ID,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// VerifyToken decodes the token via the codec. It does not consult the
// session store: a structurally valid token may belong to a revoked session.
// Callers that need liveness must additionally resolve the session.
func (m *SessionManager) VerifyToken(token string) (*security.SessionClaims, error) {
	return m.codec.Verify(token)
}

// ResolveSession verifies the token and looks up its live session. A token
// that fails verification and a token whose session was revoked are both
// reported as ErrInvalidSession so callers cannot tell the cases apart.
func (m *SessionManager) ResolveSession(ctx context.Context, token string) (*sessiondomain.Session, error) {
	if _, err := m.codec.Verify(token); err != nil {
		return nil, ErrInvalidSession
	}
	sess, err := m.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrInvalidSession
	}
	return sess, nil
}

// ListSessions returns all sessions for the account, newest first. Read-only.
func (m *SessionManager) ListSessions(ctx context.Context, accountID string) ([]*sessiondomain.Session, error) {
	return m.sessions.ListByAccount(ctx, accountID)
}

// LogoutSession removes the session matching both accountID and sessionID.
// The double match prevents one account terminating another's session; a
// foreign or unknown session fails with ErrSessionNotFound.
func (m *SessionManager) LogoutSession(ctx context.Context, accountID, sessionID string) error {
	sess, err := m.sessions.GetByAccountAndID(ctx, accountID, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	if _, err := m.sessions.Delete(ctx, sess.ID); err != nil {
		return err
	}
	m.logoutCounter.Add(ctx, 1)
	m.emit(ctx, m.logoutTopic, events.LogoutEvent{
		Event:     events.EventUserLogout,
		AccountID: accountID,
		SessionID: sess.ID,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// LogoutAllSessions removes every session owned by the account and returns
// the number removed; 0 is a valid, non-error result. One user_logout_all
// event carries the count from the delete itself.
func (m *SessionManager) LogoutAllSessions(ctx context.Context, accountID string) (int, error) {
	n, err := m.sessions.DeleteAllByAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	m.logoutCounter.Add(ctx, int64(n))
	m.emit(ctx, m.logoutTopic, events.LogoutAllEvent{
		Event:              events.EventUserLogoutAll,
		AccountID:          accountID,
		SessionsTerminated: n,
		Timestamp:          time.Now().UTC(),
	})
	return n, nil
}

// TouchSession updates the session's LastActivity. Best-effort; failures
// are logged, not surfaced.
func (m *SessionManager) TouchSession(ctx context.Context, sessionID string) {
	if err := m.sessions.Touch(ctx, sessionID, time.Now().UTC()); err != nil {
		m.log.Warn("session touch failed", "session_id", sessionID, "error", err)
	}
}

// emit publishes a lifecycle event. The owning store mutation has already
// committed; a publish failure is recorded and swallowed.
func (m *SessionManager) emit(ctx context.Context, topic string, message any) {
	if err := m.emitter.Publish(ctx, topic, message); err != nil {
		m.publishFailCounter.Add(ctx, 1)
		m.log.Error("event publish failed", "topic", topic, "error", err)
	}
}
