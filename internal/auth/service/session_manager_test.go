package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	accountrepo "auth-session-service/internal/account/repository"
	"auth-session-service/internal/security"
	sessionrepo "auth-session-service/internal/session/repository"
)

// captureEmitter records published events; fail makes every publish error.
type captureEmitter struct {
	mu     sync.Mutex
	topics []string
	events []any
	fail   bool
}

func (e *captureEmitter) Publish(ctx context.Context, topic string, message any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail {
		return errors.New("broker unavailable")
	}
	e.topics = append(e.topics, topic)
	e.events = append(e.events, message)
	return nil
}

func (e *captureEmitter) Close() error { return nil }

func (e *captureEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

func newTestManager(t *testing.T, maxSessions int) (*SessionManager, *sessionrepo.MemoryRepository, *captureEmitter) {
	t.Helper()
	codec, err := security.NewTestTokenCodec(time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	sessions := sessionrepo.NewMemoryRepository()
	emitter := &captureEmitter{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewSessionManager(
		accountrepo.NewMemoryRepository(),
		sessions,
		codec,
		security.NewHasher(4), // min bcrypt cost for test speed
		emitter,
		log,
		maxSessions,
		"login",
		"logout",
	)
	return m, sessions, emitter
}

func register(t *testing.T, m *SessionManager, email, secret string) *RegisterResult {
	t.Helper()
	res, err := m.Register(context.Background(), email, secret)
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return res
}

func TestRegister(t *testing.T) {
	m, _, _ := newTestManager(t, 3)
	ctx := context.Background()

	res := register(t, m, "A@X.com ", "secret1")
	if res.Email != "a@x.com" {
		t.Errorf("email normalized to %q", res.Email)
	}
	claims, err := m.VerifyToken(res.Token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Subject != res.AccountID {
		t.Errorf("token subject = %q, want %q", claims.Subject, res.AccountID)
	}

	if _, err := m.Register(ctx, "a@x.com", "other"); !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Errorf("duplicate Register: want ErrEmailAlreadyRegistered, got %v", err)
	}

	// Registration creates no session.
	list, _ := m.ListSessions(ctx, res.AccountID)
	if len(list) != 0 {
		t.Errorf("sessions after register = %d, want 0", len(list))
	}
}

func TestLogin_TokenRoundTrip(t *testing.T) {
	m, _, emitter := newTestManager(t, 3)
	ctx := context.Background()
	acct := register(t, m, "a@x.com", "secret1")

	res, err := m.Login(ctx, "a@x.com", "secret1", "laptop", "10.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := m.VerifyToken(res.Token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Subject != acct.AccountID {
		t.Errorf("token subject = %q, want account id %q", claims.Subject, acct.AccountID)
	}
	if res.ActiveSessions != 1 {
		t.Errorf("ActiveSessions = %d, want 1", res.ActiveSessions)
	}
	if emitter.count() != 1 {
		t.Errorf("events emitted = %d, want 1", emitter.count())
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	m, sessions, emitter := newTestManager(t, 3)
	ctx := context.Background()
	acct := register(t, m, "a@x.com", "secret1")

	if _, err := m.Login(ctx, "a@x.com", "wrong", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: want ErrInvalidCredentials, got %v", err)
	}
	if _, err := m.Login(ctx, "nobody@x.com", "secret1", "", ""); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("unknown email: want ErrAccountNotFound, got %v", err)
	}

	// Neither attempt created a session or emitted an event.
	if n, _ := sessions.CountByAccount(ctx, acct.AccountID); n != 0 {
		t.Errorf("session count = %d, want 0", n)
	}
	if emitter.count() != 0 {
		t.Errorf("events emitted = %d, want 0", emitter.count())
	}
}

func TestLogin_SessionLimit(t *testing.T) {
	m, _, _ := newTestManager(t, 3)
	ctx := context.Background()
	register(t, m, "a@x.com", "secret1")

	for i, device := range []string{"laptop", "phone", "tablet"} {
		res, err := m.Login(ctx, "a@x.com", "secret1", device, "")
		if err != nil {
			t.Fatalf("Login %d: %v", i+1, err)
		}
		if res.ActiveSessions != i+1 {
			t.Errorf("login %d: ActiveSessions = %d, want %d", i+1, res.ActiveSessions, i+1)
		}
	}

	_, err := m.Login(ctx, "a@x.com", "secret1", "watch", "")
	var limitErr *SessionLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("4th login: want SessionLimitError, got %v", err)
	}
	if limitErr.Limit != 3 {
		t.Errorf("limit = %d, want 3", limitErr.Limit)
	}
	if !strings.Contains(limitErr.Error(), "3") {
		t.Errorf("limit message %q does not reference the limit", limitErr.Error())
	}
}

func TestLogin_ConcurrentRespectsLimit(t *testing.T) {
	const maxSessions = 3
	const attempts = maxSessions + 5

	m, sessions, _ := newTestManager(t, maxSessions)
	ctx := context.Background()
	acct := register(t, m, "a@x.com", "secret1")

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Login(ctx, "a@x.com", "secret1", "device", "")
		}(i)
	}
	wg.Wait()

	successes, limited := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			var limitErr *SessionLimitError
			if !errors.As(err, &limitErr) {
				t.Errorf("unexpected error: %v", err)
				continue
			}
			limited++
		}
	}
	if successes != maxSessions {
		t.Errorf("successes = %d, want %d", successes, maxSessions)
	}
	if limited != attempts-maxSessions {
		t.Errorf("limited = %d, want %d", limited, attempts-maxSessions)
	}
	if n, _ := sessions.CountByAccount(ctx, acct.AccountID); n != maxSessions {
		t.Errorf("store count = %d, want %d", n, maxSessions)
	}
}

func TestLogout(t *testing.T) {
	m, sessions, emitter := newTestManager(t, 3)
	ctx := context.Background()
	acct := register(t, m, "a@x.com", "secret1")

	res, err := m.Login(ctx, "a@x.com", "secret1", "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := m.Logout(ctx, res.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if n, _ := sessions.CountByAccount(ctx, acct.AccountID); n != 0 {
		t.Errorf("count after logout = %d", n)
	}
	if emitter.count() != 2 { // login + logout
		t.Errorf("events emitted = %d, want 2", emitter.count())
	}

	// The token still verifies structurally but its session is gone.
	if _, err := m.VerifyToken(res.Token); err != nil {
		t.Errorf("VerifyToken after logout: %v", err)
	}
	if err := m.Logout(ctx, res.Token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("second Logout: want ErrInvalidSession, got %v", err)
	}
	if err := m.Logout(ctx, "no-such-token"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("bogus Logout: want ErrInvalidSession, got %v", err)
	}
}

func TestLogoutSession_OwnershipCheck(t *testing.T) {
	m, sessions, _ := newTestManager(t, 3)
	ctx := context.Background()
	a := register(t, m, "a@x.com", "secret1")
	b := register(t, m, "b@x.com", "secret2")

	resA, err := m.Login(ctx, "a@x.com", "secret1", "", "")
	if err != nil {
		t.Fatalf("Login a: %v", err)
	}

	// b cannot terminate a's session.
	if err := m.LogoutSession(ctx, b.AccountID, resA.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("foreign LogoutSession: want ErrSessionNotFound, got %v", err)
	}
	if n, _ := sessions.CountByAccount(ctx, a.AccountID); n != 1 {
		t.Errorf("foreign logout removed the session")
	}

	if err := m.LogoutSession(ctx, a.AccountID, resA.SessionID); err != nil {
		t.Fatalf("owner LogoutSession: %v", err)
	}
	if err := m.LogoutSession(ctx, a.AccountID, resA.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("repeat LogoutSession: want ErrSessionNotFound, got %v", err)
	}
}

func TestLogoutAllSessions(t *testing.T) {
	m, _, emitter := newTestManager(t, 3)
	ctx := context.Background()
	acct := register(t, m, "a@x.com", "secret1")

	// Empty state is a valid, non-error result.
	n, err := m.LogoutAllSessions(ctx, acct.AccountID)
	if err != nil || n != 0 {
		t.Fatalf("LogoutAllSessions empty = %d, %v; want 0, nil", n, err)
	}

	for _, device := range []string{"laptop", "phone", "tablet"} {
		if _, err := m.Login(ctx, "a@x.com", "secret1", device, ""); err != nil {
			t.Fatalf("Login: %v", err)
		}
	}
	n, err = m.LogoutAllSessions(ctx, acct.AccountID)
	if err != nil || n != 3 {
		t.Fatalf("LogoutAllSessions = %d, %v; want 3, nil", n, err)
	}
	list, _ := m.ListSessions(ctx, acct.AccountID)
	if len(list) != 0 {
		t.Errorf("sessions after logout-all = %d, want 0", len(list))
	}
	if emitter.count() != 5 { // logout_all(0) + 3 logins + logout_all(3)
		t.Errorf("events emitted = %d, want 5", emitter.count())
	}
}

func TestListSessions_NewestFirst(t *testing.T) {
	m, _, _ := newTestManager(t, 5)
	ctx := context.Background()
	acct := register(t, m, "a@x.com", "secret1")

	var ids []string
	for _, device := range []string{"one", "two", "three"} {
		res, err := m.Login(ctx, "a@x.com", "secret1", device, "")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		ids = append(ids, res.SessionID)
		// CreatedAt must strictly increase for the ordering assertion.
		time.Sleep(2 * time.Millisecond)
	}

	list, err := m.ListSessions(ctx, acct.AccountID)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	for i := range list {
		if want := ids[len(ids)-1-i]; list[i].ID != want {
			t.Errorf("list[%d] = %s, want %s", i, list[i].ID, want)
		}
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	m, sessions, emitter := newTestManager(t, 3)
	emitter.fail = true
	ctx := context.Background()
	acct := register(t, m, "a@x.com", "secret1")

	res, err := m.Login(ctx, "a@x.com", "secret1", "", "")
	if err != nil {
		t.Fatalf("Login with failing emitter: %v", err)
	}
	if n, _ := sessions.CountByAccount(ctx, acct.AccountID); n != 1 {
		t.Errorf("session not committed despite publish failure")
	}
	if err := m.Logout(ctx, res.Token); err != nil {
		t.Errorf("Logout with failing emitter: %v", err)
	}
	if n, _ := sessions.CountByAccount(ctx, acct.AccountID); n != 0 {
		t.Errorf("session not removed despite publish failure")
	}
}

func TestLoginScenario(t *testing.T) {
	// register -> 3 logins (counts 1,2,3) -> 4th limited with message
	// referencing 3 -> logout-all returns 3 -> list empty.
	m, _, _ := newTestManager(t, 3)
	ctx := context.Background()
	acct := register(t, m, "a@x.com", "secret1")

	for i, device := range []string{"d1", "d2", "d3"} {
		res, err := m.Login(ctx, "a@x.com", "secret1", device, "")
		if err != nil {
			t.Fatalf("login %d: %v", i+1, err)
		}
		if res.ActiveSessions != i+1 {
			t.Errorf("login %d: active = %d", i+1, res.ActiveSessions)
		}
	}
	_, err := m.Login(ctx, "a@x.com", "secret1", "d4", "")
	if err == nil || !strings.Contains(err.Error(), "3") {
		t.Errorf("4th login error = %v, want limit message referencing 3", err)
	}
	n, err := m.LogoutAllSessions(ctx, acct.AccountID)
	if err != nil || n != 3 {
		t.Fatalf("LogoutAllSessions = %d, %v; want 3", n, err)
	}
	list, _ := m.ListSessions(ctx, acct.AccountID)
	if len(list) != 0 {
		t.Errorf("list after logout-all = %d entries", len(list))
	}
}
