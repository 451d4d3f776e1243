// Package handler exposes the session manager over HTTP.
//
// Token, session-revoked, and token-expired failures all map to a uniform
// "invalid session" 401 so callers cannot probe session existence.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"auth-session-service/internal/auth/service"
	"auth-session-service/internal/security"
	sessiondomain "auth-session-service/internal/session/domain"
)

const invalidSessionMessage = "invalid session"

// Handler serves the /auth routes.
type Handler struct {
	manager *service.SessionManager
	log     *slog.Logger
}

// New returns an auth HTTP handler backed by the given session manager.
func New(manager *service.SessionManager, log *slog.Logger) *Handler {
	return &Handler{manager: manager, log: log}
}

// Routes returns the /auth router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/verify", h.verify)
	r.Get("/sessions", h.listSessions)
	r.Delete("/sessions", h.logoutAllSessions)
	r.Delete("/sessions/{sessionID}", h.logoutSession)
	return r
}

type credentialsRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceInfo string `json:"device_info"`
	IPAddress  string `json:"ip_address"`
}

type sessionSummary struct {
	ID           string    `json:"id"`
	DeviceInfo   string    `json:"device_info"`
	IPAddress    string    `json:"ip_address"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeCredentials(w, r, &req) {
		return
	}
	res, err := h.manager.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"access_token": res.Token,
		"email":        res.Email,
		"message":      "User registered successfully",
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeCredentials(w, r, &req) {
		return
	}
	device := req.DeviceInfo
	if device == "" {
		device = r.UserAgent()
	}
	ip := req.IPAddress
	if ip == "" {
		ip = remoteIP(r)
	}
	res, err := h.manager.Login(r.Context(), req.Email, req.Password, device, ip)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":    res.Token,
		"active_sessions": res.ActiveSessions,
		"expires_at":      res.ExpiresAt,
		"message":         "Login successful",
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		var req struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = req.Token
		}
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, invalidSessionMessage)
		return
	}
	if err := h.manager.Logout(r.Context(), token); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logout successful"})
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, invalidSessionMessage)
		return
	}
	claims, err := h.manager.VerifyToken(token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": claims.Subject,
		"email":      claims.Email,
		"expires_at": claims.ExpiresAt.Time,
	})
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	list, err := h.manager.ListSessions(r.Context(), sess.AccountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]sessionSummary, len(list))
	for i, s := range list {
		out[i] = sessionSummary{
			ID:           s.ID,
			DeviceInfo:   s.DeviceInfo,
			IPAddress:    s.IPAddress,
			CreatedAt:    s.CreatedAt,
			LastActivity: s.LastActivity,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (h *Handler) logoutSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.manager.LogoutSession(r.Context(), sess.AccountID, sessionID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logout successful"})
}

func (h *Handler) logoutAllSessions(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	n, err := h.manager.LogoutAllSessions(r.Context(), sess.AccountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions_terminated": n})
}

// requireSession authenticates the request against a live session and
// touches its LastActivity.
func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (*sessiondomain.Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, invalidSessionMessage)
		return nil, false
	}
	sess, err := h.manager.ResolveSession(r.Context(), token)
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	h.manager.TouchSession(r.Context(), sess.ID)
	return sess, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var limitErr *service.SessionLimitError
	switch {
	case errors.Is(err, service.ErrAccountNotFound):
		writeError(w, http.StatusUnauthorized, "user not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		writeError(w, http.StatusConflict, "email already exists")
	case errors.As(err, &limitErr):
		writeError(w, http.StatusTooManyRequests, limitErr.Error())
	// Malformed, expired, and revoked all collapse to the same response.
	case errors.Is(err, service.ErrInvalidSession), errors.Is(err, security.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, invalidSessionMessage)
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	default:
		h.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeCredentials(w http.ResponseWriter, r *http.Request, req *credentialsRequest) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return false
	}
	return true
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
