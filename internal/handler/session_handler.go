package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"authfort-cli/internal/authapi"
	"authfort-cli/internal/domain"
	"authfort-cli/internal/observability"
)

// SessionService is the part of the session store exposed over the agent API
type SessionService interface {
	Snapshot() domain.Session
	RefreshAuthState(ctx context.Context) error
	Login(ctx context.Context, token string) error
	Logout(ctx context.Context) error
}

// SessionHandler serves the agent's session endpoints
type SessionHandler struct {
	store SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(store SessionService) *SessionHandler {
	return &SessionHandler{store: store}
}

// SessionResponse is the public view of the session. The token never leaves the agent.
type SessionResponse struct {
	IsLoggedIn bool            `json:"is_logged_in"`
	HasToken   bool            `json:"has_token"`
	User       *domain.Profile `json:"user,omitempty"`
}

// LoginRequest carries a token obtained elsewhere
type LoginRequest struct {
	Token string `json:"token"`
}

// Get returns the current session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeSession(w, http.StatusOK, h.store.Snapshot())
}

// Refresh re-checks the stored token against the backend
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RefreshAuthState(r.Context()); err != nil {
		observability.FromContext(r.Context()).Warn("session refresh failed", slog.String("error", err.Error()))
		writeBackendError(w, err)
		return
	}
	writeSession(w, http.StatusOK, h.store.Snapshot())
}

// Login stores the given token and loads its profile
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, `{"error":"Token required"}`, http.StatusBadRequest)
		return
	}

	if err := h.store.Login(r.Context(), req.Token); err != nil {
		observability.FromContext(r.Context()).Warn("agent login failed", slog.String("error", err.Error()))
		writeBackendError(w, err)
		return
	}
	writeSession(w, http.StatusOK, h.store.Snapshot())
}

// Logout clears the stored token
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Logout(r.Context()); err != nil {
		observability.FromContext(r.Context()).Error("logout failed", slog.String("error", err.Error()))
		http.Error(w, `{"error":"Failed to clear stored token"}`, http.StatusInternalServerError)
		return
	}
	writeSession(w, http.StatusOK, h.store.Snapshot())
}

func writeSession(w http.ResponseWriter, status int, st domain.Session) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(SessionResponse{
		IsLoggedIn: st.IsLoggedIn,
		HasToken:   st.HasToken(),
		User:       st.User,
	})
}

// writeBackendError maps a session failure to an agent response: a local
// storage failure is a 500, the backend's own rejection keeps its status,
// anything else is a 502
func writeBackendError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	msg := "Auth backend unavailable"

	var statusErr *authapi.StatusError
	switch {
	case errors.Is(err, domain.ErrPersistToken):
		status = http.StatusInternalServerError
		msg = "Failed to save token"
	case errors.As(err, &statusErr):
		status = statusErr.StatusCode
		msg = statusErr.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
