package auth

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"Murmur/internal/api/handlers"
	"Murmur/internal/api/middleware"
)

// SessionResponse reports the caller's identity. Identity is null when signed out.
type SessionResponse struct {
	Identity *string `json:"identity"`
}

// SignOutRequest must carry Confirm=true; sign-out is never implicit
type SignOutRequest struct {
	Confirm bool `json:"confirm"`
}

// SessionHandler reports and ends sessions
type SessionHandler struct {
	sessions SessionStore
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions SessionStore) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// HandleGetSession returns the identity resolved by the auth middleware.
// GET /auth/session
func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	resp := SessionResponse{}
	if identity := middleware.GetIdentity(r); identity.SignedIn() {
		s := identity.String()
		resp.Identity = &s
	}
	handlers.WriteJSON(w, http.StatusOK, resp)
}

// HandleSignOut clears the session cookie once the caller confirms.
// POST /auth/signout
func (h *SessionHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1024)

	var req SignOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}
	if !req.Confirm {
		handlers.WriteError(w, http.StatusBadRequest, "ConfirmationRequired", "Sign-out must be confirmed")
		return
	}

	if h.sessions != nil {
		if err := h.sessions.Clear(w, r); err != nil {
			log.Printf("Failed to clear session: %v", err)
			handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
			return
		}
	}

	handlers.WriteJSON(w, http.StatusOK, SessionResponse{})
}
