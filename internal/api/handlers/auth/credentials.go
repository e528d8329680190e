package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"Murmur/internal/api/handlers"
	"Murmur/internal/core/accounts"
	"Murmur/internal/core/session"
)

// SessionStore persists the signed-in identity between browser requests
type SessionStore interface {
	Save(w http.ResponseWriter, r *http.Request, identity session.Identity) error
	Clear(w http.ResponseWriter, r *http.Request) error
}

// CredentialsRequest is the body of sign-up and sign-in
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CredentialsHandler handles sign-up and sign-in
type CredentialsHandler struct {
	service  accounts.Service
	sessions SessionStore
}

// NewCredentialsHandler creates a new sign-up/sign-in handler
func NewCredentialsHandler(service accounts.Service, sessions SessionStore) *CredentialsHandler {
	return &CredentialsHandler{
		service:  service,
		sessions: sessions,
	}
}

// HandleSignUp creates an account and signs it in.
// POST /auth/signup
func (h *CredentialsHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, http.StatusCreated, h.service.CreateAccount)
}

// HandleSignIn verifies credentials and starts a session.
// POST /auth/signin
func (h *CredentialsHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, http.StatusOK, h.service.SignIn)
}

func (h *CredentialsHandler) handle(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	authenticate func(ctx context.Context, email, password string) (*accounts.AuthResult, error),
) {
	// Limit request body size to prevent DoS attacks
	r.Body = http.MaxBytesReader(w, r.Body, 10*1024)

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "email and password are required")
		return
	}

	result, err := authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.sessions != nil {
		if err := h.sessions.Save(w, r, result.Identity); err != nil {
			log.Printf("Failed to start session for %s: %v", result.Identity, err)
			handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
			return
		}
	}

	handlers.WriteJSON(w, status, result)
}
