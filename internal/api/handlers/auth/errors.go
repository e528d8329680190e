package auth

import (
	"errors"
	"log"
	"net/http"

	"Murmur/internal/api/handlers"
	"Murmur/internal/core/accounts"
)

// handleServiceError maps account errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accounts.ErrEmailTaken):
		handlers.WriteError(w, http.StatusConflict, "EmailTaken", "An account with that email already exists")
	case errors.Is(err, accounts.ErrInvalidCredentials):
		handlers.WriteError(w, http.StatusUnauthorized, "InvalidCredentials", "Invalid email or password")
	case accounts.IsInputError(err):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
	default:
		log.Printf("Auth handler error: %v", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
