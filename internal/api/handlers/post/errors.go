package post

import (
	"errors"
	"log"
	"net/http"

	"Murmur/internal/api/handlers"
	"Murmur/internal/core/posts"
	"Murmur/internal/core/session"
)

// handleServiceError maps post service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, session.ErrSignInRequired):
		handlers.WriteError(w, http.StatusUnauthorized, "SignInRequired", "You must sign in to do that")
	case errors.Is(err, posts.ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post not found")
	case errors.Is(err, posts.ErrNotAuthorized):
		handlers.WriteError(w, http.StatusForbidden, "NotAuthorized", "Only the author can delete this post")
	case errors.Is(err, posts.ErrEmptyPost):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
	case posts.IsValidationError(err):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
	case errors.As(err, &maxBytesErr):
		handlers.WriteError(w, http.StatusRequestEntityTooLarge, "PayloadTooLarge", "Upload is too large")
	default:
		log.Printf("Post handler error: %v", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
