package like

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Murmur/internal/api/handlers"
	"Murmur/internal/api/middleware"
	"Murmur/internal/core/likes"
	"Murmur/internal/core/posts"
	"Murmur/internal/core/session"
)

// LikeHandler applies like, unlike and toggle requests
type LikeHandler struct {
	service likes.Service
}

// NewLikeHandler creates a new like handler
func NewLikeHandler(service likes.Service) *LikeHandler {
	return &LikeHandler{service: service}
}

// HandleReact returns a handler applying action to the post in the URL and
// responding with the committed post.
// POST (toggle), PUT (like), DELETE (unlike) /posts/{id}/like
func (h *LikeHandler) HandleReact(action likes.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID := chi.URLParam(r, "id")
		if postID == "" {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "post id is required")
			return
		}

		post, err := h.service.React(r.Context(), middleware.GetIdentity(r), postID, action)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		handlers.WriteJSON(w, http.StatusOK, post)
	}
}

// handleServiceError maps like service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSignInRequired):
		handlers.WriteError(w, http.StatusUnauthorized, "SignInRequired", "You must sign in to do that")
	case errors.Is(err, posts.ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post not found")
	case errors.Is(err, likes.ErrInvalidAction):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
	default:
		log.Printf("Like handler error: %v", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
