package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Murmur/internal/api/handlers"
	"Murmur/internal/core/posts"
)

// GetHandler serves a single post
type GetHandler struct {
	service posts.Service
}

// NewGetHandler creates a new get handler
func NewGetHandler(service posts.Service) *GetHandler {
	return &GetHandler{service: service}
}

// HandleGet returns one post with its current likes.
// GET /posts/{id}
func (h *GetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, post)
}
