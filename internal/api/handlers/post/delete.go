package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Murmur/internal/api/handlers"
	"Murmur/internal/api/middleware"
	"Murmur/internal/core/posts"
)

// DeletePostResponse confirms which post was removed
type DeletePostResponse struct {
	ID string `json:"id"`
}

// DeleteHandler handles post deletion
type DeleteHandler struct {
	service posts.Service
}

// NewDeleteHandler creates a new delete handler
func NewDeleteHandler(service posts.Service) *DeleteHandler {
	return &DeleteHandler{service: service}
}

// HandleDelete removes a post owned by the caller.
// DELETE /posts/{id}
func (h *DeleteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	if postID == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "post id is required")
		return
	}

	if err := h.service.DeletePost(r.Context(), middleware.GetIdentity(r), postID); err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, DeletePostResponse{ID: postID})
}
