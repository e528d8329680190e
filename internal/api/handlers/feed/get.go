package feed

import (
	"net/http"

	"Murmur/internal/api/handlers"
	"Murmur/internal/core/feed"
)

// ViewSource is the shared feed store as seen by HTTP handlers
type ViewSource interface {
	View() feed.View
	Listen() (<-chan feed.View, func())
}

// GetFeedHandler serves the current feed snapshot
type GetFeedHandler struct {
	store ViewSource
}

// NewGetFeedHandler creates a new feed handler
func NewGetFeedHandler(store ViewSource) *GetFeedHandler {
	return &GetFeedHandler{store: store}
}

// HandleGetFeed returns the store's current view. A degraded store still
// answers with its last snapshot plus the error.
// GET /feed
func (h *GetFeedHandler) HandleGetFeed(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, h.store.View())
}
