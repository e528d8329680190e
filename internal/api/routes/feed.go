package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Murmur/internal/api/handlers/feed"
)

// RegisterFeedRoutes registers the snapshot and websocket feed routes.
// Reading the feed needs no identity.
func RegisterFeedRoutes(r chi.Router, store feed.ViewSource, checkOrigin func(*http.Request) bool, logger *slog.Logger) {
	getHandler := feed.NewGetFeedHandler(store)
	liveHandler := feed.NewLiveFeedHandler(store, checkOrigin, logger)

	r.Get("/feed", getHandler.HandleGetFeed)
	r.Get("/feed/live", liveHandler.HandleLive)
}
