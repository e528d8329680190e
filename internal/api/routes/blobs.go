package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Murmur/internal/core/feed"
)

// RegisterBlobRoutes serves uploaded media read-only under /blobs/
func RegisterBlobRoutes(r chi.Router, blobs http.Handler) {
	r.Handle("/blobs/*", http.StripPrefix("/blobs/", blobs))
}

// FeedHealth exposes the state of the process-wide feed store
type FeedHealth interface {
	View() feed.View
}

// RegisterHealthRoutes registers the health check. A degraded or closed feed
// answers 503 because it stays that way until the process restarts.
func RegisterHealthRoutes(r chi.Router, store FeedHealth) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		view := store.View()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		switch view.State {
		case feed.StateLive:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		case feed.StateConnecting:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK (feed connecting)"))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			msg := "feed " + string(view.State)
			if view.Error != "" {
				msg += ": " + view.Error
			}
			_, _ = w.Write([]byte(msg))
		}
	})
}
