package web

import (
	"log"
	"log/slog"
	"net/http"

	"Murmur/internal/api/middleware"
	"Murmur/internal/core/feed"
	"Murmur/internal/core/posts"
	"Murmur/internal/core/session"
)

// FeedViewer exposes the shared feed store's current view
type FeedViewer interface {
	View() feed.View
}

// SessionStore reads and ends the browser cookie session
type SessionStore interface {
	Identity(r *http.Request) session.Identity
	Clear(w http.ResponseWriter, r *http.Request) error
}

// Handlers provides HTTP handlers for the Murmur web interface.
type Handlers struct {
	templates *Templates
	feed      FeedViewer
	sessions  SessionStore
}

// NewHandlers creates a new Handlers instance with the provided dependencies.
func NewHandlers(templates *Templates, feed FeedViewer, sessions SessionStore) *Handlers {
	return &Handlers{
		templates: templates,
		feed:      feed,
		sessions:  sessions,
	}
}

// FeedPageData holds data for the feed template.
type FeedPageData struct {
	Title    string
	Identity string
	Posts    []*posts.Post
	Stale    bool
}

// FeedPageHandler handles GET / and renders the current feed snapshot.
func (h *Handlers) FeedPageHandler(w http.ResponseWriter, r *http.Request) {
	// Only handle exact root path - let other routes handle their own paths
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	view := h.feed.View()
	data := FeedPageData{
		Title:    "Murmur",
		Identity: h.identity(r).String(),
		Posts:    view.Posts,
		Stale:    view.Stale(),
	}

	if err := h.templates.Render(w, "feed.html", data); err != nil {
		log.Printf("Failed to render feed page: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// SignOutPageData contains the data for the sign-out template
type SignOutPageData struct {
	Identity string
}

// SignOutPageHandler renders the sign-out confirmation page
// GET /signout
func (h *Handlers) SignOutPageHandler(w http.ResponseWriter, r *http.Request) {
	data := SignOutPageData{Identity: h.identity(r).String()}
	if err := h.templates.Render(w, "signout.html", data); err != nil {
		slog.Error("failed to render sign-out template", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// SignOutSubmitHandler ends the session once the confirmation field is set
// POST /signout
func (h *Handlers) SignOutSubmitHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1024)
	if err := r.ParseForm(); err != nil {
		slog.Warn("sign-out submit: failed to parse form", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if r.FormValue("confirm") != "true" {
		slog.Debug("sign-out submit: confirmation missing")
		http.Redirect(w, r, "/signout", http.StatusFound)
		return
	}

	if h.sessions != nil {
		if err := h.sessions.Clear(w, r); err != nil {
			slog.Error("sign-out submit: failed to clear session", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handlers) identity(r *http.Request) session.Identity {
	if identity := middleware.GetIdentity(r); identity.SignedIn() {
		return identity
	}
	if h.sessions != nil {
		return h.sessions.Identity(r)
	}
	return session.Anonymous
}
