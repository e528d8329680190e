package routes

import (
	"github.com/go-chi/chi/v5"

	"Murmur/internal/api/middleware"
	"Murmur/internal/web"
)

// RegisterWebRoutes registers the HTML feed page and sign-out confirmation
func RegisterWebRoutes(r chi.Router, handlers *web.Handlers, authMiddleware *middleware.AuthMiddleware) {
	r.With(authMiddleware.OptionalAuth).Get("/", handlers.FeedPageHandler)
	r.With(authMiddleware.OptionalAuth).Get("/signout", handlers.SignOutPageHandler)
	r.Post("/signout", handlers.SignOutSubmitHandler)
}
