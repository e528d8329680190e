package routes

import (
	"github.com/go-chi/chi/v5"

	"Murmur/internal/api/handlers/like"
	"Murmur/internal/api/middleware"
	"Murmur/internal/core/likes"
)

// RegisterLikeRoutes registers like toggling. POST toggles, PUT likes and
// DELETE unlikes; PUT and DELETE are idempotent.
func RegisterLikeRoutes(r chi.Router, service likes.Service, authMiddleware *middleware.AuthMiddleware) {
	handler := like.NewLikeHandler(service)

	r.Route("/posts/{id}/like", func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Post("/", handler.HandleReact(likes.ActionToggle))
		r.Put("/", handler.HandleReact(likes.ActionLike))
		r.Delete("/", handler.HandleReact(likes.ActionUnlike))
	})
}
