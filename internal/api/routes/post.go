package routes

import (
	"github.com/go-chi/chi/v5"

	"Murmur/internal/api/handlers/post"
	"Murmur/internal/api/middleware"
	"Murmur/internal/core/posts"
)

// RegisterPostRoutes registers post routes. Reading a post is public;
// creating and deleting require a signed-in identity.
func RegisterPostRoutes(r chi.Router, service posts.Service, maxUploadBytes int64, authMiddleware *middleware.AuthMiddleware) {
	createHandler := post.NewCreateHandler(service, maxUploadBytes)
	deleteHandler := post.NewDeleteHandler(service)
	getHandler := post.NewGetHandler(service)

	r.Get("/posts/{id}", getHandler.HandleGet)

	r.With(authMiddleware.RequireAuth).Post("/posts", createHandler.HandleCreate)
	r.With(authMiddleware.RequireAuth).Delete("/posts/{id}", deleteHandler.HandleDelete)
}
