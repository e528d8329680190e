package likes

import (
	"context"

	"Murmur/internal/core/posts"
	"Murmur/internal/core/session"
)

// Service applies like/unlike requests on behalf of a signed-in identity
type Service interface {
	// React applies action for identity and returns the committed post
	React(ctx context.Context, identity session.Identity, postID string, action Action) (*posts.Post, error)
}

// Repository performs the read-modify-write of a post's viewers atomically
type Repository interface {
	// UpdateViewers locks the post, passes its current viewers to fn and
	// stores fn's result together with like_count = len(result) in the same
	// transaction. Returns posts.ErrNotFound for unknown posts.
	UpdateViewers(ctx context.Context, postID string, fn func(viewers []string) ([]string, error)) (*posts.Post, error)
}
