package remote

import (
	"context"
	"offblog/internal/domain"
)

// Source is the remote post capability.
type Source interface {
	// FetchPosts returns post summaries in server order.
	FetchPosts(ctx context.Context) ([]domain.Post, error)
	// FetchPost returns nil without error when the post does not exist.
	FetchPost(ctx context.Context, id string) (*domain.Post, error)
	CreatePost(ctx context.Context, input domain.NewPost) (*domain.Post, error)
	DeletePost(ctx context.Context, id string) (bool, error)
}

// Invalidator drops cached remote results.
type Invalidator interface {
	Invalidate()
}
