package repository

import (
	"context"

	"github.com/reshetovitsme/x-telegram-relay/internal/modules/post/domain"
)

// Repository is the read-only source of posts.
// Any client able to list an account's recent posts and look up a single
// post by id satisfies it.
type Repository interface {
	// RecentPosts returns up to limit posts of the account, newest first.
	RecentPosts(ctx context.Context, accountID string, limit int) ([]*domain.Post, error)
	GetPost(ctx context.Context, postID string) (*domain.Post, error)
}
