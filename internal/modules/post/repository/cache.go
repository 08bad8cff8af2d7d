package repository

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/reshetovitsme/x-telegram-relay/internal/modules/post/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/metrics"
)

// CachedRepository keeps recently looked up posts in an expirable LRU so
// repeated submissions of the same URL do not hit the source API.
// Recent post listings always go to the source.
type CachedRepository struct {
	source Repository
	cache  *expirable.LRU[string, *domain.Post]
}

// NewCachedRepository wraps source with a cache of maxSize entries living for ttl
func NewCachedRepository(source Repository, maxSize int, ttl time.Duration) *CachedRepository {
	return &CachedRepository{
		source: source,
		cache:  expirable.NewLRU[string, *domain.Post](maxSize, nil, ttl),
	}
}

func (r *CachedRepository) RecentPosts(ctx context.Context, accountID string, limit int) ([]*domain.Post, error) {
	posts, err := r.source.RecentPosts(ctx, accountID, limit)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		r.cache.Add(p.ID, p)
	}
	return posts, nil
}

func (r *CachedRepository) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	if p, ok := r.cache.Get(postID); ok {
		metrics.PostCacheHitsTotal.Inc()
		return p, nil
	}
	metrics.PostCacheMissesTotal.Inc()

	p, err := r.source.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	r.cache.Add(postID, p)
	return p, nil
}

// Peek returns a cached post without touching the source or its recency.
func (r *CachedRepository) Peek(postID string) (*domain.Post, bool) {
	return r.cache.Peek(postID)
}
