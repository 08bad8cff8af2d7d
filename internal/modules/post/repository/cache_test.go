package repository

import (
	"context"
	"testing"
	"time"

	"github.com/reshetovitsme/x-telegram-relay/internal/modules/post/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	posts    map[string]*domain.Post
	getCalls int
}

func (s *countingSource) RecentPosts(_ context.Context, _ string, limit int) ([]*domain.Post, error) {
	var out []*domain.Post
	for _, p := range s.posts {
		if len(out) == limit {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *countingSource) GetPost(_ context.Context, postID string) (*domain.Post, error) {
	s.getCalls++
	p, ok := s.posts[postID]
	if !ok {
		return nil, errors.ErrPostNotFound
	}
	return p, nil
}

func TestCachedRepositoryGetPost(t *testing.T) {
	source := &countingSource{posts: map[string]*domain.Post{
		"1": {ID: "1", Text: "hello"},
	}}
	repo := NewCachedRepository(source, 8, time.Minute)

	for range 3 {
		p, err := repo.GetPost(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, "hello", p.Text)
	}
	assert.Equal(t, 1, source.getCalls)

	_, err := repo.GetPost(context.Background(), "2")
	assert.ErrorIs(t, err, errors.ErrPostNotFound)
	_, err = repo.GetPost(context.Background(), "2")
	assert.ErrorIs(t, err, errors.ErrPostNotFound)
	assert.Equal(t, 3, source.getCalls, "failures are not cached")
}

func TestCachedRepositoryRecentPostsWarmsCache(t *testing.T) {
	source := &countingSource{posts: map[string]*domain.Post{
		"7": {ID: "7"},
	}}
	repo := NewCachedRepository(source, 8, time.Minute)

	posts, err := repo.RecentPosts(context.Background(), "42", 5)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	_, err = repo.GetPost(context.Background(), "7")
	require.NoError(t, err)
	assert.Zero(t, source.getCalls)
}

func TestCachedRepositoryPeek(t *testing.T) {
	source := &countingSource{posts: map[string]*domain.Post{"1": {ID: "1"}}}
	repo := NewCachedRepository(source, 8, time.Minute)

	_, ok := repo.Peek("1")
	assert.False(t, ok)

	_, err := repo.GetPost(context.Background(), "1")
	require.NoError(t, err)

	p, ok := repo.Peek("1")
	require.True(t, ok)
	assert.Equal(t, "1", p.ID)
	assert.Equal(t, 1, source.getCalls)
}
