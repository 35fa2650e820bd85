package remote

import (
	"context"
	"offblog/internal/cache"
	"offblog/internal/domain"
	"slices"
	"time"
)

const (
	cachedSourceMaxEntries = 256
	postsCacheKey          = "posts"
	postCacheKeyPrefix     = "post:"
)

// CachedSource keeps successful reads of the wrapped Source for a fixed TTL.
// Writes go straight through and drop every cached read, whatever their
// outcome: a failed write may still have reached the server.
type CachedSource struct {
	source Source
	ttl    time.Duration
	posts  *cache.LRU[[]domain.Post]
	post   *cache.LRU[domain.Post]
	now    func() time.Time
}

func NewCachedSource(source Source, ttl time.Duration) *CachedSource {
	maxEntries := cachedSourceMaxEntries
	if ttl <= 0 {
		maxEntries = 0
	}

	return &CachedSource{
		source: source,
		ttl:    ttl,
		posts:  cache.NewLRU[[]domain.Post](1),
		post:   cache.NewLRU[domain.Post](maxEntries),
		now:    time.Now,
	}
}

func (s *CachedSource) FetchPosts(ctx context.Context) ([]domain.Post, error) {
	now := s.now()
	if s.ttl > 0 {
		if posts, ok := s.posts.Get(postsCacheKey, now); ok {
			return slices.Clone(posts), nil
		}
	}

	posts, err := s.source.FetchPosts(ctx)
	if err != nil {
		return nil, err
	}

	if s.ttl > 0 {
		s.posts.Set(postsCacheKey, slices.Clone(posts), now.Add(s.ttl), now)
	}

	return posts, nil
}

func (s *CachedSource) FetchPost(ctx context.Context, id string) (*domain.Post, error) {
	now := s.now()
	if post, ok := s.post.Get(postCacheKeyPrefix+id, now); ok {
		return &post, nil
	}

	post, err := s.source.FetchPost(ctx, id)
	if err != nil || post == nil {
		return post, err
	}

	s.post.Set(postCacheKeyPrefix+id, *post, now.Add(s.ttl), now)

	return post, nil
}

func (s *CachedSource) CreatePost(ctx context.Context, input domain.NewPost) (*domain.Post, error) {
	defer s.Invalidate()

	return s.source.CreatePost(ctx, input)
}

func (s *CachedSource) DeletePost(ctx context.Context, id string) (bool, error) {
	defer s.Invalidate()

	return s.source.DeletePost(ctx, id)
}

func (s *CachedSource) Invalidate() {
	s.posts.Purge()
	s.post.Purge()
}
