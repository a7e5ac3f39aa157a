package repository

import (
	"context"
	"time"

	"socialql/internal/cache"
	"socialql/internal/models"
)

// cachedPostRepository serves List and GetByID through a Redis cache-aside
// layer and drops the affected keys after every mutation.
type cachedPostRepository struct {
	PostRepository
	cache *cache.Cache
}

// NewCachedPostRepository wraps inner with c. A disabled cache returns inner unchanged.
func NewCachedPostRepository(inner PostRepository, c *cache.Cache) PostRepository {
	if !c.Enabled() {
		return inner
	}
	return &cachedPostRepository{PostRepository: inner, cache: c}
}

// A miss that loads before a concurrent write's invalidation can refill the
// cache with the older value; it lives until the TTL expires.
func (r *cachedPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.cache.Aside(ctx, cache.PostsListKey, &posts, func() error {
		var fetchErr error
		posts, fetchErr = r.PostRepository.List(ctx)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		p.Normalize()
	}
	return posts, nil
}

func (r *cachedPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post *models.Post
	err := r.cache.Aside(ctx, cache.PostKey(id), &post, func() error {
		var fetchErr error
		post, fetchErr = r.PostRepository.GetByID(ctx, id)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return post.Normalize(), nil
}

func (r *cachedPostRepository) invalidate(ctx context.Context, id string) {
	keys := []string{cache.PostsListKey}
	if id != "" {
		keys = append(keys, cache.PostKey(id))
	}
	// A stale entry only lives until its TTL.
	_ = r.cache.Invalidate(ctx, keys...)
}

func (r *cachedPostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.PostRepository.Create(ctx, post); err != nil {
		return err
	}
	r.invalidate(ctx, "")
	return nil
}

func (r *cachedPostRepository) Delete(ctx context.Context, id string) error {
	err := r.PostRepository.Delete(ctx, id)
	r.invalidate(ctx, id)
	return err
}

func (r *cachedPostRepository) AddComment(ctx context.Context, postID string, comment *models.Comment) (*models.Post, error) {
	post, err := r.PostRepository.AddComment(ctx, postID, comment)
	if err == nil {
		r.invalidate(ctx, postID)
	}
	return post, err
}

func (r *cachedPostRepository) RemoveComment(ctx context.Context, postID, commentID, username string) (*models.Post, error) {
	post, err := r.PostRepository.RemoveComment(ctx, postID, commentID, username)
	if err == nil {
		r.invalidate(ctx, postID)
	}
	return post, err
}

func (r *cachedPostRepository) ToggleLike(ctx context.Context, postID, username string, at time.Time) (*models.Post, error) {
	post, err := r.PostRepository.ToggleLike(ctx, postID, username, at)
	if err == nil {
		r.invalidate(ctx, postID)
	}
	return post, err
}
