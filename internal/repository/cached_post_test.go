package repository

import (
	"context"
	"testing"
	"time"

	"socialql/internal/cache"
	"socialql/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingPostRepo wraps a real repository and counts reads.
type countingPostRepo struct {
	PostRepository
	lists int
	gets  int
}

func (r *countingPostRepo) List(ctx context.Context) ([]*models.Post, error) {
	r.lists++
	return r.PostRepository.List(ctx)
}

func (r *countingPostRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	r.gets++
	return r.PostRepository.GetByID(ctx, id)
}

func setupCachedRepo(t *testing.T) (PostRepository, *countingPostRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &countingPostRepo{PostRepository: NewSQLPostRepository(setupTestDB(t))}
	return NewCachedPostRepository(inner, cache.New(rdb, time.Minute)), inner, mr
}

func TestCachedPostRepository_ListServedFromCache(t *testing.T) {
	repo, inner, mr := setupCachedRepo(t)
	ctx := context.Background()
	seedPost(t, repo, "alice", time.Now())

	for i := 0; i < 3; i++ {
		posts, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 1)
	}
	assert.Equal(t, 1, inner.lists)
	assert.True(t, mr.Exists(cache.PostsListKey))
}

func TestCachedPostRepository_MutationsInvalidate(t *testing.T) {
	repo, inner, mr := setupCachedRepo(t)
	ctx := context.Background()
	post := seedPost(t, repo, "alice", time.Now())

	_, err := repo.List(ctx)
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.PostKey(post.ID)))

	liked, err := repo.ToggleLike(ctx, post.ID, "bob", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount())
	assert.False(t, mr.Exists(cache.PostsListKey))
	assert.False(t, mr.Exists(cache.PostKey(post.ID)))

	fresh, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.LikeCount())
	assert.Equal(t, 2, inner.gets)

	_, err = repo.AddComment(ctx, post.ID, &models.Comment{Body: "hi", Username: "bob", CreatedAt: time.Now()})
	require.NoError(t, err)
	fresh, err = repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.CommentCount())

	require.NoError(t, repo.Delete(ctx, post.ID))
	_, err = repo.GetByID(ctx, post.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestCachedPostRepository_NotFoundIsNotCached(t *testing.T) {
	repo, _, mr := setupCachedRepo(t)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.False(t, mr.Exists(cache.PostKey("missing")))
}

func TestCachedPostRepository_RedisDownFallsThrough(t *testing.T) {
	repo, inner, mr := setupCachedRepo(t)
	ctx := context.Background()
	seedPost(t, repo, "alice", time.Now())
	mr.Close()

	posts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Equal(t, 1, inner.lists)
}

func TestNewCachedPostRepository_DisabledReturnsInner(t *testing.T) {
	inner := NewSQLPostRepository(setupTestDB(t))
	assert.Same(t, inner, NewCachedPostRepository(inner, cache.New(nil, time.Minute)))
	assert.Same(t, inner, NewCachedPostRepository(inner, nil))
}
