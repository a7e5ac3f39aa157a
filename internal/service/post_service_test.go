package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"socialql/internal/models"
	"socialql/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = models.Identity{ID: "u-alice", Email: "a@b.com", Username: "alice"}
	bob   = models.Identity{ID: "u-bob", Email: "b@b.com", Username: "bob"}
)

func newTestPostService() *PostService {
	svc := NewPostService(repository.NewMemoryStore().Posts(), nil)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return svc
}

func TestPostService_CreatePost(t *testing.T) {
	t.Parallel()
	svc := newTestPostService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, alice, "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "hello", post.Body)
	assert.Equal(t, "alice", post.Username)
	assert.Equal(t, "u-alice", post.UserID)
	assert.Empty(t, post.Comments)
	assert.NotNil(t, post.Comments)
	assert.Empty(t, post.Likes)
	assert.Equal(t, 0, post.CommentCount())
	assert.Equal(t, 0, post.LikeCount())

	_, err = svc.CreatePost(ctx, alice, "")
	assertAppError(t, err, models.CodeValidation)

	spaced, err := svc.CreatePost(ctx, alice, "   ")
	require.NoError(t, err)
	assert.Equal(t, "   ", spaced.Body)
}

func TestPostService_GetPostsNewestFirst(t *testing.T) {
	t.Parallel()
	svc := newTestPostService()
	ctx := context.Background()

	first, err := svc.CreatePost(ctx, alice, "first")
	require.NoError(t, err)
	second, err := svc.CreatePost(ctx, bob, "second")
	require.NoError(t, err)

	posts, err := svc.GetPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)

	got, err := svc.GetPost(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Body)

	_, err = svc.GetPost(ctx, "missing")
	assertAppError(t, err, models.CodeNotFound)
}

func TestPostService_LikePostToggles(t *testing.T) {
	t.Parallel()
	svc := newTestPostService()
	ctx := context.Background()
	post, err := svc.CreatePost(ctx, alice, "hello")
	require.NoError(t, err)

	liked, err := svc.LikePost(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount())
	assert.True(t, liked.HasLike("bob"))

	unliked, err := svc.LikePost(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.LikeCount())
	assert.False(t, unliked.HasLike("bob"))

	_, err = svc.LikePost(ctx, bob, "missing")
	assertAppError(t, err, models.CodeNotFound)
}

func TestPostService_DeletePost(t *testing.T) {
	t.Parallel()
	svc := newTestPostService()
	ctx := context.Background()
	post, err := svc.CreatePost(ctx, alice, "hello")
	require.NoError(t, err)

	_, err = svc.DeletePost(ctx, bob, post.ID)
	assertAppError(t, err, models.CodeForbidden)

	deleted, err := svc.DeletePost(ctx, alice, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, deleted.ID)
	assert.Equal(t, "hello", deleted.Body)

	_, err = svc.GetPost(ctx, post.ID)
	assertAppError(t, err, models.CodeNotFound)

	_, err = svc.DeletePost(ctx, alice, post.ID)
	assertAppError(t, err, models.CodeNotFound)
}

func TestPostService_Comments(t *testing.T) {
	t.Parallel()
	svc := newTestPostService()
	ctx := context.Background()
	post, err := svc.CreatePost(ctx, alice, "hello")
	require.NoError(t, err)

	_, err = svc.CreateComment(ctx, bob, CreateCommentInput{PostID: post.ID, Body: "  \t"})
	appErr := assertAppError(t, err, models.CodeValidation)
	assert.Equal(t, "Comment body must not be empty", appErr.Fields["body"])

	_, err = svc.CreateComment(ctx, bob, CreateCommentInput{PostID: "missing", Body: "hi"})
	assertAppError(t, err, models.CodeNotFound)

	updated, err := svc.CreateComment(ctx, bob, CreateCommentInput{PostID: post.ID, Body: "from bob"})
	require.NoError(t, err)
	updated, err = svc.CreateComment(ctx, alice, CreateCommentInput{PostID: post.ID, Body: "from alice"})
	require.NoError(t, err)
	require.Len(t, updated.Comments, 2)
	assert.Equal(t, "from alice", updated.Comments[0].Body)
	bobComment := updated.Comments[1]
	assert.Equal(t, "bob", bobComment.Username)

	// alice owns the post but not the comment
	_, err = svc.DeleteComment(ctx, alice, DeleteCommentInput{PostID: post.ID, CommentID: bobComment.ID})
	assertAppError(t, err, models.CodeForbidden)

	_, err = svc.DeleteComment(ctx, bob, DeleteCommentInput{PostID: post.ID, CommentID: "nope"})
	assertAppError(t, err, models.CodeForbidden)

	_, err = svc.DeleteComment(ctx, bob, DeleteCommentInput{PostID: "missing", CommentID: bobComment.ID})
	assertAppError(t, err, models.CodeNotFound)

	updated, err = svc.DeleteComment(ctx, bob, DeleteCommentInput{PostID: post.ID, CommentID: bobComment.ID})
	require.NoError(t, err)
	require.Len(t, updated.Comments, 1)
	assert.Equal(t, "from alice", updated.Comments[0].Body)
}

func TestPostService_ConcurrentLikes(t *testing.T) {
	t.Parallel()
	svc := newTestPostService()
	ctx := context.Background()
	post, err := svc.CreatePost(ctx, alice, "popular")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := models.Identity{ID: "u", Username: string(rune('a' + i))}
			_, err := svc.LikePost(ctx, id, post.ID)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.LikeCount())
}

// failingPostRepo fails every call with err.
type failingPostRepo struct {
	repository.PostRepository
	err error
}

func (r failingPostRepo) GetByID(context.Context, string) (*models.Post, error) { return nil, r.err }
func (r failingPostRepo) Create(context.Context, *models.Post) error            { return r.err }

func TestPostService_StoreErrorsPropagate(t *testing.T) {
	t.Parallel()
	boom := errors.New("store unavailable")
	svc := NewPostService(failingPostRepo{err: boom}, nil)

	_, err := svc.CreatePost(context.Background(), alice, "hello")
	assert.ErrorIs(t, err, boom)
	_, err = svc.DeletePost(context.Background(), alice, "p1")
	assert.ErrorIs(t, err, boom)
}
