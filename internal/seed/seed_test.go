package seed

import (
	"context"
	"testing"

	"socialql/internal/auth"
	"socialql/internal/repository"
	"socialql/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServices(store *repository.MemoryStore) (*service.UserService, *service.PostService) {
	users := service.NewUserService(store.Users(), auth.NewHasher(4), auth.NewTokenCodec("seed-secret", nil), nil)
	return users, service.NewPostService(store.Posts(), nil)
}

func TestSeeder_Run(t *testing.T) {
	store := repository.NewMemoryStore()
	users, posts := newServices(store)

	s := NewSeeder(users, posts, Options{Users: 4, Posts: 6, MaxComments: 3, LikeChance: 50, Seed: 42})
	sum, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Users)
	assert.Equal(t, 6, sum.Posts)

	stored, err := posts.GetPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 6)

	comments, likes := 0, 0
	for _, p := range stored {
		assert.NotEmpty(t, p.Body)
		comments += p.CommentCount()
		likes += p.LikeCount()
		assert.LessOrEqual(t, p.CommentCount(), 3)
		assert.LessOrEqual(t, p.LikeCount(), 4)
	}
	assert.Equal(t, sum.Comments, comments)
	assert.Equal(t, sum.Likes, likes)

	accounts, err := users.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 4)

	_, err = users.Login(context.Background(), service.LoginInput{Username: accounts[0].Username, Password: DefaultPassword})
	assert.NoError(t, err)
}

func TestSeeder_NoUsersCreatesNothing(t *testing.T) {
	users, posts := newServices(repository.NewMemoryStore())

	sum, err := NewSeeder(users, posts, Options{Posts: 10}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
}

func TestSeeder_LikeChanceBounds(t *testing.T) {
	users, posts := newServices(repository.NewMemoryStore())

	sum, err := NewSeeder(users, posts, Options{Users: 3, Posts: 2, LikeChance: 100, Seed: 7}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Likes)
	assert.Zero(t, sum.Comments)

	users, posts = newServices(repository.NewMemoryStore())
	sum, err = NewSeeder(users, posts, Options{Users: 3, Posts: 2, LikeChance: 0, Seed: 7}).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Likes)
}

func TestSummary_String(t *testing.T) {
	assert.Equal(t, "1 users, 2 posts, 3 comments, 4 likes", Summary{1, 2, 3, 4}.String())
}
