package repository

import (
	"context"
	"testing"
	"time"

	"socialql/internal/config"
	"socialql/internal/database"
	"socialql/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQL(config.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.MigrateSQL(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedPost(t *testing.T, repo PostRepository, username string, at time.Time) *models.Post {
	t.Helper()
	post := &models.Post{Body: "post by " + username, Username: username, UserID: "u-" + username, CreatedAt: at}
	require.NoError(t, repo.Create(context.Background(), post))
	require.NotEmpty(t, post.ID)
	return post
}

func TestSQLUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLUserRepository(db)
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		user := &models.User{Username: "alice", Email: "alice@example.com", Password: "hash", CreatedAt: time.Now()}
		require.NoError(t, repo.Create(ctx, user))
		assert.NotEmpty(t, user.ID)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{Username: "alice", Email: "other@example.com", Password: "hash"})
		assert.ErrorIs(t, err, ErrDuplicateUsername)
	})

	t.Run("GetByUsername", func(t *testing.T) {
		user, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "hash", user.Password)
	})

	t.Run("GetByUsernameMissing", func(t *testing.T) {
		user, err := repo.GetByUsername(ctx, "nobody")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, &models.User{Username: "bob", Email: "bob@example.com", Password: "hash", CreatedAt: time.Now().Add(time.Minute)}))
		users, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "alice", users[0].Username)
		assert.Equal(t, "bob", users[1].Username)
	})
}

func TestSQLPostRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLPostRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	older := seedPost(t, repo, "alice", base)
	newer := seedPost(t, repo, "bob", base.Add(time.Hour))

	t.Run("ListNewestFirst", func(t *testing.T) {
		posts, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, newer.ID, posts[0].ID)
		assert.Equal(t, older.ID, posts[1].ID)
		assert.NotNil(t, posts[0].Comments)
		assert.NotNil(t, posts[0].Likes)
	})

	t.Run("GetByID", func(t *testing.T) {
		post, err := repo.GetByID(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, "post by alice", post.Body)
		assert.Equal(t, "alice", post.Username)
		assert.Empty(t, post.Comments)
	})

	t.Run("GetByIDMissing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "does-not-exist")
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})

	t.Run("AddComment", func(t *testing.T) {
		first := &models.Comment{Body: "first", Username: "bob", CreatedAt: base}
		post, err := repo.AddComment(ctx, older.ID, first)
		require.NoError(t, err)
		require.NotEmpty(t, first.ID)
		require.Len(t, post.Comments, 1)

		second := &models.Comment{Body: "second", Username: "alice", CreatedAt: base.Add(time.Minute)}
		post, err = repo.AddComment(ctx, older.ID, second)
		require.NoError(t, err)
		require.Len(t, post.Comments, 2)
		assert.Equal(t, "second", post.Comments[0].Body)
		assert.Equal(t, "first", post.Comments[1].Body)

		stored, err := repo.GetByID(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.CommentCount())
	})

	t.Run("AddCommentMissingPost", func(t *testing.T) {
		_, err := repo.AddComment(ctx, "missing", &models.Comment{Body: "x", Username: "bob"})
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})

	t.Run("RemoveComment", func(t *testing.T) {
		post, err := repo.GetByID(ctx, older.ID)
		require.NoError(t, err)
		bobs := post.Comments[1]

		_, err = repo.RemoveComment(ctx, older.ID, bobs.ID, "alice")
		assert.True(t, models.HasCode(err, models.CodeForbidden))

		_, err = repo.RemoveComment(ctx, older.ID, "no-such-comment", "bob")
		assert.True(t, models.HasCode(err, models.CodeForbidden))

		post, err = repo.RemoveComment(ctx, older.ID, bobs.ID, "bob")
		require.NoError(t, err)
		require.Len(t, post.Comments, 1)
		assert.Equal(t, "second", post.Comments[0].Body)
	})

	t.Run("ToggleLike", func(t *testing.T) {
		post, err := repo.ToggleLike(ctx, newer.ID, "alice", base)
		require.NoError(t, err)
		assert.Equal(t, 1, post.LikeCount())
		assert.True(t, post.HasLike("alice"))

		post, err = repo.ToggleLike(ctx, newer.ID, "carol", base.Add(time.Second))
		require.NoError(t, err)
		require.Equal(t, 2, post.LikeCount())
		assert.Equal(t, "carol", post.Likes[0].Username)

		post, err = repo.ToggleLike(ctx, newer.ID, "alice", base.Add(2*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 1, post.LikeCount())
		assert.False(t, post.HasLike("alice"))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, newer.ID))
		_, err := repo.GetByID(ctx, newer.ID)
		assert.True(t, models.HasCode(err, models.CodeNotFound))

		err = repo.Delete(ctx, newer.ID)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})
}
