// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"socialql/internal/models"
)

// ErrDuplicateUsername is returned by UserRepository.Create when the unique
// username index rejects the insert.
var ErrDuplicateUsername = errors.New("username already exists")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// GetByUsername returns (nil, nil) when no user has that username.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// PostRepository defines the interface for post data operations. Comment and
// like mutations are applied atomically by the implementation and return the
// post as it is after the update.
type PostRepository interface {
	// List returns every post, newest first.
	List(ctx context.Context) ([]*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
	AddComment(ctx context.Context, postID string, comment *models.Comment) (*models.Post, error)
	RemoveComment(ctx context.Context, postID, commentID, username string) (*models.Post, error)
	ToggleLike(ctx context.Context, postID, username string, at time.Time) (*models.Post, error)
}

func errPostNotFound() error {
	return models.NewNotFoundError("Post not found")
}

func errCommentForbidden() error {
	return models.NewForbiddenError("Action not allowed")
}
