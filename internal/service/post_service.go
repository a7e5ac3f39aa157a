package service

import (
	"context"
	"strings"
	"time"

	"socialql/internal/models"
	"socialql/internal/notifications"
	"socialql/internal/repository"
)

type PostService struct {
	postRepo repository.PostRepository
	notifier *notifications.Notifier
	now      func() time.Time
}

type CreateCommentInput struct {
	PostID string
	Body   string
}

type DeleteCommentInput struct {
	PostID    string
	CommentID string
}

// NewPostService wires the post operations. notifier may be nil.
func NewPostService(postRepo repository.PostRepository, notifier *notifications.Notifier) *PostService {
	return &PostService{
		postRepo: postRepo,
		notifier: notifier,
		now:      time.Now,
	}
}

// GetPosts returns every post, newest first.
func (s *PostService) GetPosts(ctx context.Context) ([]*models.Post, error) {
	return s.postRepo.List(ctx)
}

func (s *PostService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID)
}

// CreatePost rejects only an empty body; whitespace is kept as written.
func (s *PostService) CreatePost(ctx context.Context, caller models.Identity, body string) (*models.Post, error) {
	if body == "" {
		return nil, models.NewValidationError("Post body must not be empty", map[string]string{
			"body": "Post body must not be empty",
		})
	}

	post := &models.Post{
		Body:      body,
		Username:  caller.Username,
		UserID:    caller.ID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.postRepo.Create(ctx, post.Normalize()); err != nil {
		return nil, err
	}

	s.notify(ctx, notifications.EventPostCreated, post.ID, "", caller.Username)
	return post, nil
}

// DeletePost removes the caller's own post and returns its last state.
func (s *PostService) DeletePost(ctx context.Context, caller models.Identity, postID string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Username != caller.Username {
		return nil, models.NewForbiddenError("Action not allowed")
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return nil, err
	}

	s.notify(ctx, notifications.EventPostDeleted, post.ID, "", caller.Username)
	return post, nil
}

func (s *PostService) CreateComment(ctx context.Context, caller models.Identity, in CreateCommentInput) (*models.Post, error) {
	if strings.TrimSpace(in.Body) == "" {
		return nil, models.NewValidationError("Empty comment", map[string]string{
			"body": "Comment body must not be empty",
		})
	}

	comment := &models.Comment{
		Body:      in.Body,
		Username:  caller.Username,
		CreatedAt: s.now().UTC(),
	}
	post, err := s.postRepo.AddComment(ctx, in.PostID, comment)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notifications.EventCommentCreated, post.ID, comment.ID, caller.Username)
	return post, nil
}

// DeleteComment removes one of the caller's comments. A missing comment and
// someone else's comment both fail with FORBIDDEN.
func (s *PostService) DeleteComment(ctx context.Context, caller models.Identity, in DeleteCommentInput) (*models.Post, error) {
	post, err := s.postRepo.RemoveComment(ctx, in.PostID, in.CommentID, caller.Username)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notifications.EventCommentDeleted, post.ID, in.CommentID, caller.Username)
	return post, nil
}

// LikePost toggles the caller's like.
func (s *PostService) LikePost(ctx context.Context, caller models.Identity, postID string) (*models.Post, error) {
	post, err := s.postRepo.ToggleLike(ctx, postID, caller.Username, s.now().UTC())
	if err != nil {
		return nil, err
	}

	event := notifications.EventPostUnliked
	if post.HasLike(caller.Username) {
		event = notifications.EventPostLiked
	}
	s.notify(ctx, event, post.ID, "", caller.Username)
	return post, nil
}

func (s *PostService) notify(ctx context.Context, eventType, postID, commentID, username string) {
	s.notifier.PublishAsync(ctx, notifications.PostEvent{
		Type:      eventType,
		PostID:    postID,
		CommentID: commentID,
		Username:  username,
		At:        s.now().UTC(),
	})
}
