package repository

import (
	"context"
	"errors"
	"time"

	"socialql/internal/models"
	"socialql/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sqlPostRepository stores comments and likes as JSON columns of the post row;
// aggregate updates run in a transaction holding the row lock.
type sqlPostRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewSQLPostRepository creates a post repository backed by the posts table.
func NewSQLPostRepository(db *gorm.DB) PostRepository {
	return &sqlPostRepository{db: db, log: observability.NewRepoLogger("posts")}
}

// conn scopes r.db to ctx, tagged with the table for query logs.
func (r *sqlPostRepository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(observability.WithCollection(ctx, "posts"))
}

func (r *sqlPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	defer observability.TrackQuery("list", "posts")()

	var posts []*models.Post
	if err := r.conn(ctx).Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	for _, p := range posts {
		p.Normalize()
	}
	return posts, nil
}

func (r *sqlPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	defer observability.TrackQuery("get_by_id", "posts")()

	var post models.Post
	err := r.conn(ctx).Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errPostNotFound()
	}
	if err != nil {
		return nil, err
	}
	return post.Normalize(), nil
}

func (r *sqlPostRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	post.Normalize()
	if err := r.conn(ctx).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": post.ID, "username": post.Username})
	return nil
}

func (r *sqlPostRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackQuery("delete", "posts")()

	res := r.conn(ctx).Where("id = ?", id).Delete(&models.Post{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errPostNotFound()
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}

// mutate loads the post under a row lock, applies fn and saves it in one transaction.
func (r *sqlPostRepository) mutate(ctx context.Context, id, change string, fn func(*models.Post) error) (*models.Post, error) {
	var post models.Post
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&post).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errPostNotFound()
		}
		if err != nil {
			return err
		}
		post.Normalize()
		if err := fn(&post); err != nil {
			return err
		}
		return tx.Save(&post).Error
	})
	if err != nil {
		if !models.HasCode(err, models.CodeNotFound) && !models.HasCode(err, models.CodeForbidden) {
			r.log.LogError(ctx, err, change)
		}
		return nil, err
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": id, "change": change})
	return post.Normalize(), nil
}

func (r *sqlPostRepository) AddComment(ctx context.Context, postID string, comment *models.Comment) (*models.Post, error) {
	defer observability.TrackQuery("add_comment", "posts")()

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	return r.mutate(ctx, postID, "add_comment", func(p *models.Post) error {
		p.AddComment(*comment)
		return nil
	})
}

func (r *sqlPostRepository) RemoveComment(ctx context.Context, postID, commentID, username string) (*models.Post, error) {
	defer observability.TrackQuery("remove_comment", "posts")()

	return r.mutate(ctx, postID, "remove_comment", func(p *models.Post) error {
		return p.RemoveComment(commentID, username)
	})
}

func (r *sqlPostRepository) ToggleLike(ctx context.Context, postID, username string, at time.Time) (*models.Post, error) {
	defer observability.TrackQuery("toggle_like", "posts")()

	return r.mutate(ctx, postID, "toggle_like", func(p *models.Post) error {
		p.ToggleLike(username, at)
		return nil
	})
}
