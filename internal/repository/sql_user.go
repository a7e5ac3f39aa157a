package repository

import (
	"context"
	"errors"

	"socialql/internal/models"
	"socialql/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sqlUserRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewSQLUserRepository creates a user repository backed by the users table.
// The gorm.DB must be opened with TranslateError so unique violations map to
// gorm.ErrDuplicatedKey.
func NewSQLUserRepository(db *gorm.DB) UserRepository {
	return &sqlUserRepository{db: db, log: observability.NewRepoLogger("users")}
}

// conn scopes r.db to ctx, tagged with the table for query logs.
func (r *sqlUserRepository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(observability.WithCollection(ctx, "users"))
}

func (r *sqlUserRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("create", "users")()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := r.conn(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateUsername
		}
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": user.ID, "username": user.Username})
	return nil
}

func (r *sqlUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	defer observability.TrackQuery("get_by_username", "users")()

	var user models.User
	err := r.conn(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *sqlUserRepository) List(ctx context.Context) ([]*models.User, error) {
	defer observability.TrackQuery("list", "users")()

	var users []*models.User
	if err := r.conn(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
