// Package service implements the application's business operations on top of
// the repositories.
package service

import (
	"context"
	"errors"
	"time"

	"socialql/internal/auth"
	"socialql/internal/cache"
	"socialql/internal/models"
	"socialql/internal/observability"
	"socialql/internal/repository"
	"socialql/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
	hasher   *auth.Hasher
	tokens   *auth.TokenCodec
	limiter  *cache.AttemptLimiter
	now      func() time.Time
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

type LoginInput struct {
	Username string
	Password string
}

// NewUserService wires the user operations. limiter may be nil.
func NewUserService(
	userRepo repository.UserRepository,
	hasher *auth.Hasher,
	tokens *auth.TokenCodec,
	limiter *cache.AttemptLimiter,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		limiter:  limiter,
		now:      time.Now,
	}
}

func errUsernameTaken() error {
	return models.NewValidationError("Username is taken", map[string]string{
		"username": "This username is taken",
	})
}

// Register creates an account and returns it with a fresh token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.AuthPayload, error) {
	if res := validation.ValidateRegisterInput(in.Username, in.Email, in.Password, in.ConfirmPassword); !res.Valid {
		return nil, models.NewValidationError("Errors", res.Errors)
	}

	// The unique index on username is the backstop for concurrent registrations.
	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errUsernameTaken()
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  hashed,
		CreatedAt: s.now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, errUsernameTaken()
		}
		return nil, err
	}

	observability.Logger.InfoContext(ctx, "user registered", "username", user.Username)
	return s.payload(user)
}

// Login verifies credentials and returns the user with a fresh token.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*models.AuthPayload, error) {
	if res := validation.ValidateLoginInput(in.Username, in.Password); !res.Valid {
		return nil, models.NewValidationError("Errors", res.Errors)
	}

	allowed, err := s.limiter.Allowed(ctx, in.Username)
	if err != nil {
		observability.Logger.WarnContext(ctx, "login limiter unavailable", "error", err)
		allowed = true
	}
	if !allowed {
		return nil, models.NewValidationError("Too many login attempts", map[string]string{
			"general": "Too many login attempts",
		})
	}

	user, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		notFound := models.NewNotFoundError("User not found")
		notFound.Fields = map[string]string{"general": "User not found"}
		return nil, notFound
	}

	if !s.hasher.Verify(in.Password, user.Password) {
		if err := s.limiter.Fail(ctx, in.Username); err != nil {
			observability.Logger.WarnContext(ctx, "failed to record login failure", "error", err)
		}
		observability.AuthFailures.WithLabelValues("wrong_credentials").Inc()
		wrong := models.NewAuthenticationError("Wrong credentials", nil)
		wrong.Fields = map[string]string{"general": "Wrong credentials"}
		return nil, wrong
	}

	if err := s.limiter.Reset(ctx, in.Username); err != nil {
		observability.Logger.WarnContext(ctx, "failed to reset login failures", "error", err)
	}
	return s.payload(user)
}

// ListUsers returns every account, oldest first.
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *UserService) payload(user *models.User) (*models.AuthPayload, error) {
	token, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return nil, err
	}
	return &models.AuthPayload{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		Token:     token,
	}, nil
}
