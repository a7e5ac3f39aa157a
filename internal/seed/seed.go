// Package seed fills a store with demo users, posts, comments and likes. It
// goes through the service layer so seeded data obeys the same rules as API
// traffic. Intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log"

	"socialql/internal/models"
	"socialql/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Options controls how much data is generated.
type Options struct {
	Users int
	Posts int
	// MaxComments is the upper bound of comments per post.
	MaxComments int
	// LikeChance is the probability (0-100) that a given user likes a given post.
	LikeChance int
	// Seed makes the generated content reproducible; 0 picks a random seed.
	Seed int64
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d posts, %d comments, %d likes", s.Users, s.Posts, s.Comments, s.Likes)
}

// Seeder generates content through the user and post services.
type Seeder struct {
	users *service.UserService
	posts *service.PostService
	faker *gofakeit.Faker
	opts  Options
}

func NewSeeder(users *service.UserService, posts *service.PostService, opts Options) *Seeder {
	if opts.MaxComments < 0 {
		opts.MaxComments = 0
	}
	return &Seeder{users: users, posts: posts, faker: gofakeit.New(opts.Seed), opts: opts}
}

// Run creates the configured number of users and spreads posts, comments and
// likes across them.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	identities := make([]models.Identity, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		id, err := s.createUser(ctx, i)
		if err != nil {
			return sum, err
		}
		identities = append(identities, id)
		sum.Users++
	}
	if len(identities) == 0 {
		return sum, nil
	}

	for i := 0; i < s.opts.Posts; i++ {
		author := identities[s.faker.Number(0, len(identities)-1)]
		post, err := s.posts.CreatePost(ctx, author, s.faker.Sentence(s.faker.Number(4, 16)))
		if err != nil {
			return sum, fmt.Errorf("create post: %w", err)
		}
		sum.Posts++

		comments := 0
		if s.opts.MaxComments > 0 {
			comments = s.faker.Number(0, s.opts.MaxComments)
		}
		for c := 0; c < comments; c++ {
			commenter := identities[s.faker.Number(0, len(identities)-1)]
			_, err := s.posts.CreateComment(ctx, commenter, service.CreateCommentInput{
				PostID: post.ID,
				Body:   s.faker.Sentence(s.faker.Number(3, 10)),
			})
			if err != nil {
				return sum, fmt.Errorf("create comment: %w", err)
			}
			sum.Comments++
		}

		for _, liker := range identities {
			if s.faker.Number(1, 100) > s.opts.LikeChance {
				continue
			}
			if _, err := s.posts.LikePost(ctx, liker, post.ID); err != nil {
				return sum, fmt.Errorf("like post: %w", err)
			}
			sum.Likes++
		}
	}

	log.Printf("Seeded %s", sum)
	return sum, nil
}

// createUser registers one account, retrying with a new name when the
// generated username is already taken.
func (s *Seeder) createUser(ctx context.Context, n int) (models.Identity, error) {
	for attempt := 0; attempt < 5; attempt++ {
		username := fmt.Sprintf("%s%d", s.faker.Username(), s.faker.Number(100, 999))
		payload, err := s.users.Register(ctx, service.RegisterInput{
			Username:        username,
			Email:           s.faker.Email(),
			Password:        DefaultPassword,
			ConfirmPassword: DefaultPassword,
		})
		if models.HasCode(err, models.CodeValidation) {
			continue
		}
		if err != nil {
			return models.Identity{}, fmt.Errorf("create user %d: %w", n, err)
		}
		return models.Identity{ID: payload.ID, Email: payload.Email, Username: payload.Username}, nil
	}
	return models.Identity{}, fmt.Errorf("create user %d: no free username after retries", n)
}
