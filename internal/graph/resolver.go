package graph

import (
	"context"

	"socialql/internal/auth"
	"socialql/internal/models"
	"socialql/internal/observability"
	"socialql/internal/service"

	graphql "github.com/graph-gophers/graphql-go"
	"go.opentelemetry.io/otel/attribute"
)

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	users       *service.UserService
	posts       *service.PostService
	guard       *auth.Guard
	showDetails bool
}

// NewResolver builds the root resolver. showDetails attaches internal error
// text to responses and must be off in production.
func NewResolver(users *service.UserService, posts *service.PostService, guard *auth.Guard, showDetails bool) *Resolver {
	return &Resolver{users: users, posts: posts, guard: guard, showDetails: showDetails}
}

// resolve runs fn inside a span, records the outcome metric and converts the error.
func resolve[T any](ctx context.Context, r *Resolver, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := observability.StartSpan(ctx, "graphql."+op, attribute.String("graphql.operation", op))
	out, err := fn(ctx)
	observability.EndSpan(span, err)

	if err != nil {
		gqlErr := toGraphQLError(ctx, op, err, r.showDetails)
		observability.GraphQLOperations.WithLabelValues(op, gqlErr.Code).Inc()
		var zero T
		return zero, gqlErr
	}
	observability.GraphQLOperations.WithLabelValues(op, "ok").Inc()
	return out, nil
}

// authed resolves like resolve after the Auth Guard accepts the request.
func authed[T any](ctx context.Context, r *Resolver, op string, fn func(context.Context, models.Identity) (T, error)) (T, error) {
	return resolve(ctx, r, op, func(ctx context.Context) (T, error) {
		caller, err := r.guard.Authenticate(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		ctx = context.WithValue(ctx, observability.UsernameKey, caller.Username)
		return fn(ctx, caller)
	})
}

func (r *Resolver) GetPosts(ctx context.Context) (*[]*PostResolver, error) {
	return resolve(ctx, r, "getPosts", func(ctx context.Context) (*[]*PostResolver, error) {
		posts, err := r.posts.GetPosts(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]*PostResolver, len(posts))
		for i, p := range posts {
			out[i] = newPostResolver(p)
		}
		return &out, nil
	})
}

func (r *Resolver) GetPost(ctx context.Context, args struct{ PostID graphql.ID }) (*PostResolver, error) {
	return resolve(ctx, r, "getPost", func(ctx context.Context) (*PostResolver, error) {
		post, err := r.posts.GetPost(ctx, string(args.PostID))
		if err != nil {
			return nil, err
		}
		return newPostResolver(post), nil
	})
}

type registerInput struct {
	Username        string
	Password        string
	ConfirmPassword string
	Email           string
}

func (r *Resolver) Register(ctx context.Context, args struct{ RegisterInput *registerInput }) (*UserResolver, error) {
	return resolve(ctx, r, "register", func(ctx context.Context) (*UserResolver, error) {
		in := service.RegisterInput{}
		if args.RegisterInput != nil {
			in = service.RegisterInput{
				Username:        args.RegisterInput.Username,
				Email:           args.RegisterInput.Email,
				Password:        args.RegisterInput.Password,
				ConfirmPassword: args.RegisterInput.ConfirmPassword,
			}
		}
		payload, err := r.users.Register(ctx, in)
		if err != nil {
			return nil, err
		}
		return &UserResolver{payload: payload}, nil
	})
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Username string
	Password string
}) (*UserResolver, error) {
	return resolve(ctx, r, "login", func(ctx context.Context) (*UserResolver, error) {
		payload, err := r.users.Login(ctx, service.LoginInput{Username: args.Username, Password: args.Password})
		if err != nil {
			return nil, err
		}
		return &UserResolver{payload: payload}, nil
	})
}

func (r *Resolver) CreatePost(ctx context.Context, args struct{ Body string }) (*PostResolver, error) {
	return authed(ctx, r, "createPost", func(ctx context.Context, caller models.Identity) (*PostResolver, error) {
		post, err := r.posts.CreatePost(ctx, caller, args.Body)
		if err != nil {
			return nil, err
		}
		return newPostResolver(post), nil
	})
}

func (r *Resolver) DeletePost(ctx context.Context, args struct{ PostID graphql.ID }) (*PostResolver, error) {
	return authed(ctx, r, "deletePost", func(ctx context.Context, caller models.Identity) (*PostResolver, error) {
		post, err := r.posts.DeletePost(ctx, caller, string(args.PostID))
		if err != nil {
			return nil, err
		}
		return newPostResolver(post), nil
	})
}

func (r *Resolver) CreateComment(ctx context.Context, args struct {
	PostID graphql.ID
	Body   string
}) (*PostResolver, error) {
	return authed(ctx, r, "createComment", func(ctx context.Context, caller models.Identity) (*PostResolver, error) {
		post, err := r.posts.CreateComment(ctx, caller, service.CreateCommentInput{
			PostID: string(args.PostID),
			Body:   args.Body,
		})
		if err != nil {
			return nil, err
		}
		return newPostResolver(post), nil
	})
}

func (r *Resolver) DeleteComment(ctx context.Context, args struct {
	PostID    graphql.ID
	CommentID graphql.ID
}) (*PostResolver, error) {
	return authed(ctx, r, "deleteComment", func(ctx context.Context, caller models.Identity) (*PostResolver, error) {
		post, err := r.posts.DeleteComment(ctx, caller, service.DeleteCommentInput{
			PostID:    string(args.PostID),
			CommentID: string(args.CommentID),
		})
		if err != nil {
			return nil, err
		}
		return newPostResolver(post), nil
	})
}

func (r *Resolver) LikePost(ctx context.Context, args struct{ PostID graphql.ID }) (*PostResolver, error) {
	return authed(ctx, r, "likePost", func(ctx context.Context, caller models.Identity) (*PostResolver, error) {
		post, err := r.posts.LikePost(ctx, caller, string(args.PostID))
		if err != nil {
			return nil, err
		}
		return newPostResolver(post), nil
	})
}
