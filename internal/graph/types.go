package graph

import (
	"time"

	"socialql/internal/models"

	graphql "github.com/graph-gophers/graphql-go"
)

// timeLayout renders timestamps as ISO-8601 UTC with milliseconds.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

type PostResolver struct {
	post *models.Post
}

func newPostResolver(p *models.Post) *PostResolver {
	return &PostResolver{post: p.Normalize()}
}

func (r *PostResolver) ID() graphql.ID {
	return graphql.ID(r.post.ID)
}

func (r *PostResolver) Body() string {
	return r.post.Body
}

func (r *PostResolver) CreatedAt() string {
	return formatTime(r.post.CreatedAt)
}

func (r *PostResolver) Username() string {
	return r.post.Username
}

func (r *PostResolver) LikeCount() int32 {
	return int32(r.post.LikeCount())
}

func (r *PostResolver) CommentCount() int32 {
	return int32(r.post.CommentCount())
}

func (r *PostResolver) Comments() []*CommentResolver {
	out := make([]*CommentResolver, len(r.post.Comments))
	for i := range r.post.Comments {
		out[i] = &CommentResolver{comment: r.post.Comments[i]}
	}
	return out
}

func (r *PostResolver) Likes() []*LikeResolver {
	out := make([]*LikeResolver, len(r.post.Likes))
	for i := range r.post.Likes {
		out[i] = &LikeResolver{like: r.post.Likes[i]}
	}
	return out
}

type CommentResolver struct {
	comment models.Comment
}

func (r *CommentResolver) ID() graphql.ID {
	return graphql.ID(r.comment.ID)
}

func (r *CommentResolver) CreatedAt() string {
	return formatTime(r.comment.CreatedAt)
}

func (r *CommentResolver) Username() string {
	return r.comment.Username
}

func (r *CommentResolver) Body() string {
	return r.comment.Body
}

type LikeResolver struct {
	like models.Like
}

func (r *LikeResolver) CreatedAt() string {
	return formatTime(r.like.CreatedAt)
}

func (r *LikeResolver) Username() string {
	return r.like.Username
}

// UserResolver renders a register or login result. The password never reaches it.
type UserResolver struct {
	payload *models.AuthPayload
}

func (r *UserResolver) ID() graphql.ID {
	return graphql.ID(r.payload.ID)
}

func (r *UserResolver) Email() string {
	return r.payload.Email
}

func (r *UserResolver) Token() string {
	return r.payload.Token
}

func (r *UserResolver) Username() string {
	return r.payload.Username
}

func (r *UserResolver) CreatedAt() string {
	return formatTime(r.payload.CreatedAt)
}
