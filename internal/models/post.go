package models

import "time"

// Post is the aggregate root owning its comments and likes. Comments and
// likes are kept newest-first and never exist outside their post.
type Post struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Username  string    `gorm:"not null;index" json:"username"`
	UserID    string    `gorm:"not null;size:36" json:"user"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	Comments  []Comment `gorm:"serializer:json;type:text" json:"comments"`
	Likes     []Like    `gorm:"serializer:json;type:text" json:"likes"`
}

// Comment lives only inside a Post.
type Comment struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Like lives only inside a Post; at most one per username.
type Like struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikeCount is computed from the current likes, never stored.
func (p *Post) LikeCount() int {
	return len(p.Likes)
}

// CommentCount is computed from the current comments, never stored.
func (p *Post) CommentCount() int {
	return len(p.Comments)
}

// HasLike reports whether username already likes the post.
func (p *Post) HasLike(username string) bool {
	for _, l := range p.Likes {
		if l.Username == username {
			return true
		}
	}
	return false
}

// AddComment prepends c.
func (p *Post) AddComment(c Comment) {
	p.Comments = append([]Comment{c}, p.Comments...)
}

// RemoveComment deletes the comment with commentID if it belongs to username.
// A missing comment and a comment owned by someone else fail identically.
func (p *Post) RemoveComment(commentID, username string) error {
	for i, c := range p.Comments {
		if c.ID != commentID {
			continue
		}
		if c.Username != username {
			break
		}
		p.Comments = append(p.Comments[:i:i], p.Comments[i+1:]...)
		return nil
	}
	return NewForbiddenError("Action not allowed")
}

// ToggleLike removes username's like if present, otherwise prepends a new one.
// It returns true when the post ends up liked by username.
func (p *Post) ToggleLike(username string, at time.Time) bool {
	for i, l := range p.Likes {
		if l.Username == username {
			p.Likes = append(p.Likes[:i:i], p.Likes[i+1:]...)
			return false
		}
	}
	p.Likes = append([]Like{{Username: username, CreatedAt: at}}, p.Likes...)
	return true
}

// Normalize replaces nil collections with empty ones so they serialize as [].
func (p *Post) Normalize() *Post {
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	if p.Likes == nil {
		p.Likes = []Like{}
	}
	return p
}
