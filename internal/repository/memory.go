package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"socialql/internal/models"

	"github.com/google/uuid"
)

// MemoryStore keeps users and posts in process memory. It backs dry-run
// seeding and tests; every aggregate update runs under one mutex.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*models.User
	posts map[string]*models.Post
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*models.User),
		posts: make(map[string]*models.Post),
	}
}

// Users returns a UserRepository view of the store.
func (m *MemoryStore) Users() UserRepository { return memoryUsers{m} }

// Posts returns a PostRepository view of the store.
func (m *MemoryStore) Posts() PostRepository { return memoryPosts{m} }

// clonePost deep-copies p so callers never share slices with the store.
func clonePost(p *models.Post) *models.Post {
	out := *p
	out.Comments = append([]models.Comment{}, p.Comments...)
	out.Likes = append([]models.Like{}, p.Likes...)
	return &out
}

type memoryUsers struct{ m *MemoryStore }

func (r memoryUsers) Create(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.users[user.Username]; ok {
		return ErrDuplicateUsername
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	stored := *user
	r.m.users[user.Username] = &stored
	return nil
}

func (r memoryUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[username]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (r memoryUsers) List(_ context.Context) ([]*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	users := make([]*models.User, 0, len(r.m.users))
	for _, u := range r.m.users {
		out := *u
		users = append(users, &out)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

type memoryPosts struct{ m *MemoryStore }

func (r memoryPosts) List(_ context.Context) ([]*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	posts := make([]*models.Post, 0, len(r.m.posts))
	for _, p := range r.m.posts {
		posts = append(posts, clonePost(p))
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (r memoryPosts) GetByID(_ context.Context, id string) (*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p, ok := r.m.posts[id]
	if !ok {
		return nil, errPostNotFound()
	}
	return clonePost(p), nil
}

func (r memoryPosts) Create(_ context.Context, post *models.Post) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	post.Normalize()
	r.m.posts[post.ID] = clonePost(post)
	return nil
}

func (r memoryPosts) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.posts[id]; !ok {
		return errPostNotFound()
	}
	delete(r.m.posts, id)
	return nil
}

func (r memoryPosts) mutate(id string, fn func(*models.Post) error) (*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p, ok := r.m.posts[id]
	if !ok {
		return nil, errPostNotFound()
	}
	next := clonePost(p)
	if err := fn(next); err != nil {
		return nil, err
	}
	r.m.posts[id] = next
	return clonePost(next), nil
}

func (r memoryPosts) AddComment(_ context.Context, postID string, comment *models.Comment) (*models.Post, error) {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	return r.mutate(postID, func(p *models.Post) error {
		p.AddComment(*comment)
		return nil
	})
}

func (r memoryPosts) RemoveComment(_ context.Context, postID, commentID, username string) (*models.Post, error) {
	return r.mutate(postID, func(p *models.Post) error {
		return p.RemoveComment(commentID, username)
	})
}

func (r memoryPosts) ToggleLike(_ context.Context, postID, username string, at time.Time) (*models.Post, error) {
	return r.mutate(postID, func(p *models.Post) error {
		p.ToggleLike(username, at)
		return nil
	})
}

// Snapshot returns the store contents as indented JSON.
func (m *MemoryStore) Snapshot() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	posts := make([]*models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		posts = append(posts, p)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return json.MarshalIndent(map[string]interface{}{"users": users, "posts": posts}, "", "  ")
}
