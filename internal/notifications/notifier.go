// Package notifications publishes post activity events over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"time"

	"socialql/internal/observability"

	"github.com/redis/go-redis/v9"
)

// PostEventsChannel carries every post activity event.
const PostEventsChannel = "posts:events"

// Event types published on PostEventsChannel.
const (
	EventPostCreated    = "post.created"
	EventPostDeleted    = "post.deleted"
	EventCommentCreated = "comment.created"
	EventCommentDeleted = "comment.deleted"
	EventPostLiked      = "post.liked"
	EventPostUnliked    = "post.unliked"
)

// PostEvent is the JSON payload of a post activity notification.
type PostEvent struct {
	Type      string    `json:"type"`
	PostID    string    `json:"post_id"`
	CommentID string    `json:"comment_id,omitempty"`
	Username  string    `json:"username"`
	At        time.Time `json:"at"`
}

// Notifier provides helpers to publish events into Redis channels.
// A Notifier without a client drops every event.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends ev to PostEventsChannel.
func (n *Notifier) Publish(ctx context.Context, ev PostEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, PostEventsChannel, payload).Err()
}

// PublishAsync publishes ev and logs a failure instead of returning it.
func (n *Notifier) PublishAsync(ctx context.Context, ev PostEvent) {
	if err := n.Publish(ctx, ev); err != nil {
		observability.Logger.WarnContext(ctx, "failed to publish post event",
			"type", ev.Type,
			"post_id", ev.PostID,
			"error", err,
		)
	}
}

// StartSubscriber subscribes to PostEventsChannel and calls onEvent for each
// decodable message until ctx is cancelled.
func (n *Notifier) StartSubscriber(ctx context.Context, onEvent func(PostEvent)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, PostEventsChannel)
	// Wait for the subscription confirmation so no event published after return is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev PostEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					observability.Logger.Warn("dropping malformed post event", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()

	return nil
}
