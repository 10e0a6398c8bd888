package events

import (
	"context"
	"time"
)

// Event types emitted by the service.
const (
	TypePostCreated    = "post.created"
	TypePostEdited     = "post.edited"
	TypeCommentCreated = "comment.created"
)

// Event is the JSON payload published for downstream consumers
// (feed fan-out, notifications).
type Event struct {
	Type      string    `json:"type"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	GroupSlug string    `json:"group_slug,omitempty"`
	CommentID string    `json:"comment_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes post lifecycle events. Publishing is best-effort:
// callers log failures but never fail the request over them.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// NoopPublisher is used when event publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event *Event) error { return nil }
func (NoopPublisher) Close() error                                    { return nil }

var _ Publisher = NoopPublisher{}
