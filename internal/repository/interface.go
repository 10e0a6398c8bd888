package repository

import (
	"context"
	"errors"

	"github.com/publica-app/publica/internal/domain"
)

var (
	ErrPostNotFound   = errors.New("post not found")
	ErrGroupNotFound  = errors.New("group not found")
	ErrAuthorNotFound = errors.New("author not found")
)

// PostRepository defines the interface for post persistence. Listing is
// windowed: only the requested offset/limit slice is materialized.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
	ListByScope(ctx context.Context, scope domain.Scope, offset, limit int) ([]domain.Post, error)
	CountByScope(ctx context.Context, scope domain.Scope) (int, error)
}

// GroupRepository defines the interface for group reads. Groups are managed
// by external admin tooling; this service never writes them.
type GroupRepository interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
}

// AuthorRepository defines the interface for author persistence.
type AuthorRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.Author, error)
	// EnsureExists upserts the author row mirrored from auth claims.
	// Existing rows are left untouched.
	EnsureExists(ctx context.Context, author *domain.Author) error
}

// CommentRepository defines the interface for comment persistence.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByPost(ctx context.Context, postID string) ([]domain.Comment, error)
}

// FollowRepository defines the interface for follow-edge persistence.
// Follow and Unfollow are idempotent at the store level: a duplicate insert
// and a missing delete are both no-op successes.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followingID string) error
	Unfollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	FollowerCount(ctx context.Context, userID string) (int64, error)
}
